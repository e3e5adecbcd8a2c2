// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"fmt"
	"strings"
	"unicode"

	"philbox/config"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/domain/service"

	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxPasswordBytes is the input limit of bcrypt itself.
const bcryptMaxPasswordBytes = 72

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost     int
	strength config.PasswordStrengthConfig
}

// NewBcryptHasher is the constructor for bcryptHasher.
// It returns the implementation as a service.PasswordHasher interface.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	cost := bcrypt.DefaultCost
	if cfg != nil && cfg.Auth != nil && cfg.Auth.BcryptCost != 0 {
		cost = cfg.Auth.BcryptCost
	}

	strength := defaultPasswordStrength()
	if cfg != nil && cfg.PasswordStrength != nil {
		strength = *cfg.PasswordStrength
	}

	return newBcryptHasher(cost, strength)
}

func newBcryptHasher(cost int, strength config.PasswordStrengthConfig) *bcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if strength.MaxLength == 0 || strength.MaxLength > bcryptMaxPasswordBytes {
		strength.MaxLength = bcryptMaxPasswordBytes
	}

	return &bcryptHasher{cost: cost, strength: strength}
}

func defaultPasswordStrength() config.PasswordStrengthConfig {
	return config.PasswordStrengthConfig{
		MinLength:        8,
		MaxLength:        bcryptMaxPasswordBytes,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumbers:   true,
	}
}

// Hash generates a salted hash from a plaintext password using bcrypt.
// bcrypt automatically handles salt generation.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", domainerrors.ErrPasswordHashFailed.WrapMessage(err.Error())
	}

	return string(bytes), nil
}

// Check compares a plaintext password with a bcrypt hash.
func (h *bcryptHasher) Check(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	// err is nil if the password and hash match.
	return err == nil
}

// ValidatePasswordStrength applies the configured rules and names the first one violated.
func (h *bcryptHasher) ValidatePasswordStrength(password string) error {
	rules := h.strength
	switch {
	case len(password) < rules.MinLength:
		return domainerrors.ErrPasswordStrength.WithDetails(fmt.Sprintf("must be at least %d characters long", rules.MinLength))
	case len(password) > rules.MaxLength:
		return domainerrors.ErrPasswordStrength.WithDetails(fmt.Sprintf("must be at most %d bytes long", rules.MaxLength))
	case rules.RequireLowercase && !hasRune(password, unicode.IsLower):
		return domainerrors.ErrPasswordStrength.WithDetails("must contain at least one lowercase letter")
	case rules.RequireUppercase && !hasRune(password, unicode.IsUpper):
		return domainerrors.ErrPasswordStrength.WithDetails("must contain at least one uppercase letter")
	case rules.RequireNumbers && !hasRune(password, unicode.IsDigit):
		return domainerrors.ErrPasswordStrength.WithDetails("must contain at least one number")
	case rules.RequireSpecial && !hasSpecialChars(password):
		return domainerrors.ErrPasswordStrength.WithDetails("must contain at least one special character")
	}

	return nil
}

func hasRune(s string, pred func(rune) bool) bool {
	return strings.IndexFunc(s, pred) >= 0
}

func hasSpecialChars(s string) bool {
	return hasRune(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

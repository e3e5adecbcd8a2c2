package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"philbox/config"
	"philbox/internal/domain/service"
	"philbox/internal/errors"
)

const (
	opaqueTokenBytes  = 32
	sessionTokenBytes = 32
	defaultOTPLength  = 6
	defaultOTPTTL     = 5 * time.Minute
)

// tokenService issues random link tokens, one-time codes and session identifiers.
type tokenService struct {
	otpLength int
	otpTTL    time.Duration
}

// NewTokenService is the constructor for tokenService.
func NewTokenService(cfg *config.Config) service.TokenService {
	svc := &tokenService{otpLength: defaultOTPLength, otpTTL: defaultOTPTTL}
	if cfg != nil && cfg.Auth != nil {
		if cfg.Auth.OTPLength > 0 {
			svc.otpLength = cfg.Auth.OTPLength
		}
		if cfg.Auth.OTPTTL > 0 {
			svc.otpTTL = cfg.Auth.OTPTTL
		}
	}

	return svc
}

// IssueOpaqueToken returns a hex token for an email link and its sha256 hash.
func (s *tokenService) IssueOpaqueToken() (string, string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrap(err, "failed to read random bytes")
	}
	plain := hex.EncodeToString(buf)

	return plain, s.HashToken(plain), nil
}

// HashToken returns the hex sha256 of a presented token.
func (s *tokenService) HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))

	return hex.EncodeToString(sum[:])
}

// GenerateOTP draws each digit uniformly so leading zeros are as likely as any other digit.
func (s *tokenService) GenerateOTP(now time.Time) (string, time.Time, error) {
	var b strings.Builder
	b.Grow(s.otpLength)
	ten := big.NewInt(10)
	for range s.otpLength {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", time.Time{}, errors.Wrap(err, "failed to generate otp digit")
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), now.Add(s.otpTTL), nil
}

// NewSessionToken returns a URL-safe random session identifier.
func (s *tokenService) NewSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

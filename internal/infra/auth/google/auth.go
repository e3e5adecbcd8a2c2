// Package google verifies Google Sign-In ID tokens.
package google

import (
	"context"
	"log/slog"

	"philbox/config"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/domain/service"

	"github.com/pkg/errors"
	"google.golang.org/api/idtoken"
)

// validateFunc matches idtoken.Validate so tests can substitute it.
type validateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// AuthServiceImpl implements service.IdentityVerifier for Google ID tokens.
type AuthServiceImpl struct {
	clientID string
	validate validateFunc
	logger   *slog.Logger
}

// NewAuthService creates a new Google identity verifier
func NewAuthService(cfg *config.Config, logger *slog.Logger) service.IdentityVerifier {
	clientID := ""
	if cfg != nil && cfg.GoogleOAuth != nil {
		clientID = cfg.GoogleOAuth.ClientID
	}

	return &AuthServiceImpl{
		clientID: clientID,
		validate: idtoken.Validate,
		logger:   logger,
	}
}

// VerifyGoogleIDToken checks signature, issuer, audience and expiry, then extracts the identity.
func (s *AuthServiceImpl) VerifyGoogleIDToken(ctx context.Context, idToken string) (*service.GoogleIdentity, error) {
	if s.clientID == "" {
		return nil, domainerrors.ErrOAuthTokenInvalid.WrapMessage("google sign-in is not configured")
	}

	payload, err := s.validate(ctx, idToken, s.clientID)
	if err != nil {
		s.logger.Warn("Google ID token rejected", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrOAuthTokenInvalid, err.Error())
	}

	identity := identityFromClaims(payload)
	if identity.Email == "" {
		return nil, domainerrors.ErrOAuthTokenInvalid.WrapMessage("token carries no email")
	}
	if !identity.EmailVerified {
		return nil, domainerrors.ErrOAuthTokenInvalid.WrapMessage("email not verified")
	}

	s.logger.Debug("Google ID token verified", slog.String("subject", identity.Subject))

	return identity, nil
}

func identityFromClaims(payload *idtoken.Payload) *service.GoogleIdentity {
	identity := &service.GoogleIdentity{Subject: payload.Subject}
	if v, ok := payload.Claims["email"].(string); ok {
		identity.Email = v
	}
	if v, ok := payload.Claims["email_verified"].(bool); ok {
		identity.EmailVerified = v
	}
	if v, ok := payload.Claims["name"].(string); ok {
		identity.Name = v
	}
	if v, ok := payload.Claims["picture"].(string); ok {
		identity.Picture = v
	}

	return identity
}

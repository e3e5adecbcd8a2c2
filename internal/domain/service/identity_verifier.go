package service

import "context"

// GoogleIdentity is the verified subset of a Google ID token.
type GoogleIdentity struct {
	Subject       string // Google's stable 'sub' claim
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// IdentityVerifier checks ID tokens issued by external identity providers.
type IdentityVerifier interface {
	// VerifyGoogleIDToken validates the signature and audience of a Google ID token.
	VerifyGoogleIDToken(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

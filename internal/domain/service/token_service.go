package service

import "time"

// TokenService issues the opaque secrets used for email links, second factors and sessions.
// Only hashes of link tokens are ever persisted.
type TokenService interface {
	// IssueOpaqueToken returns a random token for a link together with the hash to store.
	IssueOpaqueToken() (plain string, hash string, err error)

	// HashToken recomputes the stored form of a presented token.
	HashToken(plain string) string

	// GenerateOTP returns a numeric one-time code and its expiry relative to now.
	GenerateOTP(now time.Time) (code string, expiresAt time.Time, err error)

	// NewSessionToken returns a random session identifier for the cookie.
	NewSessionToken() (string, error)
}

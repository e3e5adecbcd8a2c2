package repository

import (
	"context"
	"time"

	"philbox/internal/domain/entity"
	"philbox/internal/errors"
)

// ErrSessionNotFound is returned when no live session exists for a token.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps server-side sessions keyed by their opaque token.
type SessionStore interface {
	// Get loads a live session. Expired or unknown tokens yield ErrSessionNotFound.
	Get(ctx context.Context, token string) (*entity.Session, error)

	// Save writes the session and renews its time to live.
	Save(ctx context.Context, sess *entity.Session, ttl time.Duration) error

	// Touch moves the expiry of a live session to expiresAt and renews its time to live
	// without rewriting the slots. Unknown tokens yield ErrSessionNotFound.
	Touch(ctx context.Context, token string, expiresAt time.Time, ttl time.Duration) error

	// Delete removes the session. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}

// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"philbox/internal/domain/entity"
	"philbox/internal/errors"

	"github.com/google/uuid"
)

// Domain-specific errors for actor persistence.
var (
	// ErrActorNotFound is returned when no actor of the requested kind matches.
	ErrActorNotFound = errors.New("actor not found")
	// ErrActorEmailTaken is returned when the email is already registered for the kind.
	ErrActorEmailTaken = errors.New("actor email already registered")
)

// ActorRepository persists one actor kind. Each instance is bound to the table of a single kind.
type ActorRepository interface {
	// Kind returns the actor kind this repository is bound to.
	Kind() entity.ActorKind

	// FindByID retrieves an actor by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Actor, error)

	// FindByIDPrimary retrieves an actor by ID, always reading from the primary database.
	FindByIDPrimary(ctx context.Context, id uuid.UUID) (*entity.Actor, error)

	// FindByEmail retrieves an actor by its normalized email.
	FindByEmail(ctx context.Context, email string) (*entity.Actor, error)

	// FindByOAuthSubject retrieves an actor linked to an external identity.
	FindByOAuthSubject(ctx context.Context, provider, subject string) (*entity.Actor, error)

	// FindByResetToken retrieves the actor holding a reset token hash that has not expired at now.
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*entity.Actor, error)

	// FindByVerificationToken retrieves the unverified actor holding a live verification token hash.
	FindByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*entity.Actor, error)

	// Create persists a new actor.
	Create(ctx context.Context, actor *entity.Actor) error

	// LinkOAuth attaches an external identity and marks the actor verified, only while
	// the actor has no identity linked. It reports whether a row was updated.
	LinkOAuth(ctx context.Context, id uuid.UUID, provider, subject string, now time.Time) (bool, error)

	// SetOTP stores a second-factor code, replacing any outstanding one.
	SetOTP(ctx context.Context, id uuid.UUID, code string, expiresAt, now time.Time) error

	// ConsumeOTP clears the code only if it still matches and has not expired at now.
	// It reports whether a row was updated, so a code can be redeemed at most once.
	ConsumeOTP(ctx context.Context, id uuid.UUID, code string, now time.Time) (bool, error)

	// SetResetToken stores a reset token hash and its expiry.
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt, now time.Time) error

	// ConsumeResetToken swaps in the new password hash and clears the token in one statement,
	// only while tokenHash is still live at now.
	ConsumeResetToken(ctx context.Context, id uuid.UUID, tokenHash, passwordHash string, now time.Time) (bool, error)

	// MarkVerified sets the verified flag and clears the verification token while it is still live.
	MarkVerified(ctx context.Context, id uuid.UUID, tokenHash string, now time.Time) (bool, error)

	// UpdateStatus changes the account status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.AccountStatus, now time.Time) error

	// UpdateLastLogin records a successful login instant.
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// UpdateTwoFactor toggles the second-factor requirement.
	UpdateTwoFactor(ctx context.Context, id uuid.UUID, enabled bool, now time.Time) error
}

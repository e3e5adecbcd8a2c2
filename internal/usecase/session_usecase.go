package usecase

import (
	"context"

	"philbox/internal/domain/entity"

	"github.com/google/uuid"
)

// SessionUsecase manages the per-kind slots of a request's session.
type SessionUsecase interface {
	// Load returns the stored session for token, or a new empty one.
	Load(ctx context.Context, token string) (*entity.Session, error)

	// BeginPending marks actorID as awaiting its second factor for kind.
	BeginPending(ctx context.Context, sess *entity.Session, kind entity.ActorKind, actorID uuid.UUID) error

	// Promote grants kind full access as actorID.
	Promote(ctx context.Context, sess *entity.Session, kind entity.ActorKind, actorID uuid.UUID) error

	// Destroy clears the slot of kind and reports whether one existed.
	Destroy(ctx context.Context, sess *entity.Session, kind entity.ActorKind) (bool, error)

	// Resolve returns the live actor behind an authenticated slot.
	Resolve(ctx context.Context, sess *entity.Session, kind entity.ActorKind) (*entity.Actor, error)
}

package service

import (
	"context"

	"philbox/internal/domain/entity"
)

// Realtime event names.
const (
	EventNewApplication      = "application:new"
	EventApplicationApproved = "application:approved"
	EventApplicationRejected = "application:rejected"
)

// RealtimeNotifier pushes best-effort events to connected clients.
type RealtimeNotifier interface {
	// EmitToActor targets a single actor.
	EmitToActor(ctx context.Context, kind entity.ActorKind, actorID string, event string, payload map[string]string) error

	// EmitToKind broadcasts to every actor of a kind.
	EmitToKind(ctx context.Context, kind entity.ActorKind, event string, payload map[string]string) error
}

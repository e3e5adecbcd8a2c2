package repository

import (
	"context"

	"philbox/internal/domain/entity"

	"github.com/google/uuid"
)

// ActivityLogFilter narrows List. Zero fields match everything.
type ActivityLogFilter struct {
	ActorKind entity.ActorKind
	ActorID   uuid.UUID
	Action    string
	Limit     int
	Offset    int
}

// ActivityLogRepository stores audit records delivered by the audit worker.
type ActivityLogRepository interface {
	// Append stores a record once. It reports false when the ID was already stored,
	// which happens when the broker redelivers a message.
	Append(ctx context.Context, record *entity.AuditRecord) (bool, error)

	// List returns matching records newest first along with the total match count.
	List(ctx context.Context, filter ActivityLogFilter) ([]*entity.AuditRecord, int64, error)
}

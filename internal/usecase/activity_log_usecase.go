package usecase

import (
	"context"

	"philbox/internal/domain/entity"

	"github.com/google/uuid"
)

// ActivityLogListInput filters the stored activity trail.
type ActivityLogListInput struct {
	ActorKind entity.ActorKind
	ActorID   uuid.UUID
	Action    string
	Limit     int
	Offset    int
}

// ActivityLogListOutput is one page of the activity trail.
type ActivityLogListOutput struct {
	Items []*entity.AuditRecord
	Total int64
}

// ActivityLogUsecase stores audit records consumed from the broker and serves them to admins.
type ActivityLogUsecase interface {
	// Ingest stores one record. It reports false for a duplicate delivery.
	Ingest(ctx context.Context, record *entity.AuditRecord) (bool, error)
	List(ctx context.Context, input ActivityLogListInput) (*ActivityLogListOutput, error)
}

package service

import (
	"context"

	"philbox/internal/domain/entity"
)

// AuditSink receives append-only activity records.
type AuditSink interface {
	Record(ctx context.Context, record entity.AuditRecord) error
}

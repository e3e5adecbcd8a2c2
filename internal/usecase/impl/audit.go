package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	"philbox/internal/domain/service"

	"github.com/google/uuid"
)

// auditEntry is what a use case knows about an activity; request metadata is added by the auditor.
type auditEntry struct {
	actor       *entity.Actor
	action      string
	description string
	collection  string
	resourceID  string
	changes     map[string]any
	at          time.Time
}

// auditor records activities after the state change they describe. Failures are logged only.
type auditor struct {
	sink    service.AuditSink
	metrics service.MetricsRecorder
}

func newAuditor(sink service.AuditSink, metrics service.MetricsRecorder) *auditor {
	if metrics == nil {
		metrics = service.NopMetrics{}
	}

	return &auditor{sink: sink, metrics: metrics}
}

func (a *auditor) record(ctx context.Context, logger *slog.Logger, entry auditEntry) {
	if a == nil || a.sink == nil || entry.actor == nil {
		return
	}

	client := deliverycontext.GetClientInfo(ctx)
	record := entity.AuditRecord{
		ID:                 uuid.New(),
		ActorKind:          entry.actor.Kind,
		ActorID:            entry.actor.ID,
		Action:             entry.action,
		Description:        entry.description,
		ResourceCollection: entry.collection,
		ResourceID:         entry.resourceID,
		Changes:            entry.changes,
		IPAddress:          client.IP,
		UserAgent:          client.UserAgent,
		RequestID:          deliverycontext.GetRequestIDFromContext(ctx),
		OccurredAt:         entry.at,
	}

	if err := a.sink.Record(ctx, record); err != nil {
		a.metrics.CollaboratorFailure(service.CollaboratorAudit)
		logger.Warn("Failed to record audit entry",
			slog.String("action", entry.action),
			slog.String("actorID", entry.actor.ID.String()),
			slog.Any("error", err))
	}
}

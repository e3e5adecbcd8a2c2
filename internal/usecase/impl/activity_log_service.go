package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/domain/repository"
	"philbox/internal/domain/service"
	"philbox/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	defaultActivityPageSize = 50
	maxActivityPageSize     = 200
)

// activityLogService implements the ActivityLogUsecase interface.
type activityLogService struct {
	logs   repository.ActivityLogRepository
	clock  service.Clock
	logger *slog.Logger
}

// ActivityLogServiceParams holds dependencies for ActivityLogService, injected by Fx.
type ActivityLogServiceParams struct {
	fx.In

	Logs   repository.ActivityLogRepository
	Clock  service.Clock
	Logger *slog.Logger
}

// NewActivityLogService is the constructor for activityLogService.
func NewActivityLogService(params ActivityLogServiceParams) usecase.ActivityLogUsecase {
	return &activityLogService{
		logs:   params.Logs,
		clock:  params.Clock,
		logger: params.Logger,
	}
}

// Ingest validates a consumed record and appends it once.
func (srv *activityLogService) Ingest(ctx context.Context, record *entity.AuditRecord) (bool, error) {
	if record == nil {
		return false, domainerrors.ErrValidationFailed.WithDetails("empty activity record")
	}

	record.Action = strings.TrimSpace(record.Action)
	var missing []string
	if record.ID == uuid.Nil {
		missing = append(missing, "id")
	}
	if record.ActorID == uuid.Nil {
		missing = append(missing, "actorId")
	}
	if record.Action == "" {
		missing = append(missing, "action")
	}
	if len(missing) > 0 {
		return false, domainerrors.ErrValidationFailed.WithDetails("missing fields: " + strings.Join(missing, ", "))
	}
	if !record.ActorKind.Valid() {
		return false, domainerrors.ErrValidationFailed.WithDetails("unknown actor kind: " + string(record.ActorKind))
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = srv.clock.Now()
	}

	inserted, err := srv.logs.Append(ctx, record)
	if err != nil {
		return false, errors.Wrap(err, "failed to store activity record")
	}

	logger := deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
	if !inserted {
		logger.Info("Duplicate activity record skipped", slog.String("audit_id", record.ID.String()))

		return false, nil
	}
	logger.Debug("Activity record stored",
		slog.String("audit_id", record.ID.String()),
		slog.String("action", record.Action),
		slog.String("actor_kind", string(record.ActorKind)),
	)

	return true, nil
}

// List returns one page of the trail, newest first.
func (srv *activityLogService) List(ctx context.Context, input usecase.ActivityLogListInput) (*usecase.ActivityLogListOutput, error) {
	if input.ActorKind != "" && !input.ActorKind.Valid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown actor kind: " + string(input.ActorKind))
	}

	limit := input.Limit
	switch {
	case limit <= 0:
		limit = defaultActivityPageSize
	case limit > maxActivityPageSize:
		limit = maxActivityPageSize
	}

	records, total, err := srv.logs.List(ctx, repository.ActivityLogFilter{
		ActorKind: input.ActorKind,
		ActorID:   input.ActorID,
		Action:    strings.TrimSpace(input.Action),
		Limit:     limit,
		Offset:    max(input.Offset, 0),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list activity records")
	}

	return &usecase.ActivityLogListOutput{Items: records, Total: total}, nil
}

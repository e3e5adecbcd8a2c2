package postgres

import (
	"context"

	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/domain/repository"
	"philbox/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activityLogRepository implements repository.ActivityLogRepository using GORM.
type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository is the constructor for activityLogRepository.
func NewActivityLogRepository(db *gorm.DB) repository.ActivityLogRepository {
	return &activityLogRepository{db: db}
}

// Append inserts the record and ignores a duplicate ID.
func (repo *activityLogRepository) Append(ctx context.Context, record *entity.AuditRecord) (bool, error) {
	logM := fromActivityLogDomain(record)

	result := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(logM)
	if result.Error != nil {
		if isNotNullConstraintViolation(result.Error) {
			return false, domainerrors.ErrValidationFailed.WrapMessage("missing required activity information")
		}

		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to append activity log")
	}

	return result.RowsAffected == 1, nil
}

// List returns matching records ordered by occurrence, newest first.
func (repo *activityLogRepository) List(ctx context.Context, filter repository.ActivityLogFilter) ([]*entity.AuditRecord, int64, error) {
	query := repo.db.WithContext(ctx).Model(&model.ActivityLogModel{})
	if filter.ActorKind != "" {
		query = query.Where("actor_kind = ?", string(filter.ActorKind))
	}
	if filter.ActorID != uuid.Nil {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count activity logs")
	}

	var logModels []model.ActivityLogModel
	err := query.
		Order("occurred_at DESC").
		Order("id ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&logModels).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list activity logs")
	}

	records := make([]*entity.AuditRecord, 0, len(logModels))
	for i := range logModels {
		records = append(records, toActivityLogDomain(&logModels[i]))
	}

	return records, total, nil
}

// --- Mapper Functions ---

func toActivityLogDomain(data *model.ActivityLogModel) *entity.AuditRecord {
	if data == nil {
		return nil
	}

	return &entity.AuditRecord{
		ID:                 data.ID,
		ActorKind:          entity.ActorKind(data.ActorKind),
		ActorID:            data.ActorID,
		Action:             data.Action,
		Description:        data.Description,
		ResourceCollection: data.ResourceCollection,
		ResourceID:         data.ResourceID,
		Changes:            data.Changes,
		IPAddress:          data.IPAddress,
		UserAgent:          data.UserAgent,
		RequestID:          data.RequestID,
		OccurredAt:         data.OccurredAt,
	}
}

func fromActivityLogDomain(data *entity.AuditRecord) *model.ActivityLogModel {
	if data == nil {
		return nil
	}

	changes := data.Changes
	if changes == nil {
		changes = map[string]any{}
	}

	return &model.ActivityLogModel{
		ID:                 data.ID,
		ActorKind:          string(data.ActorKind),
		ActorID:            data.ActorID,
		Action:             data.Action,
		Description:        data.Description,
		ResourceCollection: data.ResourceCollection,
		ResourceID:         data.ResourceID,
		Changes:            changes,
		IPAddress:          data.IPAddress,
		UserAgent:          data.UserAgent,
		RequestID:          data.RequestID,
		OccurredAt:         data.OccurredAt.UTC(),
	}
}

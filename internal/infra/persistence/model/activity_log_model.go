package model

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLogModel is the GORM-specific struct for the 'activity_logs' table.
// Rows are append-only and keyed by the audit record ID.
type ActivityLogModel struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ActorKind          string         `gorm:"type:varchar(20);not null"`
	ActorID            uuid.UUID      `gorm:"type:uuid;not null"`
	Action             string         `gorm:"type:varchar(64);not null"`
	Description        string         `gorm:"type:text"`
	ResourceCollection string         `gorm:"type:varchar(64)"`
	ResourceID         string         `gorm:"type:varchar(64)"`
	Changes            map[string]any `gorm:"type:jsonb;serializer:json"`
	IPAddress          string         `gorm:"type:varchar(64)"`
	UserAgent          string         `gorm:"type:text"`
	RequestID          string         `gorm:"type:varchar(128)"`
	OccurredAt         time.Time      `gorm:"not null"`
	CreatedAt          time.Time
}

// TableName explicitly sets the table name for GORM.
func (ActivityLogModel) TableName() string {
	return "activity_logs"
}

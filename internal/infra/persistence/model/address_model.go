package model

import (
	"time"

	"github.com/google/uuid"
)

// AddressModel is the GORM-specific struct for the 'addresses' table.
// Each customer owns at most one row.
type AddressModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Street        string    `gorm:"type:varchar(255);not null"`
	Town          string    `gorm:"type:varchar(100)"`
	City          string    `gorm:"type:varchar(100);not null"`
	Province      string    `gorm:"type:varchar(100)"`
	ZipCode       string    `gorm:"type:varchar(20)"`
	Country       string    `gorm:"type:varchar(100)"`
	GoogleMapLink string    `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName explicitly sets the table name for GORM.
func (AddressModel) TableName() string {
	return "addresses"
}

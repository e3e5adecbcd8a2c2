package model

import (
	"time"

	"github.com/google/uuid"
)

// ActorModel mirrors the columns shared by the admins, doctors, customers and
// salespersons tables. The table is chosen per query with db.Table.
type ActorModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email    string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName string    `gorm:"type:varchar(150);not null"`

	PasswordHash  *string `gorm:"type:varchar(255)"`
	OAuthProvider string  `gorm:"column:oauth_provider;type:varchar(50)"`
	OAuthSubject  string  `gorm:"column:oauth_subject;type:varchar(255)"`

	ContactNumber string `gorm:"type:varchar(30)"`
	Gender        string `gorm:"type:varchar(20)"`
	DateOfBirth   *time.Time

	IsVerified            bool   `gorm:"not null;default:false"`
	VerificationTokenHash string `gorm:"type:varchar(64);index"`
	VerificationExpiresAt *time.Time

	ResetTokenHash      string `gorm:"type:varchar(64);index"`
	ResetTokenExpiresAt *time.Time

	TwoFactorEnabled bool       `gorm:"column:two_factor_enabled;not null;default:false"`
	OTPCode          string     `gorm:"column:otp_code;type:varchar(12)"`
	OTPExpiresAt     *time.Time `gorm:"column:otp_expires_at"`

	Status      string     `gorm:"type:varchar(20);not null;default:'active'"`
	RoleID      *uuid.UUID `gorm:"type:uuid"`
	LastLoginAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

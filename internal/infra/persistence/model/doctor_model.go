package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DoctorDocumentsModel is the GORM-specific struct for the 'doctor_documents' table.
type DoctorDocumentsModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	DoctorID          uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	CNIC              string    `gorm:"column:cnic;type:text"`
	MedicalLicense    string    `gorm:"type:text"`
	MBBSMDDegree      string    `gorm:"column:mbbs_md_degree;type:text"`
	SpecialistLicense string    `gorm:"type:text"`
	ExperienceLetters []string  `gorm:"type:jsonb;serializer:json"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName explicitly sets the table name for GORM.
func (DoctorDocumentsModel) TableName() string {
	return "doctor_documents"
}

// DoctorApplicationModel is the GORM-specific struct for the 'doctor_applications' table.
type DoctorApplicationModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	DoctorID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	DocumentsID uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	Comment     string     `gorm:"type:text"`
	ReviewedBy  *uuid.UUID `gorm:"type:uuid"`
	ReviewedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (DoctorApplicationModel) TableName() string {
	return "doctor_applications"
}

// EducationJSON is the stored shape of one education entry.
type EducationJSON struct {
	Degree           string `json:"degree"`
	Institution      string `json:"institution"`
	YearOfCompletion int    `json:"yearOfCompletion"`
	FileURL          string `json:"fileUrl,omitempty"`
}

// ExperienceJSON is the stored shape of one experience entry.
type ExperienceJSON struct {
	Institution string     `json:"institution"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	IsGoingOn   bool       `json:"isGoingOn"`
	FileURL     string     `json:"fileUrl,omitempty"`
}

// DoctorProfileModel is the GORM-specific struct for the 'doctor_profiles' table.
type DoctorProfileModel struct {
	DoctorID            uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Specializations     []string         `gorm:"type:jsonb;serializer:json"`
	Education           []EducationJSON  `gorm:"type:jsonb;serializer:json"`
	Experience          []ExperienceJSON `gorm:"type:jsonb;serializer:json"`
	AffiliatedHospital  string           `gorm:"type:varchar(255)"`
	ConsultationType    string           `gorm:"type:varchar(20)"`
	ConsultationFee     decimal.Decimal  `gorm:"type:numeric(10,2);not null;default:0"`
	LicenseNumber       string           `gorm:"type:varchar(100)"`
	ProfileImageURL     string           `gorm:"type:text"`
	CoverImageURL       string           `gorm:"type:text"`
	DigitalSignatureURL string           `gorm:"type:text"`
	CompletedAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName explicitly sets the table name for GORM.
func (DoctorProfileModel) TableName() string {
	return "doctor_profiles"
}

package repository

import (
	"context"
	"time"

	"philbox/internal/domain/entity"
	"philbox/internal/errors"

	"github.com/google/uuid"
)

// Domain-specific errors for doctor onboarding persistence.
var (
	// ErrDocumentsNotFound is returned when a doctor has never submitted documents.
	ErrDocumentsNotFound = errors.New("doctor documents not found")
	// ErrApplicationNotFound is returned when no application matches.
	ErrApplicationNotFound = errors.New("doctor application not found")
	// ErrProfileNotFound is returned when a doctor has no profile record.
	ErrProfileNotFound = errors.New("doctor profile not found")
)

// ApplicationFilter narrows ListApplications. A zero value lists everything.
type ApplicationFilter struct {
	Status entity.ApplicationStatus
	Limit  int
	Offset int
}

// ApplicationDecision is the review outcome written by TransitionApplication.
type ApplicationDecision struct {
	Status     entity.ApplicationStatus
	Comment    string
	ReviewedBy uuid.UUID
	ReviewedAt time.Time
}

// DoctorRepository persists onboarding records: documents, applications and profiles.
type DoctorRepository interface {
	// FindDocuments retrieves the documents record for a doctor.
	FindDocuments(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorDocuments, error)

	// SaveDocuments inserts or updates the single documents record of a doctor.
	// On return docs.ID is the ID of the stored row.
	SaveDocuments(ctx context.Context, docs *entity.DoctorDocuments) error

	// FindApplicationByDoctor retrieves the application of a doctor.
	FindApplicationByDoctor(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorApplication, error)

	// FindApplication retrieves an application by ID.
	FindApplication(ctx context.Context, id uuid.UUID) (*entity.DoctorApplication, error)

	// ListApplications returns applications, newest first.
	ListApplications(ctx context.Context, filter ApplicationFilter) ([]*entity.DoctorApplication, int64, error)

	// CreateApplication inserts a pending application. It reports false when the
	// documents record already has an application.
	CreateApplication(ctx context.Context, app *entity.DoctorApplication) (bool, error)

	// ReopenApplication resets the application to pending, clearing the previous decision,
	// only while its current status is one of from. It reports whether a row changed.
	ReopenApplication(ctx context.Context, app *entity.DoctorApplication, from ...entity.ApplicationStatus) (bool, error)

	// TransitionApplication applies a decision only while the current status is not in excluded.
	// It reports whether a row changed, which makes concurrent decisions lose cleanly.
	TransitionApplication(ctx context.Context, id uuid.UUID, decision ApplicationDecision, excluded ...entity.ApplicationStatus) (bool, error)

	// FindProfile retrieves a doctor's profile.
	FindProfile(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorProfile, error)

	// SaveProfile inserts or updates a doctor's profile.
	SaveProfile(ctx context.Context, profile *entity.DoctorProfile) error
}

package usecase

import (
	"context"

	"philbox/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentFiles maps each document field to locally staged file paths.
// Only experience letters may carry more than one file.
type DocumentFiles map[entity.DocumentField][]string

// ApplicationOutput is returned by submission and status queries.
type ApplicationOutput struct {
	Application *entity.DoctorApplication
	Documents   *entity.DoctorDocuments
	Message     string
	NextStep    entity.NextStep
}

// ProfileInput carries the post-approval profile fields and staged uploads.
// EducationFiles and ExperienceFiles are aligned by index with their entries; empty strings mean no file.
type ProfileInput struct {
	Specializations      []string
	Education            []entity.Education
	Experience           []entity.Experience
	AffiliatedHospital   string
	ConsultationType     entity.ConsultationType
	ConsultationFee      decimal.Decimal
	LicenseNumber        string
	ProfileImagePath     string
	CoverImagePath       string
	DigitalSignaturePath string
	EducationFiles       []string
	ExperienceFiles      []string
}

// ProfileOutput is returned after the profile is completed.
type ProfileOutput struct {
	Profile  *entity.DoctorProfile
	NextStep entity.NextStep
}

// OnboardingUsecase is the doctor-facing side of the onboarding pipeline.
type OnboardingUsecase interface {
	SubmitApplication(ctx context.Context, doctor *entity.Actor, files DocumentFiles) (*ApplicationOutput, error)
	ResubmitApplication(ctx context.Context, doctor *entity.Actor, files DocumentFiles) (*ApplicationOutput, error)
	GetApplicationStatus(ctx context.Context, doctor *entity.Actor) (*ApplicationOutput, error)
	CompleteProfile(ctx context.Context, doctor *entity.Actor, input ProfileInput) (*ProfileOutput, error)
	NextStep(ctx context.Context, doctor *entity.Actor) (entity.NextStep, error)
}

// ApplicationView joins an application with its doctor and documents for reviewers.
type ApplicationView struct {
	Application *entity.DoctorApplication
	Doctor      *entity.Actor
	Documents   *entity.DoctorDocuments
}

// ApplicationListInput filters the review queue.
type ApplicationListInput struct {
	Status entity.ApplicationStatus
	Limit  int
	Offset int
}

// ApplicationListOutput is one page of the review queue.
type ApplicationListOutput struct {
	Items []*ApplicationView
	Total int64
}

// ApplicationReviewUsecase is the admin-facing side of the onboarding pipeline.
type ApplicationReviewUsecase interface {
	Approve(ctx context.Context, admin *entity.Actor, applicationID uuid.UUID, comment string) (*ApplicationView, error)
	Reject(ctx context.Context, admin *entity.Actor, applicationID uuid.UUID, reason string) (*ApplicationView, error)
	ListApplications(ctx context.Context, input ApplicationListInput) (*ApplicationListOutput, error)
	GetApplication(ctx context.Context, applicationID uuid.UUID) (*ApplicationView, error)
}

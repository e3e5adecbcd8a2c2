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

// doctorRepository implements the domain.DoctorRepository interface using GORM.
type doctorRepository struct {
	db *gorm.DB
}

// NewDoctorRepository is the constructor for doctorRepository.
func NewDoctorRepository(db *gorm.DB) repository.DoctorRepository {
	return &doctorRepository{db: db}
}

// FindDocuments retrieves the documents record for a doctor.
func (repo *doctorRepository) FindDocuments(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorDocuments, error) {
	var docsM model.DoctorDocumentsModel
	err := repo.db.WithContext(ctx).Where("doctor_id = ?", doctorID).Take(&docsM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrDocumentsNotFound
		}

		return nil, errors.Wrap(err, "failed to find doctor documents")
	}

	return toDocumentsDomain(&docsM), nil
}

// SaveDocuments upserts the single documents record of a doctor.
func (repo *doctorRepository) SaveDocuments(ctx context.Context, docs *entity.DoctorDocuments) error {
	if docs.ID == uuid.Nil {
		docs.ID = uuid.New()
	}
	docsM := fromDocumentsDomain(docs)

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "doctor_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"cnic", "medical_license", "mbbs_md_degree", "specialist_license", "experience_letters", "updated_at",
			}),
		}).
		Create(docsM).Error
	if err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrDoctorNotFound.WrapMessage("invalid doctor reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to save doctor documents")
	}

	var stored model.DoctorDocumentsModel
	if err := repo.db.WithContext(ctx).Where("doctor_id = ?", docs.DoctorID).Take(&stored).Error; err != nil {
		return errors.Wrap(err, "failed to reload doctor documents")
	}
	docs.ID = stored.ID
	docs.CreatedAt = stored.CreatedAt

	return nil
}

// FindApplicationByDoctor retrieves the most recent application of a doctor.
func (repo *doctorRepository) FindApplicationByDoctor(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorApplication, error) {
	var appM model.DoctorApplicationModel
	err := repo.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("created_at DESC").
		Take(&appM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrApplicationNotFound
		}

		return nil, errors.Wrap(err, "failed to find application by doctor")
	}

	return toApplicationDomain(&appM), nil
}

// FindApplication retrieves an application by ID.
func (repo *doctorRepository) FindApplication(ctx context.Context, id uuid.UUID) (*entity.DoctorApplication, error) {
	var appM model.DoctorApplicationModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).Take(&appM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrApplicationNotFound
		}

		return nil, errors.Wrap(err, "failed to find application")
	}

	return toApplicationDomain(&appM), nil
}

// ListApplications returns one page of applications, newest first, and the filtered total.
func (repo *doctorRepository) ListApplications(ctx context.Context, filter repository.ApplicationFilter) ([]*entity.DoctorApplication, int64, error) {
	query := repo.db.WithContext(ctx).Model(&model.DoctorApplicationModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count applications")
	}

	page := query.Order("created_at DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit)
	}

	var appModels []model.DoctorApplicationModel
	if err := page.Find(&appModels).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to list applications")
	}

	apps := make([]*entity.DoctorApplication, 0, len(appModels))
	for i := range appModels {
		apps = append(apps, toApplicationDomain(&appModels[i]))
	}

	return apps, total, nil
}

// CreateApplication inserts a new application and reports false when the documents already carry one.
func (repo *doctorRepository) CreateApplication(ctx context.Context, app *entity.DoctorApplication) (bool, error) {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	appM := fromApplicationDomain(app)

	result := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "documents_id"}},
			DoNothing: true,
		}).
		Create(appM)
	if err := result.Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return false, domainerrors.ErrDoctorNotFound.WrapMessage("invalid doctor or documents reference")
		}

		return false, domainerrors.NewDatabaseExecuteError(err, "failed to create application")
	}

	return result.RowsAffected == 1, nil
}

// ReopenApplication queues the application for review again while its status is one of from.
func (repo *doctorRepository) ReopenApplication(
	ctx context.Context,
	app *entity.DoctorApplication,
	from ...entity.ApplicationStatus,
) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	statuses := make([]string, 0, len(from))
	for _, s := range from {
		statuses = append(statuses, string(s))
	}

	result := repo.db.WithContext(ctx).
		Model(&model.DoctorApplicationModel{}).
		Where("id = ? AND status IN ?", app.ID, statuses).
		Updates(map[string]any{
			"documents_id": app.DocumentsID,
			"status":       string(entity.ApplicationPending),
			"comment":      "",
			"reviewed_by":  nil,
			"reviewed_at":  nil,
			"updated_at":   app.UpdatedAt,
		})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to reopen application")
	}

	return result.RowsAffected == 1, nil
}

// TransitionApplication writes the decision only while the status is outside excluded.
func (repo *doctorRepository) TransitionApplication(
	ctx context.Context,
	id uuid.UUID,
	decision repository.ApplicationDecision,
	excluded ...entity.ApplicationStatus,
) (bool, error) {
	query := repo.db.WithContext(ctx).Model(&model.DoctorApplicationModel{}).Where("id = ?", id)
	if len(excluded) > 0 {
		statuses := make([]string, 0, len(excluded))
		for _, s := range excluded {
			statuses = append(statuses, string(s))
		}
		query = query.Where("status NOT IN ?", statuses)
	}

	result := query.Updates(map[string]any{
		"status":      string(decision.Status),
		"comment":     decision.Comment,
		"reviewed_by": decision.ReviewedBy,
		"reviewed_at": decision.ReviewedAt,
		"updated_at":  decision.ReviewedAt,
	})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to transition application")
	}

	return result.RowsAffected == 1, nil
}

// FindProfile retrieves a doctor's profile.
func (repo *doctorRepository) FindProfile(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	var profileM model.DoctorProfileModel
	if err := repo.db.WithContext(ctx).Where("doctor_id = ?", doctorID).Take(&profileM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrProfileNotFound
		}

		return nil, errors.Wrap(err, "failed to find doctor profile")
	}

	return toProfileDomain(&profileM), nil
}

// SaveProfile upserts a doctor's profile.
func (repo *doctorRepository) SaveProfile(ctx context.Context, profile *entity.DoctorProfile) error {
	profileM := fromProfileDomain(profile)

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "doctor_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"specializations", "education", "experience", "affiliated_hospital",
				"consultation_type", "consultation_fee", "license_number", "profile_image_url",
				"cover_image_url", "digital_signature_url", "completed_at", "updated_at",
			}),
		}).
		Create(profileM).Error
	if err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrDoctorNotFound.WrapMessage("invalid doctor reference")
		}
		if isCheckConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("profile violates a check constraint")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to save doctor profile")
	}

	return nil
}

// --- Mapper Functions ---

func toDocumentsDomain(data *model.DoctorDocumentsModel) *entity.DoctorDocuments {
	return &entity.DoctorDocuments{
		ID:                data.ID,
		DoctorID:          data.DoctorID,
		CNIC:              data.CNIC,
		MedicalLicense:    data.MedicalLicense,
		MBBSMDDegree:      data.MBBSMDDegree,
		SpecialistLicense: data.SpecialistLicense,
		ExperienceLetters: data.ExperienceLetters,
		CreatedAt:         data.CreatedAt,
		UpdatedAt:         data.UpdatedAt,
	}
}

func fromDocumentsDomain(data *entity.DoctorDocuments) *model.DoctorDocumentsModel {
	letters := data.ExperienceLetters
	if letters == nil {
		letters = []string{}
	}

	return &model.DoctorDocumentsModel{
		ID:                data.ID,
		DoctorID:          data.DoctorID,
		CNIC:              data.CNIC,
		MedicalLicense:    data.MedicalLicense,
		MBBSMDDegree:      data.MBBSMDDegree,
		SpecialistLicense: data.SpecialistLicense,
		ExperienceLetters: letters,
		CreatedAt:         data.CreatedAt,
		UpdatedAt:         data.UpdatedAt,
	}
}

func toApplicationDomain(data *model.DoctorApplicationModel) *entity.DoctorApplication {
	return &entity.DoctorApplication{
		ID:          data.ID,
		DoctorID:    data.DoctorID,
		DocumentsID: data.DocumentsID,
		Status:      entity.ApplicationStatus(data.Status),
		Comment:     data.Comment,
		ReviewedBy:  data.ReviewedBy,
		ReviewedAt:  data.ReviewedAt,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

func fromApplicationDomain(data *entity.DoctorApplication) *model.DoctorApplicationModel {
	return &model.DoctorApplicationModel{
		ID:          data.ID,
		DoctorID:    data.DoctorID,
		DocumentsID: data.DocumentsID,
		Status:      string(data.Status),
		Comment:     data.Comment,
		ReviewedBy:  data.ReviewedBy,
		ReviewedAt:  data.ReviewedAt,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

func toProfileDomain(data *model.DoctorProfileModel) *entity.DoctorProfile {
	education := make([]entity.Education, 0, len(data.Education))
	for _, e := range data.Education {
		education = append(education, entity.Education(e))
	}
	experience := make([]entity.Experience, 0, len(data.Experience))
	for _, e := range data.Experience {
		experience = append(experience, entity.Experience(e))
	}

	return &entity.DoctorProfile{
		DoctorID:            data.DoctorID,
		Specializations:     data.Specializations,
		Education:           education,
		Experience:          experience,
		AffiliatedHospital:  data.AffiliatedHospital,
		ConsultationType:    entity.ConsultationType(data.ConsultationType),
		ConsultationFee:     data.ConsultationFee,
		LicenseNumber:       data.LicenseNumber,
		ProfileImageURL:     data.ProfileImageURL,
		CoverImageURL:       data.CoverImageURL,
		DigitalSignatureURL: data.DigitalSignatureURL,
		CompletedAt:         data.CompletedAt,
		CreatedAt:           data.CreatedAt,
		UpdatedAt:           data.UpdatedAt,
	}
}

func fromProfileDomain(data *entity.DoctorProfile) *model.DoctorProfileModel {
	education := make([]model.EducationJSON, 0, len(data.Education))
	for _, e := range data.Education {
		education = append(education, model.EducationJSON(e))
	}
	experience := make([]model.ExperienceJSON, 0, len(data.Experience))
	for _, e := range data.Experience {
		experience = append(experience, model.ExperienceJSON(e))
	}
	specializations := data.Specializations
	if specializations == nil {
		specializations = []string{}
	}

	return &model.DoctorProfileModel{
		DoctorID:            data.DoctorID,
		Specializations:     specializations,
		Education:           education,
		Experience:          experience,
		AffiliatedHospital:  data.AffiliatedHospital,
		ConsultationType:    string(data.ConsultationType),
		ConsultationFee:     data.ConsultationFee,
		LicenseNumber:       data.LicenseNumber,
		ProfileImageURL:     data.ProfileImageURL,
		CoverImageURL:       data.CoverImageURL,
		DigitalSignatureURL: data.DigitalSignatureURL,
		CompletedAt:         data.CompletedAt,
		CreatedAt:           data.CreatedAt,
		UpdatedAt:           data.UpdatedAt,
	}
}

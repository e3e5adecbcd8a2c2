package impl

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/domain/repository"
	"philbox/internal/domain/service"
	"philbox/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

// Storage folders for profile uploads.
const (
	folderProfileImages = "doctor_profiles"
	folderCoverImages   = "doctor_covers"
	folderSignatures    = "doctor_signatures"
	folderEducation     = "doctor_education"
	folderExperience    = "doctor_experience"

	maxConcurrentUploads = 4
)

// onboardingService implements the OnboardingUsecase interface.
type onboardingService struct {
	repos     repository.RepositoryFactory
	txManager repository.TransactionManager
	uploader  service.BlobUploader
	notifier  service.RealtimeNotifier
	clock     service.Clock
	metrics   service.MetricsRecorder
	audit     *auditor
	nextSteps *nextStepResolver
	logger    *slog.Logger
}

// OnboardingServiceParams holds dependencies for OnboardingService, injected by Fx.
type OnboardingServiceParams struct {
	fx.In

	Repos     repository.RepositoryFactory
	TxManager repository.TransactionManager
	Uploader  service.BlobUploader
	Notifier  service.RealtimeNotifier
	Audit     service.AuditSink
	Clock     service.Clock
	Metrics   service.MetricsRecorder `optional:"true"`
	Logger    *slog.Logger
}

// NewOnboardingService is the constructor for onboardingService.
func NewOnboardingService(params OnboardingServiceParams) usecase.OnboardingUsecase {
	metrics := params.Metrics
	if metrics == nil {
		metrics = service.NopMetrics{}
	}

	return &onboardingService{
		repos:     params.Repos,
		txManager: params.TxManager,
		uploader:  params.Uploader,
		notifier:  params.Notifier,
		clock:     params.Clock,
		metrics:   metrics,
		audit:     newAuditor(params.Audit, metrics),
		nextSteps: newNextStepResolver(params.Repos),
		logger:    params.Logger,
	}
}

func (srv *onboardingService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// SubmitApplication uploads the doctor's documents and queues an application for review.
func (srv *onboardingService) SubmitApplication(ctx context.Context, doctor *entity.Actor, files usecase.DocumentFiles) (*usecase.ApplicationOutput, error) {
	if !doctor.IsVerified {
		return nil, domainerrors.ErrEmailNotVerified
	}

	if missing := missingRequiredFiles(files, nil); len(missing) > 0 {
		return nil, domainerrors.NewMissingFilesError(missing)
	}

	doctorRepo := srv.repos.DoctorRepo()
	existing, err := doctorRepo.FindApplicationByDoctor(ctx, doctor.ID)
	switch {
	case err == nil:
		if existing.Status.InReview() {
			return nil, domainerrors.ErrAlreadySubmitted
		}
		if existing.Status == entity.ApplicationApproved {
			return nil, domainerrors.ErrAlreadyApproved
		}
	case errors.Is(err, repository.ErrApplicationNotFound):
		existing = nil
	default:
		return nil, errors.Wrap(err, "failed to find application")
	}

	uploaded, err := srv.uploadDocuments(ctx, files)
	if err != nil {
		return nil, err
	}

	now := srv.clock.Now()
	var docs *entity.DoctorDocuments
	var app *entity.DoctorApplication
	err = srv.txManager.Execute(ctx, func(factory repository.RepositoryFactory) error {
		txRepo := factory.DoctorRepo()

		docs, err = loadOrNewDocuments(ctx, txRepo, doctor.ID)
		if err != nil {
			return err
		}
		docs.ExperienceLetters = nil
		applyUploads(docs, uploaded)
		docs.UpdatedAt = now
		if err := txRepo.SaveDocuments(ctx, docs); err != nil {
			return errors.Wrap(err, "failed to save documents")
		}

		app, err = queueApplication(ctx, txRepo, existing, doctor.ID, docs.ID, now)

		return err
	})
	if err != nil {
		return nil, err
	}

	srv.metrics.OnboardingTransition(entity.ApplicationPending)
	srv.afterSubmission(ctx, doctor, app, entity.AuditApplicationSubmit, "Doctor submitted an application", now)

	return &usecase.ApplicationOutput{
		Application: app,
		Documents:   docs,
		Message:     "Application submitted successfully",
		NextStep:    entity.NextStepWaitingApproval,
	}, nil
}

// ResubmitApplication replaces supplied documents of a rejected application and queues it again.
func (srv *onboardingService) ResubmitApplication(ctx context.Context, doctor *entity.Actor, files usecase.DocumentFiles) (*usecase.ApplicationOutput, error) {
	doctorRepo := srv.repos.DoctorRepo()

	existing, err := doctorRepo.FindApplicationByDoctor(ctx, doctor.ID)
	if errors.Is(err, repository.ErrApplicationNotFound) {
		return nil, domainerrors.ErrNoApplicationFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find application")
	}
	if existing.Status != entity.ApplicationRejected {
		return nil, domainerrors.ErrApplicationNotRejected
	}

	current, err := doctorRepo.FindDocuments(ctx, doctor.ID)
	if err != nil && !errors.Is(err, repository.ErrDocumentsNotFound) {
		return nil, errors.Wrap(err, "failed to load documents")
	}
	if errors.Is(err, repository.ErrDocumentsNotFound) {
		current = nil
	}

	if missing := missingRequiredFiles(files, current); len(missing) > 0 {
		return nil, domainerrors.NewMissingFilesError(missing)
	}

	uploaded, err := srv.uploadDocuments(ctx, files)
	if err != nil {
		return nil, err
	}

	now := srv.clock.Now()
	var docs *entity.DoctorDocuments
	var app *entity.DoctorApplication
	err = srv.txManager.Execute(ctx, func(factory repository.RepositoryFactory) error {
		txRepo := factory.DoctorRepo()

		docs, err = loadOrNewDocuments(ctx, txRepo, doctor.ID)
		if err != nil {
			return err
		}
		if len(uploaded[entity.DocumentExperienceLetters]) > 0 {
			docs.ExperienceLetters = nil
		}
		applyUploads(docs, uploaded)
		docs.UpdatedAt = now
		if err := txRepo.SaveDocuments(ctx, docs); err != nil {
			return errors.Wrap(err, "failed to save documents")
		}

		app, err = queueApplication(ctx, txRepo, existing, doctor.ID, docs.ID, now)

		return err
	})
	if err != nil {
		return nil, err
	}

	srv.metrics.OnboardingTransition(entity.ApplicationPending)
	srv.afterSubmission(ctx, doctor, app, entity.AuditApplicationResubmit, "Doctor resubmitted an application", now)

	return &usecase.ApplicationOutput{
		Application: app,
		Documents:   docs,
		Message:     "Application resubmitted successfully",
		NextStep:    entity.NextStepWaitingApproval,
	}, nil
}

// GetApplicationStatus reports where the doctor's application stands.
func (srv *onboardingService) GetApplicationStatus(ctx context.Context, doctor *entity.Actor) (*usecase.ApplicationOutput, error) {
	doctorRepo := srv.repos.DoctorRepo()

	app, err := doctorRepo.FindApplicationByDoctor(ctx, doctor.ID)
	if errors.Is(err, repository.ErrApplicationNotFound) {
		return nil, domainerrors.ErrNoApplicationFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find application")
	}

	docs, err := doctorRepo.FindDocuments(ctx, doctor.ID)
	if err != nil && !errors.Is(err, repository.ErrDocumentsNotFound) {
		return nil, errors.Wrap(err, "failed to load documents")
	}

	next, err := srv.nextSteps.resolve(ctx, doctor)
	if err != nil {
		return nil, err
	}

	return &usecase.ApplicationOutput{
		Application: app,
		Documents:   docs,
		Message:     app.Status.StatusMessage(),
		NextStep:    next,
	}, nil
}

// CompleteProfile stores the post-approval profile and activates the doctor.
func (srv *onboardingService) CompleteProfile(ctx context.Context, doctor *entity.Actor, input usecase.ProfileInput) (*usecase.ProfileOutput, error) {
	doctorRepo := srv.repos.DoctorRepo()

	app, err := doctorRepo.FindApplicationByDoctor(ctx, doctor.ID)
	if errors.Is(err, repository.ErrApplicationNotFound) {
		return nil, domainerrors.ErrApplicationNotApproved
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find application")
	}
	if app.Status != entity.ApplicationApproved {
		return nil, domainerrors.ErrApplicationNotApproved
	}

	profile, err := doctorRepo.FindProfile(ctx, doctor.ID)
	switch {
	case err == nil:
		if profile.IsComplete() {
			return nil, domainerrors.ErrProfileAlreadyCompleted
		}
	case errors.Is(err, repository.ErrProfileNotFound):
		profile = nil
	default:
		return nil, errors.Wrap(err, "failed to find profile")
	}

	if err := validateProfileInput(input); err != nil {
		return nil, err
	}

	uploads, err := srv.uploadProfileFiles(ctx, input)
	if err != nil {
		return nil, err
	}

	now := srv.clock.Now()
	if profile == nil {
		profile = &entity.DoctorProfile{DoctorID: doctor.ID, CreatedAt: now}
	}
	profile.Specializations = input.Specializations
	profile.Education = append([]entity.Education(nil), input.Education...)
	profile.Experience = append([]entity.Experience(nil), input.Experience...)
	profile.AffiliatedHospital = input.AffiliatedHospital
	profile.ConsultationType = input.ConsultationType
	profile.ConsultationFee = input.ConsultationFee
	profile.LicenseNumber = input.LicenseNumber
	uploads.applyTo(profile)
	profile.CompletedAt = &now
	profile.UpdatedAt = now

	err = srv.txManager.Execute(ctx, func(factory repository.RepositoryFactory) error {
		if err := factory.DoctorRepo().SaveProfile(ctx, profile); err != nil {
			return errors.Wrap(err, "failed to save profile")
		}

		return errors.Wrap(
			factory.ActorRepo(entity.ActorKindDoctor).UpdateStatus(ctx, doctor.ID, entity.AccountStatusActive, now),
			"failed to activate doctor",
		)
	})
	if err != nil {
		return nil, err
	}
	doctor.Status = entity.AccountStatusActive

	srv.audit.record(ctx, srv.log(ctx), auditEntry{
		actor:       doctor,
		action:      entity.AuditCompleteProfile,
		description: "Doctor completed their profile",
		collection:  "doctor_profiles",
		resourceID:  doctor.ID.String(),
		at:          now,
	})

	return &usecase.ProfileOutput{Profile: profile, NextStep: entity.NextStepDashboard}, nil
}

// NextStep derives the doctor's onboarding step from stored records.
func (srv *onboardingService) NextStep(ctx context.Context, doctor *entity.Actor) (entity.NextStep, error) {
	return srv.nextSteps.resolve(ctx, doctor)
}

func (srv *onboardingService) afterSubmission(
	ctx context.Context,
	doctor *entity.Actor,
	app *entity.DoctorApplication,
	action, description string,
	now time.Time,
) {
	srv.audit.record(ctx, srv.log(ctx), auditEntry{
		actor:       doctor,
		action:      action,
		description: description,
		collection:  "doctor_applications",
		resourceID:  app.ID.String(),
		changes:     map[string]any{"status": string(app.Status)},
		at:          now,
	})

	payload := map[string]string{
		"applicationId": app.ID.String(),
		"doctorId":      doctor.ID.String(),
		"doctorName":    doctor.FullName,
		"doctorEmail":   doctor.Email,
	}
	if err := srv.notifier.EmitToKind(ctx, entity.ActorKindAdmin, service.EventNewApplication, payload); err != nil {
		srv.metrics.CollaboratorFailure(service.CollaboratorRealtime)
		srv.log(ctx).Warn("Failed to notify admins of application", slog.String("applicationID", app.ID.String()), slog.Any("error", err))
	}
}

// missingRequiredFiles lists required fields absent from both the new files and the stored documents.
func missingRequiredFiles(files usecase.DocumentFiles, current *entity.DoctorDocuments) []string {
	var missing []string
	for _, field := range entity.RequiredDocuments() {
		if len(nonEmpty(files[field])) > 0 {
			continue
		}
		if current != nil && current.Get(field) != "" {
			continue
		}
		missing = append(missing, field.DisplayName())
	}

	return missing
}

func nonEmpty(paths []string) []string {
	out := paths[:0:0]
	for _, p := range paths {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}

	return out
}

func loadOrNewDocuments(ctx context.Context, repo repository.DoctorRepository, doctorID uuid.UUID) (*entity.DoctorDocuments, error) {
	docs, err := repo.FindDocuments(ctx, doctorID)
	if errors.Is(err, repository.ErrDocumentsNotFound) {
		return &entity.DoctorDocuments{ID: uuid.New(), DoctorID: doctorID}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load documents")
	}

	return docs, nil
}

// applyUploads copies uploaded URLs onto docs in field order.
func applyUploads(docs *entity.DoctorDocuments, uploaded map[entity.DocumentField][]string) {
	for field, urls := range uploaded {
		for _, url := range urls {
			docs.Set(field, url)
		}
	}
}

// uploadDocuments stores every staged file concurrently. Any failure aborts the whole batch.
func (srv *onboardingService) uploadDocuments(ctx context.Context, files usecase.DocumentFiles) (map[entity.DocumentField][]string, error) {
	results := make(map[entity.DocumentField][]string, len(files))
	for field, paths := range files {
		if len(nonEmpty(paths)) > 0 {
			results[field] = make([]string, len(nonEmpty(paths)))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUploads)
	var mu sync.Mutex
	for field, paths := range files {
		for i, path := range nonEmpty(paths) {
			g.Go(func() error {
				url, err := srv.uploader.Upload(gctx, path, field.Folder())
				if err != nil {
					return errors.Wrapf(err, "upload %s", field)
				}
				mu.Lock()
				results[field][i] = url
				mu.Unlock()

				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		srv.metrics.CollaboratorFailure(service.CollaboratorUpload)
		srv.log(ctx).Error("Document upload failed", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrUploadFailed, err.Error())
	}

	return results, nil
}

func validateProfileInput(input usecase.ProfileInput) error {
	if len(input.Education) == 0 {
		return domainerrors.ErrValidationFailed.WithDetails("at least one education entry is required")
	}
	switch input.ConsultationType {
	case entity.ConsultationInPerson, entity.ConsultationOnline, entity.ConsultationBoth:
	default:
		return domainerrors.ErrValidationFailed.WithDetails("consultation type must be in-person, online or both")
	}
	if input.ConsultationFee.IsNegative() {
		return domainerrors.ErrValidationFailed.WithDetails("consultation fee cannot be negative")
	}
	for _, exp := range input.Experience {
		if exp.EndDate != nil && exp.EndDate.Before(exp.StartDate) {
			return domainerrors.ErrValidationFailed.WithDetails("experience end date is before its start date")
		}
	}

	return nil
}

// profileUploads holds the URLs produced for a profile submission.
type profileUploads struct {
	profileImage string
	coverImage   string
	signature    string
	education    []string
	experience   []string
}

func (u *profileUploads) applyTo(profile *entity.DoctorProfile) {
	if u.profileImage != "" {
		profile.ProfileImageURL = u.profileImage
	}
	if u.coverImage != "" {
		profile.CoverImageURL = u.coverImage
	}
	if u.signature != "" {
		profile.DigitalSignatureURL = u.signature
	}
	for i, url := range u.education {
		if url != "" && i < len(profile.Education) {
			profile.Education[i].FileURL = url
		}
	}
	for i, url := range u.experience {
		if url != "" && i < len(profile.Experience) {
			profile.Experience[i].FileURL = url
		}
	}
}

func (srv *onboardingService) uploadProfileFiles(ctx context.Context, input usecase.ProfileInput) (*profileUploads, error) {
	out := &profileUploads{
		education:  make([]string, len(input.EducationFiles)),
		experience: make([]string, len(input.ExperienceFiles)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUploads)
	upload := func(path, folder string, dst *string) {
		if strings.TrimSpace(path) == "" {
			return
		}
		g.Go(func() error {
			url, err := srv.uploader.Upload(gctx, path, folder)
			if err != nil {
				return errors.Wrapf(err, "upload to %s", folder)
			}
			*dst = url

			return nil
		})
	}

	upload(input.ProfileImagePath, folderProfileImages, &out.profileImage)
	upload(input.CoverImagePath, folderCoverImages, &out.coverImage)
	upload(input.DigitalSignaturePath, folderSignatures, &out.signature)
	for i, path := range input.EducationFiles {
		upload(path, folderEducation, &out.education[i])
	}
	for i, path := range input.ExperienceFiles {
		upload(path, folderExperience, &out.experience[i])
	}

	if err := g.Wait(); err != nil {
		srv.metrics.CollaboratorFailure(service.CollaboratorUpload)
		srv.log(ctx).Error("Profile upload failed", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrUploadFailed, err.Error())
	}

	return out, nil
}

// queueApplication creates the first application or reopens a rejected one. A decision
// or submission that landed after existing was read makes the write match no row,
// which surfaces as the conflict the newer state implies.
func queueApplication(
	ctx context.Context,
	repo repository.DoctorRepository,
	existing *entity.DoctorApplication,
	doctorID, documentsID uuid.UUID,
	now time.Time,
) (*entity.DoctorApplication, error) {
	if existing == nil {
		app := &entity.DoctorApplication{
			ID:          uuid.New(),
			DoctorID:    doctorID,
			DocumentsID: documentsID,
			Status:      entity.ApplicationPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		created, err := repo.CreateApplication(ctx, app)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create application")
		}
		if !created {
			return nil, domainerrors.ErrAlreadySubmitted
		}

		return app, nil
	}

	app := *existing
	app.DocumentsID = documentsID
	app.ResetForReview()
	app.UpdatedAt = now
	reopened, err := repo.ReopenApplication(ctx, &app, entity.ApplicationRejected)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reopen application")
	}
	if !reopened {
		return nil, conflictingApplication(ctx, repo, app.ID)
	}

	return &app, nil
}

func conflictingApplication(ctx context.Context, repo repository.DoctorRepository, id uuid.UUID) error {
	current, err := repo.FindApplication(ctx, id)
	if err != nil {
		return errors.Wrap(err, "failed to reload application")
	}
	if current.Status == entity.ApplicationApproved {
		return domainerrors.ErrAlreadyApproved
	}

	return domainerrors.ErrAlreadySubmitted
}

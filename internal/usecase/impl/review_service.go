package impl

import (
	"context"
	"log/slog"
	"strings"

	"philbox/config"
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
	defaultApprovalComment = "Application approved"
	defaultRejectionReason = "Application rejected"

	defaultApplicationPageSize = 20
	maxApplicationPageSize     = 100
)

// reviewService implements the ApplicationReviewUsecase interface.
type reviewService struct {
	repos       repository.RepositoryFactory
	txManager   repository.TransactionManager
	email       service.EmailSender
	notifier    service.RealtimeNotifier
	clock       service.Clock
	metrics     service.MetricsRecorder
	audit       *auditor
	frontendURL string
	supportURL  string
	logger      *slog.Logger
}

// ReviewServiceParams holds dependencies for ReviewService, injected by Fx.
type ReviewServiceParams struct {
	fx.In

	Repos     repository.RepositoryFactory
	TxManager repository.TransactionManager
	Email     service.EmailSender
	Notifier  service.RealtimeNotifier
	Audit     service.AuditSink
	Clock     service.Clock
	Metrics   service.MetricsRecorder `optional:"true"`
	Config    *config.Config
	Logger    *slog.Logger
}

// NewReviewService is the constructor for reviewService.
func NewReviewService(params ReviewServiceParams) usecase.ApplicationReviewUsecase {
	metrics := params.Metrics
	if metrics == nil {
		metrics = service.NopMetrics{}
	}

	var frontendURL, supportURL string
	if params.Config != nil && params.Config.Frontend != nil {
		frontendURL = strings.TrimRight(params.Config.Frontend.BaseURL, "/")
		supportURL = params.Config.Frontend.SupportURL
	}
	if supportURL == "" {
		supportURL = frontendURL + "/support"
	}

	return &reviewService{
		repos:       params.Repos,
		txManager:   params.TxManager,
		email:       params.Email,
		notifier:    params.Notifier,
		clock:       params.Clock,
		metrics:     metrics,
		audit:       newAuditor(params.Audit, metrics),
		frontendURL: frontendURL,
		supportURL:  supportURL,
		logger:      params.Logger,
	}
}

func (srv *reviewService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Approve accepts an application and activates the doctor's account.
func (srv *reviewService) Approve(ctx context.Context, admin *entity.Actor, applicationID uuid.UUID, comment string) (*usecase.ApplicationView, error) {
	app, err := srv.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status == entity.ApplicationApproved {
		return nil, domainerrors.ErrAlreadyApproved
	}

	comment = strings.TrimSpace(comment)
	if comment == "" {
		comment = defaultApprovalComment
	}

	view, err := srv.decide(ctx, admin, app, entity.ApplicationApproved, comment, entity.AccountStatusActive,
		domainerrors.ErrAlreadyApproved, entity.ApplicationApproved)
	if err != nil {
		return nil, err
	}

	srv.notifyDecision(ctx, view, service.ApplicationDecisionMail{
		Approved: true,
		Comment:  comment,
		LinkURL:  srv.frontendURL + "/doctor/login",
	}, service.EventApplicationApproved)

	srv.audit.record(ctx, srv.log(ctx), auditEntry{
		actor:       admin,
		action:      entity.AuditApproveDoctorApplication,
		description: "Approved doctor application for " + view.Doctor.Email,
		collection:  "doctor_applications",
		resourceID:  app.ID.String(),
		changes:     map[string]any{"status": string(entity.ApplicationApproved), "comment": comment},
		at:          *app.ReviewedAt,
	})

	return view, nil
}

// Reject declines an application and suspends the doctor until they resubmit.
func (srv *reviewService) Reject(ctx context.Context, admin *entity.Actor, applicationID uuid.UUID, reason string) (*usecase.ApplicationView, error) {
	app, err := srv.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status == entity.ApplicationApproved {
		return nil, domainerrors.ErrCannotRejectApproved
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultRejectionReason
	}

	view, err := srv.decide(ctx, admin, app, entity.ApplicationRejected, reason, entity.AccountStatusSuspended,
		domainerrors.ErrCannotRejectApproved, entity.ApplicationApproved)
	if err != nil {
		return nil, err
	}

	srv.notifyDecision(ctx, view, service.ApplicationDecisionMail{
		Approved: false,
		Comment:  reason,
		LinkURL:  srv.supportURL,
	}, service.EventApplicationRejected)

	srv.audit.record(ctx, srv.log(ctx), auditEntry{
		actor:       admin,
		action:      entity.AuditRejectDoctorApplication,
		description: "Rejected doctor application for " + view.Doctor.Email,
		collection:  "doctor_applications",
		resourceID:  app.ID.String(),
		changes:     map[string]any{"status": string(entity.ApplicationRejected), "reason": reason},
		at:          *app.ReviewedAt,
	})

	return view, nil
}

// decide writes the decision and the doctor's new status in one transaction.
// The conditional transition makes a concurrent decision fail with lostErr.
func (srv *reviewService) decide(
	ctx context.Context,
	admin *entity.Actor,
	app *entity.DoctorApplication,
	status entity.ApplicationStatus,
	comment string,
	doctorStatus entity.AccountStatus,
	lostErr error,
	excluded ...entity.ApplicationStatus,
) (*usecase.ApplicationView, error) {
	now := srv.clock.Now()
	decision := repository.ApplicationDecision{
		Status:     status,
		Comment:    comment,
		ReviewedBy: admin.ID,
		ReviewedAt: now,
	}

	var doctor *entity.Actor
	var docs *entity.DoctorDocuments
	err := srv.txManager.Execute(ctx, func(factory repository.RepositoryFactory) error {
		changed, err := factory.DoctorRepo().TransitionApplication(ctx, app.ID, decision, excluded...)
		if err != nil {
			return errors.Wrap(err, "failed to update application")
		}
		if !changed {
			return lostErr
		}

		doctorRepo := factory.ActorRepo(entity.ActorKindDoctor)
		if err := doctorRepo.UpdateStatus(ctx, app.DoctorID, doctorStatus, now); err != nil {
			if errors.Is(err, repository.ErrActorNotFound) {
				return domainerrors.ErrDoctorNotFound
			}

			return errors.Wrap(err, "failed to update doctor status")
		}

		doctor, err = doctorRepo.FindByID(ctx, app.DoctorID)
		if err != nil {
			return errors.Wrap(err, "failed to reload doctor")
		}

		docs, err = factory.DoctorRepo().FindDocuments(ctx, app.DoctorID)
		if err != nil && !errors.Is(err, repository.ErrDocumentsNotFound) {
			return errors.Wrap(err, "failed to load documents")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	app.Status = status
	app.Comment = comment
	reviewer := admin.ID
	app.ReviewedBy = &reviewer
	app.ReviewedAt = &now
	app.UpdatedAt = now
	srv.metrics.OnboardingTransition(status)

	srv.log(ctx).Info("Doctor application reviewed",
		slog.String("applicationID", app.ID.String()),
		slog.String("status", string(status)),
		slog.String("adminID", admin.ID.String()))

	return &usecase.ApplicationView{Application: app, Doctor: doctor, Documents: docs}, nil
}

// notifyDecision informs the doctor by email and realtime event. Neither failure undoes the decision.
func (srv *reviewService) notifyDecision(ctx context.Context, view *usecase.ApplicationView, mail service.ApplicationDecisionMail, event string) {
	logger := srv.log(ctx)

	if err := srv.email.SendApplicationDecision(ctx, view.Doctor, mail); err != nil {
		srv.metrics.CollaboratorFailure(service.CollaboratorEmail)
		logger.Warn("Failed to send application decision email",
			slog.String("doctorID", view.Doctor.ID.String()),
			slog.Any("error", err))
	}

	payload := map[string]string{
		"applicationId": view.Application.ID.String(),
		"status":        string(view.Application.Status),
		"comment":       view.Application.Comment,
	}
	if err := srv.notifier.EmitToActor(ctx, entity.ActorKindDoctor, view.Doctor.ID.String(), event, payload); err != nil {
		srv.metrics.CollaboratorFailure(service.CollaboratorRealtime)
		logger.Warn("Failed to notify doctor of decision",
			slog.String("doctorID", view.Doctor.ID.String()),
			slog.Any("error", err))
	}
}

// ListApplications returns one page of the review queue with doctors and documents attached.
func (srv *reviewService) ListApplications(ctx context.Context, input usecase.ApplicationListInput) (*usecase.ApplicationListOutput, error) {
	if input.Status != "" && !input.Status.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown application status: " + string(input.Status))
	}

	limit := input.Limit
	switch {
	case limit <= 0:
		limit = defaultApplicationPageSize
	case limit > maxApplicationPageSize:
		limit = maxApplicationPageSize
	}
	offset := max(input.Offset, 0)

	apps, total, err := srv.repos.DoctorRepo().ListApplications(ctx, repository.ApplicationFilter{
		Status: input.Status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list applications")
	}

	items := make([]*usecase.ApplicationView, 0, len(apps))
	for _, app := range apps {
		view, err := srv.view(ctx, app)
		if err != nil {
			return nil, err
		}
		items = append(items, view)
	}

	return &usecase.ApplicationListOutput{Items: items, Total: total}, nil
}

// GetApplication returns a single application with its doctor and documents.
func (srv *reviewService) GetApplication(ctx context.Context, applicationID uuid.UUID) (*usecase.ApplicationView, error) {
	app, err := srv.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	return srv.view(ctx, app)
}

func (srv *reviewService) findApplication(ctx context.Context, id uuid.UUID) (*entity.DoctorApplication, error) {
	app, err := srv.repos.DoctorRepo().FindApplication(ctx, id)
	if errors.Is(err, repository.ErrApplicationNotFound) {
		return nil, domainerrors.ErrApplicationNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find application")
	}

	return app, nil
}

func (srv *reviewService) view(ctx context.Context, app *entity.DoctorApplication) (*usecase.ApplicationView, error) {
	doctor, err := srv.repos.ActorRepo(entity.ActorKindDoctor).FindByID(ctx, app.DoctorID)
	if err != nil && !errors.Is(err, repository.ErrActorNotFound) {
		return nil, errors.Wrap(err, "failed to load doctor")
	}

	docs, err := srv.repos.DoctorRepo().FindDocuments(ctx, app.DoctorID)
	if err != nil && !errors.Is(err, repository.ErrDocumentsNotFound) {
		return nil, errors.Wrap(err, "failed to load documents")
	}

	return &usecase.ApplicationView{Application: app, Doctor: doctor, Documents: docs}, nil
}

// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

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
	defaultVerificationTTL = 24 * time.Hour
	actorCollectionSuffix  = "s"
)

// authService implements the AuthUsecase interface.
type authService struct {
	repos       repository.RepositoryFactory
	sessions    usecase.SessionUsecase
	hasher      service.PasswordHasher
	tokens      service.TokenService
	identity    service.IdentityVerifier
	email       service.EmailSender
	clock       service.Clock
	metrics     service.MetricsRecorder
	audit       *auditor
	nextSteps   *nextStepResolver
	policies    actorPolicies
	frontendURL string
	verifyTTL   time.Duration
	logger      *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	Repos    repository.RepositoryFactory
	Sessions usecase.SessionUsecase
	Hasher   service.PasswordHasher
	Tokens   service.TokenService
	Identity service.IdentityVerifier
	Email    service.EmailSender
	Audit    service.AuditSink
	Clock    service.Clock
	Metrics  service.MetricsRecorder `optional:"true"`
	Config   *config.Config
	Logger   *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	metrics := params.Metrics
	if metrics == nil {
		metrics = service.NopMetrics{}
	}

	frontendURL := ""
	verifyTTL := defaultVerificationTTL
	if params.Config != nil {
		if params.Config.Frontend != nil {
			frontendURL = strings.TrimRight(params.Config.Frontend.BaseURL, "/")
		}
		if params.Config.Auth != nil && params.Config.Auth.VerificationTTL > 0 {
			verifyTTL = params.Config.Auth.VerificationTTL
		}
	}

	return &authService{
		repos:       params.Repos,
		sessions:    params.Sessions,
		hasher:      params.Hasher,
		tokens:      params.Tokens,
		identity:    params.Identity,
		email:       params.Email,
		clock:       params.Clock,
		metrics:     metrics,
		audit:       newAuditor(params.Audit, metrics),
		nextSteps:   newNextStepResolver(params.Repos),
		policies:    newActorPolicies(params.Config),
		frontendURL: frontendURL,
		verifyTTL:   verifyTTL,
		logger:      params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// dropSlot clears the kind's slot after a blocked account was detected.
func (srv *authService) dropSlot(ctx context.Context, sess *entity.Session, kind entity.ActorKind) {
	if _, err := srv.sessions.Destroy(ctx, sess, kind); err != nil {
		srv.log(ctx).Warn("Failed to destroy session slot", slog.String("kind", kind.String()), slog.Any("error", err))
	}
}

// Login checks credentials in the kind's order and either completes the login or starts a second-factor challenge.
func (srv *authService) Login(ctx context.Context, sess *entity.Session, input usecase.LoginInput) (*usecase.AuthResult, error) {
	policy, err := srv.policies.forKind(input.Kind)
	if err != nil {
		return nil, err
	}
	now := srv.clock.Now()
	repo := srv.repos.ActorRepo(input.Kind)

	actor, err := srv.authenticate(ctx, policy, repo, input.Email, input.Password)
	if err != nil {
		outcome := service.OutcomeFailure
		if errors.Is(err, domainerrors.ErrAccountBlocked) {
			outcome = service.OutcomeBlocked
			srv.dropSlot(ctx, sess, input.Kind)
		}
		srv.metrics.LoginAttempt(input.Kind, outcome)

		return nil, err
	}

	if policy.twoFactorCapable && actor.TwoFactorEnabled {
		return srv.beginTwoFactor(ctx, sess, repo, actor, now)
	}

	if err := repo.UpdateLastLogin(ctx, actor.ID, now); err != nil {
		return nil, errors.Wrap(err, "failed to record last login")
	}
	actor.LastLoginAt = &now

	if err := srv.sessions.Promote(ctx, sess, actor.Kind, actor.ID); err != nil {
		return nil, errors.Wrap(err, "failed to establish session")
	}

	srv.metrics.LoginAttempt(input.Kind, service.OutcomeSuccess)
	srv.audit.record(ctx, srv.log(ctx), auditEntry{
		actor:       actor,
		action:      entity.AuditLogin,
		description: fmt.Sprintf("%s logged in", actor.Kind),
		collection:  collectionFor(actor.Kind),
		resourceID:  actor.ID.String(),
		at:          now,
	})

	next, err := srv.nextSteps.resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	return &usecase.AuthResult{Actor: actor, NextStep: next, Message: "Login successful"}, nil
}

// authenticate runs lookup, status, password and verification checks in the policy's order.
func (srv *authService) authenticate(ctx context.Context, policy actorPolicy, repo repository.ActorRepository, email, password string) (*entity.Actor, error) {
	actor, err := repo.FindByEmail(ctx, entity.NormalizeEmail(email))
	if errors.Is(err, repository.ErrActorNotFound) {
		return nil, policy.notFoundErr
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find actor by email")
	}

	if policy.statusBeforePassword && policy.isBlocked(actor.Status) {
		return nil, domainerrors.ErrAccountBlocked
	}

	if !actor.HasPassword() || !srv.hasher.Check(password, *actor.PasswordHash) {
		return nil, domainerrors.ErrInvalidCredentials
	}

	if policy.requireVerifiedEmail && !actor.IsVerified {
		return nil, domainerrors.ErrEmailNotVerified
	}

	if !policy.statusBeforePassword && policy.isBlocked(actor.Status) {
		return nil, domainerrors.ErrAccountBlocked
	}

	return actor, nil
}

func (srv *authService) beginTwoFactor(
	ctx context.Context,
	sess *entity.Session,
	repo repository.ActorRepository,
	actor *entity.Actor,
	now time.Time,
) (*usecase.AuthResult, error) {
	code, expiresAt, err := srv.tokens.GenerateOTP(now)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate otp")
	}

	if err := repo.SetOTP(ctx, actor.ID, code, expiresAt, now); err != nil {
		return nil, errors.Wrap(err, "failed to store otp")
	}
	actor.OTPCode = code
	actor.OTPExpiresAt = &expiresAt

	if err := srv.email.SendOTP(ctx, actor, code); err != nil {
		srv.metrics.CollaboratorFailure(service.CollaboratorEmail)
		srv.log(ctx).Warn("Failed to send OTP email", slog.String("actorID", actor.ID.String()), slog.Any("error", err))
	}

	if err := srv.sessions.BeginPending(ctx, sess, actor.Kind, actor.ID); err != nil {
		return nil, errors.Wrap(err, "failed to record pending login")
	}

	srv.metrics.LoginAttempt(actor.Kind, service.OutcomePending2FA)

	return &usecase.AuthResult{Actor: actor, NextStep: entity.NextStepVerifyOTP, Message: "OTP sent to your email"}, nil
}

// VerifyOTP completes a pending login with the emailed code.
func (srv *authService) VerifyOTP(ctx context.Context, sess *entity.Session, input usecase.VerifyOTPInput) (*usecase.AuthResult, error) {
	policy, err := srv.policies.forKind(input.Kind)
	if err != nil {
		return nil, err
	}
	if !policy.twoFactorCapable {
		return nil, domainerrors.ErrTwoFactorUnsupported
	}
	now := srv.clock.Now()
	repo := srv.repos.ActorRepo(input.Kind)

	actor, err := repo.FindByEmail(ctx, entity.NormalizeEmail(input.Email))
	if errors.Is(err, repository.ErrActorNotFound) {
		srv.metrics.OTPVerification(input.Kind, service.OutcomeFailure)

		return nil, domainerrors.ErrInvalidRequest
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find actor by email")
	}
	if !actor.HasPendingOTP() {
		srv.metrics.OTPVerification(input.Kind, service.OutcomeFailure)

		return nil, domainerrors.ErrInvalidRequest
	}

	slot := sess.Slot(input.Kind)
	if slot == nil || slot.PendingActorID != actor.ID {
		srv.metrics.OTPVerification(input.Kind, service.OutcomeFailure)

		return nil, domainerrors.ErrInvalidSession
	}

	if !actor.OTPMatches(input.Code, now) {
		srv.metrics.OTPVerification(input.Kind, service.OutcomeFailure)

		return nil, domainerrors.ErrInvalidOrExpiredOTP
	}

	if policy.isBlocked(actor.Status) {
		srv.metrics.OTPVerification(input.Kind, service.OutcomeBlocked)
		srv.dropSlot(ctx, sess, input.Kind)

		return nil, domainerrors.ErrAccountBlocked
	}

	consumed, err := repo.ConsumeOTP(ctx, actor.ID, input.Code, now)
	if err != nil {
		return nil, errors.Wrap(err, "failed to consume otp")
	}
	if !consumed {
		srv.metrics.OTPVerification(input.Kind, service.OutcomeFailure)

		return nil, domainerrors.ErrInvalidOrExpiredOTP
	}
	actor.ClearOTP()

	if err := repo.UpdateLastLogin(ctx, actor.ID, now); err != nil {
		return nil, errors.Wrap(err, "failed to record last login")
	}
	actor.LastLoginAt = &now

	if err := srv.sessions.Promote(ctx, sess, actor.Kind, actor.ID); err != nil {
		return nil, errors.Wrap(err, "failed to establish session")
	}

	srv.metrics.OTPVerification(input.Kind, service.OutcomeSuccess)
	srv.audit.record(ctx, srv.log(ctx), auditEntry{
		actor:       actor,
		action:      entity.AuditVerifyOTP,
		description: fmt.Sprintf("%s completed two-factor login", actor.Kind),
		collection:  collectionFor(actor.Kind),
		resourceID:  actor.ID.String(),
		at:          now,
	})

	return &usecase.AuthResult{Actor: actor, NextStep: entity.NextStepDashboard, Message: "Login successful"}, nil
}

// Logout clears the kind's slot. Logging out twice is not an error.
func (srv *authService) Logout(ctx context.Context, sess *entity.Session, kind entity.ActorKind) error {
	if _, err := srv.policies.forKind(kind); err != nil {
		return err
	}

	var actorID uuid.UUID
	if slot := sess.Slot(kind); slot != nil {
		actorID = slot.ActorID
	}

	existed, err := srv.sessions.Destroy(ctx, sess, kind)
	if err != nil {
		return errors.Wrap(err, "failed to destroy session")
	}

	if existed && actorID != uuid.Nil {
		srv.audit.record(ctx, srv.log(ctx), auditEntry{
			actor:       &entity.Actor{ID: actorID, Kind: kind},
			action:      entity.AuditLogout,
			description: fmt.Sprintf("%s logged out", kind),
			collection:  collectionFor(kind),
			resourceID:  actorID.String(),
			at:          srv.clock.Now(),
		})
	}

	return nil
}

// ForgetPassword issues a single-use reset link.
func (srv *authService) ForgetPassword(ctx context.Context, input usecase.ForgetPasswordInput) (*usecase.AuthResult, error) {
	policy, err := srv.policies.forKind(input.Kind)
	if err != nil {
		return nil, err
	}
	now := srv.clock.Now()
	repo := srv.repos.ActorRepo(input.Kind)

	actor, err := repo.FindByEmail(ctx, entity.NormalizeEmail(input.Email))
	if errors.Is(err, repository.ErrActorNotFound) {
		srv.metrics.PasswordReset(input.Kind, "unknown_email")

		return nil, policy.resetNotFoundErr
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find actor by email")
	}

	plain, hash, err := srv.tokens.IssueOpaqueToken()
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue reset token")
	}
	expiresAt := now.Add(policy.resetTTL)

	if err := repo.SetResetToken(ctx, actor.ID, hash, expiresAt, now); err != nil {
		return nil, errors.Wrap(err, "failed to store reset token")
	}
	actor.ResetTokenHash = hash
	actor.ResetTokenExpiresAt = &expiresAt

	link := srv.link(policy.route, "reset-password", plain)
	if err := srv.email.SendPasswordReset(ctx, actor, link); err != nil {
		srv.metrics.CollaboratorFailure(service.CollaboratorEmail)
		srv.log(ctx).Warn("Failed to send password reset email", slog.String("actorID", actor.ID.String()), slog.Any("error", err))
	}

	srv.metrics.PasswordReset(input.Kind, "requested")
	srv.audit.record(ctx, srv.log(ctx), auditEntry{
		actor:       actor,
		action:      entity.AuditForgetPassword,
		description: fmt.Sprintf("%s requested a password reset", actor.Kind),
		collection:  collectionFor(actor.Kind),
		resourceID:  actor.ID.String(),
		at:          now,
	})

	return &usecase.AuthResult{NextStep: entity.NextStepCheckEmail, Message: "Password reset link sent to your email"}, nil
}

// ResetPassword redeems a reset token exactly once.
func (srv *authService) ResetPassword(ctx context.Context, input usecase.ResetPasswordInput) (*usecase.AuthResult, error) {
	if _, err := srv.policies.forKind(input.Kind); err != nil {
		return nil, err
	}
	now := srv.clock.Now()
	repo := srv.repos.ActorRepo(input.Kind)
	tokenHash := srv.tokens.HashToken(input.Token)

	actor, err := repo.FindByResetToken(ctx, tokenHash, now)
	if errors.Is(err, repository.ErrActorNotFound) {
		srv.metrics.PasswordReset(input.Kind, "invalid_token")

		return nil, domainerrors.ErrInvalidOrExpiredToken
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find actor by reset token")
	}

	if err := srv.hasher.ValidatePasswordStrength(input.NewPassword); err != nil {
		return nil, err
	}

	passwordHash, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	consumed, err := repo.ConsumeResetToken(ctx, actor.ID, tokenHash, passwordHash, now)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reset password")
	}
	if !consumed {
		srv.metrics.PasswordReset(input.Kind, "invalid_token")

		return nil, domainerrors.ErrInvalidOrExpiredToken
	}
	actor.PasswordHash = &passwordHash
	actor.ClearResetToken()

	srv.metrics.PasswordReset(input.Kind, "completed")
	srv.audit.record(ctx, srv.log(ctx), auditEntry{
		actor:       actor,
		action:      entity.AuditResetPassword,
		description: fmt.Sprintf("%s reset their password", actor.Kind),
		collection:  collectionFor(actor.Kind),
		resourceID:  actor.ID.String(),
		at:          now,
	})

	return &usecase.AuthResult{NextStep: entity.NextStepLogin, Message: "Password reset successful"}, nil
}

// Register creates an unverified doctor or customer and emails a verification link.
func (srv *authService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.AuthResult, error) {
	policy, err := srv.policies.forKind(input.Kind)
	if err != nil {
		return nil, err
	}
	if !policy.selfRegistration {
		return nil, domainerrors.ErrRegistrationUnsupported
	}
	now := srv.clock.Now()
	repo := srv.repos.ActorRepo(input.Kind)
	email := entity.NormalizeEmail(input.Email)

	srv.log(ctx).Info("Starting registration", slog.String("kind", input.Kind.String()), slog.String("email", email))

	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		return nil, err
	}

	_, err = repo.FindByEmail(ctx, email)
	if err == nil {
		return nil, domainerrors.ErrEmailAlreadyExists
	}
	if !errors.Is(err, repository.ErrActorNotFound) {
		return nil, errors.Wrap(err, "failed to check existing email")
	}

	role, err := srv.repos.RoleRepo().FindByName(ctx, entity.DefaultRoleFor(input.Kind))
	if errors.Is(err, repository.ErrRoleNotFound) {
		return nil, domainerrors.ErrRoleNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find default role")
	}

	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	plain, tokenHash, err := srv.tokens.IssueOpaqueToken()
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue verification token")
	}
	verifyExpiresAt := now.Add(srv.verifyTTL)

	actor := &entity.Actor{
		ID:                    uuid.New(),
		Kind:                  input.Kind,
		Email:                 email,
		FullName:              strings.TrimSpace(input.FullName),
		PasswordHash:          &passwordHash,
		ContactNumber:         input.ContactNumber,
		Gender:                input.Gender,
		DateOfBirth:           input.DateOfBirth,
		VerificationTokenHash: tokenHash,
		VerificationExpiresAt: &verifyExpiresAt,
		Status:                policy.registerStatus,
		RoleID:                &role.ID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := repo.Create(ctx, actor); err != nil {
		if errors.Is(err, repository.ErrActorEmailTaken) {
			return nil, domainerrors.ErrEmailAlreadyExists
		}

		return nil, errors.Wrap(err, "failed to create actor")
	}

	link := srv.link(policy.route, "verify-email", plain)
	if err := srv.email.SendVerification(ctx, actor, link); err != nil {
		srv.metrics.CollaboratorFailure(service.CollaboratorEmail)
		srv.log(ctx).Warn("Failed to send verification email", slog.String("actorID", actor.ID.String()), slog.Any("error", err))
	}

	srv.audit.record(ctx, srv.log(ctx), auditEntry{
		actor:       actor,
		action:      entity.AuditRegister,
		description: fmt.Sprintf("%s registered", actor.Kind),
		collection:  collectionFor(actor.Kind),
		resourceID:  actor.ID.String(),
		at:          now,
	})

	srv.log(ctx).Debug("Registration completed", slog.String("kind", input.Kind.String()), slog.String("actorID", actor.ID.String()))

	return &usecase.AuthResult{
		Actor:    actor,
		NextStep: entity.NextStepVerifyEmail,
		Message:  "Registration successful, please verify your email",
	}, nil
}

// VerifyEmail redeems a verification token.
func (srv *authService) VerifyEmail(ctx context.Context, input usecase.VerifyEmailInput) (*usecase.AuthResult, error) {
	policy, err := srv.policies.forKind(input.Kind)
	if err != nil {
		return nil, err
	}
	if !policy.selfRegistration {
		return nil, domainerrors.ErrRegistrationUnsupported
	}
	now := srv.clock.Now()
	repo := srv.repos.ActorRepo(input.Kind)
	tokenHash := srv.tokens.HashToken(input.Token)

	actor, err := repo.FindByVerificationToken(ctx, tokenHash, now)
	if errors.Is(err, repository.ErrActorNotFound) {
		return nil, domainerrors.ErrInvalidOrExpiredToken
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find actor by verification token")
	}

	verified, err := repo.MarkVerified(ctx, actor.ID, tokenHash, now)
	if err != nil {
		return nil, errors.Wrap(err, "failed to mark actor verified")
	}
	if !verified {
		return nil, domainerrors.ErrInvalidOrExpiredToken
	}
	actor.MarkVerified()

	if err := srv.email.SendWelcome(ctx, actor); err != nil {
		srv.metrics.CollaboratorFailure(service.CollaboratorEmail)
		srv.log(ctx).Warn("Failed to send welcome email", slog.String("actorID", actor.ID.String()), slog.Any("error", err))
	}

	srv.audit.record(ctx, srv.log(ctx), auditEntry{
		actor:       actor,
		action:      entity.AuditVerifyEmail,
		description: fmt.Sprintf("%s verified their email", actor.Kind),
		collection:  collectionFor(actor.Kind),
		resourceID:  actor.ID.String(),
		at:          now,
	})

	return &usecase.AuthResult{Actor: actor, NextStep: entity.NextStepLogin, Message: "Email verified successfully"}, nil
}

// GoogleLogin signs in with a Google ID token, linking or creating the actor as needed.
func (srv *authService) GoogleLogin(ctx context.Context, sess *entity.Session, input usecase.GoogleLoginInput) (*usecase.AuthResult, error) {
	policy, err := srv.policies.forKind(input.Kind)
	if err != nil {
		return nil, err
	}
	if !policy.selfRegistration {
		return nil, domainerrors.ErrRegistrationUnsupported
	}
	now := srv.clock.Now()
	repo := srv.repos.ActorRepo(input.Kind)

	identity, err := srv.identity.VerifyGoogleIDToken(ctx, input.IDToken)
	if err != nil {
		srv.metrics.LoginAttempt(input.Kind, service.OutcomeFailure)

		return nil, err
	}

	actor, err := srv.findOrCreateGoogleActor(ctx, policy, repo, identity, now)
	if err != nil {
		return nil, err
	}

	if policy.isBlocked(actor.Status) {
		srv.metrics.LoginAttempt(input.Kind, service.OutcomeBlocked)
		srv.dropSlot(ctx, sess, input.Kind)

		return nil, domainerrors.ErrAccountBlocked
	}

	if err := repo.UpdateLastLogin(ctx, actor.ID, now); err != nil {
		return nil, errors.Wrap(err, "failed to record last login")
	}
	actor.LastLoginAt = &now

	if err := srv.sessions.Promote(ctx, sess, actor.Kind, actor.ID); err != nil {
		return nil, errors.Wrap(err, "failed to establish session")
	}

	srv.metrics.LoginAttempt(input.Kind, service.OutcomeSuccess)
	srv.audit.record(ctx, srv.log(ctx), auditEntry{
		actor:       actor,
		action:      entity.AuditGoogleLogin,
		description: fmt.Sprintf("%s logged in with Google", actor.Kind),
		collection:  collectionFor(actor.Kind),
		resourceID:  actor.ID.String(),
		at:          now,
	})

	next, err := srv.nextSteps.resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	return &usecase.AuthResult{Actor: actor, NextStep: next, Message: "Login successful"}, nil
}

func (srv *authService) findOrCreateGoogleActor(
	ctx context.Context,
	policy actorPolicy,
	repo repository.ActorRepository,
	identity *service.GoogleIdentity,
	now time.Time,
) (*entity.Actor, error) {
	actor, err := repo.FindByOAuthSubject(ctx, entity.OAuthProviderGoogle, identity.Subject)
	if err == nil {
		return actor, nil
	}
	if !errors.Is(err, repository.ErrActorNotFound) {
		return nil, errors.Wrap(err, "failed to find actor by oauth subject")
	}

	email := entity.NormalizeEmail(identity.Email)
	actor, err = repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		linked, err := repo.LinkOAuth(ctx, actor.ID, entity.OAuthProviderGoogle, identity.Subject, now)
		if err != nil {
			return nil, errors.Wrap(err, "failed to link google account")
		}
		if !linked {
			// A concurrent login may have linked this identity first.
			winner, err := repo.FindByOAuthSubject(ctx, entity.OAuthProviderGoogle, identity.Subject)
			if err == nil {
				return winner, nil
			}
			if !errors.Is(err, repository.ErrActorNotFound) {
				return nil, errors.Wrap(err, "failed to find actor by oauth subject")
			}

			return nil, domainerrors.ErrEmailAlreadyExists
		}
		actor.OAuthProvider = entity.OAuthProviderGoogle
		actor.OAuthSubject = identity.Subject
		actor.MarkVerified()
		actor.UpdatedAt = now

		return actor, nil
	case !errors.Is(err, repository.ErrActorNotFound):
		return nil, errors.Wrap(err, "failed to find actor by email")
	}

	role, err := srv.repos.RoleRepo().FindByName(ctx, entity.DefaultRoleFor(policy.kind))
	if errors.Is(err, repository.ErrRoleNotFound) {
		return nil, domainerrors.ErrRoleNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find default role")
	}

	actor = &entity.Actor{
		ID:            uuid.New(),
		Kind:          policy.kind,
		Email:         email,
		FullName:      identity.Name,
		OAuthProvider: entity.OAuthProviderGoogle,
		OAuthSubject:  identity.Subject,
		IsVerified:    true,
		Status:        policy.registerStatus,
		RoleID:        &role.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.Create(ctx, actor); err != nil {
		if errors.Is(err, repository.ErrActorEmailTaken) {
			return nil, domainerrors.ErrEmailAlreadyExists
		}

		return nil, errors.Wrap(err, "failed to create google actor")
	}

	srv.audit.record(ctx, srv.log(ctx), auditEntry{
		actor:       actor,
		action:      entity.AuditRegister,
		description: fmt.Sprintf("%s registered with Google", actor.Kind),
		collection:  collectionFor(actor.Kind),
		resourceID:  actor.ID.String(),
		at:          now,
	})

	return actor, nil
}

// UpdateTwoFactor toggles the second factor for kinds that support it.
func (srv *authService) UpdateTwoFactor(ctx context.Context, actor *entity.Actor, enabled bool) (*usecase.AuthResult, error) {
	policy, err := srv.policies.forKind(actor.Kind)
	if err != nil {
		return nil, err
	}
	if !policy.twoFactorCapable {
		return nil, domainerrors.ErrTwoFactorUnsupported
	}
	now := srv.clock.Now()

	if err := srv.repos.ActorRepo(actor.Kind).UpdateTwoFactor(ctx, actor.ID, enabled, now); err != nil {
		return nil, errors.Wrap(err, "failed to update two-factor setting")
	}
	previous := actor.TwoFactorEnabled
	actor.TwoFactorEnabled = enabled

	srv.audit.record(ctx, srv.log(ctx), auditEntry{
		actor:       actor,
		action:      entity.AuditUpdate2FA,
		description: fmt.Sprintf("%s updated two-factor settings", actor.Kind),
		collection:  collectionFor(actor.Kind),
		resourceID:  actor.ID.String(),
		changes:     map[string]any{"twoFactorEnabled": map[string]bool{"from": previous, "to": enabled}},
		at:          now,
	})

	message := "Two-factor authentication disabled"
	if enabled {
		message = "Two-factor authentication enabled"
	}

	return &usecase.AuthResult{Actor: actor, NextStep: entity.NextStepDashboard, Message: message}, nil
}

// Me returns the current actor with its next step.
func (srv *authService) Me(ctx context.Context, actor *entity.Actor) (*usecase.AuthResult, error) {
	next, err := srv.nextSteps.resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	return &usecase.AuthResult{Actor: actor, NextStep: next}, nil
}

// link builds "<frontend>/<route>/<action>/<token>".
func (srv *authService) link(route, action, token string) string {
	return fmt.Sprintf("%s/%s/%s/%s", srv.frontendURL, route, action, token)
}

// collectionFor names the table an actor kind is stored in.
func collectionFor(kind entity.ActorKind) string {
	return string(kind) + actorCollectionSuffix
}

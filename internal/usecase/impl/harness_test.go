package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"philbox/config"
	"philbox/internal/domain/entity"
	mockSvc "philbox/internal/mocks/service"
	"philbox/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPassword = "Password123!"

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	return &config.Config{
		Auth:     &config.AuthConfig{BcryptCost: 4},
		Frontend: &config.FrontendConfig{BaseURL: "https://app.philbox.test/", SupportURL: "https://app.philbox.test/help"},
	}
}

// serviceFixtures wires every use case against in-memory repositories and mock collaborators.
type serviceFixtures struct {
	store    *memStore
	repos    *memFactory
	sessions *memSessionStore
	tokens   *fakeTokens
	clock    *fixedClock
	metrics  *recordingMetrics

	email    *mockSvc.MockEmailSender
	audit    *mockSvc.MockAuditSink
	notifier *mockSvc.MockRealtimeNotifier
	uploader *mockSvc.MockBlobUploader
	identity *mockSvc.MockIdentityVerifier

	sessionSvc usecase.SessionUsecase
	auth       usecase.AuthUsecase
	perms      usecase.PermissionUsecase
	roles      usecase.RoleUsecase
	onboarding usecase.OnboardingUsecase
	review     usecase.ApplicationReviewUsecase
	customers  usecase.CustomerProfileUsecase
}

func createTestServices(t *testing.T) *serviceFixtures {
	t.Helper()

	store := newMemStore()
	repos := &memFactory{store: store}
	fx := &serviceFixtures{
		store:    store,
		repos:    repos,
		sessions: newMemSessionStore(),
		tokens:   newFakeTokens(),
		clock:    newFixedClock(),
		metrics:  newRecordingMetrics(),
		email:    mockSvc.NewMockEmailSender(t),
		audit:    mockSvc.NewMockAuditSink(t),
		notifier: mockSvc.NewMockRealtimeNotifier(t),
		uploader: mockSvc.NewMockBlobUploader(t),
		identity: mockSvc.NewMockIdentityVerifier(t),
	}
	cfg := newTestConfig()
	logger := newDiscardLogger()

	fx.sessionSvc = NewSessionService(SessionServiceParams{
		Store:   fx.sessions,
		Repos:   repos,
		Tokens:  fx.tokens,
		Clock:   fx.clock,
		Metrics: fx.metrics,
		Config:  cfg,
		Logger:  logger,
	})
	fx.auth = NewAuthService(AuthServiceParams{
		Repos:    repos,
		Sessions: fx.sessionSvc,
		Hasher:   fakeHasher{},
		Tokens:   fx.tokens,
		Identity: fx.identity,
		Email:    fx.email,
		Audit:    fx.audit,
		Clock:    fx.clock,
		Metrics:  fx.metrics,
		Config:   cfg,
		Logger:   logger,
	})
	fx.perms = NewPermissionService(PermissionServiceParams{Repos: repos, Logger: logger})
	fx.roles = NewRoleService(RoleServiceParams{
		Repos:     repos,
		TxManager: repos,
		Clock:     fx.clock,
		Audit:     fx.audit,
		Metrics:   fx.metrics,
		Logger:    logger,
	})
	fx.onboarding = NewOnboardingService(OnboardingServiceParams{
		Repos:     repos,
		TxManager: repos,
		Uploader:  fx.uploader,
		Notifier:  fx.notifier,
		Audit:     fx.audit,
		Clock:     fx.clock,
		Metrics:   fx.metrics,
		Logger:    logger,
	})
	fx.review = NewReviewService(ReviewServiceParams{
		Repos:     repos,
		TxManager: repos,
		Email:     fx.email,
		Notifier:  fx.notifier,
		Audit:     fx.audit,
		Clock:     fx.clock,
		Metrics:   fx.metrics,
		Config:    cfg,
		Logger:    logger,
	})
	fx.customers = NewCustomerProfileService(CustomerProfileServiceParams{
		Repos:   repos,
		Audit:   fx.audit,
		Clock:   fx.clock,
		Metrics: fx.metrics,
		Logger:  logger,
	})

	require.NoError(t, fx.roles.SeedDefaults(context.Background()))

	return fx
}

// allowCollaborators accepts any remaining email, audit and notifier calls.
// Register specific expectations before calling it, since testify matches in order.
func (fx *serviceFixtures) allowCollaborators() {
	for _, method := range []string{"SendVerification", "SendPasswordReset", "SendOTP"} {
		fx.email.On(method, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	}
	fx.email.On("SendWelcome", mock.Anything, mock.Anything).Return(nil).Maybe()
	fx.email.On("SendApplicationDecision", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	fx.audit.On("Record", mock.Anything, mock.Anything).Return(nil).Maybe()
	fx.notifier.On("EmitToActor", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	fx.notifier.On("EmitToKind", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
}

// allowUploads makes every upload succeed with a URL derived from the folder and path.
func (fx *serviceFixtures) allowUploads() {
	fx.uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return(func(_ context.Context, path, folder string) string {
			return "https://cdn.philbox.test/" + folder + "/" + path
		}, nil).Maybe()
}

type actorOption func(*entity.Actor)

func withStatus(status entity.AccountStatus) actorOption {
	return func(a *entity.Actor) { a.Status = status }
}

func withTwoFactor() actorOption {
	return func(a *entity.Actor) { a.TwoFactorEnabled = true }
}

func unverified() actorOption {
	return func(a *entity.Actor) { a.IsVerified = false }
}

// addActor stores a verified, active actor with testPassword and the kind's default role.
func (fx *serviceFixtures) addActor(t *testing.T, kind entity.ActorKind, email string, opts ...actorOption) *entity.Actor {
	t.Helper()

	ctx := context.Background()
	role, err := fx.repos.RoleRepo().FindByName(ctx, entity.DefaultRoleFor(kind))
	require.NoError(t, err)

	hash, _ := fakeHasher{}.Hash(testPassword)
	now := fx.clock.Now()
	actor := &entity.Actor{
		ID:           uuid.New(),
		Kind:         kind,
		Email:        email,
		FullName:     "Test " + string(kind),
		PasswordHash: &hash,
		IsVerified:   true,
		Status:       entity.AccountStatusActive,
		RoleID:       &role.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(actor)
	}
	require.NoError(t, fx.repos.ActorRepo(kind).Create(ctx, actor))

	return actor
}

func (fx *serviceFixtures) reload(t *testing.T, actor *entity.Actor) *entity.Actor {
	t.Helper()

	fresh, err := fx.repos.ActorRepo(actor.Kind).FindByID(context.Background(), actor.ID)
	require.NoError(t, err)

	return fresh
}

// requiredFiles returns a complete document submission.
func requiredFiles() usecase.DocumentFiles {
	return usecase.DocumentFiles{
		entity.DocumentMedicalLicense: {"license.pdf"},
		entity.DocumentMBBSMDDegree:   {"degree.pdf"},
		entity.DocumentCNIC:           {"cnic.png"},
	}
}

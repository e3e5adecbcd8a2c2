package impl

import (
	"context"
	"strings"
	"testing"
	"time"

	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/domain/service"
	"philbox/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func tokenFromLink(link string) string {
	return link[strings.LastIndex(link, "/")+1:]
}

func TestAuthService_Login_WithoutTwoFactor_AuthenticatesInOneCall(t *testing.T) {
	tests := []struct {
		name     string
		kind     entity.ActorKind
		wantNext entity.NextStep
	}{
		{name: "admin", kind: entity.ActorKindAdmin, wantNext: entity.NextStepDashboard},
		{name: "salesperson", kind: entity.ActorKindSalesperson, wantNext: entity.NextStepDashboard},
		{name: "doctor without documents", kind: entity.ActorKindDoctor, wantNext: entity.NextStepSubmitApplication},
		{name: "customer without address", kind: entity.ActorKindCustomer, wantNext: entity.NextStepCompleteProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestServices(t)
			fx.allowCollaborators()
			actor := fx.addActor(t, tt.kind, "user@example.com")
			sess := entity.NewSession()

			result, err := fx.auth.Login(context.Background(), sess, usecase.LoginInput{
				Kind:     tt.kind,
				Email:    "  USER@example.com ",
				Password: testPassword,
			})

			require.NoError(t, err)
			assert.Equal(t, actor.ID, result.Actor.ID)
			assert.Equal(t, tt.wantNext, result.NextStep)
			assert.Equal(t, entity.SessionStateAuthenticated, sess.State(tt.kind))
			assert.True(t, fx.sessions.has(sess.Token))
			assert.NotNil(t, fx.reload(t, actor).LastLoginAt)
			assert.Equal(t, 1, fx.metrics.count("login", string(tt.kind), service.OutcomeSuccess))
		})
	}
}

func TestAuthService_Login_AdminTwoFactorFlow(t *testing.T) {
	fx := createTestServices(t)
	ctx := context.Background()
	admin := fx.addActor(t, entity.ActorKindAdmin, "admin@example.com", withTwoFactor())
	fx.email.On("SendOTP", mock.Anything, mock.MatchedBy(func(a *entity.Actor) bool { return a.ID == admin.ID }), "123456").
		Return(nil).Once()
	fx.allowCollaborators()
	sess := entity.NewSession()

	result, err := fx.auth.Login(ctx, sess, usecase.LoginInput{Kind: entity.ActorKindAdmin, Email: admin.Email, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, entity.NextStepVerifyOTP, result.NextStep)
	assert.Equal(t, entity.SessionStatePending2FA, sess.State(entity.ActorKindAdmin))
	pendingToken := sess.Token

	_, err = fx.auth.VerifyOTP(ctx, sess, usecase.VerifyOTPInput{Kind: entity.ActorKindAdmin, Email: admin.Email, Code: "000000"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOrExpiredOTP)
	assert.Equal(t, entity.SessionStatePending2FA, sess.State(entity.ActorKindAdmin))

	result, err = fx.auth.VerifyOTP(ctx, sess, usecase.VerifyOTPInput{Kind: entity.ActorKindAdmin, Email: admin.Email, Code: "123456"})
	require.NoError(t, err)
	assert.Equal(t, entity.NextStepDashboard, result.NextStep)
	assert.Equal(t, entity.SessionStateAuthenticated, sess.State(entity.ActorKindAdmin))
	assert.NotEqual(t, pendingToken, sess.Token, "session token rotates on promotion")
	assert.False(t, fx.sessions.has(pendingToken))
	assert.False(t, fx.reload(t, admin).HasPendingOTP())

	// A code can be redeemed once.
	_, err = fx.auth.VerifyOTP(ctx, sess, usecase.VerifyOTPInput{Kind: entity.ActorKindAdmin, Email: admin.Email, Code: "123456"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidRequest)
}

func TestAuthService_VerifyOTP_Expired(t *testing.T) {
	fx := createTestServices(t)
	fx.allowCollaborators()
	ctx := context.Background()
	sp := fx.addActor(t, entity.ActorKindSalesperson, "sp@example.com", withTwoFactor())
	sess := entity.NewSession()

	_, err := fx.auth.Login(ctx, sess, usecase.LoginInput{Kind: entity.ActorKindSalesperson, Email: sp.Email, Password: testPassword})
	require.NoError(t, err)

	fx.clock.Advance(5*time.Minute + time.Second)

	_, err = fx.auth.VerifyOTP(ctx, sess, usecase.VerifyOTPInput{Kind: entity.ActorKindSalesperson, Email: sp.Email, Code: "123456"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOrExpiredOTP)
	assert.Equal(t, entity.SessionStatePending2FA, sess.State(entity.ActorKindSalesperson))
}

func TestAuthService_VerifyOTP_WithoutPendingChallengeInSession(t *testing.T) {
	fx := createTestServices(t)
	fx.allowCollaborators()
	ctx := context.Background()
	admin := fx.addActor(t, entity.ActorKindAdmin, "admin@example.com", withTwoFactor())

	_, err := fx.auth.Login(ctx, entity.NewSession(), usecase.LoginInput{Kind: entity.ActorKindAdmin, Email: admin.Email, Password: testPassword})
	require.NoError(t, err)

	other := entity.NewSession()
	_, err = fx.auth.VerifyOTP(ctx, other, usecase.VerifyOTPInput{Kind: entity.ActorKindAdmin, Email: admin.Email, Code: "123456"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidSession)
	assert.Equal(t, entity.SessionStateNone, other.State(entity.ActorKindAdmin))
}

func TestAuthService_VerifyOTP_NoCodeIssued(t *testing.T) {
	fx := createTestServices(t)
	admin := fx.addActor(t, entity.ActorKindAdmin, "admin@example.com")

	_, err := fx.auth.VerifyOTP(context.Background(), entity.NewSession(),
		usecase.VerifyOTPInput{Kind: entity.ActorKindAdmin, Email: admin.Email, Code: "123456"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidRequest)
}

func TestAuthService_VerifyOTP_UnsupportedKind(t *testing.T) {
	fx := createTestServices(t)

	_, err := fx.auth.VerifyOTP(context.Background(), entity.NewSession(),
		usecase.VerifyOTPInput{Kind: entity.ActorKindCustomer, Email: "c@example.com", Code: "123456"})
	assert.ErrorIs(t, err, domainerrors.ErrTwoFactorUnsupported)
}

func TestAuthService_Login_OTPEmailFailureStillStartsChallenge(t *testing.T) {
	fx := createTestServices(t)
	admin := fx.addActor(t, entity.ActorKindAdmin, "admin@example.com", withTwoFactor())
	fx.email.On("SendOTP", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
	fx.allowCollaborators()
	sess := entity.NewSession()

	result, err := fx.auth.Login(context.Background(), sess, usecase.LoginInput{Kind: entity.ActorKindAdmin, Email: admin.Email, Password: testPassword})

	require.NoError(t, err)
	assert.Equal(t, entity.NextStepVerifyOTP, result.NextStep)
	assert.Equal(t, entity.SessionStatePending2FA, sess.State(entity.ActorKindAdmin))
	assert.Equal(t, 1, fx.metrics.count("collaborator", service.CollaboratorEmail))
}

func TestAuthService_AccountBlockedClearsSlot(t *testing.T) {
	t.Run("login", func(t *testing.T) {
		fx := createTestServices(t)
		fx.allowCollaborators()
		ctx := context.Background()
		customer := fx.addActor(t, entity.ActorKindCustomer, "c@example.com")
		doctor := fx.addActor(t, entity.ActorKindDoctor, "d@example.com")
		sess := entity.NewSession()
		_, err := fx.auth.Login(ctx, sess, usecase.LoginInput{Kind: entity.ActorKindCustomer, Email: customer.Email, Password: testPassword})
		require.NoError(t, err)
		_, err = fx.auth.Login(ctx, sess, usecase.LoginInput{Kind: entity.ActorKindDoctor, Email: doctor.Email, Password: testPassword})
		require.NoError(t, err)

		require.NoError(t, fx.repos.ActorRepo(entity.ActorKindCustomer).UpdateStatus(ctx, customer.ID, entity.AccountStatusBlocked, fx.clock.Now()))
		_, err = fx.auth.Login(ctx, sess, usecase.LoginInput{Kind: entity.ActorKindCustomer, Email: customer.Email, Password: testPassword})

		assert.ErrorIs(t, err, domainerrors.ErrAccountBlocked)
		assert.Equal(t, entity.SessionStateNone, sess.State(entity.ActorKindCustomer))
		assert.Equal(t, entity.SessionStateAuthenticated, sess.State(entity.ActorKindDoctor))
		stored, err := fx.sessionSvc.Load(ctx, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, entity.SessionStateNone, stored.State(entity.ActorKindCustomer))
	})

	t.Run("verify otp", func(t *testing.T) {
		fx := createTestServices(t)
		fx.allowCollaborators()
		ctx := context.Background()
		sp := fx.addActor(t, entity.ActorKindSalesperson, "sp@example.com", withTwoFactor())
		sess := entity.NewSession()
		_, err := fx.auth.Login(ctx, sess, usecase.LoginInput{Kind: entity.ActorKindSalesperson, Email: sp.Email, Password: testPassword})
		require.NoError(t, err)
		require.Equal(t, entity.SessionStatePending2FA, sess.State(entity.ActorKindSalesperson))

		require.NoError(t, fx.repos.ActorRepo(entity.ActorKindSalesperson).UpdateStatus(ctx, sp.ID, entity.AccountStatusBlocked, fx.clock.Now()))
		_, err = fx.auth.VerifyOTP(ctx, sess, usecase.VerifyOTPInput{Kind: entity.ActorKindSalesperson, Email: sp.Email, Code: "123456"})

		assert.ErrorIs(t, err, domainerrors.ErrAccountBlocked)
		assert.Equal(t, entity.SessionStateNone, sess.State(entity.ActorKindSalesperson))
		assert.True(t, sess.Destroyed)
	})
}

func TestAuthService_Login_CheckOrderPerKind(t *testing.T) {
	tests := []struct {
		name     string
		kind     entity.ActorKind
		opts     []actorOption
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "blocked salesperson is rejected before the password is compared",
			kind:     entity.ActorKindSalesperson,
			opts:     []actorOption{withStatus(entity.AccountStatusBlocked)},
			password: "wrong-password",
			wantErr:  domainerrors.ErrAccountBlocked,
		},
		{
			name:     "blocked salesperson with correct password",
			kind:     entity.ActorKindSalesperson,
			opts:     []actorOption{withStatus(entity.AccountStatusBlocked)},
			password: testPassword,
			wantErr:  domainerrors.ErrAccountBlocked,
		},
		{
			name:     "suspended admin",
			kind:     entity.ActorKindAdmin,
			opts:     []actorOption{withStatus(entity.AccountStatusSuspended)},
			password: testPassword,
			wantErr:  domainerrors.ErrAccountBlocked,
		},
		{
			name:     "blocked doctor with wrong password sees invalid credentials",
			kind:     entity.ActorKindDoctor,
			opts:     []actorOption{withStatus(entity.AccountStatusBlocked)},
			password: "wrong-password",
			wantErr:  domainerrors.ErrInvalidCredentials,
		},
		{
			name:     "blocked doctor with correct password",
			kind:     entity.ActorKindDoctor,
			opts:     []actorOption{withStatus(entity.AccountStatusBlocked)},
			password: testPassword,
			wantErr:  domainerrors.ErrAccountBlocked,
		},
		{
			name:     "unverified customer",
			kind:     entity.ActorKindCustomer,
			opts:     []actorOption{unverified()},
			password: testPassword,
			wantErr:  domainerrors.ErrEmailNotVerified,
		},
		{
			name:     "suspended customer",
			kind:     entity.ActorKindCustomer,
			opts:     []actorOption{withStatus(entity.AccountStatusSuspended)},
			password: testPassword,
			wantErr:  domainerrors.ErrAccountBlocked,
		},
		{
			name:     "unknown admin email is reported distinctly",
			kind:     entity.ActorKindAdmin,
			email:    "nobody@example.com",
			password: testPassword,
			wantErr:  domainerrors.ErrInvalidEmail,
		},
		{
			name:     "unknown customer email looks like a bad password",
			kind:     entity.ActorKindCustomer,
			email:    "nobody@example.com",
			password: testPassword,
			wantErr:  domainerrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestServices(t)
			actor := fx.addActor(t, tt.kind, "user@example.com", tt.opts...)
			email := tt.email
			if email == "" {
				email = actor.Email
			}
			sess := entity.NewSession()

			_, err := fx.auth.Login(context.Background(), sess, usecase.LoginInput{Kind: tt.kind, Email: email, Password: tt.password})

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, entity.SessionStateNone, sess.State(tt.kind))
			assert.True(t, sess.IsNew())
		})
	}
}

func TestAuthService_Login_SuspendedDoctorCanFinishOnboarding(t *testing.T) {
	fx := createTestServices(t)
	fx.allowCollaborators()
	doctor := fx.addActor(t, entity.ActorKindDoctor, "doc@example.com", withStatus(entity.AccountStatusSuspended))
	sess := entity.NewSession()

	result, err := fx.auth.Login(context.Background(), sess, usecase.LoginInput{Kind: entity.ActorKindDoctor, Email: doctor.Email, Password: testPassword})

	require.NoError(t, err)
	assert.Equal(t, entity.NextStepSubmitApplication, result.NextStep)
	assert.Equal(t, entity.SessionStateAuthenticated, sess.State(entity.ActorKindDoctor))
}

func TestAuthService_Login_KindsShareOneSessionIndependently(t *testing.T) {
	fx := createTestServices(t)
	fx.allowCollaborators()
	ctx := context.Background()
	admin := fx.addActor(t, entity.ActorKindAdmin, "same@example.com")
	customer := fx.addActor(t, entity.ActorKindCustomer, "same@example.com")
	sess := entity.NewSession()

	_, err := fx.auth.Login(ctx, sess, usecase.LoginInput{Kind: entity.ActorKindAdmin, Email: admin.Email, Password: testPassword})
	require.NoError(t, err)
	_, err = fx.auth.Login(ctx, sess, usecase.LoginInput{Kind: entity.ActorKindCustomer, Email: customer.Email, Password: testPassword})
	require.NoError(t, err)

	require.NoError(t, fx.auth.Logout(ctx, sess, entity.ActorKindAdmin))

	assert.Equal(t, entity.SessionStateNone, sess.State(entity.ActorKindAdmin))
	assert.Equal(t, entity.SessionStateAuthenticated, sess.State(entity.ActorKindCustomer))
	assert.True(t, fx.sessions.has(sess.Token))

	require.NoError(t, fx.auth.Logout(ctx, sess, entity.ActorKindCustomer))
	assert.True(t, sess.Destroyed)
	assert.False(t, fx.sessions.has(sess.Token))

	// Logging out again is harmless.
	require.NoError(t, fx.auth.Logout(ctx, sess, entity.ActorKindCustomer))
}

func TestAuthService_ResetPassword_SingleUseAndTimeBound(t *testing.T) {
	fx := createTestServices(t)
	ctx := context.Background()
	customer := fx.addActor(t, entity.ActorKindCustomer, "c@example.com")

	var link string
	fx.email.On("SendPasswordReset", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { link = args.String(2) }).
		Return(nil).Twice()
	fx.allowCollaborators()

	result, err := fx.auth.ForgetPassword(ctx, usecase.ForgetPasswordInput{Kind: entity.ActorKindCustomer, Email: customer.Email})
	require.NoError(t, err)
	assert.Equal(t, entity.NextStepCheckEmail, result.NextStep)
	assert.True(t, strings.HasPrefix(link, "https://app.philbox.test/customer/reset-password/"))
	token := tokenFromLink(link)
	assert.NotEqual(t, token, fx.reload(t, customer).ResetTokenHash, "only the hash is stored")

	result, err = fx.auth.ResetPassword(ctx, usecase.ResetPasswordInput{Kind: entity.ActorKindCustomer, Token: token, NewPassword: "NewPassword1!"})
	require.NoError(t, err)
	assert.Equal(t, entity.NextStepLogin, result.NextStep)
	assert.Equal(t, "hashed:NewPassword1!", *fx.reload(t, customer).PasswordHash)

	_, err = fx.auth.ResetPassword(ctx, usecase.ResetPasswordInput{Kind: entity.ActorKindCustomer, Token: token, NewPassword: "Another1!"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOrExpiredToken)

	// A second token expires after the customer reset window.
	_, err = fx.auth.ForgetPassword(ctx, usecase.ForgetPasswordInput{Kind: entity.ActorKindCustomer, Email: customer.Email})
	require.NoError(t, err)
	fx.clock.Advance(10*time.Minute + time.Second)

	_, err = fx.auth.ResetPassword(ctx, usecase.ResetPasswordInput{Kind: entity.ActorKindCustomer, Token: tokenFromLink(link), NewPassword: "Another1!"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOrExpiredToken)
}

func TestAuthService_ResetPassword_AdminWindowIsLonger(t *testing.T) {
	fx := createTestServices(t)
	ctx := context.Background()
	admin := fx.addActor(t, entity.ActorKindAdmin, "admin@example.com")

	var link string
	fx.email.On("SendPasswordReset", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { link = args.String(2) }).
		Return(nil).Once()
	fx.allowCollaborators()

	_, err := fx.auth.ForgetPassword(ctx, usecase.ForgetPasswordInput{Kind: entity.ActorKindAdmin, Email: admin.Email})
	require.NoError(t, err)
	fx.clock.Advance(11 * time.Minute)

	_, err = fx.auth.ResetPassword(ctx, usecase.ResetPasswordInput{Kind: entity.ActorKindAdmin, Token: tokenFromLink(link), NewPassword: "NewPassword1!"})
	require.NoError(t, err)
}

func TestAuthService_ResetPassword_WeakPasswordKeepsToken(t *testing.T) {
	fx := createTestServices(t)
	ctx := context.Background()
	customer := fx.addActor(t, entity.ActorKindCustomer, "c@example.com")

	var link string
	fx.email.On("SendPasswordReset", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { link = args.String(2) }).
		Return(nil).Once()
	fx.allowCollaborators()

	_, err := fx.auth.ForgetPassword(ctx, usecase.ForgetPasswordInput{Kind: entity.ActorKindCustomer, Email: customer.Email})
	require.NoError(t, err)

	_, err = fx.auth.ResetPassword(ctx, usecase.ResetPasswordInput{Kind: entity.ActorKindCustomer, Token: tokenFromLink(link), NewPassword: "short"})
	assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)
	assert.NotEmpty(t, fx.reload(t, customer).ResetTokenHash)
}

func TestAuthService_ForgetPassword_UnknownEmail(t *testing.T) {
	fx := createTestServices(t)
	ctx := context.Background()

	_, err := fx.auth.ForgetPassword(ctx, usecase.ForgetPasswordInput{Kind: entity.ActorKindAdmin, Email: "x@example.com"})
	assert.ErrorIs(t, err, domainerrors.ErrAdminNotFound)

	_, err = fx.auth.ForgetPassword(ctx, usecase.ForgetPasswordInput{Kind: entity.ActorKindDoctor, Email: "x@example.com"})
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestAuthService_Register_VerifyEmail(t *testing.T) {
	fx := createTestServices(t)
	ctx := context.Background()

	var link string
	fx.email.On("SendVerification", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { link = args.String(2) }).
		Return(nil).Once()
	fx.email.On("SendWelcome", mock.Anything, mock.Anything).Return(nil).Once()
	fx.allowCollaborators()

	result, err := fx.auth.Register(ctx, usecase.RegisterInput{
		Kind:     entity.ActorKindCustomer,
		FullName: " Jane Doe ",
		Email:    "Jane@Example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.NextStepVerifyEmail, result.NextStep)
	assert.Equal(t, "jane@example.com", result.Actor.Email)
	assert.Equal(t, "Jane Doe", result.Actor.FullName)
	assert.False(t, result.Actor.IsVerified)
	assert.Equal(t, entity.AccountStatusActive, result.Actor.Status)
	require.NotNil(t, result.Actor.RoleID)

	_, err = fx.auth.Login(ctx, entity.NewSession(), usecase.LoginInput{Kind: entity.ActorKindCustomer, Email: "jane@example.com", Password: testPassword})
	assert.ErrorIs(t, err, domainerrors.ErrEmailNotVerified)

	verified, err := fx.auth.VerifyEmail(ctx, usecase.VerifyEmailInput{Kind: entity.ActorKindCustomer, Token: tokenFromLink(link)})
	require.NoError(t, err)
	assert.True(t, verified.Actor.IsVerified)

	stored := fx.reload(t, result.Actor)
	assert.True(t, stored.IsVerified)
	assert.Empty(t, stored.VerificationTokenHash)

	_, err = fx.auth.VerifyEmail(ctx, usecase.VerifyEmailInput{Kind: entity.ActorKindCustomer, Token: tokenFromLink(link)})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOrExpiredToken)
}

func TestAuthService_Register_Rejections(t *testing.T) {
	fx := createTestServices(t)
	ctx := context.Background()
	fx.addActor(t, entity.ActorKindDoctor, "taken@example.com")

	_, err := fx.auth.Register(ctx, usecase.RegisterInput{Kind: entity.ActorKindDoctor, Email: "taken@example.com", Password: testPassword})
	assert.ErrorIs(t, err, domainerrors.ErrEmailAlreadyExists)

	_, err = fx.auth.Register(ctx, usecase.RegisterInput{Kind: entity.ActorKindAdmin, Email: "a@example.com", Password: testPassword})
	assert.ErrorIs(t, err, domainerrors.ErrRegistrationUnsupported)

	_, err = fx.auth.Register(ctx, usecase.RegisterInput{Kind: entity.ActorKindDoctor, Email: "new@example.com", Password: "short"})
	assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)

	_, err = fx.auth.Register(ctx, usecase.RegisterInput{Kind: "pharmacist", Email: "new@example.com", Password: testPassword})
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestAuthService_GoogleLogin(t *testing.T) {
	t.Run("creates a verified actor", func(t *testing.T) {
		fx := createTestServices(t)
		fx.allowCollaborators()
		fx.identity.On("VerifyGoogleIDToken", mock.Anything, "id-token").
			Return(&service.GoogleIdentity{Subject: "g-1", Email: "New@Example.com", EmailVerified: true, Name: "New Doctor"}, nil).Once()
		sess := entity.NewSession()

		result, err := fx.auth.GoogleLogin(context.Background(), sess, usecase.GoogleLoginInput{Kind: entity.ActorKindDoctor, IDToken: "id-token"})

		require.NoError(t, err)
		assert.Equal(t, "new@example.com", result.Actor.Email)
		assert.True(t, result.Actor.IsVerified)
		assert.False(t, result.Actor.HasPassword())
		assert.Equal(t, entity.AccountStatusSuspended, result.Actor.Status)
		assert.Equal(t, entity.NextStepSubmitApplication, result.NextStep)
		assert.Equal(t, entity.SessionStateAuthenticated, sess.State(entity.ActorKindDoctor))
	})

	t.Run("links an existing account and verifies it", func(t *testing.T) {
		fx := createTestServices(t)
		fx.allowCollaborators()
		customer := fx.addActor(t, entity.ActorKindCustomer, "c@example.com", unverified())
		fx.identity.On("VerifyGoogleIDToken", mock.Anything, "id-token").
			Return(&service.GoogleIdentity{Subject: "g-2", Email: "c@example.com", EmailVerified: true}, nil).Once()

		result, err := fx.auth.GoogleLogin(context.Background(), entity.NewSession(), usecase.GoogleLoginInput{Kind: entity.ActorKindCustomer, IDToken: "id-token"})

		require.NoError(t, err)
		assert.Equal(t, customer.ID, result.Actor.ID)
		stored := fx.reload(t, customer)
		assert.Equal(t, "g-2", stored.OAuthSubject)
		assert.True(t, stored.IsVerified)
	})

	t.Run("linking keeps a reset token issued meanwhile", func(t *testing.T) {
		fx := createTestServices(t)
		fx.allowCollaborators()
		ctx := context.Background()
		customer := fx.addActor(t, entity.ActorKindCustomer, "c@example.com")
		repo := fx.repos.ActorRepo(entity.ActorKindCustomer)
		fx.store.afterEmailLookup = func() {
			fx.store.afterEmailLookup = nil
			require.NoError(t, repo.SetResetToken(ctx, customer.ID, "reset-hash", fx.clock.Now().Add(time.Hour), fx.clock.Now()))
		}
		fx.identity.On("VerifyGoogleIDToken", mock.Anything, "id-token").
			Return(&service.GoogleIdentity{Subject: "g-4", Email: "c@example.com", EmailVerified: true}, nil).Once()

		_, err := fx.auth.GoogleLogin(ctx, entity.NewSession(), usecase.GoogleLoginInput{Kind: entity.ActorKindCustomer, IDToken: "id-token"})

		require.NoError(t, err)
		stored := fx.reload(t, customer)
		assert.Equal(t, "g-4", stored.OAuthSubject)
		assert.Equal(t, "reset-hash", stored.ResetTokenHash)
		assert.Equal(t, *customer.PasswordHash, *stored.PasswordHash)
	})

	t.Run("account linked to another google identity", func(t *testing.T) {
		fx := createTestServices(t)
		ctx := context.Background()
		customer := fx.addActor(t, entity.ActorKindCustomer, "c@example.com")
		linked, err := fx.repos.ActorRepo(entity.ActorKindCustomer).LinkOAuth(ctx, customer.ID, entity.OAuthProviderGoogle, "g-old", fx.clock.Now())
		require.NoError(t, err)
		require.True(t, linked)
		fx.identity.On("VerifyGoogleIDToken", mock.Anything, "id-token").
			Return(&service.GoogleIdentity{Subject: "g-new", Email: "c@example.com", EmailVerified: true}, nil).Once()

		_, err = fx.auth.GoogleLogin(ctx, entity.NewSession(), usecase.GoogleLoginInput{Kind: entity.ActorKindCustomer, IDToken: "id-token"})

		assert.ErrorIs(t, err, domainerrors.ErrEmailAlreadyExists)
		assert.Equal(t, "g-old", fx.reload(t, customer).OAuthSubject)
	})

	t.Run("invalid token", func(t *testing.T) {
		fx := createTestServices(t)
		fx.identity.On("VerifyGoogleIDToken", mock.Anything, "bad").Return(nil, domainerrors.ErrOAuthTokenInvalid).Once()

		_, err := fx.auth.GoogleLogin(context.Background(), entity.NewSession(), usecase.GoogleLoginInput{Kind: entity.ActorKindCustomer, IDToken: "bad"})

		assert.ErrorIs(t, err, domainerrors.ErrOAuthTokenInvalid)
	})

	t.Run("blocked customer", func(t *testing.T) {
		fx := createTestServices(t)
		fx.addActor(t, entity.ActorKindCustomer, "c@example.com", withStatus(entity.AccountStatusBlocked))
		fx.identity.On("VerifyGoogleIDToken", mock.Anything, "id-token").
			Return(&service.GoogleIdentity{Subject: "g-3", Email: "c@example.com", EmailVerified: true}, nil).Once()
		sess := entity.NewSession()

		_, err := fx.auth.GoogleLogin(context.Background(), sess, usecase.GoogleLoginInput{Kind: entity.ActorKindCustomer, IDToken: "id-token"})

		assert.ErrorIs(t, err, domainerrors.ErrAccountBlocked)
		assert.Equal(t, entity.SessionStateNone, sess.State(entity.ActorKindCustomer))
	})
}

func TestAuthService_UpdateTwoFactor(t *testing.T) {
	fx := createTestServices(t)
	fx.allowCollaborators()
	ctx := context.Background()
	sp := fx.addActor(t, entity.ActorKindSalesperson, "sp@example.com")
	customer := fx.addActor(t, entity.ActorKindCustomer, "c@example.com")

	result, err := fx.auth.UpdateTwoFactor(ctx, sp, true)
	require.NoError(t, err)
	assert.True(t, result.Actor.TwoFactorEnabled)
	assert.True(t, fx.reload(t, sp).TwoFactorEnabled)

	_, err = fx.auth.UpdateTwoFactor(ctx, customer, true)
	assert.ErrorIs(t, err, domainerrors.ErrTwoFactorUnsupported)
}

func TestAuthService_Login_RecordsAuditWithRequestMetadata(t *testing.T) {
	fx := createTestServices(t)
	admin := fx.addActor(t, entity.ActorKindAdmin, "admin@example.com")
	fx.audit.On("Record", mock.Anything, mock.MatchedBy(func(r entity.AuditRecord) bool {
		return r.Action == entity.AuditLogin &&
			r.ActorID == admin.ID &&
			r.ActorKind == entity.ActorKindAdmin &&
			r.ResourceCollection == "admins"
	})).Return(errors.New("broker unavailable")).Once()

	_, err := fx.auth.Login(context.Background(), entity.NewSession(), usecase.LoginInput{Kind: entity.ActorKindAdmin, Email: admin.Email, Password: testPassword})

	require.NoError(t, err, "audit failures never fail the login")
	assert.Equal(t, 1, fx.metrics.count("collaborator", service.CollaboratorAudit))
}

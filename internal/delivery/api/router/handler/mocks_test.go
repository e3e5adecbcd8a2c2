package handler

import (
	"context"

	"philbox/internal/domain/entity"
	"philbox/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) result(args mock.Arguments) (*usecase.AuthResult, error) {
	res, _ := args.Get(0).(*usecase.AuthResult)

	return res, args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, sess *entity.Session, input usecase.LoginInput) (*usecase.AuthResult, error) {
	return m.result(m.Called(ctx, sess, input))
}

func (m *mockAuth) VerifyOTP(ctx context.Context, sess *entity.Session, input usecase.VerifyOTPInput) (*usecase.AuthResult, error) {
	return m.result(m.Called(ctx, sess, input))
}

func (m *mockAuth) Logout(ctx context.Context, sess *entity.Session, kind entity.ActorKind) error {
	return m.Called(ctx, sess, kind).Error(0)
}

func (m *mockAuth) ForgetPassword(ctx context.Context, input usecase.ForgetPasswordInput) (*usecase.AuthResult, error) {
	return m.result(m.Called(ctx, input))
}

func (m *mockAuth) ResetPassword(ctx context.Context, input usecase.ResetPasswordInput) (*usecase.AuthResult, error) {
	return m.result(m.Called(ctx, input))
}

func (m *mockAuth) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.AuthResult, error) {
	return m.result(m.Called(ctx, input))
}

func (m *mockAuth) VerifyEmail(ctx context.Context, input usecase.VerifyEmailInput) (*usecase.AuthResult, error) {
	return m.result(m.Called(ctx, input))
}

func (m *mockAuth) GoogleLogin(ctx context.Context, sess *entity.Session, input usecase.GoogleLoginInput) (*usecase.AuthResult, error) {
	return m.result(m.Called(ctx, sess, input))
}

func (m *mockAuth) UpdateTwoFactor(ctx context.Context, actor *entity.Actor, enabled bool) (*usecase.AuthResult, error) {
	return m.result(m.Called(ctx, actor, enabled))
}

func (m *mockAuth) Me(ctx context.Context, actor *entity.Actor) (*usecase.AuthResult, error) {
	return m.result(m.Called(ctx, actor))
}

type mockOnboarding struct {
	mock.Mock
}

func (m *mockOnboarding) output(args mock.Arguments) (*usecase.ApplicationOutput, error) {
	out, _ := args.Get(0).(*usecase.ApplicationOutput)

	return out, args.Error(1)
}

func (m *mockOnboarding) SubmitApplication(ctx context.Context, doctor *entity.Actor, files usecase.DocumentFiles) (*usecase.ApplicationOutput, error) {
	return m.output(m.Called(ctx, doctor, files))
}

func (m *mockOnboarding) ResubmitApplication(ctx context.Context, doctor *entity.Actor, files usecase.DocumentFiles) (*usecase.ApplicationOutput, error) {
	return m.output(m.Called(ctx, doctor, files))
}

func (m *mockOnboarding) GetApplicationStatus(ctx context.Context, doctor *entity.Actor) (*usecase.ApplicationOutput, error) {
	return m.output(m.Called(ctx, doctor))
}

func (m *mockOnboarding) CompleteProfile(ctx context.Context, doctor *entity.Actor, input usecase.ProfileInput) (*usecase.ProfileOutput, error) {
	args := m.Called(ctx, doctor, input)
	out, _ := args.Get(0).(*usecase.ProfileOutput)

	return out, args.Error(1)
}

func (m *mockOnboarding) NextStep(ctx context.Context, doctor *entity.Actor) (entity.NextStep, error) {
	args := m.Called(ctx, doctor)

	return args.Get(0).(entity.NextStep), args.Error(1)
}

type mockReview struct {
	mock.Mock
}

func (m *mockReview) view(args mock.Arguments) (*usecase.ApplicationView, error) {
	v, _ := args.Get(0).(*usecase.ApplicationView)

	return v, args.Error(1)
}

func (m *mockReview) Approve(ctx context.Context, admin *entity.Actor, id uuid.UUID, comment string) (*usecase.ApplicationView, error) {
	return m.view(m.Called(ctx, admin, id, comment))
}

func (m *mockReview) Reject(ctx context.Context, admin *entity.Actor, id uuid.UUID, reason string) (*usecase.ApplicationView, error) {
	return m.view(m.Called(ctx, admin, id, reason))
}

func (m *mockReview) ListApplications(ctx context.Context, input usecase.ApplicationListInput) (*usecase.ApplicationListOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*usecase.ApplicationListOutput)

	return out, args.Error(1)
}

func (m *mockReview) GetApplication(ctx context.Context, id uuid.UUID) (*usecase.ApplicationView, error) {
	return m.view(m.Called(ctx, id))
}

type mockActivity struct {
	mock.Mock
}

func (m *mockActivity) Ingest(ctx context.Context, record *entity.AuditRecord) (bool, error) {
	args := m.Called(ctx, record)

	return args.Bool(0), args.Error(1)
}

func (m *mockActivity) List(ctx context.Context, input usecase.ActivityLogListInput) (*usecase.ActivityLogListOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*usecase.ActivityLogListOutput)

	return out, args.Error(1)
}

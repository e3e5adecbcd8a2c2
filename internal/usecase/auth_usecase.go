// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"philbox/internal/domain/entity"
)

// --- Input DTOs ---

// LoginInput defines the data required for an actor to log in.
type LoginInput struct {
	Kind     entity.ActorKind
	Email    string
	Password string
}

// VerifyOTPInput carries the second-factor code for a pending login.
type VerifyOTPInput struct {
	Kind  entity.ActorKind
	Email string
	Code  string
}

// ForgetPasswordInput starts a password reset.
type ForgetPasswordInput struct {
	Kind  entity.ActorKind
	Email string
}

// ResetPasswordInput redeems a reset token.
type ResetPasswordInput struct {
	Kind        entity.ActorKind
	Token       string
	NewPassword string
}

// RegisterInput defines the data required for self registration of doctors and customers.
type RegisterInput struct {
	Kind          entity.ActorKind
	FullName      string
	Email         string
	Password      string
	ContactNumber string
	Gender        string
	DateOfBirth   *time.Time
}

// VerifyEmailInput redeems an email verification token.
type VerifyEmailInput struct {
	Kind  entity.ActorKind
	Token string
}

// GoogleLoginInput carries a Google ID token obtained by the client.
type GoogleLoginInput struct {
	Kind    entity.ActorKind
	IDToken string
}

// --- Output DTOs ---

// AuthResult is returned by every authentication transition.
type AuthResult struct {
	Actor    *entity.Actor
	NextStep entity.NextStep
	Message  string
}

// AuthUsecase drives the per-kind authentication state machine.
// Operations that change the session take the request's session explicitly.
type AuthUsecase interface {
	Login(ctx context.Context, sess *entity.Session, input LoginInput) (*AuthResult, error)
	VerifyOTP(ctx context.Context, sess *entity.Session, input VerifyOTPInput) (*AuthResult, error)
	Logout(ctx context.Context, sess *entity.Session, kind entity.ActorKind) error
	ForgetPassword(ctx context.Context, input ForgetPasswordInput) (*AuthResult, error)
	ResetPassword(ctx context.Context, input ResetPasswordInput) (*AuthResult, error)
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	VerifyEmail(ctx context.Context, input VerifyEmailInput) (*AuthResult, error)
	GoogleLogin(ctx context.Context, sess *entity.Session, input GoogleLoginInput) (*AuthResult, error)
	UpdateTwoFactor(ctx context.Context, actor *entity.Actor, enabled bool) (*AuthResult, error)
	Me(ctx context.Context, actor *entity.Actor) (*AuthResult, error)
}

package handler

import (
	"log/slog"
	"strings"
	"time"

	"philbox/internal/delivery/api/response"
	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const dateLayout = "2006-01-02"

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	AuthUC usecase.AuthUsecase
	Logger *slog.Logger
}

// AuthHandler serves the authentication routes of every actor kind.
// Each method returns the handler bound to one kind.
type AuthHandler struct {
	authUC usecase.AuthUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler.
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		authUC: params.AuthUC,
		logger: params.Logger,
	}
}

// LoginRequest represents the request body for password login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyOTPRequest represents the request body for the second login step
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric"`
}

// EmailRequest carries a bare email address
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest redeems a reset link
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// RegisterRequest represents the request body for self registration
type RegisterRequest struct {
	FullName      string `json:"full_name" validate:"required,max=120"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required"`
	ContactNumber string `json:"contact_number" validate:"omitempty,max=32"`
	Gender        string `json:"gender" validate:"omitempty,oneof=male female other"`
	DateOfBirth   string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

// TokenRequest carries a single-use token from an email link
type TokenRequest struct {
	Token string `json:"token" query:"token" validate:"required"`
}

// GoogleLoginRequest carries the ID token issued to the client by Google
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// TwoFactorRequest toggles the second factor
type TwoFactorRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// Login handles password login. With two-factor enabled the response asks for the OTP.
func (h *AuthHandler) Login(kind entity.ActorKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req LoginRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		result, err := h.authUC.Login(c.Request().Context(), deliverycontext.GetSession(c), usecase.LoginInput{
			Kind:     kind,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			return err
		}

		return response.OK(c, toAuthView(result))
	}
}

// VerifyOTP completes a pending two-factor login.
func (h *AuthHandler) VerifyOTP(kind entity.ActorKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req VerifyOTPRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		result, err := h.authUC.VerifyOTP(c.Request().Context(), deliverycontext.GetSession(c), usecase.VerifyOTPInput{
			Kind:  kind,
			Email: req.Email,
			Code:  req.OTP,
		})
		if err != nil {
			return err
		}

		return response.OK(c, toAuthView(result))
	}
}

// Logout clears this kind's login and leaves other kinds signed in.
func (h *AuthHandler) Logout(kind entity.ActorKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := h.authUC.Logout(c.Request().Context(), deliverycontext.GetSession(c), kind); err != nil {
			return err
		}

		return response.OK(c, &AuthView{NextStep: string(entity.NextStepLogin), Message: "Logout successful"})
	}
}

// ForgetPassword mails a reset link.
func (h *AuthHandler) ForgetPassword(kind entity.ActorKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req EmailRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		result, err := h.authUC.ForgetPassword(c.Request().Context(), usecase.ForgetPasswordInput{
			Kind:  kind,
			Email: req.Email,
		})
		if err != nil {
			return err
		}

		return response.OK(c, toAuthView(result))
	}
}

// ResetPassword redeems a reset link.
func (h *AuthHandler) ResetPassword(kind entity.ActorKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req ResetPasswordRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		result, err := h.authUC.ResetPassword(c.Request().Context(), usecase.ResetPasswordInput{
			Kind:        kind,
			Token:       req.Token,
			NewPassword: req.NewPassword,
		})
		if err != nil {
			return err
		}

		return response.OK(c, toAuthView(result))
	}
}

// Register creates an unverified account and mails the verification link.
func (h *AuthHandler) Register(kind entity.ActorKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req RegisterRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		input := usecase.RegisterInput{
			Kind:          kind,
			FullName:      strings.TrimSpace(req.FullName),
			Email:         req.Email,
			Password:      req.Password,
			ContactNumber: req.ContactNumber,
			Gender:        req.Gender,
		}
		if req.DateOfBirth != "" {
			dob, err := time.Parse(dateLayout, req.DateOfBirth)
			if err != nil {
				return domainerrors.ErrValidationFailed.WithDetails("date_of_birth must be YYYY-MM-DD")
			}
			input.DateOfBirth = &dob
		}

		result, err := h.authUC.Register(c.Request().Context(), input)
		if err != nil {
			return err
		}

		return response.Created(c, toAuthView(result))
	}
}

// VerifyEmail redeems a verification link. The token may come as JSON or as a query parameter.
func (h *AuthHandler) VerifyEmail(kind entity.ActorKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req TokenRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		result, err := h.authUC.VerifyEmail(c.Request().Context(), usecase.VerifyEmailInput{
			Kind:  kind,
			Token: req.Token,
		})
		if err != nil {
			return err
		}

		return response.OK(c, toAuthView(result))
	}
}

// GoogleLogin signs in with a Google ID token, creating the account on first use.
func (h *AuthHandler) GoogleLogin(kind entity.ActorKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req GoogleLoginRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		result, err := h.authUC.GoogleLogin(c.Request().Context(), deliverycontext.GetSession(c), usecase.GoogleLoginInput{
			Kind:    kind,
			IDToken: req.IDToken,
		})
		if err != nil {
			return err
		}

		return response.OK(c, toAuthView(result))
	}
}

// Me returns the signed-in actor and where the client should route it.
func (h *AuthHandler) Me(c echo.Context) error {
	actor := deliverycontext.GetActor(c)
	if actor == nil {
		return domainerrors.ErrUnauthorized
	}

	result, err := h.authUC.Me(c.Request().Context(), actor)
	if err != nil {
		return err
	}

	return response.OK(c, toAuthView(result))
}

// UpdateTwoFactor turns the second factor on or off for the signed-in actor.
func (h *AuthHandler) UpdateTwoFactor(c echo.Context) error {
	actor := deliverycontext.GetActor(c)
	if actor == nil {
		return domainerrors.ErrUnauthorized
	}

	var req TwoFactorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authUC.UpdateTwoFactor(c.Request().Context(), actor, *req.Enabled)
	if err != nil {
		return err
	}

	return response.OK(c, toAuthView(result))
}

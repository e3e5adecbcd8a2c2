package errors

import (
	"net/http"
	"strings"

	"philbox/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// Is matches on the business code so copies made by WithDetails still satisfy errors.Is.
func (e *BaseError) Is(target error) bool {
	var other *BaseError
	if !errors.As(target, &other) {
		return false
	}

	return other.errorCode == e.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Authentication
	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"Invalid email or password",
		"",
	)

	// ErrInvalidEmail is only returned by the admin login, which tells an unknown address apart.
	ErrInvalidEmail = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_EMAIL",
		"No admin account exists for this email",
		"",
	)

	ErrAccountBlocked = NewBaseError(
		http.StatusForbidden,
		"ACCOUNT_BLOCKED",
		"This account has been suspended or blocked",
		"",
	)

	ErrEmailNotVerified = NewBaseError(
		http.StatusForbidden,
		"EMAIL_NOT_VERIFIED",
		"Please verify your email before logging in",
		"",
	)

	ErrEmailAlreadyExists = NewBaseError(
		http.StatusConflict,
		"EMAIL_ALREADY_EXISTS",
		"An account with this email already exists",
		"",
	)

	ErrInvalidOrExpiredToken = NewBaseError(
		http.StatusBadRequest,
		"INVALID_OR_EXPIRED_TOKEN",
		"The link is invalid or has expired",
		"",
	)

	ErrInvalidOrExpiredOTP = NewBaseError(
		http.StatusBadRequest,
		"INVALID_OR_EXPIRED_OTP",
		"The verification code is invalid or has expired",
		"",
	)

	ErrInvalidRequest = NewBaseError(
		http.StatusBadRequest,
		"INVALID_REQUEST",
		"No verification code is pending for this account",
		"",
	)

	ErrInvalidSession = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_SESSION",
		"The verification session does not match this account",
		"",
	)

	ErrUnauthorized = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHORIZED",
		"Authentication required",
		"",
	)

	ErrTwoFactorUnsupported = NewBaseError(
		http.StatusBadRequest,
		"TWO_FACTOR_UNSUPPORTED",
		"Two-factor authentication is not available for this account type",
		"",
	)

	ErrPasswordStrength = NewBaseError(
		http.StatusBadRequest,
		"PASSWORD_STRENGTH",
		"Password does not meet the strength requirements",
		"",
	)

	ErrPasswordHashFailed = NewBaseError(
		http.StatusInternalServerError,
		"PASSWORD_HASH_FAILED",
		"Password processing failed",
		"",
	)

	ErrOAuthTokenInvalid = NewBaseError(
		http.StatusUnauthorized,
		"OAUTH_TOKEN_INVALID",
		"The identity token could not be verified",
		"",
	)

	ErrRegistrationUnsupported = NewBaseError(
		http.StatusBadRequest,
		"REGISTRATION_UNSUPPORTED",
		"Self registration is not available for this account type",
		"",
	)

	// Not found
	ErrAdminNotFound = NewBaseError(
		http.StatusNotFound,
		"ADMIN_NOT_FOUND",
		"Admin not found",
		"",
	)

	ErrUserNotFound = NewBaseError(
		http.StatusNotFound,
		"USER_NOT_FOUND",
		"User not found",
		"",
	)

	ErrDoctorNotFound = NewBaseError(
		http.StatusNotFound,
		"DOCTOR_NOT_FOUND",
		"Doctor not found",
		"",
	)

	ErrSalespersonNotFound = NewBaseError(
		http.StatusNotFound,
		"SALESPERSON_NOT_FOUND",
		"Salesperson not found",
		"",
	)

	ErrRoleNotFound = NewBaseError(
		http.StatusInternalServerError,
		"ROLE_NOT_FOUND",
		"Required role is not configured",
		"",
	)

	ErrApplicationNotFound = NewBaseError(
		http.StatusNotFound,
		"APPLICATION_NOT_FOUND",
		"Application not found",
		"",
	)

	ErrNoApplicationFound = NewBaseError(
		http.StatusNotFound,
		"NO_APPLICATION_FOUND",
		"No application has been submitted yet",
		"",
	)

	// Onboarding transitions
	ErrAlreadySubmitted = NewBaseError(
		http.StatusConflict,
		"ALREADY_SUBMITTED",
		"An application is already pending review",
		"",
	)

	ErrAlreadyApproved = NewBaseError(
		http.StatusConflict,
		"ALREADY_APPROVED",
		"This application has already been approved",
		"",
	)

	ErrCannotRejectApproved = NewBaseError(
		http.StatusConflict,
		"CANNOT_REJECT_APPROVED",
		"An approved application cannot be rejected",
		"",
	)

	ErrApplicationNotRejected = NewBaseError(
		http.StatusConflict,
		"APPLICATION_NOT_REJECTED",
		"Only rejected applications can be resubmitted",
		"",
	)

	ErrApplicationNotApproved = NewBaseError(
		http.StatusForbidden,
		"APPLICATION_NOT_APPROVED",
		"Your application must be approved before completing the profile",
		"",
	)

	ErrProfileAlreadyCompleted = NewBaseError(
		http.StatusConflict,
		"PROFILE_ALREADY_COMPLETED",
		"The profile has already been completed",
		"",
	)

	ErrMissingRequiredFiles = NewBaseError(
		http.StatusBadRequest,
		"MISSING_REQUIRED_FILES",
		"Required documents are missing",
		"",
	)

	ErrUploadFailed = NewBaseError(
		http.StatusBadGateway,
		"UPLOAD_FAILED",
		"Failed to upload files, please try again",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"Access denied",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"Resource not found",
		"",
	)

	ErrConflict = NewBaseError(
		http.StatusConflict,
		"CONFLICT",
		"Resource conflict",
		"",
	)

	ErrTooManyRequests = NewBaseError(
		http.StatusTooManyRequests,
		"TOO_MANY_REQUESTS",
		"Too many requests, please slow down",
		"",
	)
)

// MissingFilesError reports which required documents were absent from a submission.
type MissingFilesError struct {
	Items []string
}

// NewMissingFilesError builds the error for the given display names.
func NewMissingFilesError(items []string) *MissingFilesError {
	return &MissingFilesError{Items: items}
}

// Error implements the error interface
func (e *MissingFilesError) Error() string {
	return "missing required files: " + strings.Join(e.Items, ", ")
}

// Is lets callers match with errors.Is(err, ErrMissingRequiredFiles).
func (e *MissingFilesError) Is(target error) bool {
	return target == ErrMissingRequiredFiles
}

// HTTPCode returns the HTTP status code
func (e *MissingFilesError) HTTPCode() int {
	return ErrMissingRequiredFiles.HTTPCode()
}

// ErrorCode returns the business error code
func (e *MissingFilesError) ErrorCode() string {
	return ErrMissingRequiredFiles.ErrorCode()
}

// Message returns the user-friendly error message
func (e *MissingFilesError) Message() string {
	return "Missing required files: " + strings.Join(e.Items, ", ")
}

// Details returns the comma separated missing items
func (e *MissingFilesError) Details() string {
	return strings.Join(e.Items, ", ")
}

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error to errors.Is/As
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "Database operation failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}

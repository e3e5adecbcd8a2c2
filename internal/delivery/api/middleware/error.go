package middleware

import (
	"log/slog"
	"net/http"

	"philbox/internal/delivery/api/response"
	"philbox/internal/delivery/api/validator"
	deliverycontext "philbox/internal/delivery/context"
	domainerrors "philbox/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ErrorMiddleware handles errors in the HTTP pipeline
type ErrorMiddleware struct {
	logger *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger: logger,
	}
}

// HandleHTTPError handles errors as Echo's HTTPErrorHandler
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, code, message, details := m.classify(err)
	if status >= http.StatusInternalServerError {
		deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).Error("Request failed",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
			slog.String("method", c.Request().Method),
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)

		return
	}
	_ = response.Error(c, status, code, message, details)
}

func (m *ErrorMiddleware) classify(err error) (status int, code, message string, details any) {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return verr.HTTPCode(), verr.ErrorCode(), verr.Message(), verr.Fields
	}

	var missing *domainerrors.MissingFilesError
	if errors.As(err, &missing) {
		return missing.HTTPCode(), missing.ErrorCode(), missing.Message(), map[string]any{"missing": missing.Items}
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPCode() >= http.StatusInternalServerError {
			return appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), nil
		}
		if d := appErr.Details(); d != "" {
			details = d
		}

		return appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), details
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}

		return httpErr.Code, httpErrorCode(httpErr.Code), message, nil
	}

	return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error, please try again later", nil
}

func httpErrorCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusUnsupportedMediaType:
		return "UNSUPPORTED_MEDIA_TYPE"
	case http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}

		return "HTTP_ERROR"
	}
}

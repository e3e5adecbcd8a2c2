package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"philbox/internal/delivery/api/response"
	"philbox/internal/delivery/api/validator"
	domainerrors "philbox/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runErrorHandler(t *testing.T, err error) (*httptest.ResponseRecorder, response.ErrorResponse) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	NewErrorMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))).HandleHTTPError(err, c)

	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)

	return rec, body
}

func TestHandleHTTPError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantDetails bool
	}{
		{
			name:       "domain error",
			err:        domainerrors.ErrInvalidCredentials,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_CREDENTIALS",
		},
		{
			name:       "wrapped domain error",
			err:        errors.Wrap(domainerrors.ErrAlreadyApproved, "approve"),
			wantStatus: http.StatusConflict,
			wantCode:   "ALREADY_APPROVED",
		},
		{
			name:        "details kept for client errors",
			err:         domainerrors.ErrValidationFailed.WithDetails("license_number is required"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    "VALIDATION_FAILED",
			wantDetails: true,
		},
		{
			name:       "database error hides details",
			err:        domainerrors.NewDatabaseExecuteError(errors.New("pq: deadlock"), "failed to update"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "DATABASE_EXECUTE_FAILED",
		},
		{
			name:       "echo error",
			err:        echo.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := runErrorHandler(t, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			if tt.wantDetails {
				assert.NotNil(t, body.Error.Details)
			} else {
				assert.Nil(t, body.Error.Details)
			}
			assert.NotContains(t, rec.Body.String(), "pq: deadlock")
		})
	}
}

func TestHandleHTTPError_MissingFiles(t *testing.T) {
	rec, body := runErrorHandler(t, domainerrors.NewMissingFilesError([]string{"CNIC", "MEDICAL LICENSE"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_REQUIRED_FILES", body.Error.Code)
	details, ok := body.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"CNIC", "MEDICAL LICENSE"}, details["missing"])
}

func TestHandleHTTPError_ValidationFields(t *testing.T) {
	type req struct {
		Email string `json:"email" validate:"required,email"`
	}
	err := validator.New().Validate(&req{Email: "nope"})
	require.Error(t, err)

	rec, body := runErrorHandler(t, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	fields, ok := body.Error.Details.([]any)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "email", fields[0].(map[string]any)["field"])
}

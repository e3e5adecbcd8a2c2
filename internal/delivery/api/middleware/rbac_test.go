package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRBACMiddleware(t *testing.T) {
	readDoctors := entity.Perm(entity.ResourceDoctors, entity.ActionRead)
	admin := &entity.Actor{ID: uuid.New(), Kind: entity.ActorKindAdmin}

	tests := []struct {
		name       string
		actor      *entity.Actor
		granted    bool
		guard      func(*RBACMiddleware) echo.MiddlewareFunc
		setup      func(*mockPermissions, bool)
		wantStatus int
	}{
		{
			name:    "permission granted",
			actor:   admin,
			granted: true,
			guard:   func(m *RBACMiddleware) echo.MiddlewareFunc { return m.RequirePermission(readDoctors) },
			setup: func(p *mockPermissions, ok bool) {
				p.On("HasAll", mock.Anything, admin, []entity.PermissionKey{readDoctors}).Return(ok)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "permission denied",
			actor: admin,
			guard: func(m *RBACMiddleware) echo.MiddlewareFunc { return m.RequirePermission(readDoctors) },
			setup: func(p *mockPermissions, ok bool) {
				p.On("HasAll", mock.Anything, admin, []entity.PermissionKey{readDoctors}).Return(ok)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:    "any permission",
			actor:   admin,
			granted: true,
			guard:   func(m *RBACMiddleware) echo.MiddlewareFunc { return m.RequireAnyPermission(readDoctors) },
			setup: func(p *mockPermissions, ok bool) {
				p.On("HasAny", mock.Anything, admin, []entity.PermissionKey{readDoctors}).Return(ok)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "role denied",
			actor: admin,
			guard: func(m *RBACMiddleware) echo.MiddlewareFunc { return m.RequireRole(entity.RoleSuperAdmin) },
			setup: func(p *mockPermissions, ok bool) {
				p.On("HasRole", mock.Anything, admin, []entity.RoleName{entity.RoleSuperAdmin}).Return(ok)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "no actor",
			guard:      func(m *RBACMiddleware) echo.MiddlewareFunc { return m.RequirePermission(readDoctors) },
			setup:      func(*mockPermissions, bool) {},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perms := &mockPermissions{}
			tt.setup(perms, tt.granted)
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			mw := NewRBACMiddleware(RBACMiddlewareParams{Permissions: perms, Logger: logger})

			e := echo.New()
			e.HTTPErrorHandler = NewErrorMiddleware(logger).HandleHTTPError
			setActor := func(next echo.HandlerFunc) echo.HandlerFunc {
				return func(c echo.Context) error {
					if tt.actor != nil {
						deliverycontext.SetActor(c, tt.actor)
					}

					return next(c)
				}
			}
			e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, setActor, tt.guard(mw))

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			perms.AssertExpectations(t)
		})
	}
}

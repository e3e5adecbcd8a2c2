package middleware

import (
	"log/slog"

	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// RBACMiddleware guards routes with role and permission checks. It must be used
// AFTER SessionMiddleware.RequireActor.
type RBACMiddleware struct {
	permissions usecase.PermissionUsecase
	logger      *slog.Logger
}

// RBACMiddlewareParams holds dependencies for RBACMiddleware, injected by Fx.
type RBACMiddlewareParams struct {
	fx.In

	Permissions usecase.PermissionUsecase
	Logger      *slog.Logger
}

// NewRBACMiddleware is the constructor for RBACMiddleware.
func NewRBACMiddleware(params RBACMiddlewareParams) *RBACMiddleware {
	return &RBACMiddleware{
		permissions: params.Permissions,
		logger:      params.Logger,
	}
}

// RequirePermission admits actors holding every listed permission.
func (m *RBACMiddleware) RequirePermission(keys ...entity.PermissionKey) echo.MiddlewareFunc {
	return m.guard("permission", func(c echo.Context, actor *entity.Actor) bool {
		return m.permissions.HasAll(c.Request().Context(), actor, keys...)
	})
}

// RequireAnyPermission admits actors holding at least one listed permission.
func (m *RBACMiddleware) RequireAnyPermission(keys ...entity.PermissionKey) echo.MiddlewareFunc {
	return m.guard("any_permission", func(c echo.Context, actor *entity.Actor) bool {
		return m.permissions.HasAny(c.Request().Context(), actor, keys...)
	})
}

// RequireRole admits actors whose role is one of names.
func (m *RBACMiddleware) RequireRole(names ...entity.RoleName) echo.MiddlewareFunc {
	return m.guard("role", func(c echo.Context, actor *entity.Actor) bool {
		return m.permissions.HasRole(c.Request().Context(), actor, names...)
	})
}

func (m *RBACMiddleware) guard(check string, allowed func(echo.Context, *entity.Actor) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := deliverycontext.GetActor(c)
			if actor == nil {
				return domainerrors.ErrUnauthorized
			}

			if !allowed(c, actor) {
				deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).Info("Access denied",
					slog.String("check", check),
					slog.String("kind", actor.Kind.String()),
					slog.String("actorID", actor.ID.String()),
					slog.String("route", c.Path()))

				return domainerrors.ErrForbidden
			}

			return next(c)
		}
	}
}

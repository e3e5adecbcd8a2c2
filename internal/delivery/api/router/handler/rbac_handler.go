package handler

import (
	"log/slog"

	"philbox/internal/delivery/api/response"
	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// RBACHandlerParams holds dependencies for RBACHandler, injected by Fx.
type RBACHandlerParams struct {
	fx.In

	RoleUC       usecase.RoleUsecase
	PermissionUC usecase.PermissionUsecase
	Logger       *slog.Logger
}

// RBACHandler serves role and permission administration.
type RBACHandler struct {
	roleUC       usecase.RoleUsecase
	permissionUC usecase.PermissionUsecase
	logger       *slog.Logger
}

// NewRBACHandler is the constructor for RBACHandler.
func NewRBACHandler(params RBACHandlerParams) *RBACHandler {
	return &RBACHandler{
		roleUC:       params.RoleUC,
		permissionUC: params.PermissionUC,
		logger:       params.Logger,
	}
}

// SetRolePermissionsRequest replaces the grants of a role
type SetRolePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required,dive,required"`
}

// ListRoles returns every role with its permissions.
func (h *RBACHandler) ListRoles(c echo.Context) error {
	roles, err := h.roleUC.ListRoles(c.Request().Context())
	if err != nil {
		return err
	}

	views := make([]*RoleView, 0, len(roles))
	for _, r := range roles {
		views = append(views, toRoleView(r))
	}

	return response.OK(c, views)
}

// ListPermissions returns the permission catalogue.
func (h *RBACHandler) ListPermissions(c echo.Context) error {
	perms, err := h.roleUC.ListPermissions(c.Request().Context())
	if err != nil {
		return err
	}

	views := make([]PermissionView, 0, len(perms))
	for _, p := range perms {
		views = append(views, toPermissionView(p))
	}

	return response.OK(c, views)
}

// MyPermissions returns the signed-in actor's role and effective permissions.
func (h *RBACHandler) MyPermissions(c echo.Context) error {
	actor := deliverycontext.GetActor(c)
	if actor == nil {
		return domainerrors.ErrUnauthorized
	}

	resolved, err := h.permissionUC.Resolve(c.Request().Context(), actor)
	if err != nil {
		return err
	}

	return response.OK(c, &RoleView{
		Name:        resolved.Name.String(),
		Permissions: resolved.Permissions.Names(),
	})
}

// SetRolePermissions replaces the permissions granted to a role.
func (h *RBACHandler) SetRolePermissions(c echo.Context) error {
	admin := deliverycontext.GetActor(c)
	if admin == nil {
		return domainerrors.ErrUnauthorized
	}

	var req SetRolePermissionsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	role, err := h.roleUC.SetRolePermissions(c.Request().Context(), admin, entity.RoleName(c.Param("name")), req.Permissions)
	if err != nil {
		return err
	}

	return response.OK(c, toRoleView(role))
}

package repository

import (
	"context"

	"philbox/internal/domain/entity"
	"philbox/internal/errors"

	"github.com/google/uuid"
)

// Domain-specific errors for RBAC persistence.
var (
	// ErrRoleNotFound is returned when a role reference does not resolve.
	ErrRoleNotFound = errors.New("role not found")
	// ErrPermissionNotFound is returned when a permission key is not in the catalogue.
	ErrPermissionNotFound = errors.New("permission not found")
)

// RoleRepository persists roles and the permission catalogue.
type RoleRepository interface {
	// FindByID retrieves a role with its permissions preloaded.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Role, error)

	// FindByName retrieves a role with its permissions preloaded.
	FindByName(ctx context.Context, name entity.RoleName) (*entity.Role, error)

	// List returns every role with permissions, ordered by name.
	List(ctx context.Context) ([]*entity.Role, error)

	// ListPermissions returns the permission catalogue ordered by resource and action.
	ListPermissions(ctx context.Context) ([]*entity.Permission, error)

	// UpsertPermission ensures a permission exists for the key and returns it.
	UpsertPermission(ctx context.Context, key entity.PermissionKey) (*entity.Permission, error)

	// UpsertRole ensures a role exists by name and returns it.
	UpsertRole(ctx context.Context, name entity.RoleName, description string) (*entity.Role, error)

	// ReplacePermissions replaces the role's grants with the given permissions.
	ReplacePermissions(ctx context.Context, roleID uuid.UUID, permissions []*entity.Permission) error
}

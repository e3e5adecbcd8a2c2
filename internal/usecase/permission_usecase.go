package usecase

import (
	"context"

	"philbox/internal/domain/entity"
)

// PermissionUsecase answers authorization questions. Every check fails closed.
type PermissionUsecase interface {
	Resolve(ctx context.Context, actor *entity.Actor) (*entity.ResolvedRole, error)
	HasPermission(ctx context.Context, actor *entity.Actor, key entity.PermissionKey) bool
	HasAny(ctx context.Context, actor *entity.Actor, keys ...entity.PermissionKey) bool
	HasAll(ctx context.Context, actor *entity.Actor, keys ...entity.PermissionKey) bool
	HasRole(ctx context.Context, actor *entity.Actor, names ...entity.RoleName) bool
}

// RoleUsecase administers the role and permission catalogue.
type RoleUsecase interface {
	ListRoles(ctx context.Context) ([]*entity.Role, error)
	ListPermissions(ctx context.Context) ([]*entity.Permission, error)
	SetRolePermissions(ctx context.Context, admin *entity.Actor, name entity.RoleName, permissions []string) (*entity.Role, error)
	SeedDefaults(ctx context.Context) error
}

package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/domain/repository"
	"philbox/internal/domain/service"
	"philbox/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

var roleDescriptions = map[entity.RoleName]string{
	entity.RoleSuperAdmin:  "Full platform access",
	entity.RoleBranchAdmin: "Manages a single branch and its staff",
	entity.RoleDoctor:      "Consults customers and writes prescriptions",
	entity.RoleSalesperson: "Fulfils prescriptions at a branch",
	entity.RoleCustomer:    "Books appointments and views prescriptions",
}

// roleService implements the RoleUsecase interface.
type roleService struct {
	repos     repository.RepositoryFactory
	txManager repository.TransactionManager
	clock     service.Clock
	audit     *auditor
	logger    *slog.Logger
}

// RoleServiceParams holds dependencies for RoleService, injected by Fx.
type RoleServiceParams struct {
	fx.In

	Repos     repository.RepositoryFactory
	TxManager repository.TransactionManager
	Clock     service.Clock
	Audit     service.AuditSink
	Metrics   service.MetricsRecorder `optional:"true"`
	Logger    *slog.Logger
}

// NewRoleService is the constructor for roleService.
func NewRoleService(params RoleServiceParams) usecase.RoleUsecase {
	return &roleService{
		repos:     params.Repos,
		txManager: params.TxManager,
		clock:     params.Clock,
		audit:     newAuditor(params.Audit, params.Metrics),
		logger:    params.Logger,
	}
}

func (srv *roleService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListRoles returns every role with its permissions.
func (srv *roleService) ListRoles(ctx context.Context) ([]*entity.Role, error) {
	roles, err := srv.repos.RoleRepo().List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list roles")
	}

	return roles, nil
}

// ListPermissions returns the permission catalogue.
func (srv *roleService) ListPermissions(ctx context.Context) ([]*entity.Permission, error) {
	perms, err := srv.repos.RoleRepo().ListPermissions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list permissions")
	}

	return perms, nil
}

// SetRolePermissions replaces a role's grants with the named permissions.
func (srv *roleService) SetRolePermissions(ctx context.Context, admin *entity.Actor, name entity.RoleName, permissions []string) (*entity.Role, error) {
	if !name.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown role: " + string(name))
	}

	keys := make([]entity.PermissionKey, 0, len(permissions))
	var invalid []string
	for _, raw := range permissions {
		key, ok := entity.ParsePermissionKey(strings.TrimSpace(raw))
		if !ok {
			invalid = append(invalid, raw)

			continue
		}
		keys = append(keys, key)
	}
	if len(invalid) > 0 {
		return nil, domainerrors.ErrValidationFailed.WithDetails("invalid permissions: " + strings.Join(invalid, ", "))
	}

	now := srv.clock.Now()
	var updated *entity.Role
	err := srv.txManager.Execute(ctx, func(factory repository.RepositoryFactory) error {
		roleRepo := factory.RoleRepo()

		role, err := roleRepo.FindByName(ctx, name)
		if errors.Is(err, repository.ErrRoleNotFound) {
			return domainerrors.ErrNotFound.WithDetails("role " + string(name) + " does not exist")
		}
		if err != nil {
			return errors.Wrap(err, "failed to find role")
		}

		perms := make([]*entity.Permission, 0, len(keys))
		for _, key := range keys {
			perm, err := roleRepo.UpsertPermission(ctx, key)
			if err != nil {
				return errors.Wrapf(err, "failed to upsert permission %s", key.Name())
			}
			perms = append(perms, perm)
		}

		if err := roleRepo.ReplacePermissions(ctx, role.ID, perms); err != nil {
			return errors.Wrap(err, "failed to replace role permissions")
		}

		updated, err = roleRepo.FindByID(ctx, role.ID)

		return errors.Wrap(err, "failed to reload role")
	})
	if err != nil {
		return nil, err
	}

	srv.audit.record(ctx, srv.log(ctx), auditEntry{
		actor:       admin,
		action:      entity.AuditUpdateRolePermissions,
		description: "Updated permissions of role " + string(name),
		collection:  "roles",
		resourceID:  updated.ID.String(),
		changes:     map[string]any{"permissions": entity.NewPermissionSet(updated.Permissions).Names()},
		at:          now,
	})

	return updated, nil
}

// SeedDefaults creates the permission catalogue and the default role grants. It is idempotent.
func (srv *roleService) SeedDefaults(ctx context.Context) error {
	err := srv.txManager.Execute(ctx, func(factory repository.RepositoryFactory) error {
		roleRepo := factory.RoleRepo()

		catalogue := make(map[entity.PermissionKey]*entity.Permission)
		for _, resource := range entity.Resources() {
			for _, action := range entity.Actions() {
				key := entity.Perm(resource, action)
				perm, err := roleRepo.UpsertPermission(ctx, key)
				if err != nil {
					return errors.Wrapf(err, "failed to seed permission %s", key.Name())
				}
				catalogue[key] = perm
			}
		}

		for name, grants := range entity.DefaultRoleGrants() {
			role, err := roleRepo.UpsertRole(ctx, name, roleDescriptions[name])
			if err != nil {
				return errors.Wrapf(err, "failed to seed role %s", name)
			}

			perms := make([]*entity.Permission, 0, len(grants))
			for _, key := range grants {
				perms = append(perms, catalogue[key])
			}
			if err := roleRepo.ReplacePermissions(ctx, role.ID, perms); err != nil {
				return errors.Wrapf(err, "failed to seed grants of role %s", name)
			}
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to seed roles")
	}

	srv.log(ctx).Info("Seeded default roles and permissions",
		slog.Int("roles", len(entity.DefaultRoleGrants())),
		slog.Int("permissions", len(entity.Resources())*len(entity.Actions())))

	return nil
}

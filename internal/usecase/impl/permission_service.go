package impl

import (
	"context"
	"log/slog"
	"slices"

	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/domain/repository"
	"philbox/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// permissionService implements the PermissionUsecase interface.
// Resolution is a single role lookup per call; nothing is cached across requests.
type permissionService struct {
	repos  repository.RepositoryFactory
	logger *slog.Logger
}

// PermissionServiceParams holds dependencies for PermissionService, injected by Fx.
type PermissionServiceParams struct {
	fx.In

	Repos  repository.RepositoryFactory
	Logger *slog.Logger
}

// NewPermissionService is the constructor for permissionService.
func NewPermissionService(params PermissionServiceParams) usecase.PermissionUsecase {
	return &permissionService{
		repos:  params.Repos,
		logger: params.Logger,
	}
}

func (srv *permissionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Resolve dereferences the actor's role into its permission set.
func (srv *permissionService) Resolve(ctx context.Context, actor *entity.Actor) (*entity.ResolvedRole, error) {
	if actor == nil || actor.RoleID == nil {
		return nil, domainerrors.ErrForbidden.WrapMessage("actor has no role")
	}

	role, err := srv.repos.RoleRepo().FindByID(ctx, *actor.RoleID)
	if errors.Is(err, repository.ErrRoleNotFound) {
		return nil, domainerrors.ErrForbidden.WrapMessage("actor role does not exist")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load role")
	}

	return &entity.ResolvedRole{
		Name:        role.Name,
		Permissions: entity.NewPermissionSet(role.Permissions),
	}, nil
}

// HasPermission reports whether the actor holds key.
func (srv *permissionService) HasPermission(ctx context.Context, actor *entity.Actor, key entity.PermissionKey) bool {
	resolved, ok := srv.resolveOrDeny(ctx, actor)

	return ok && resolved.Permissions.Has(key)
}

// HasAny reports whether the actor holds at least one of keys.
func (srv *permissionService) HasAny(ctx context.Context, actor *entity.Actor, keys ...entity.PermissionKey) bool {
	resolved, ok := srv.resolveOrDeny(ctx, actor)

	return ok && resolved.Permissions.HasAny(keys)
}

// HasAll reports whether the actor holds every key.
func (srv *permissionService) HasAll(ctx context.Context, actor *entity.Actor, keys ...entity.PermissionKey) bool {
	resolved, ok := srv.resolveOrDeny(ctx, actor)

	return ok && resolved.Permissions.HasAll(keys)
}

// HasRole reports whether the actor's role is one of names.
func (srv *permissionService) HasRole(ctx context.Context, actor *entity.Actor, names ...entity.RoleName) bool {
	resolved, ok := srv.resolveOrDeny(ctx, actor)

	return ok && slices.Contains(names, resolved.Name)
}

// resolveOrDeny turns every resolution failure into a denial.
func (srv *permissionService) resolveOrDeny(ctx context.Context, actor *entity.Actor) (*entity.ResolvedRole, bool) {
	resolved, err := srv.Resolve(ctx, actor)
	if err != nil {
		attrs := []any{slog.Any("error", err)}
		if actor != nil {
			attrs = append(attrs, slog.String("actorID", actor.ID.String()), slog.String("kind", actor.Kind.String()))
		}
		srv.log(ctx).Warn("Permission resolution failed, denying", attrs...)

		return nil, false
	}

	return resolved, true
}

package postgres

import (
	"context"

	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/domain/repository"
	"philbox/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// roleRepository implements the domain.RoleRepository interface using GORM.
type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository is the constructor for roleRepository.
func NewRoleRepository(db *gorm.DB) repository.RoleRepository {
	return &roleRepository{db: db}
}

// FindByID retrieves a role with its permissions preloaded.
func (repo *roleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Role, error) {
	return repo.take(ctx, "id = ?", id)
}

// FindByName retrieves a role with its permissions preloaded.
func (repo *roleRepository) FindByName(ctx context.Context, name entity.RoleName) (*entity.Role, error) {
	return repo.take(ctx, "name = ?", string(name))
}

// List returns every role with permissions, ordered by name.
func (repo *roleRepository) List(ctx context.Context) ([]*entity.Role, error) {
	var roleModels []model.RoleModel
	err := repo.db.WithContext(ctx).
		Preload("Permissions", orderPermissions).
		Order("name ASC").
		Find(&roleModels).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list roles")
	}

	roles := make([]*entity.Role, 0, len(roleModels))
	for i := range roleModels {
		roles = append(roles, toRoleDomain(&roleModels[i]))
	}

	return roles, nil
}

// ListPermissions returns the permission catalogue ordered by resource and action.
func (repo *roleRepository) ListPermissions(ctx context.Context) ([]*entity.Permission, error) {
	var permModels []model.PermissionModel
	if err := orderPermissions(repo.db.WithContext(ctx)).Find(&permModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list permissions")
	}

	perms := make([]*entity.Permission, 0, len(permModels))
	for i := range permModels {
		p := toPermissionDomain(&permModels[i])
		perms = append(perms, &p)
	}

	return perms, nil
}

// UpsertPermission inserts the key if it is new and returns the stored row either way.
func (repo *roleRepository) UpsertPermission(ctx context.Context, key entity.PermissionKey) (*entity.Permission, error) {
	permM := &model.PermissionModel{
		ID:          uuid.New(),
		Resource:    string(key.Resource),
		Action:      string(key.Action),
		Description: key.Description(),
	}

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "resource"}, {Name: "action"}},
			DoNothing: true,
		}).
		Create(permM).Error
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to upsert permission "+key.Name())
	}

	var stored model.PermissionModel
	err = repo.db.WithContext(ctx).
		Where("resource = ? AND action = ?", permM.Resource, permM.Action).
		Take(&stored).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload permission")
	}
	p := toPermissionDomain(&stored)

	return &p, nil
}

// UpsertRole inserts the role if it is new, refreshing the description otherwise.
func (repo *roleRepository) UpsertRole(ctx context.Context, name entity.RoleName, description string) (*entity.Role, error) {
	roleM := &model.RoleModel{
		ID:          uuid.New(),
		Name:        string(name),
		Description: description,
	}

	err := repo.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description"}),
		}).
		Create(roleM).Error
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to upsert role "+string(name))
	}

	return repo.FindByName(ctx, name)
}

// ReplacePermissions rewrites the join rows of a role.
func (repo *roleRepository) ReplacePermissions(ctx context.Context, roleID uuid.UUID, permissions []*entity.Permission) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).Delete(&model.RolePermissionModel{}).Error; err != nil {
			return errors.Wrap(err, "failed to clear role permissions")
		}
		if len(permissions) == 0 {
			return nil
		}

		rows := make([]model.RolePermissionModel, 0, len(permissions))
		for _, p := range permissions {
			rows = append(rows, model.RolePermissionModel{RoleID: roleID, PermissionID: p.ID})
		}
		if err := tx.Create(&rows).Error; err != nil {
			if isForeignKeyConstraintViolation(err) {
				return errors.WithStack(repository.ErrPermissionNotFound)
			}

			return domainerrors.NewDatabaseExecuteError(err, "failed to grant role permissions")
		}

		return nil
	})
}

func (repo *roleRepository) take(ctx context.Context, query string, args ...any) (*entity.Role, error) {
	var roleM model.RoleModel
	err := repo.db.WithContext(ctx).
		Preload("Permissions", orderPermissions).
		Where(query, args...).
		Take(&roleM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoleNotFound
		}

		return nil, errors.Wrap(err, "failed to find role")
	}

	return toRoleDomain(&roleM), nil
}

func orderPermissions(db *gorm.DB) *gorm.DB {
	return db.Order("resource ASC").Order("action ASC")
}

// --- Mapper Functions ---

func toRoleDomain(data *model.RoleModel) *entity.Role {
	if data == nil {
		return nil
	}

	perms := make([]entity.Permission, 0, len(data.Permissions))
	for i := range data.Permissions {
		perms = append(perms, toPermissionDomain(&data.Permissions[i]))
	}

	return &entity.Role{
		ID:          data.ID,
		Name:        entity.RoleName(data.Name),
		Description: data.Description,
		Permissions: perms,
	}
}

func toPermissionDomain(data *model.PermissionModel) entity.Permission {
	return entity.Permission{
		ID:          data.ID,
		Resource:    entity.Resource(data.Resource),
		Action:      entity.Action(data.Action),
		Description: data.Description,
	}
}

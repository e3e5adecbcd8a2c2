package model

import (
	"github.com/google/uuid"
)

// RoleModel is the GORM-specific struct for the 'roles' table.
type RoleModel struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Name        string            `gorm:"type:varchar(50);uniqueIndex;not null"`
	Description string            `gorm:"type:text"`
	Permissions []PermissionModel `gorm:"many2many:role_permissions;joinForeignKey:RoleID;joinReferences:PermissionID"`
}

// TableName explicitly sets the table name for GORM.
func (RoleModel) TableName() string {
	return "roles"
}

// PermissionModel is the GORM-specific struct for the 'permissions' table.
// (resource, action) is unique.
type PermissionModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Resource    string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_permissions_resource_action"`
	Action      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_permissions_resource_action"`
	Description string    `gorm:"type:text"`
}

// TableName explicitly sets the table name for GORM.
func (PermissionModel) TableName() string {
	return "permissions"
}

// RolePermissionModel is the join row between roles and permissions.
type RolePermissionModel struct {
	RoleID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	PermissionID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

// TableName explicitly sets the table name for GORM.
func (RolePermissionModel) TableName() string {
	return "role_permissions"
}

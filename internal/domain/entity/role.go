package entity

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// RoleName is the closed set of role names an actor can reference.
type RoleName string

const (
	RoleSuperAdmin  RoleName = "super_admin"
	RoleBranchAdmin RoleName = "branch_admin"
	RoleDoctor      RoleName = "doctor"
	RoleSalesperson RoleName = "salesperson"
	RoleCustomer    RoleName = "customer"
)

// String returns the string representation of the RoleName.
func (r RoleName) String() string {
	return string(r)
}

// IsValid checks if the RoleName is a valid value.
func (r RoleName) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleBranchAdmin, RoleDoctor, RoleSalesperson, RoleCustomer:
		return true
	default:
		return false
	}
}

// Action is the verb half of a permission.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Actions lists all actions in CRUD order.
func Actions() []Action {
	return []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
}

// IsValid checks if the Action is a valid value.
func (a Action) IsValid() bool {
	return slices.Contains(Actions(), a)
}

// Resource is the noun half of a permission.
type Resource string

const (
	ResourceUsers         Resource = "users"
	ResourceBranches      Resource = "branches"
	ResourceDoctors       Resource = "doctors"
	ResourceCustomers     Resource = "customers"
	ResourceSalespersons  Resource = "salespersons"
	ResourceAppointments  Resource = "appointments"
	ResourcePrescriptions Resource = "prescriptions"
	ResourceReports       Resource = "reports"
)

// Resources lists every protected resource.
func Resources() []Resource {
	return []Resource{
		ResourceUsers, ResourceBranches, ResourceDoctors, ResourceCustomers,
		ResourceSalespersons, ResourceAppointments, ResourcePrescriptions, ResourceReports,
	}
}

// PermissionKey is the (resource, action) pair that identifies a permission.
type PermissionKey struct {
	Resource Resource
	Action   Action
}

// Perm is shorthand for building a PermissionKey.
func Perm(resource Resource, action Action) PermissionKey {
	return PermissionKey{Resource: resource, Action: action}
}

// Name renders the key as "<action>_<resource>".
func (k PermissionKey) Name() string {
	return string(k.Action) + "_" + string(k.Resource)
}

// Description renders a human description such as "Create users".
func (k PermissionKey) Description() string {
	action := string(k.Action)
	if action == "" {
		return string(k.Resource)
	}

	return strings.ToUpper(action[:1]) + action[1:] + " " + string(k.Resource)
}

// ParsePermissionKey reverses Name. It returns false for unknown actions.
func ParsePermissionKey(name string) (PermissionKey, bool) {
	action, resource, ok := strings.Cut(name, "_")
	if !ok || resource == "" {
		return PermissionKey{}, false
	}
	key := PermissionKey{Resource: Resource(resource), Action: Action(action)}
	if !key.Action.IsValid() {
		return PermissionKey{}, false
	}

	return key, true
}

// Permission is a stored (resource, action) grant.
type Permission struct {
	ID          uuid.UUID
	Resource    Resource
	Action      Action
	Description string
}

// Key returns the identifying pair of the permission.
func (p Permission) Key() PermissionKey {
	return PermissionKey{Resource: p.Resource, Action: p.Action}
}

// Name returns the "<action>_<resource>" form.
func (p Permission) Name() string {
	return p.Key().Name()
}

// Role aggregates permissions under a unique name.
type Role struct {
	ID          uuid.UUID
	Name        RoleName
	Description string
	Permissions []Permission
}

// PermissionSet is the expanded set of grants a role resolves to.
type PermissionSet map[PermissionKey]struct{}

// NewPermissionSet builds a set from permission records.
func NewPermissionSet(perms []Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p.Key()] = struct{}{}
	}

	return set
}

// Has reports membership of a single key.
func (s PermissionSet) Has(key PermissionKey) bool {
	_, ok := s[key]

	return ok
}

// HasAny reports whether at least one of keys is present. An empty list grants nothing.
func (s PermissionSet) HasAny(keys []PermissionKey) bool {
	return slices.ContainsFunc(keys, s.Has)
}

// HasAll reports whether every key is present. An empty list grants nothing.
func (s PermissionSet) HasAll(keys []PermissionKey) bool {
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if !s.Has(k) {
			return false
		}
	}

	return true
}

// Names returns the sorted permission names in the set.
func (s PermissionSet) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k.Name())
	}
	slices.Sort(names)

	return names
}

// ResolvedRole is a role dereferenced into its permission set.
type ResolvedRole struct {
	Name        RoleName
	Permissions PermissionSet
}

// DefaultRoleGrants is the seed mapping from role to permissions.
func DefaultRoleGrants() map[RoleName][]PermissionKey {
	all := make([]PermissionKey, 0, len(Resources())*len(Actions()))
	for _, r := range Resources() {
		for _, a := range Actions() {
			all = append(all, Perm(r, a))
		}
	}

	return map[RoleName][]PermissionKey{
		RoleSuperAdmin: all,
		RoleBranchAdmin: {
			Perm(ResourceBranches, ActionRead), Perm(ResourceBranches, ActionUpdate),
			Perm(ResourceUsers, ActionCreate), Perm(ResourceUsers, ActionRead), Perm(ResourceUsers, ActionUpdate),
			Perm(ResourceDoctors, ActionRead), Perm(ResourceDoctors, ActionUpdate),
			Perm(ResourceCustomers, ActionRead), Perm(ResourceCustomers, ActionUpdate),
			Perm(ResourceSalespersons, ActionRead), Perm(ResourceSalespersons, ActionUpdate),
			Perm(ResourceAppointments, ActionRead), Perm(ResourceAppointments, ActionUpdate),
			Perm(ResourceReports, ActionRead),
		},
		RoleDoctor: {
			Perm(ResourceAppointments, ActionRead), Perm(ResourceAppointments, ActionUpdate), Perm(ResourceAppointments, ActionCreate),
			Perm(ResourcePrescriptions, ActionCreate), Perm(ResourcePrescriptions, ActionRead), Perm(ResourcePrescriptions, ActionUpdate),
			Perm(ResourceCustomers, ActionRead),
			Perm(ResourceReports, ActionRead),
		},
		RoleSalesperson: {
			Perm(ResourcePrescriptions, ActionRead), Perm(ResourcePrescriptions, ActionUpdate),
			Perm(ResourceCustomers, ActionRead),
			Perm(ResourceAppointments, ActionRead),
			Perm(ResourceReports, ActionRead),
		},
		RoleCustomer: {
			Perm(ResourceAppointments, ActionCreate), Perm(ResourceAppointments, ActionRead), Perm(ResourceAppointments, ActionUpdate),
			Perm(ResourcePrescriptions, ActionRead), Perm(ResourcePrescriptions, ActionUpdate),
			Perm(ResourceReports, ActionRead),
		},
	}
}

// DefaultRoleFor maps an actor kind to the role assigned at account creation.
func DefaultRoleFor(kind ActorKind) RoleName {
	switch kind {
	case ActorKindAdmin:
		return RoleBranchAdmin
	case ActorKindDoctor:
		return RoleDoctor
	case ActorKindSalesperson:
		return RoleSalesperson
	default:
		return RoleCustomer
	}
}

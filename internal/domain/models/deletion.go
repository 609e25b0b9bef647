// internal/domain/models/deletion.go
package models

// DeletionMode says whether an entity is tombstoned or physically removed.
type DeletionMode string

const (
	SoftDelete DeletionMode = "soft" // active=false; still readable by id
	HardDelete DeletionMode = "hard" // document removed
)

// DeletionPolicy describes how one entity type is deleted and by whom.
// OwnerMayDelete applies only to entities with a per-user owner.
type DeletionPolicy struct {
	Mode           DeletionMode
	Roles          []string
	OwnerMayDelete bool
}

// DeletionPolicies is the single source for delete semantics per entity type.
var DeletionPolicies = map[string]DeletionPolicy{
	EntityUser:     {Mode: SoftDelete, Roles: []string{RoleAdmin}},
	EntityCustomer: {Mode: SoftDelete, Roles: []string{RoleAdmin, RoleManager}},
	EntityTask:     {Mode: HardDelete, Roles: []string{RoleAdmin, RoleManager}},
	EntityCall:     {Mode: HardDelete, Roles: []string{RoleAdmin, RoleManager}, OwnerMayDelete: true},
}

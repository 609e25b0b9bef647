// internal/app/policy/principal.go
package policy

import (
	"github.com/dalemusser/crmhub/internal/app/system/authz"
	"github.com/dalemusser/crmhub/internal/domain/models"
)

// CanViewPrincipal reports whether p may see target's profile.
func CanViewPrincipal(p, target *models.User) bool {
	return authz.IsStaff(p) || (target != nil && authz.IsSelf(p, target.ID))
}

// CanEditPrincipal reports whether p may edit target's name, email, or password.
func CanEditPrincipal(p, target *models.User) bool {
	return authz.IsAdmin(p) || (target != nil && authz.IsSelf(p, target.ID))
}

// CanChangeRole reports whether p may assign roles: change a principal's
// role or active flag, or create a principal with any role.
func CanChangeRole(p *models.User) bool { return authz.IsAdmin(p) }

// CanListPrincipals reports whether p may list principals.
func CanListPrincipals(p *models.User) bool { return authz.IsStaff(p) }

// CanDeactivatePrincipal reports whether p may soft-delete target. Admins
// cannot deactivate themselves, so the system always keeps one admin.
func CanDeactivatePrincipal(p, target *models.User) bool {
	if target == nil || authz.IsSelf(p, target.ID) {
		return false
	}
	return canDelete(p, models.EntityUser, false)
}

// CanViewActivity reports whether p may read the activity feed.
func CanViewActivity(p *models.User) bool { return authz.IsStaff(p) }

// canDelete consults the per-entity deletion policy table.
func canDelete(p *models.User, entity string, isOwner bool) bool {
	dp, ok := models.DeletionPolicies[entity]
	if !ok || !authz.Active(p) {
		return false
	}
	if dp.OwnerMayDelete && isOwner {
		return true
	}
	return authz.HasAnyRole(p, dp.Roles...)
}

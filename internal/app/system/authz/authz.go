// internal/app/system/authz/authz.go
package authz

import (
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IsAdmin reports whether p is an active admin.
func IsAdmin(p *models.User) bool {
	return HasAnyRole(p, models.RoleAdmin)
}

// IsManager reports whether p is an active manager.
func IsManager(p *models.User) bool {
	return HasAnyRole(p, models.RoleManager)
}

// IsStaff reports whether p is an admin or a manager. Staff pass every
// per-record ownership check.
func IsStaff(p *models.User) bool {
	return HasAnyRole(p, models.RoleAdmin, models.RoleManager)
}

// IsSelf reports whether p is the principal with the given id.
func IsSelf(p *models.User, id primitive.ObjectID) bool {
	return p != nil && !id.IsZero() && p.ID == id
}

// Active reports whether p is present and not deactivated. A nil or
// deactivated principal fails every role check.
func Active(p *models.User) bool {
	return p != nil && p.Active && !p.ID.IsZero()
}

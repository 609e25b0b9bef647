// internal/app/system/authz/roles.go
package authz

import (
	"strings"

	"github.com/dalemusser/crmhub/internal/domain/models"
)

// HasAnyRole reports whether p is active and holds any of the given roles.
func HasAnyRole(p *models.User, roles ...string) bool {
	if !Active(p) {
		return false
	}
	cur := strings.ToLower(p.Role)
	for _, want := range roles {
		if cur == strings.ToLower(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// HasRole is a convenience wrapper for a single role.
func HasRole(p *models.User, role string) bool {
	return HasAnyRole(p, role)
}

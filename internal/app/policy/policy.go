// Package policy is the access policy engine: pure predicates deciding
// whether a principal may read or write a task, customer, call, or principal
// record. Nothing here performs I/O.
//
// Authorization rules:
//   - Admins and managers ("staff") pass every read and write check
//   - A user may read and write a task they created or are assigned to
//   - A user may read and write a call they own (call.user)
//   - Any active principal may read an active customer; only staff write customers
//   - Only staff may create or delete tasks
//   - Principals may read and edit their own profile; only admins change roles,
//     deactivate principals, or create principals with elevated roles
//   - A deactivated or missing principal fails every check
//
// Rules are composed with AnyOf so role grants and ownership grants combine
// as a plain boolean OR.
package policy

import (
	"github.com/dalemusser/crmhub/internal/app/system/authz"
	"github.com/dalemusser/crmhub/internal/domain/models"
)

// Rule decides access for principal p on resource r.
type Rule[T any] func(p *models.User, r *T) bool

// AnyOf passes when at least one rule passes.
func AnyOf[T any](rules ...Rule[T]) Rule[T] {
	return func(p *models.User, r *T) bool {
		if !authz.Active(p) || r == nil {
			return false
		}
		for _, rule := range rules {
			if rule(p, r) {
				return true
			}
		}
		return false
	}
}

// AllOf passes when every rule passes.
func AllOf[T any](rules ...Rule[T]) Rule[T] {
	return func(p *models.User, r *T) bool {
		if !authz.Active(p) || r == nil {
			return false
		}
		for _, rule := range rules {
			if !rule(p, r) {
				return false
			}
		}
		return true
	}
}

// Staff grants admins and managers access to any resource.
func Staff[T any](p *models.User, _ *T) bool {
	return authz.IsStaff(p)
}

// Anyone grants every active principal access.
func Anyone[T any](p *models.User, _ *T) bool {
	return authz.Active(p)
}

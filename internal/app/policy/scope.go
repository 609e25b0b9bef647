// internal/app/policy/scope.go
package policy

import (
	"github.com/dalemusser/crmhub/internal/app/system/authz"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Scope describes which records of one entity type a principal may list or
// search. The store layer turns it into a query filter, so list and search
// results are filtered before they are read.
type Scope struct {
	// None means the principal may see nothing of this type.
	None bool
	// All means no ownership restriction applies.
	All bool
	// PrincipalID restricts to records owned by (or assigned to) this principal.
	PrincipalID primitive.ObjectID
	// ActiveOnly hides soft-deleted records.
	ActiveOnly bool
}

// TaskScope: staff see every task; users see tasks they created or are assigned to.
func TaskScope(p *models.User) Scope {
	switch {
	case !authz.Active(p):
		return Scope{None: true}
	case authz.IsStaff(p):
		return Scope{All: true}
	default:
		return Scope{PrincipalID: p.ID}
	}
}

// CallScope: staff see every call; users see their own calls.
func CallScope(p *models.User) Scope {
	switch {
	case !authz.Active(p):
		return Scope{None: true}
	case authz.IsStaff(p):
		return Scope{All: true}
	default:
		return Scope{PrincipalID: p.ID}
	}
}

// CustomerScope: everyone sees every customer; non-staff see only active ones.
// Staff may include deactivated customers when they ask for them.
func CustomerScope(p *models.User, includeInactive bool) Scope {
	switch {
	case !authz.Active(p):
		return Scope{None: true}
	case authz.IsStaff(p):
		return Scope{All: true, ActiveOnly: !includeInactive}
	default:
		return Scope{All: true, ActiveOnly: true}
	}
}

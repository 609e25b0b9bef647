// internal/app/policy/call.go
package policy

import (
	"github.com/dalemusser/crmhub/internal/app/system/authz"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CallOwner grants the principal the call is logged for.
func CallOwner(p *models.User, c *models.Call) bool {
	return authz.IsSelf(p, c.UserID)
}

var (
	callRead  = AnyOf[models.Call](Staff[models.Call], CallOwner)
	callWrite = AnyOf[models.Call](Staff[models.Call], CallOwner)
)

// CanReadCall reports whether p may see c.
func CanReadCall(p *models.User, c *models.Call) bool { return callRead(p, c) }

// CanWriteCall reports whether p may update c.
func CanWriteCall(p *models.User, c *models.Call) bool { return callWrite(p, c) }

// CanLogCallFor reports whether p may log a call on behalf of userID.
// Users log calls for themselves; staff may log for anyone.
func CanLogCallFor(p *models.User, userID primitive.ObjectID) bool {
	return authz.IsStaff(p) || authz.IsSelf(p, userID)
}

// CanDeleteCall reports whether p may hard-delete c.
func CanDeleteCall(p *models.User, c *models.Call) bool {
	return c != nil && canDelete(p, models.EntityCall, CallOwner(p, c))
}

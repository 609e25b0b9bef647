// internal/app/policy/customer.go
package policy

import (
	"github.com/dalemusser/crmhub/internal/domain/models"
)

// ActiveCustomer grants access only while the customer is active.
func ActiveCustomer(_ *models.User, c *models.Customer) bool {
	return c.Active
}

var (
	customerRead  = AnyOf[models.Customer](Staff[models.Customer], AllOf[models.Customer](Anyone[models.Customer], ActiveCustomer))
	customerWrite = AnyOf[models.Customer](Staff[models.Customer])
)

// CanReadCustomer reports whether p may see c. Staff also see deactivated customers.
func CanReadCustomer(p *models.User, c *models.Customer) bool { return customerRead(p, c) }

// CanWriteCustomer reports whether p may create, update, or deactivate customers.
// Customers have no per-user owner, so this is role-only.
func CanWriteCustomer(p *models.User, c *models.Customer) bool { return customerWrite(p, c) }

// CanCreateCustomer reports whether p may create customers.
func CanCreateCustomer(p *models.User) bool {
	return CanWriteCustomer(p, &models.Customer{})
}

// CanDeactivateCustomer reports whether p may soft-delete customers.
func CanDeactivateCustomer(p *models.User) bool {
	return canDelete(p, models.EntityCustomer, false)
}

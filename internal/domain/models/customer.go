// internal/domain/models/customer.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Customer is a company record shared by everyone. It has no per-user owner.
type Customer struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyName   string             `bson:"company_name" json:"company_name"`
	CompanyNameCI string             `bson:"company_name_ci" json:"-"` // unique among active customers
	CompanyType   string             `bson:"company_type,omitempty" json:"company_type,omitempty"`
	TaxID         string             `bson:"tax_id,omitempty" json:"tax_id,omitempty"`
	Contacts      []Contact          `bson:"contacts" json:"contacts"`
	Address       *Address           `bson:"address,omitempty" json:"address,omitempty"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Active        bool               `bson:"active" json:"active"`
	CreatedBy     primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// Contact is a person at a customer company.
type Contact struct {
	Name        string `bson:"name" json:"name"`
	Email       string `bson:"email,omitempty" json:"email,omitempty"`
	Phone       string `bson:"phone,omitempty" json:"phone,omitempty"`
	Designation string `bson:"designation,omitempty" json:"designation,omitempty"`
	IsPrimary   bool   `bson:"is_primary" json:"is_primary"`
}

// Address is a postal address.
type Address struct {
	Street     string `bson:"street,omitempty" json:"street,omitempty"`
	City       string `bson:"city,omitempty" json:"city,omitempty"`
	State      string `bson:"state,omitempty" json:"state,omitempty"`
	PostalCode string `bson:"postal_code,omitempty" json:"postal_code,omitempty"`
	Country    string `bson:"country,omitempty" json:"country,omitempty"`
}

// NormalizePrimaryContact enforces exactly one primary contact.
// When the submitted list has zero or several primaries, the first contact
// becomes the only primary. A list with exactly one primary is left as is.
func NormalizePrimaryContact(contacts []Contact) []Contact {
	if len(contacts) == 0 {
		return contacts
	}
	primaries := 0
	for _, c := range contacts {
		if c.IsPrimary {
			primaries++
		}
	}
	if primaries == 1 {
		return contacts
	}
	out := make([]Contact, len(contacts))
	copy(out, contacts)
	for i := range out {
		out[i].IsPrimary = i == 0
	}
	return out
}

// PrimaryContact returns the primary contact, if any.
func (c Customer) PrimaryContact() (Contact, bool) {
	for _, ct := range c.Contacts {
		if ct.IsPrimary {
			return ct, true
		}
	}
	return Contact{}, false
}

// Label is the human handle used in activity snapshots and messages.
func (c Customer) Label() string { return c.CompanyName }

// CustomerSummary is the read-side projection of a customer reference.
type CustomerSummary struct {
	ID          primitive.ObjectID `json:"id"`
	CompanyName string             `json:"company_name"`
	Active      bool               `json:"active"`
}

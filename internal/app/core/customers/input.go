package customers

import (
	"fmt"
	"strings"

	customerstore "github.com/dalemusser/crmhub/internal/app/store/customers"
	"github.com/dalemusser/crmhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/crmhub/internal/app/system/inputval"
	"github.com/dalemusser/crmhub/internal/app/system/normalize"
	"github.com/dalemusser/crmhub/internal/domain/models"
)

// ContactInput is one contact in a create or update payload.
type ContactInput struct {
	Name        string `json:"name" validate:"required,max=200" label:"Contact name"`
	Email       string `json:"email" validate:"email,max=254" label:"Contact email"`
	Phone       string `json:"phone" validate:"max=50" label:"Contact phone"`
	Designation string `json:"designation" validate:"max=100" label:"Designation"`
	IsPrimary   bool   `json:"is_primary"`
}

// AddressInput is a postal address payload.
type AddressInput struct {
	Street     string `json:"street" validate:"max=200" label:"Street"`
	City       string `json:"city" validate:"max=100" label:"City"`
	State      string `json:"state" validate:"max=100" label:"State"`
	PostalCode string `json:"postal_code" validate:"max=20" label:"Postal code"`
	Country    string `json:"country" validate:"max=100" label:"Country"`
}

// CreateInput is the payload for creating a customer.
type CreateInput struct {
	CompanyName string         `json:"company_name" validate:"required,max=200" label:"Company name"`
	CompanyType string         `json:"company_type" validate:"max=100" label:"Company type"`
	TaxID       string         `json:"tax_id" validate:"max=50" label:"Tax ID"`
	Contacts    []ContactInput `json:"contacts" validate:"required,min=1,max=50" label:"Contacts"`
	Address     *AddressInput  `json:"address"`
	Notes       string         `json:"notes" validate:"max=5000" label:"Notes"`
}

func (in CreateInput) toCustomer() (models.Customer, error) {
	in.CompanyName = normalize.Name(in.CompanyName)
	in.CompanyType = normalize.Name(in.CompanyType)
	in.TaxID = normalize.TaxID(in.TaxID)
	in.Notes = htmlsanitize.PlainText(in.Notes)

	res := inputval.Validate(in)
	contacts := cleanContacts(in.Contacts, &res)
	address := cleanAddress(in.Address, &res)
	if err := res.Err(); err != nil {
		return models.Customer{}, err
	}
	return models.Customer{
		CompanyName: in.CompanyName,
		CompanyType: in.CompanyType,
		TaxID:       in.TaxID,
		Contacts:    models.NormalizePrimaryContact(contacts),
		Address:     address,
		Notes:       in.Notes,
	}, nil
}

// Patch is a partial customer update. Nil fields are left unchanged. A
// non-nil Contacts replaces the whole list and must not be empty. An empty
// Address clears it.
type Patch struct {
	CompanyName *string         `json:"company_name" validate:"max=200" label:"Company name"`
	CompanyType *string         `json:"company_type" validate:"max=100" label:"Company type"`
	TaxID       *string         `json:"tax_id" validate:"max=50" label:"Tax ID"`
	Contacts    *[]ContactInput `json:"contacts" label:"Contacts"`
	Address     *AddressInput   `json:"address"`
	Notes       *string         `json:"notes" validate:"max=5000" label:"Notes"`
}

func (p Patch) toUpdate() (upd customerstore.Update, err error) {
	trim := func(v *string, fn func(string) string) *string {
		if v == nil {
			return nil
		}
		s := fn(*v)
		return &s
	}
	p.CompanyName = trim(p.CompanyName, normalize.Name)
	p.CompanyType = trim(p.CompanyType, normalize.Name)
	p.TaxID = trim(p.TaxID, normalize.TaxID)
	p.Notes = trim(p.Notes, htmlsanitize.PlainText)

	res := inputval.Validate(p)
	if p.CompanyName != nil && *p.CompanyName == "" {
		res.Add("company_name", "is required", "Company name is required.")
	}
	upd.CompanyName = p.CompanyName
	upd.CompanyType = p.CompanyType
	upd.TaxID = p.TaxID
	upd.Notes = p.Notes
	if p.Contacts != nil {
		if len(*p.Contacts) == 0 {
			res.Add("contacts", "is required", "Contacts is required.")
		}
		if len(*p.Contacts) > 50 {
			res.Add("contacts", "must be at most 50 items", "Contacts must be at most 50 items.")
		}
		contacts := models.NormalizePrimaryContact(cleanContacts(*p.Contacts, &res))
		upd.Contacts = &contacts
	}
	if p.Address != nil {
		upd.SetAddress = true
		upd.Address = cleanAddress(p.Address, &res)
	}
	return upd, res.Err()
}

func updateEmpty(u customerstore.Update) bool {
	return u.CompanyName == nil && u.CompanyType == nil && u.TaxID == nil &&
		u.Contacts == nil && !u.SetAddress && u.Notes == nil
}

func cleanContacts(in []ContactInput, res *inputval.Result) []models.Contact {
	out := make([]models.Contact, 0, len(in))
	for i, c := range in {
		c.Name = normalize.Name(c.Name)
		c.Email = normalize.Email(c.Email)
		c.Phone = strings.TrimSpace(c.Phone)
		c.Designation = normalize.Name(c.Designation)
		res.Merge(fmt.Sprintf("contacts[%d].", i), inputval.Validate(c))
		out = append(out, models.Contact{
			Name:        c.Name,
			Email:       c.Email,
			Phone:       c.Phone,
			Designation: c.Designation,
			IsPrimary:   c.IsPrimary,
		})
	}
	return out
}

// cleanAddress returns nil for a missing or blank address.
func cleanAddress(in *AddressInput, res *inputval.Result) *models.Address {
	if in == nil {
		return nil
	}
	a := models.Address{
		Street:     normalize.Name(in.Street),
		City:       normalize.Name(in.City),
		State:      normalize.Name(in.State),
		PostalCode: normalize.Name(in.PostalCode),
		Country:    normalize.Name(in.Country),
	}
	res.Merge("address.", inputval.Validate(in))
	if a == (models.Address{}) {
		return nil
	}
	return &a
}

// Package customers manages the shared customer directory. Customers have no
// per-user owner: staff write them, everyone reads the active ones.
package customers

import (
	"context"
	"errors"
	"regexp"

	"github.com/dalemusser/crmhub/internal/app/core/dispatch"
	"github.com/dalemusser/crmhub/internal/app/policy"
	customerstore "github.com/dalemusser/crmhub/internal/app/store/customers"
	"github.com/dalemusser/crmhub/internal/app/store/scoped"
	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/inputval"
	"github.com/dalemusser/crmhub/internal/app/system/normalize"
	"github.com/dalemusser/crmhub/internal/app/system/paging"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Service owns customer writes and reads.
type Service struct {
	customers *customerstore.Store
	dispatch  *dispatch.Dispatcher
	log       *zap.Logger
}

func New(db *mongo.Database, d *dispatch.Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		customers: customerstore.New(db),
		dispatch:  d,
		log:       logger,
	}
}

func duplicate() error {
	return apperr.Conflict("an active customer with this company name already exists")
}

// Create adds an active customer. Contacts must be non-empty and exactly one
// of them ends up primary.
func (s *Service) Create(ctx context.Context, p *models.User, in CreateInput) (models.Customer, error) {
	if !policy.CanCreateCustomer(p) {
		return models.Customer{}, apperr.Forbidden("only admins and managers may create customers")
	}
	c, err := in.toCustomer()
	if err != nil {
		return models.Customer{}, err
	}
	exists, err := s.customers.NameExistsForOther(ctx, c.CompanyName, primitive.NilObjectID)
	if err != nil {
		return models.Customer{}, apperr.Internal("customers.Create: name check", err)
	}
	if exists {
		return models.Customer{}, duplicate()
	}

	c.CreatedBy = p.ID
	c, err = s.customers.Create(ctx, c)
	if errors.Is(err, customerstore.ErrDuplicateCompany) {
		return models.Customer{}, duplicate()
	}
	if err != nil {
		return models.Customer{}, apperr.Internal("customers.Create", err)
	}
	s.log.Info("customer created", zap.String("customer_id", c.ID.Hex()), zap.String("actor", p.ID.Hex()))

	s.dispatch.Record(dispatch.Activity{
		Actor:       p.ID,
		Action:      models.ActionCreateCustomer,
		EntityType:  models.EntityCustomer,
		EntityID:    c.ID,
		EntityLabel: c.Label(),
		Details:     map[string]any{"contacts": len(c.Contacts)},
	})
	return c, nil
}

// Get returns a customer p may read. A deactivated customer is invisible to
// a user and reads as not found.
func (s *Service) Get(ctx context.Context, p *models.User, id primitive.ObjectID) (models.Customer, error) {
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return models.Customer{}, apperr.FromStore("customers.Get", "customer", err)
	}
	if !policy.CanReadCustomer(p, &c) {
		return models.Customer{}, apperr.NotFound("customer")
	}
	return c, nil
}

// Update applies patch. Replacing the contact list re-normalizes the primary.
func (s *Service) Update(ctx context.Context, p *models.User, id primitive.ObjectID, patch Patch) (models.Customer, error) {
	upd, err := patch.toUpdate()
	if err != nil {
		return models.Customer{}, err
	}
	cur, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return models.Customer{}, apperr.FromStore("customers.Update", "customer", err)
	}
	if !policy.CanWriteCustomer(p, &cur) {
		return models.Customer{}, apperr.Forbidden("only admins and managers may modify customers")
	}
	if updateEmpty(upd) {
		return cur, nil
	}
	if upd.CompanyName != nil && cur.Active && text.Fold(*upd.CompanyName) != cur.CompanyNameCI {
		exists, err := s.customers.NameExistsForOther(ctx, *upd.CompanyName, id)
		if err != nil {
			return models.Customer{}, apperr.Internal("customers.Update: name check", err)
		}
		if exists {
			return models.Customer{}, duplicate()
		}
	}

	c, err := s.customers.Update(ctx, id, upd)
	if errors.Is(err, customerstore.ErrDuplicateCompany) {
		return models.Customer{}, duplicate()
	}
	if err != nil {
		return models.Customer{}, apperr.FromStore("customers.Update", "customer", err)
	}

	s.dispatch.Record(dispatch.Activity{
		Actor:       p.ID,
		Action:      models.ActionUpdateCustomer,
		EntityType:  models.EntityCustomer,
		EntityID:    c.ID,
		EntityLabel: c.Label(),
		Details:     map[string]any{"changes": changedFields(cur, c)},
	})
	return c, nil
}

// changedFields lists the top-level fields that differ. Contact and address
// contents are summarized by name only.
func changedFields(before, after models.Customer) []string {
	var out []string
	if before.CompanyName != after.CompanyName {
		out = append(out, "company_name")
	}
	if before.CompanyType != after.CompanyType {
		out = append(out, "company_type")
	}
	if before.TaxID != after.TaxID {
		out = append(out, "tax_id")
	}
	if !sameContacts(before.Contacts, after.Contacts) {
		out = append(out, "contacts")
	}
	if (before.Address == nil) != (after.Address == nil) ||
		before.Address != nil && *before.Address != *after.Address {
		out = append(out, "address")
	}
	if before.Notes != after.Notes {
		out = append(out, "notes")
	}
	return out
}

func sameContacts(a, b []models.Contact) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Deactivate soft-deletes a customer. Deactivating an inactive customer is
// a no-op.
func (s *Service) Deactivate(ctx context.Context, p *models.User, id primitive.ObjectID) error {
	if !policy.CanDeactivateCustomer(p) {
		return apperr.Forbidden("only admins and managers may deactivate customers")
	}
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return apperr.FromStore("customers.Deactivate", "customer", err)
	}
	if !c.Active {
		return nil
	}
	if err := s.customers.Deactivate(ctx, id); err != nil {
		return apperr.FromStore("customers.Deactivate", "customer", err)
	}
	s.log.Info("customer deactivated", zap.String("customer_id", id.Hex()), zap.String("actor", p.ID.Hex()))

	s.dispatch.Record(dispatch.Activity{
		Actor:       p.ID,
		Action:      models.ActionDeactivateCustomer,
		EntityType:  models.EntityCustomer,
		EntityID:    c.ID,
		EntityLabel: c.Label(),
	})
	return nil
}

// ListFilter narrows a customer listing.
type ListFilter struct {
	// Q is a case-insensitive prefix of the company name.
	Q           string `json:"q" validate:"max=200" label:"Search"`
	CompanyType string `json:"company_type" validate:"max=100" label:"Company type"`
	// IncludeInactive lists deactivated customers too; ignored for users.
	IncludeInactive bool `json:"include_inactive"`
}

// List returns one page of customers ordered by name.
func (s *Service) List(ctx context.Context, p *models.User, f ListFilter, pg paging.Request) (paging.Page[models.Customer], error) {
	pg = pg.Normalize()
	f.Q = normalize.QueryParam(f.Q)
	f.CompanyType = normalize.QueryParam(f.CompanyType)
	if res := inputval.Validate(f); res.HasErrors() {
		return paging.Page[models.Customer]{}, res.Err()
	}

	fm := bson.M{}
	if f.Q != "" {
		fm["company_name_ci"] = bson.M{"$regex": "^" + regexp.QuoteMeta(text.Fold(f.Q))}
	}
	if f.CompanyType != "" {
		fm["company_type"] = f.CompanyType
	}
	filter := scoped.And(customerstore.ScopeFilter(policy.CustomerScope(p, f.IncludeInactive)), fm)

	total, err := s.customers.Count(ctx, filter)
	if err != nil {
		return paging.Page[models.Customer]{}, apperr.Internal("customers.List: count", err)
	}
	opts := pg.ApplyToFind(options.Find().SetSort(bson.D{
		{Key: "company_name_ci", Value: 1},
		{Key: "_id", Value: 1},
	}))
	items, err := s.customers.Find(ctx, filter, opts)
	if err != nil {
		return paging.Page[models.Customer]{}, apperr.Internal("customers.List", err)
	}
	return paging.NewPage(items, pg, total), nil
}


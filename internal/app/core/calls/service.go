// Package calls records phone calls with customers. A call belongs to the
// principal it was logged for; staff may log and edit calls for anyone.
package calls

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/crmhub/internal/app/core/dispatch"
	"github.com/dalemusser/crmhub/internal/app/policy"
	callstore "github.com/dalemusser/crmhub/internal/app/store/calls"
	customerstore "github.com/dalemusser/crmhub/internal/app/store/customers"
	"github.com/dalemusser/crmhub/internal/app/store/scoped"
	userstore "github.com/dalemusser/crmhub/internal/app/store/users"
	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/inputval"
	"github.com/dalemusser/crmhub/internal/app/system/normalize"
	"github.com/dalemusser/crmhub/internal/app/system/paging"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Service struct {
	calls     *callstore.Store
	customers *customerstore.Store
	users     *userstore.Store
	dispatch  *dispatch.Dispatcher
	log       *zap.Logger
}

func New(db *mongo.Database, d *dispatch.Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		calls:     callstore.New(db),
		customers: customerstore.New(db),
		users:     userstore.New(db),
		dispatch:  d,
		log:       logger,
	}
}

func callRef(c models.Call) models.EntityRef {
	return models.EntityRef{Type: models.EntityCall, ID: c.ID}
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (models.Call, error) {
	c, err := s.calls.GetByID(ctx, id)
	if err != nil {
		return models.Call{}, apperr.FromStore("calls.load", "call", err)
	}
	return c, nil
}

// customerLabel names the call's customer for activity records. A missing
// customer yields an empty label rather than failing the write.
func (s *Service) customerLabel(ctx context.Context, id primitive.ObjectID) string {
	cust, err := s.customers.GetByID(ctx, id)
	if err != nil {
		s.log.Warn("call customer unavailable for activity label",
			zap.String("customer_id", id.Hex()), zap.Error(err))
		return ""
	}
	return cust.Label()
}

// Log records a call. The customer must be active and the owner must be an
// active principal. The customer's creator is told about the call unless
// they logged it.
func (s *Service) Log(ctx context.Context, p *models.User, in LogInput) (models.Call, error) {
	if p == nil {
		return models.Call{}, apperr.Unauthenticated("sign in required")
	}
	c, err := in.toCall(p.ID)
	if err != nil {
		return models.Call{}, err
	}
	if !policy.CanLogCallFor(p, c.UserID) {
		return models.Call{}, apperr.Forbidden("you may only log calls for yourself")
	}

	cust, err := s.customers.GetByID(ctx, c.CustomerID)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.Call{}, apperr.InvalidReference("customer_id", "does not exist")
	case err != nil:
		return models.Call{}, apperr.Internal("calls.Log: customer", err)
	case !cust.Active:
		return models.Call{}, apperr.InvalidReference("customer_id", "is deactivated")
	}
	if c.UserID != p.ID {
		u, err := s.users.GetByID(ctx, c.UserID)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return models.Call{}, apperr.InvalidReference("user_id", "does not exist")
		case err != nil:
			return models.Call{}, apperr.Internal("calls.Log: user", err)
		case !u.Active:
			return models.Call{}, apperr.InvalidReference("user_id", "is deactivated")
		}
	}

	c.CreatedBy = p.ID
	c, err = s.calls.Create(ctx, c)
	if err != nil {
		return models.Call{}, apperr.Internal("calls.Log", err)
	}
	s.log.Info("call logged",
		zap.String("call_id", c.ID.Hex()),
		zap.String("customer_id", c.CustomerID.Hex()),
		zap.String("actor", p.ID.Hex()))

	s.dispatch.Record(dispatch.Activity{
		Actor:       p.ID,
		Action:      models.ActionCreateCall,
		EntityType:  models.EntityCall,
		EntityID:    c.ID,
		EntityLabel: cust.Label(),
		Details: map[string]any{
			"customer_id": c.CustomerID.Hex(),
			"user_id":     c.UserID.Hex(),
			"direction":   c.Direction,
		},
	})
	if cust.CreatedBy != p.ID {
		s.dispatch.Notify(dispatch.Notice{
			Recipient: cust.CreatedBy,
			Kind:      models.KindCallLogged,
			Message:   p.Name + " logged a call with " + cust.CompanyName,
			Link:      "/calls/" + c.ID.Hex(),
			Related:   callRef(c),
		})
	}
	return c, nil
}

// Get returns a call p may read.
func (s *Service) Get(ctx context.Context, p *models.User, id primitive.ObjectID) (models.Call, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return models.Call{}, err
	}
	if !policy.CanReadCall(p, &c) {
		return models.Call{}, apperr.Forbidden("you do not have access to this call")
	}
	return c, nil
}

// Update applies patch to a call p may write.
func (s *Service) Update(ctx context.Context, p *models.User, id primitive.ObjectID, patch Patch) (models.Call, error) {
	cur, err := s.load(ctx, id)
	if err != nil {
		return models.Call{}, err
	}
	if !policy.CanWriteCall(p, &cur) {
		return models.Call{}, apperr.Forbidden("you may not modify this call")
	}
	next, err := patch.apply(cur)
	if err != nil {
		return models.Call{}, err
	}

	out, err := s.calls.Replace(ctx, next)
	if err != nil {
		return models.Call{}, apperr.FromStore("calls.Update", "call", err)
	}
	s.dispatch.Record(dispatch.Activity{
		Actor:       p.ID,
		Action:      models.ActionUpdateCall,
		EntityType:  models.EntityCall,
		EntityID:    out.ID,
		EntityLabel: s.customerLabel(ctx, out.CustomerID),
		Details:     map[string]any{"changes": changedFields(cur, out)},
	})
	return out, nil
}

func changedFields(a, b models.Call) []string {
	var out []string
	add := func(field string, changed bool) {
		if changed {
			out = append(out, field)
		}
	}
	add("direction", a.Direction != b.Direction)
	add("summary", a.Summary != b.Summary)
	add("duration_seconds", !equalPtr(a.DurationSeconds, b.DurationSeconds))
	add("outcome", a.Outcome != b.Outcome)
	add("follow_up_required", a.FollowUpRequired != b.FollowUpRequired)
	add("follow_up_date", !equalTime(a.FollowUpDate, b.FollowUpDate))
	add("tags", !equalStrings(a.Tags, b.Tags))
	return out
}

func equalPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalStrings(a, b []string) bool {
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

// Delete hard-removes a call p may delete.
func (s *Service) Delete(ctx context.Context, p *models.User, id primitive.ObjectID) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDeleteCall(p, &c) {
		return apperr.Forbidden("you may not delete this call")
	}
	label := s.customerLabel(ctx, c.CustomerID)
	n, err := s.calls.Delete(ctx, id)
	if err != nil {
		return apperr.Internal("calls.Delete", err)
	}
	if n == 0 {
		return apperr.NotFound("call")
	}
	s.log.Info("call deleted", zap.String("call_id", id.Hex()), zap.String("actor", p.ID.Hex()))

	s.dispatch.Record(dispatch.Activity{
		Actor:       p.ID,
		Action:      models.ActionDeleteCall,
		EntityType:  models.EntityCall,
		EntityID:    c.ID,
		EntityLabel: label,
		Details: map[string]any{
			"customer_id": c.CustomerID.Hex(),
			"user_id":     c.UserID.Hex(),
			"summary":     c.Summary,
		},
	})
	return nil
}

// ListFilter narrows a call listing. From and To bound created_at, both inclusive.
type ListFilter struct {
	CustomerID       string     `json:"customer_id" validate:"objectid" label:"Customer"`
	UserID           string     `json:"user_id" validate:"objectid" label:"User"`
	Direction        string     `json:"direction" validate:"oneof=inbound outbound" label:"Direction"`
	FollowUpRequired *bool      `json:"follow_up_required"`
	From             *time.Time `json:"from"`
	To               *time.Time `json:"to"`
}

func (f ListFilter) toBSON() (bson.M, error) {
	f.CustomerID = normalize.FilterID(f.CustomerID)
	f.UserID = normalize.FilterID(f.UserID)
	f.Direction = normalize.Enum(f.Direction)
	res := inputval.Validate(f)
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		res.Add("to", "must not be before from", "The end of the date range must not be before its start.")
	}
	if err := res.Err(); err != nil {
		return nil, err
	}

	m := bson.M{}
	if f.CustomerID != "" {
		m["customer_id"] = mustID(f.CustomerID)
	}
	if f.UserID != "" {
		m["user_id"] = mustID(f.UserID)
	}
	if f.Direction != "" {
		m["direction"] = f.Direction
	}
	if f.FollowUpRequired != nil {
		m["follow_up_required"] = *f.FollowUpRequired
	}
	if f.From != nil || f.To != nil {
		r := bson.M{}
		if f.From != nil {
			r["$gte"] = f.From.UTC()
		}
		if f.To != nil {
			r["$lte"] = f.To.UTC()
		}
		m["created_at"] = r
	}
	return m, nil
}

// List returns one page of the calls p may see, newest first.
func (s *Service) List(ctx context.Context, p *models.User, f ListFilter, pg paging.Request) (paging.Page[models.Call], error) {
	pg = pg.Normalize()
	fm, err := f.toBSON()
	if err != nil {
		return paging.Page[models.Call]{}, err
	}
	filter := scoped.And(callstore.ScopeFilter(policy.CallScope(p)), fm)

	total, err := s.calls.Count(ctx, filter)
	if err != nil {
		return paging.Page[models.Call]{}, apperr.Internal("calls.List: count", err)
	}
	opts := pg.ApplyToFind(options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	}))
	items, err := s.calls.Find(ctx, filter, opts)
	if err != nil {
		return paging.Page[models.Call]{}, apperr.Internal("calls.List", err)
	}
	return paging.NewPage(items, pg, total), nil
}

// Package projection expands stored id references into summaries on read.
// Stored entities keep ids only; every lookup here is a single batch query
// per referenced collection.
package projection

import (
	"context"

	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/paging"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserLookup loads users by id.
type UserLookup interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// CustomerLookup loads customers by id.
type CustomerLookup interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Customer, error)
}

// TaskView is a task with its references expanded. A reference that no
// longer resolves is left nil.
type TaskView struct {
	models.Task
	Assignee *models.UserSummary     `json:"assignee,omitempty"`
	Creator  *models.UserSummary     `json:"creator,omitempty"`
	Customer *models.CustomerSummary `json:"customer,omitempty"`
	// Authors maps comment and attachment authors by hex id.
	Authors map[string]models.UserSummary `json:"authors,omitempty"`
}

// CallView is a call with its references expanded.
type CallView struct {
	models.Call
	User     *models.UserSummary     `json:"user,omitempty"`
	Customer *models.CustomerSummary `json:"customer,omitempty"`
}

// Projector resolves references.
type Projector struct {
	users     UserLookup
	customers CustomerLookup
}

func New(users UserLookup, customers CustomerLookup) *Projector {
	return &Projector{users: users, customers: customers}
}

// idSet collects distinct non-zero ids in first-seen order.
type idSet struct {
	seen map[primitive.ObjectID]struct{}
	ids  []primitive.ObjectID
}

func (s *idSet) add(id primitive.ObjectID) {
	if id.IsZero() {
		return
	}
	if s.seen == nil {
		s.seen = make(map[primitive.ObjectID]struct{})
	}
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (p *Projector) userMap(ctx context.Context, ids idSet) (map[primitive.ObjectID]models.UserSummary, error) {
	out := make(map[primitive.ObjectID]models.UserSummary, len(ids.ids))
	if len(ids.ids) == 0 {
		return out, nil
	}
	users, err := p.users.GetByIDs(ctx, ids.ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = UserSummary(u)
	}
	return out, nil
}

func (p *Projector) customerMap(ctx context.Context, ids idSet) (map[primitive.ObjectID]models.CustomerSummary, error) {
	out := make(map[primitive.ObjectID]models.CustomerSummary, len(ids.ids))
	if len(ids.ids) == 0 {
		return out, nil
	}
	customers, err := p.customers.GetByIDs(ctx, ids.ids)
	if err != nil {
		return nil, err
	}
	for _, c := range customers {
		out[c.ID] = CustomerSummary(c)
	}
	return out, nil
}

// UserSummary builds the public summary of u.
func UserSummary(u models.User) models.UserSummary {
	return models.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Active: u.Active}
}

// CustomerSummary builds the public summary of c.
func CustomerSummary(c models.Customer) models.CustomerSummary {
	return models.CustomerSummary{ID: c.ID, CompanyName: c.CompanyName, Active: c.Active}
}

func lookup[T any](m map[primitive.ObjectID]T, id primitive.ObjectID) *T {
	v, ok := m[id]
	if !ok {
		return nil
	}
	return &v
}

// Tasks expands the references of every task in one query per collection.
func (p *Projector) Tasks(ctx context.Context, tasks []models.Task) ([]TaskView, error) {
	var users, customers idSet
	for _, t := range tasks {
		users.add(t.AssignedTo)
		users.add(t.CreatedBy)
		for _, c := range t.Comments {
			users.add(c.Author)
		}
		for _, a := range t.Attachments {
			users.add(a.UploadedBy)
		}
		if t.CustomerID != nil {
			customers.add(*t.CustomerID)
		}
	}

	um, err := p.userMap(ctx, users)
	if err != nil {
		return nil, err
	}
	cm, err := p.customerMap(ctx, customers)
	if err != nil {
		return nil, err
	}

	out := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		v := TaskView{
			Task:     t,
			Assignee: lookup(um, t.AssignedTo),
			Creator:  lookup(um, t.CreatedBy),
		}
		if t.CustomerID != nil {
			v.Customer = lookup(cm, *t.CustomerID)
		}
		for _, c := range t.Comments {
			v.addAuthor(um, c.Author)
		}
		for _, a := range t.Attachments {
			v.addAuthor(um, a.UploadedBy)
		}
		out = append(out, v)
	}
	return out, nil
}

func (v *TaskView) addAuthor(um map[primitive.ObjectID]models.UserSummary, id primitive.ObjectID) {
	s, ok := um[id]
	if !ok {
		return
	}
	if v.Authors == nil {
		v.Authors = make(map[string]models.UserSummary)
	}
	v.Authors[id.Hex()] = s
}

// Task expands a single task.
func (p *Projector) Task(ctx context.Context, t models.Task) (TaskView, error) {
	views, err := p.Tasks(ctx, []models.Task{t})
	if err != nil {
		return TaskView{}, err
	}
	return views[0], nil
}

// Calls expands the references of every call.
func (p *Projector) Calls(ctx context.Context, calls []models.Call) ([]CallView, error) {
	var users, customers idSet
	for _, c := range calls {
		users.add(c.UserID)
		customers.add(c.CustomerID)
	}

	um, err := p.userMap(ctx, users)
	if err != nil {
		return nil, err
	}
	cm, err := p.customerMap(ctx, customers)
	if err != nil {
		return nil, err
	}

	out := make([]CallView, 0, len(calls))
	for _, c := range calls {
		out = append(out, CallView{
			Call:     c,
			User:     lookup(um, c.UserID),
			Customer: lookup(cm, c.CustomerID),
		})
	}
	return out, nil
}

// Call expands a single call.
func (p *Projector) Call(ctx context.Context, c models.Call) (CallView, error) {
	views, err := p.Calls(ctx, []models.Call{c})
	if err != nil {
		return CallView{}, err
	}
	return views[0], nil
}

// Page expands the items of a page with expand, keeping its meta.
func Page[T, V any](ctx context.Context, pg paging.Page[T], expand func(context.Context, []T) ([]V, error)) (paging.Page[V], error) {
	items, err := expand(ctx, pg.Items)
	if err != nil {
		return paging.Page[V]{}, apperr.Internal("projection.Page", err)
	}
	return paging.Page[V]{Items: items, Meta: pg.Meta}, nil
}

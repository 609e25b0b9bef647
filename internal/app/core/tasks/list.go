package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/crmhub/internal/app/policy"
	"github.com/dalemusser/crmhub/internal/app/store/scoped"
	taskstore "github.com/dalemusser/crmhub/internal/app/store/tasks"
	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/inputval"
	"github.com/dalemusser/crmhub/internal/app/system/normalize"
	"github.com/dalemusser/crmhub/internal/app/system/paging"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListFilter narrows a task listing. Empty fields do not filter.
type ListFilter struct {
	Status     string `json:"status" validate:"oneof=todo in-progress completed" label:"Status"`
	Priority   string `json:"priority" validate:"oneof=low medium high urgent" label:"Priority"`
	Category   string `json:"category" validate:"max=100" label:"Category"`
	AssignedTo string `json:"assigned_to" validate:"objectid" label:"Assignee"`
	CustomerID string `json:"customer_id" validate:"objectid" label:"Customer"`
	// Overdue keeps open tasks whose due date has passed.
	Overdue bool `json:"overdue"`
}

func (f ListFilter) toBSON(now time.Time) (bson.M, error) {
	f.Status = normalize.Enum(f.Status)
	f.Priority = normalize.Enum(f.Priority)
	f.AssignedTo = normalize.FilterID(f.AssignedTo)
	f.CustomerID = normalize.FilterID(f.CustomerID)
	if res := inputval.Validate(f); res.HasErrors() {
		return nil, res.Err()
	}

	m := bson.M{}
	if f.Status != "" {
		m["status"] = f.Status
	}
	if f.Priority != "" {
		m["priority"] = f.Priority
	}
	if c := normalize.QueryParam(f.Category); c != "" {
		m["category"] = c
	}
	if f.AssignedTo != "" {
		m["assigned_to"] = mustID(f.AssignedTo)
	}
	if f.CustomerID != "" {
		m["customer_id"] = mustID(f.CustomerID)
	}
	if f.Overdue {
		m["due_date"] = bson.M{"$lt": now.UTC()}
		if f.Status == "" {
			m["status"] = bson.M{"$ne": models.StatusCompleted}
		}
	}
	return m, nil
}

// List returns one page of the tasks p may see, earliest due first.
func (s *Service) List(ctx context.Context, p *models.User, f ListFilter, pg paging.Request) (paging.Page[models.Task], error) {
	pg = pg.Normalize()
	fm, err := f.toBSON(s.now())
	if err != nil {
		return paging.Page[models.Task]{}, err
	}
	filter := scoped.And(taskstore.ScopeFilter(policy.TaskScope(p)), fm)

	total, err := s.tasks.Count(ctx, filter)
	if err != nil {
		return paging.Page[models.Task]{}, apperr.Internal("tasks.List: count", err)
	}
	opts := pg.ApplyToFind(options.Find().SetSort(bson.D{
		{Key: "due_date", Value: 1},
		{Key: "_id", Value: 1},
	}))
	items, err := s.tasks.Find(ctx, filter, opts)
	if err != nil {
		return paging.Page[models.Task]{}, apperr.Internal("tasks.List", err)
	}
	return paging.NewPage(items, pg, total), nil
}

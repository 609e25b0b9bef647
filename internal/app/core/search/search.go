// Package search runs one free-text query across tasks, customers, and
// calls. Each entity type is searched concurrently against its weighted text
// index, restricted to what the principal may see.
package search

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dalemusser/crmhub/internal/app/policy"
	callstore "github.com/dalemusser/crmhub/internal/app/store/calls"
	customerstore "github.com/dalemusser/crmhub/internal/app/store/customers"
	taskstore "github.com/dalemusser/crmhub/internal/app/store/tasks"
	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/inputval"
	"github.com/dalemusser/crmhub/internal/app/system/paging"
	"github.com/dalemusser/crmhub/internal/app/system/timeouts"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Entity type names accepted in Query.Types.
const (
	TypeTasks     = "tasks"
	TypeCustomers = "customers"
	TypeCalls     = "calls"
)

// AllTypes is the default when Query.Types is empty.
var AllTypes = []string{TypeTasks, TypeCustomers, TypeCalls}

// Query is a search request.
type Query struct {
	Q     string   `json:"q" validate:"required,max=200" label:"Search"`
	Types []string `json:"types" validate:"max=3" label:"Types"`
}

// Result holds the ranked hits per type. Errors names the types whose
// search failed; the others are still returned.
type Result struct {
	Tasks     []taskstore.Hit     `json:"tasks"`
	Customers []customerstore.Hit `json:"customers"`
	Calls     []callstore.Hit     `json:"calls"`
	Errors    map[string]string   `json:"errors,omitempty"`
}

// source runs the search for one entity type and stores its hits in res.
type source func(ctx context.Context, q string, p *models.User, res *Result) error

type Service struct {
	sources map[string]source
	log     *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Service {
	tasks := taskstore.New(db)
	customers := customerstore.New(db)
	calls := callstore.New(db)
	limit := int64(paging.SearchPageSize)

	return &Service{
		log: logger,
		sources: map[string]source{
			TypeTasks: func(ctx context.Context, q string, p *models.User, res *Result) error {
				hits, err := tasks.Search(ctx, q, policy.TaskScope(p), limit)
				res.Tasks = hits
				return err
			},
			TypeCustomers: func(ctx context.Context, q string, p *models.User, res *Result) error {
				// Search never surfaces deactivated customers, even to staff.
				hits, err := customers.Search(ctx, q, policy.CustomerScope(p, false), limit)
				res.Customers = hits
				return err
			},
			TypeCalls: func(ctx context.Context, q string, p *models.User, res *Result) error {
				hits, err := calls.Search(ctx, q, policy.CallScope(p), limit)
				res.Calls = hits
				return err
			},
		},
	}
}

func (q Query) normalize() (Query, error) {
	q.Q = strings.TrimSpace(q.Q)
	res := inputval.Validate(q)

	seen := map[string]bool{}
	var types []string
	for _, t := range q.Types {
		t = strings.ToLower(strings.TrimSpace(t))
		switch t {
		case "":
			continue
		case TypeTasks, TypeCustomers, TypeCalls:
		default:
			res.Add("types", "must be one of tasks, customers, calls", "Types must be one of tasks, customers, calls.")
			continue
		}
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		types = AllTypes
	}
	sort.Strings(types)
	q.Types = types
	return q, res.Err()
}

// Search runs q for p. A failing entity type is reported in Result.Errors;
// only when every requested type fails does Search return an error.
func (s *Service) Search(ctx context.Context, p *models.User, q Query) (Result, error) {
	if p == nil {
		return Result{}, apperr.Unauthenticated("sign in required")
	}
	q, err := q.normalize()
	if err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Search())
	defer cancel()

	res := Result{
		Tasks:     []taskstore.Hit{},
		Customers: []customerstore.Hit{},
		Calls:     []callstore.Hit{},
	}
	parts := make([]Result, len(q.Types))
	var (
		mu     sync.Mutex
		failed = map[string]error{}
	)

	// Each goroutine returns nil so one failing type never cancels the others.
	var g errgroup.Group
	for i, t := range q.Types {
		i, t := i, t
		g.Go(func() error {
			if err := s.sources[t](ctx, q.Q, p, &parts[i]); err != nil {
				mu.Lock()
				failed[t] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, t := range q.Types {
		if _, bad := failed[t]; bad {
			continue
		}
		switch t {
		case TypeTasks:
			res.Tasks = nonNil(parts[i].Tasks)
		case TypeCustomers:
			res.Customers = nonNil(parts[i].Customers)
		case TypeCalls:
			res.Calls = nonNil(parts[i].Calls)
		}
	}

	if len(failed) == 0 {
		return res, nil
	}
	res.Errors = make(map[string]string, len(failed))
	for t, err := range failed {
		s.log.Warn("search source failed", zap.String("type", t), zap.String("q", q.Q), zap.Error(err))
		res.Errors[t] = "search failed"
	}
	if len(failed) == len(q.Types) {
		return Result{}, apperr.Internal("search.Search", failed[q.Types[0]])
	}
	return res, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

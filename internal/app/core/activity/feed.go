// Package activity serves the audit feed to staff.
package activity

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/crmhub/internal/app/policy"
	activitystore "github.com/dalemusser/crmhub/internal/app/store/activity"
	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/inputval"
	"github.com/dalemusser/crmhub/internal/app/system/normalize"
	"github.com/dalemusser/crmhub/internal/app/system/paging"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Feed struct {
	store *activitystore.Store
}

func New(db *mongo.Database) *Feed {
	return &Feed{store: activitystore.New(db)}
}

// Filter narrows the feed. Empty fields do not filter.
type Filter struct {
	EntityType string     `json:"entity_type" validate:"oneof=task customer call user" label:"Entity type"`
	EntityID   string     `json:"entity_id" validate:"objectid" label:"Entity"`
	Actor      string     `json:"actor" validate:"objectid" label:"Actor"`
	Action     string     `json:"action" validate:"max=50" label:"Action"`
	Since      *time.Time `json:"since"`
}

// List returns one page of activity records, newest first. Only staff may read the feed.
func (f *Feed) List(ctx context.Context, p *models.User, flt Filter, pg paging.Request) (paging.Page[models.ActivityRecord], error) {
	if !policy.CanViewActivity(p) {
		return paging.Page[models.ActivityRecord]{}, apperr.Forbidden("only admins and managers may view activity")
	}
	pg = pg.Normalize()
	flt.EntityType = normalize.Enum(flt.EntityType)
	flt.EntityID = normalize.FilterID(flt.EntityID)
	flt.Actor = normalize.FilterID(flt.Actor)
	flt.Action = normalize.Enum(flt.Action)
	if res := inputval.Validate(flt); res.HasErrors() {
		return paging.Page[models.ActivityRecord]{}, res.Err()
	}

	q := activitystore.Filter{EntityType: flt.EntityType, Action: flt.Action, Since: flt.Since}
	if flt.EntityID != "" {
		id := objectID(flt.EntityID)
		q.EntityID = &id
	}
	if flt.Actor != "" {
		id := objectID(flt.Actor)
		q.Actor = &id
	}

	total, err := f.store.Count(ctx, q)
	if err != nil {
		return paging.Page[models.ActivityRecord]{}, apperr.Internal("activity.List: count", err)
	}
	items, err := f.store.Query(ctx, q, pg.Skip(), int64(pg.Size))
	if err != nil {
		return paging.Page[models.ActivityRecord]{}, apperr.Internal("activity.List", err)
	}
	return paging.NewPage(items, pg, total), nil
}

func objectID(hex string) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	return id
}

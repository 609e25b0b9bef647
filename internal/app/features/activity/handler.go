// internal/app/features/activity/handler.go
package activity

import (
	"net/http"

	activityfeed "github.com/dalemusser/crmhub/internal/app/core/activity"
	"github.com/dalemusser/crmhub/internal/app/features/shared"
	"github.com/dalemusser/crmhub/internal/app/system/paging"
	"github.com/dalemusser/crmhub/internal/app/system/respond"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the activity feed to staff.
type Handler struct {
	Feed *activityfeed.Feed
	Log  *zap.Logger
}

// NewHandler creates a new activity Handler.
func NewHandler(feed *activityfeed.Feed, logger *zap.Logger) *Handler {
	return &Handler{Feed: feed, Log: logger}
}

// ServeFeed serves GET /activity?entity_type=&entity_id=&actor=&action=&since=.
func (h *Handler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	q := shared.NewQuery(r)
	f := activityfeed.Filter{
		EntityType: q.String("entity_type"),
		EntityID:   q.String("entity_id"),
		Actor:      q.String("actor"),
		Action:     q.String("action"),
		Since:      q.Time("since"),
	}
	if err := q.Err(); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	page, err := h.Feed.List(r.Context(), shared.Principal(r), f, paging.Parse(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, page)
}

// ServeEntityHistory serves GET /activity/{entityType}/{id}, the full
// history of one entity, including entities that were hard-deleted.
func (h *Handler) ServeEntityHistory(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "entity")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	f := activityfeed.Filter{EntityType: chi.URLParam(r, "entityType"), EntityID: id.Hex()}
	page, err := h.Feed.List(r.Context(), shared.Principal(r), f, paging.Parse(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, page)
}

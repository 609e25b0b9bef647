// Package search serves cross-entity search.
package search

import (
	"net/http"

	searchsvc "github.com/dalemusser/crmhub/internal/app/core/search"
	"github.com/dalemusser/crmhub/internal/app/features/shared"
	"github.com/dalemusser/crmhub/internal/app/system/respond"
	"go.uber.org/zap"
)

type Handler struct {
	Search *searchsvc.Service
	Log    *zap.Logger
}

func NewHandler(svc *searchsvc.Service, logger *zap.Logger) *Handler {
	return &Handler{Search: svc, Log: logger}
}

// Serve handles GET /search?q=&types=tasks,customers,calls.
//
// A type whose search failed is named in "errors" and the rest are still
// returned. The request fails only when every requested type failed.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	q := shared.NewQuery(r)
	res, err := h.Search.Search(r.Context(), shared.Principal(r), searchsvc.Query{
		Q:     q.String("q"),
		Types: q.List("types"),
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, res)
}

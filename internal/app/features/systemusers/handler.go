// internal/app/features/systemusers/handler.go
package systemusers

import (
	"net/http"

	"github.com/dalemusser/crmhub/internal/app/core/principals"
	"github.com/dalemusser/crmhub/internal/app/features/shared"
	"github.com/dalemusser/crmhub/internal/app/system/auditlog"
	"github.com/dalemusser/crmhub/internal/app/system/paging"
	"github.com/dalemusser/crmhub/internal/app/system/respond"
	"go.uber.org/zap"
)

// Handler serves the principal directory.
type Handler struct {
	Principals *principals.Service
	Log        *zap.Logger
}

// NewHandler constructs a principal directory handler.
func NewHandler(svc *principals.Service, logger *zap.Logger) *Handler {
	return &Handler{Principals: svc, Log: logger}
}

// ServeList serves GET /principals?role=&status=&q=&page=&size=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := shared.NewQuery(r)
	f := principals.ListFilter{
		Role:   q.String("role"),
		Status: q.String("status"),
		Q:      q.String("q"),
	}
	page, err := h.Principals.List(r.Context(), shared.Principal(r), f, paging.Parse(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, page)
}

// HandleCreate serves POST /principals. Admin only.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in principals.CreateInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	u, err := h.Principals.Create(r.Context(), shared.Principal(r), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Created(w, u)
}

// ServeView serves GET /principals/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "principal")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	u, err := h.Principals.Get(r.Context(), shared.Principal(r), id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, u)
}

// HandleEdit serves PATCH /principals/{id}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "principal")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var patch principals.ProfilePatch
	if err := respond.DecodeJSON(r, &patch); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	u, err := h.Principals.UpdateProfile(r.Context(), auditlog.ClientFrom(r), shared.Principal(r), id, patch)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, u)
}

// HandleDelete serves DELETE /principals/{id}. Principals are deactivated,
// never removed.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "principal")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Principals.Deactivate(r.Context(), shared.Principal(r), id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.NoContent(w)
}

// Package calls serves call logging over JSON. Calls in responses carry
// their user and customer expanded.
package calls

import (
	"net/http"

	callsvc "github.com/dalemusser/crmhub/internal/app/core/calls"
	"github.com/dalemusser/crmhub/internal/app/core/projection"
	"github.com/dalemusser/crmhub/internal/app/features/shared"
	"github.com/dalemusser/crmhub/internal/app/system/paging"
	"github.com/dalemusser/crmhub/internal/app/system/respond"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.uber.org/zap"
)

type Handler struct {
	Calls     *callsvc.Service
	Projector *projection.Projector
	Log       *zap.Logger
}

func NewHandler(svc *callsvc.Service, projector *projection.Projector, logger *zap.Logger) *Handler {
	return &Handler{Calls: svc, Projector: projector, Log: logger}
}

func (h *Handler) writeCall(w http.ResponseWriter, r *http.Request, status int, c models.Call) {
	view, err := h.Projector.Call(r.Context(), c)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, status, view)
}

// ServeList serves GET /calls.
//
// Filters: customer_id, user_id, direction, follow_up_required, from, to.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := shared.NewQuery(r)
	f := callsvc.ListFilter{
		CustomerID:       q.String("customer_id"),
		UserID:           q.String("user_id"),
		Direction:        q.String("direction"),
		FollowUpRequired: q.Bool("follow_up_required"),
		From:             q.Time("from"),
		To:               q.Time("to"),
	}
	if err := q.Err(); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	page, err := h.Calls.List(r.Context(), shared.Principal(r), f, paging.Parse(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	out, err := projection.Page(r.Context(), page, h.Projector.Calls)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, out)
}

// HandleLog serves POST /calls.
func (h *Handler) HandleLog(w http.ResponseWriter, r *http.Request) {
	var in callsvc.LogInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	c, err := h.Calls.Log(r.Context(), shared.Principal(r), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.writeCall(w, r, http.StatusCreated, c)
}

// ServeView serves GET /calls/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "call")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	c, err := h.Calls.Get(r.Context(), shared.Principal(r), id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.writeCall(w, r, http.StatusOK, c)
}

// HandleUpdate serves PATCH /calls/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "call")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var patch callsvc.Patch
	if err := respond.DecodeJSON(r, &patch); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	c, err := h.Calls.Update(r.Context(), shared.Principal(r), id, patch)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.writeCall(w, r, http.StatusOK, c)
}

// HandleDelete serves DELETE /calls/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "call")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Calls.Delete(r.Context(), shared.Principal(r), id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.NoContent(w)
}

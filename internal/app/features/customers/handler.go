// Package customers serves the customer directory over JSON.
package customers

import (
	"net/http"

	customersvc "github.com/dalemusser/crmhub/internal/app/core/customers"
	"github.com/dalemusser/crmhub/internal/app/features/shared"
	"github.com/dalemusser/crmhub/internal/app/system/paging"
	"github.com/dalemusser/crmhub/internal/app/system/respond"
	"go.uber.org/zap"
)

type Handler struct {
	Customers *customersvc.Service
	Log       *zap.Logger
}

func NewHandler(svc *customersvc.Service, logger *zap.Logger) *Handler {
	return &Handler{Customers: svc, Log: logger}
}

// ServeList serves GET /customers?q=&company_type=&include_inactive=.
// include_inactive only widens the listing for staff.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := shared.NewQuery(r)
	f := customersvc.ListFilter{
		Q:               q.String("q"),
		CompanyType:     q.String("company_type"),
		IncludeInactive: q.Flag("include_inactive"),
	}
	if err := q.Err(); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	page, err := h.Customers.List(r.Context(), shared.Principal(r), f, paging.Parse(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, page)
}

// HandleCreate serves POST /customers. Staff only.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in customersvc.CreateInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	c, err := h.Customers.Create(r.Context(), shared.Principal(r), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Created(w, c)
}

// ServeView serves GET /customers/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "customer")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	c, err := h.Customers.Get(r.Context(), shared.Principal(r), id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, c)
}

// HandleUpdate serves PATCH /customers/{id}. Staff only.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "customer")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var patch customersvc.Patch
	if err := respond.DecodeJSON(r, &patch); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	c, err := h.Customers.Update(r.Context(), shared.Principal(r), id, patch)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, c)
}

// HandleDelete serves DELETE /customers/{id}. Customers are deactivated,
// never removed.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "customer")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Customers.Deactivate(r.Context(), shared.Principal(r), id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.NoContent(w)
}

// Package tasks serves the task lifecycle over JSON. Every task in a
// response has its references expanded.
package tasks

import (
	"net/http"

	"github.com/dalemusser/crmhub/internal/app/core/projection"
	tasksvc "github.com/dalemusser/crmhub/internal/app/core/tasks"
	"github.com/dalemusser/crmhub/internal/app/features/shared"
	"github.com/dalemusser/crmhub/internal/app/system/paging"
	"github.com/dalemusser/crmhub/internal/app/system/respond"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.uber.org/zap"
)

type Handler struct {
	Tasks     *tasksvc.Service
	Projector *projection.Projector
	Log       *zap.Logger
}

func NewHandler(svc *tasksvc.Service, projector *projection.Projector, logger *zap.Logger) *Handler {
	return &Handler{Tasks: svc, Projector: projector, Log: logger}
}

// writeTask expands t and writes it with status.
func (h *Handler) writeTask(w http.ResponseWriter, r *http.Request, status int, t models.Task) {
	view, err := h.Projector.Task(r.Context(), t)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, status, view)
}

// ServeList serves GET /tasks.
//
// Filters: status, priority, category, assigned_to, customer_id, overdue.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := shared.NewQuery(r)
	f := tasksvc.ListFilter{
		Status:     q.String("status"),
		Priority:   q.String("priority"),
		Category:   q.String("category"),
		AssignedTo: q.String("assigned_to"),
		CustomerID: q.String("customer_id"),
		Overdue:    q.Flag("overdue"),
	}
	if err := q.Err(); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	page, err := h.Tasks.List(r.Context(), shared.Principal(r), f, paging.Parse(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	out, err := projection.Page(r.Context(), page, h.Projector.Tasks)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, out)
}

// HandleCreate serves POST /tasks.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in tasksvc.CreateInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	t, err := h.Tasks.Create(r.Context(), shared.Principal(r), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.writeTask(w, r, http.StatusCreated, t)
}

// ServeView serves GET /tasks/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "task")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	t, err := h.Tasks.Get(r.Context(), shared.Principal(r), id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.writeTask(w, r, http.StatusOK, t)
}

// HandleUpdate serves PATCH /tasks/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "task")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var patch tasksvc.Patch
	if err := respond.DecodeJSON(r, &patch); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	t, err := h.Tasks.Update(r.Context(), shared.Principal(r), id, patch)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.writeTask(w, r, http.StatusOK, t)
}

// HandleDelete serves DELETE /tasks/{id}. Staff only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "task")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Tasks.Delete(r.Context(), shared.Principal(r), id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.NoContent(w)
}

// HandleComment serves POST /tasks/{id}/comments.
func (h *Handler) HandleComment(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "task")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in tasksvc.CommentInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	t, err := h.Tasks.AddComment(r.Context(), shared.Principal(r), id, in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.writeTask(w, r, http.StatusCreated, t)
}

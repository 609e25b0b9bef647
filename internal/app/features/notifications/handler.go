// Package notifications serves the signed-in principal's inbox.
package notifications

import (
	"net/http"

	notificationsvc "github.com/dalemusser/crmhub/internal/app/core/notifications"
	"github.com/dalemusser/crmhub/internal/app/features/shared"
	"github.com/dalemusser/crmhub/internal/app/system/paging"
	"github.com/dalemusser/crmhub/internal/app/system/respond"
	"go.uber.org/zap"
)

type Handler struct {
	Inbox *notificationsvc.Service
	Log   *zap.Logger
}

func NewHandler(svc *notificationsvc.Service, logger *zap.Logger) *Handler {
	return &Handler{Inbox: svc, Log: logger}
}

// ServeList serves GET /notifications?unread_only=&kind=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := shared.NewQuery(r)
	f := notificationsvc.ListFilter{
		UnreadOnly: q.Flag("unread_only"),
		Kind:       q.String("kind"),
	}
	page, err := h.Inbox.List(r.Context(), shared.Principal(r), f, paging.Parse(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, page)
}

// ServeUnreadCount serves GET /notifications/unread-count.
func (h *Handler) ServeUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Inbox.UnreadCount(r.Context(), shared.Principal(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, map[string]int64{"unread": n})
}

// HandleMarkRead serves POST /notifications/{id}/read. Another principal's
// notification reads as not found.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "notification")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	n, err := h.Inbox.MarkRead(r.Context(), shared.Principal(r), id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, n)
}

// HandleMarkAllRead serves POST /notifications/read-all. Repeating it is
// harmless; the second call reports zero updated.
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Inbox.MarkAllRead(r.Context(), shared.Principal(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, map[string]int64{"updated": n})
}

// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/dalemusser/crmhub/internal/app/core/principals"
	"github.com/dalemusser/crmhub/internal/app/features/shared"
	"github.com/dalemusser/crmhub/internal/app/system/auditlog"
	"github.com/dalemusser/crmhub/internal/app/system/respond"
	"go.uber.org/zap"
)

// Handler serves the signed-in principal's own record.
type Handler struct {
	Principals *principals.Service
	Log        *zap.Logger
}

// NewHandler creates a new userinfo handler.
func NewHandler(svc *principals.Service, logger *zap.Logger) *Handler {
	return &Handler{Principals: svc, Log: logger}
}

// ServeMe returns the current principal.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	me, err := h.Principals.Me(shared.Principal(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, me)
}

// HandleUpdate applies a profile patch to the current principal. Changing
// the password requires current_password.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p := shared.Principal(r)
	var patch principals.ProfilePatch
	if err := respond.DecodeJSON(r, &patch); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	updated, err := h.Principals.UpdateProfile(r.Context(), auditlog.ClientFrom(r), p, p.ID, patch)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, updated)
}

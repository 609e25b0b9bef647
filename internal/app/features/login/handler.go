// internal/app/features/login/handler.go
package login

import (
	"net/http"

	"github.com/dalemusser/crmhub/internal/app/core/principals"
	"github.com/dalemusser/crmhub/internal/app/system/auditlog"
	"github.com/dalemusser/crmhub/internal/app/system/respond"
	"go.uber.org/zap"
)

// Handler exchanges credentials for bearer tokens.
type Handler struct {
	Principals *principals.Service
	Log        *zap.Logger
}

func NewHandler(svc *principals.Service, logger *zap.Logger) *Handler {
	return &Handler{Principals: svc, Log: logger}
}

// HandleLogin serves POST /auth/login.
//
//	{ "email": "...", "password": "..." }  →  200 { "token", "expires_at", "principal" }
//
// Every credential failure is the same 401.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in principals.LoginInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	sess, err := h.Principals.Login(r.Context(), auditlog.ClientFrom(r), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, sess)
}

// HandleRegister serves POST /auth/register. Self-registered principals
// always get the user role.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in principals.RegisterInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	sess, err := h.Principals.Register(r.Context(), auditlog.ClientFrom(r), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Created(w, sess)
}

// internal/app/features/userinfo/routes.go
package userinfo

import (
	"github.com/dalemusser/crmhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the "/me" endpoints. All require a signed-in principal.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeMe)
	r.Patch("/", h.HandleUpdate)
	return r
}

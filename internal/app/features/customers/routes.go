package customers

import (
	"github.com/dalemusser/crmhub/internal/app/system/auth"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the customer endpoints (typically at "/customers").
// Reads are open to every signed-in principal; writes are staff only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeView)

	r.Group(func(sr chi.Router) {
		sr.Use(auth.RequireRole(models.RoleAdmin, models.RoleManager))
		sr.Post("/", h.HandleCreate)
		sr.Patch("/{id}", h.HandleUpdate)
		sr.Delete("/{id}", h.HandleDelete)
	})

	return r
}

// internal/app/features/systemusers/routes.go
package systemusers

import (
	"github.com/dalemusser/crmhub/internal/app/system/auth"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the principal directory (typically at "/principals").
// Listing is for staff; creating is for admins. Viewing and editing a
// single principal are also open to that principal.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.With(auth.RequireRole(models.RoleAdmin, models.RoleManager)).Get("/", h.ServeList)
		pr.With(auth.RequireRole(models.RoleAdmin)).Post("/", h.HandleCreate)

		pr.Get("/{id}", h.ServeView)
		pr.Patch("/{id}", h.HandleEdit)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}

// internal/app/features/activity/routes.go
package activity

import (
	"github.com/dalemusser/crmhub/internal/app/system/auth"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the activity feed. Admins and managers only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Use(auth.RequireRole(models.RoleAdmin, models.RoleManager))

		pr.Get("/", h.ServeFeed)
		pr.Get("/{entityType}/{id}", h.ServeEntityHistory)
	})

	return r
}

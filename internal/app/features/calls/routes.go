package calls

import (
	"github.com/dalemusser/crmhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the call endpoints (typically at "/calls").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleLog)
	r.Get("/{id}", h.ServeView)
	r.Patch("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)

	return r
}

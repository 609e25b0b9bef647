package tasks

import (
	"github.com/dalemusser/crmhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the task endpoints (typically at "/tasks"). Every route
// needs a signed-in principal; finer checks happen in the service.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)

	r.Route("/{id}", func(tr chi.Router) {
		tr.Get("/", h.ServeView)
		tr.Patch("/", h.HandleUpdate)
		tr.Delete("/", h.HandleDelete)

		tr.Post("/comments", h.HandleComment)

		tr.Post("/attachments", h.HandleUpload)
		tr.Get("/attachments/{attachmentID}", h.ServeDownload)
		tr.Delete("/attachments/{attachmentID}", h.HandleRemove)
	})

	return r
}

package tasks

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/dalemusser/crmhub/internal/app/core/projection"
	tasksvc "github.com/dalemusser/crmhub/internal/app/core/tasks"
	"github.com/dalemusser/crmhub/internal/app/features/shared"
	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/limits"
	"github.com/dalemusser/crmhub/internal/app/system/respond"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.uber.org/zap"
)

type attachmentResponse struct {
	Attachment models.Attachment   `json:"attachment"`
	Task       projection.TaskView `json:"task"`
}

// HandleUpload serves POST /tasks/{id}/attachments as multipart/form-data
// with the file in the "file" part.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "task")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxAttachmentUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		reason := "must be a multipart upload with a file part"
		if errors.As(err, &tooBig) {
			reason = "must be at most " + strconv.Itoa(limits.MaxAttachmentUpload>>20) + " MB"
		}
		respond.Error(w, h.Log, apperr.Validation([]apperr.FieldError{{Field: "file", Reason: reason}}))
		return
	}
	defer file.Close()

	task, att, err := h.Tasks.AddAttachment(r.Context(), shared.Principal(r), id, tasksvc.Upload{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Body:     file,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	view, err := h.Projector.Task(r.Context(), task)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Created(w, attachmentResponse{Attachment: att, Task: view})
}

// ServeDownload streams GET /tasks/{id}/attachments/{attachmentID}.
func (h *Handler) ServeDownload(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "task")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	attID, err := shared.PathID(r, "attachmentID", "attachment")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	att, body, err := h.Tasks.OpenAttachment(r.Context(), shared.Principal(r), id, attID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", att.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.Filename}))
	w.Header().Set("Content-Length", strconv.FormatInt(att.Size, 10))
	if _, err := io.Copy(w, body); err != nil {
		h.Log.Warn("attachment download interrupted",
			zap.String("task_id", id.Hex()), zap.String("attachment_id", attID.Hex()), zap.Error(err))
	}
}

// HandleRemove serves DELETE /tasks/{id}/attachments/{attachmentID}.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id", "task")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	attID, err := shared.PathID(r, "attachmentID", "attachment")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	task, err := h.Tasks.RemoveAttachment(r.Context(), shared.Principal(r), id, attID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.writeTask(w, r, http.StatusOK, task)
}

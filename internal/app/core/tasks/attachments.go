package tasks

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/dalemusser/crmhub/internal/app/core/dispatch"
	"github.com/dalemusser/crmhub/internal/app/policy"
	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/inputval"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Upload is a file to attach. Body is read once.
type Upload struct {
	Filename string    `json:"filename" validate:"required,max=255" label:"File name"`
	MimeType string    `json:"mime_type" validate:"max=100" label:"Content type"`
	Body     io.Reader `json:"-"`
}

// AddAttachment writes the blob, then appends its metadata at the version
// the access check saw. If the append fails the blob is released so nothing
// is orphaned.
func (s *Service) AddAttachment(ctx context.Context, p *models.User, id primitive.ObjectID, up Upload) (models.Task, models.Attachment, error) {
	up.Filename = path.Base(strings.ReplaceAll(strings.TrimSpace(up.Filename), "\\", "/"))
	if up.Filename == "." || up.Filename == "/" {
		up.Filename = ""
	}
	if res := inputval.Validate(up); res.HasErrors() {
		return models.Task{}, models.Attachment{}, res.Err()
	}
	if up.MimeType == "" {
		up.MimeType = "application/octet-stream"
	}

	cur, err := s.load(ctx, id)
	if err != nil {
		return models.Task{}, models.Attachment{}, err
	}
	if !policy.CanWriteTask(p, &cur) {
		return models.Task{}, models.Attachment{}, apperr.Forbidden("you may not attach files to this task")
	}

	ref, size, err := s.blobs.Put(ctx, up.Filename, up.Body)
	if err != nil {
		return models.Task{}, models.Attachment{}, apperr.Internal("tasks.AddAttachment: put", err)
	}
	att := models.Attachment{
		ID:         primitive.NewObjectID(),
		Filename:   up.Filename,
		BlobRef:    ref,
		MimeType:   up.MimeType,
		Size:       size,
		UploadedBy: p.ID,
		UploadedAt: s.now().UTC(),
	}

	t, err := s.writeChecked(ctx, id,
		func(cur *models.Task) error {
			if !policy.CanWriteTask(p, cur) {
				return apperr.Forbidden("you may not attach files to this task")
			}
			return nil
		},
		func(cur models.Task) (models.Task, error) {
			return s.tasks.PushAttachment(ctx, id, cur.Version, att)
		})
	if err != nil {
		s.releaseBlob(ctx, id, att)
		return models.Task{}, models.Attachment{}, apperr.FromStore("tasks.AddAttachment", "task", err)
	}

	s.dispatch.Record(dispatch.Activity{
		Actor:       p.ID,
		Action:      models.ActionAttachTask,
		EntityType:  models.EntityTask,
		EntityID:    t.ID,
		EntityLabel: t.Label(),
		Details: map[string]any{
			"attachment_id": att.ID.Hex(),
			"filename":      att.Filename,
			"size":          att.Size,
		},
	})
	return t, att, nil
}

// RemoveAttachment removes the metadata, then releases the blob. A failed
// release is logged and does not fail the call.
func (s *Service) RemoveAttachment(ctx context.Context, p *models.User, id, attachmentID primitive.ObjectID) (models.Task, error) {
	var att models.Attachment
	t, err := s.writeChecked(ctx, id,
		func(cur *models.Task) error {
			if !policy.CanWriteTask(p, cur) {
				return apperr.Forbidden("you may not remove attachments from this task")
			}
			a, ok := findAttachment(*cur, attachmentID)
			if !ok {
				return apperr.NotFound("attachment")
			}
			att = a
			return nil
		},
		func(cur models.Task) (models.Task, error) {
			return s.tasks.PullAttachment(ctx, id, cur.Version, attachmentID)
		})
	if err != nil {
		return models.Task{}, apperr.FromStore("tasks.RemoveAttachment", "attachment", err)
	}
	s.releaseBlob(ctx, id, att)

	s.dispatch.Record(dispatch.Activity{
		Actor:       p.ID,
		Action:      models.ActionDetachTask,
		EntityType:  models.EntityTask,
		EntityID:    t.ID,
		EntityLabel: t.Label(),
		Details: map[string]any{
			"attachment_id": att.ID.Hex(),
			"filename":      att.Filename,
		},
	})
	return t, nil
}

// OpenAttachment returns an attachment's metadata and a reader for its bytes.
// The caller closes the reader.
func (s *Service) OpenAttachment(ctx context.Context, p *models.User, id, attachmentID primitive.ObjectID) (models.Attachment, io.ReadCloser, error) {
	t, err := s.Get(ctx, p, id)
	if err != nil {
		return models.Attachment{}, nil, err
	}
	att, ok := findAttachment(t, attachmentID)
	if !ok {
		return models.Attachment{}, nil, apperr.NotFound("attachment")
	}
	rc, err := s.blobs.Open(ctx, att.BlobRef)
	if err != nil {
		s.log.Error("attachment blob unreadable",
			zap.String("task_id", id.Hex()),
			zap.String("blob_ref", att.BlobRef),
			zap.Error(err))
		return models.Attachment{}, nil, apperr.NotFound("attachment")
	}
	return att, rc, nil
}

func findAttachment(t models.Task, id primitive.ObjectID) (models.Attachment, bool) {
	for _, a := range t.Attachments {
		if a.ID == id {
			return a, true
		}
	}
	return models.Attachment{}, false
}

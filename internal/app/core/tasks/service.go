// Package tasks is the task lifecycle manager. Every operation checks the
// access policy before touching the store, commits synchronously, and then
// hands its side effects to the dispatcher.
package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/crmhub/internal/app/core/dispatch"
	"github.com/dalemusser/crmhub/internal/app/policy"
	customerstore "github.com/dalemusser/crmhub/internal/app/store/customers"
	taskstore "github.com/dalemusser/crmhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/crmhub/internal/app/store/users"
	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/blobstore"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxUpdateAttempts bounds the re-read loop on version conflicts.
const maxUpdateAttempts = 3

// Service owns task state transitions.
type Service struct {
	tasks     *taskstore.Store
	users     *userstore.Store
	customers *customerstore.Store
	blobs     blobstore.Store
	dispatch  *dispatch.Dispatcher
	log       *zap.Logger
	now       func() time.Time
}

// New wires the service against db.
func New(db *mongo.Database, blobs blobstore.Store, d *dispatch.Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		tasks:     taskstore.New(db),
		users:     userstore.New(db),
		customers: customerstore.New(db),
		blobs:     blobs,
		dispatch:  d,
		log:       logger,
		now:       time.Now,
	}
}

// load fetches a task, mapping a missing id to NotFound.
func (s *Service) load(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return models.Task{}, apperr.FromStore("tasks.load", "task", err)
	}
	return t, nil
}

// activeAssignee verifies id names an active principal.
func (s *Service) activeAssignee(ctx context.Context, id primitive.ObjectID) error {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.InvalidReference("assigned_to", "does not exist")
	}
	if err != nil {
		return apperr.Internal("tasks.activeAssignee", err)
	}
	if !u.Active {
		return apperr.InvalidReference("assigned_to", "is deactivated")
	}
	return nil
}

// activeCustomer verifies id names an active customer.
func (s *Service) activeCustomer(ctx context.Context, id primitive.ObjectID) error {
	c, err := s.customers.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.InvalidReference("customer_id", "does not exist")
	}
	if err != nil {
		return apperr.Internal("tasks.activeCustomer", err)
	}
	if !c.Active {
		return apperr.InvalidReference("customer_id", "is deactivated")
	}
	return nil
}

func taskRef(t models.Task) models.EntityRef {
	return models.EntityRef{Type: models.EntityTask, ID: t.ID}
}

func taskLink(t models.Task) string {
	return "/tasks/" + t.ID.Hex()
}

// Create persists a new task. Only staff may create tasks.
func (s *Service) Create(ctx context.Context, p *models.User, in CreateInput) (models.Task, error) {
	if !policy.CanCreateTask(p) {
		return models.Task{}, apperr.Forbidden("only admins and managers may create tasks")
	}
	t, err := in.toTask()
	if err != nil {
		return models.Task{}, err
	}
	if err := s.activeAssignee(ctx, t.AssignedTo); err != nil {
		return models.Task{}, err
	}
	if t.CustomerID != nil {
		if err := s.activeCustomer(ctx, *t.CustomerID); err != nil {
			return models.Task{}, err
		}
	}
	t.CreatedBy = p.ID

	t, err = s.tasks.Create(ctx, t)
	if err != nil {
		return models.Task{}, apperr.Internal("tasks.Create", err)
	}
	s.log.Info("task created", zap.String("task_id", t.ID.Hex()), zap.String("actor", p.ID.Hex()))

	s.dispatch.Record(dispatch.Activity{
		Actor:       p.ID,
		Action:      models.ActionCreateTask,
		EntityType:  models.EntityTask,
		EntityID:    t.ID,
		EntityLabel: t.Label(),
		Details: map[string]any{
			"assigned_to": t.AssignedTo.Hex(),
			"priority":    t.Priority,
			"status":      t.Status,
		},
	})
	if t.AssignedTo != p.ID {
		s.dispatch.Notify(dispatch.Notice{
			Recipient: t.AssignedTo,
			Kind:      models.KindNewTask,
			Message:   p.Name + " assigned you \"" + t.Title + "\"",
			Link:      taskLink(t),
			Related:   taskRef(t),
		})
	}
	return t, nil
}

// Get returns a task the principal may read.
func (s *Service) Get(ctx context.Context, p *models.User, id primitive.ObjectID) (models.Task, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if !policy.CanReadTask(p, &t) {
		return models.Task{}, apperr.Forbidden("you do not have access to this task")
	}
	return t, nil
}

// Update applies patch under the task's version guard, re-reading and
// retrying on a concurrent write. Only fields that actually change are
// written; an empty diff returns the task untouched.
func (s *Service) Update(ctx context.Context, p *models.User, id primitive.ObjectID, patch Patch) (models.Task, error) {
	patch = patch.normalized()
	if err := patch.validate(); err != nil {
		return models.Task{}, err
	}

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		cur, err := s.load(ctx, id)
		if err != nil {
			return models.Task{}, err
		}
		if !policy.CanWriteTask(p, &cur) {
			return models.Task{}, apperr.Forbidden("you may not modify this task")
		}

		d := patch.diff(cur)
		if d.empty() {
			return cur, nil
		}
		if d.assigneeChanged {
			if err := s.activeAssignee(ctx, *d.newAssignee); err != nil {
				return models.Task{}, err
			}
		}
		if d.customerChanged && d.newCustomer != nil {
			if err := s.activeCustomer(ctx, *d.newCustomer); err != nil {
				return models.Task{}, err
			}
		}

		updated, err := s.tasks.UpdateFields(ctx, id, cur.Version, d.set, d.unset...)
		switch {
		case errors.Is(err, taskstore.ErrVersionConflict):
			s.log.Debug("task version conflict, retrying",
				zap.String("task_id", id.Hex()), zap.Int("attempt", attempt))
			continue
		case err != nil:
			return models.Task{}, apperr.FromStore("tasks.Update", "task", err)
		}

		s.afterUpdate(p, cur, updated, d)
		return updated, nil
	}
	return models.Task{}, apperr.Conflict("the task was modified by someone else; reload and try again")
}

// writeChecked re-reads the task, runs check against it, and applies write
// at the version it read. A version conflict starts over, so check always
// sees the state the write lands on.
func (s *Service) writeChecked(ctx context.Context, id primitive.ObjectID, check func(*models.Task) error, write func(models.Task) (models.Task, error)) (models.Task, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		cur, err := s.load(ctx, id)
		if err != nil {
			return models.Task{}, err
		}
		if err := check(&cur); err != nil {
			return models.Task{}, err
		}
		t, err := write(cur)
		if errors.Is(err, taskstore.ErrVersionConflict) {
			s.log.Debug("task version conflict, retrying",
				zap.String("task_id", id.Hex()), zap.Int("attempt", attempt))
			continue
		}
		return t, err
	}
	return models.Task{}, apperr.Conflict("the task was modified by someone else; reload and try again")
}

func (s *Service) afterUpdate(p *models.User, before, after models.Task, d diff) {
	s.dispatch.Record(dispatch.Activity{
		Actor:       p.ID,
		Action:      models.ActionUpdateTask,
		EntityType:  models.EntityTask,
		EntityID:    after.ID,
		EntityLabel: after.Label(),
		Details:     map[string]any{"changes": d.changes},
	})

	switch {
	case d.assigneeChanged:
		if after.AssignedTo != p.ID {
			s.dispatch.Notify(dispatch.Notice{
				Recipient: after.AssignedTo,
				Kind:      models.KindTaskReassigned,
				Message:   p.Name + " reassigned \"" + after.Title + "\" to you",
				Link:      taskLink(after),
				Related:   taskRef(after),
			})
		}
	case d.notifiable && after.AssignedTo != p.ID:
		s.dispatch.Notify(dispatch.Notice{
			Recipient: after.AssignedTo,
			Kind:      models.KindTaskUpdated,
			Message:   p.Name + " updated \"" + after.Title + "\"",
			Link:      taskLink(after),
			Related:   taskRef(after),
		})
	}
}

// AddComment appends a comment with a server timestamp and notifies the
// creator and assignee, excluding the author.
func (s *Service) AddComment(ctx context.Context, p *models.User, id primitive.ObjectID, in CommentInput) (models.Task, error) {
	text, err := in.clean()
	if err != nil {
		return models.Task{}, err
	}
	c := models.Comment{
		ID:        primitive.NewObjectID(),
		Text:      text,
		Author:    p.ID,
		CreatedAt: s.now().UTC(),
	}
	t, err := s.writeChecked(ctx, id,
		func(cur *models.Task) error {
			if !policy.CanWriteTask(p, cur) {
				return apperr.Forbidden("you may not comment on this task")
			}
			return nil
		},
		func(cur models.Task) (models.Task, error) {
			return s.tasks.PushComment(ctx, id, cur.Version, c)
		})
	if err != nil {
		return models.Task{}, apperr.FromStore("tasks.AddComment", "task", err)
	}

	s.dispatch.Record(dispatch.Activity{
		Actor:       p.ID,
		Action:      models.ActionCommentTask,
		EntityType:  models.EntityTask,
		EntityID:    t.ID,
		EntityLabel: t.Label(),
		Details:     map[string]any{"comment_id": c.ID.Hex()},
	})
	for _, r := range commentRecipients(t, p.ID) {
		s.dispatch.Notify(dispatch.Notice{
			Recipient: r,
			Kind:      models.KindCommentAdded,
			Message:   p.Name + " commented on \"" + t.Title + "\"",
			Link:      taskLink(t),
			Related:   taskRef(t),
		})
	}
	return t, nil
}

// commentRecipients returns the creator and assignee, de-duplicated,
// without the author.
func commentRecipients(t models.Task, author primitive.ObjectID) []primitive.ObjectID {
	var out []primitive.ObjectID
	for _, id := range []primitive.ObjectID{t.CreatedBy, t.AssignedTo} {
		if id.IsZero() || id == author {
			continue
		}
		if len(out) == 1 && out[0] == id {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Delete hard-removes a task. The delete-task activity record, carrying a
// snapshot of the task, is written before the task is removed; if that
// write fails the task is kept.
func (s *Service) Delete(ctx context.Context, p *models.User, id primitive.ObjectID) error {
	t, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDeleteTask(p, &t) {
		return apperr.Forbidden("only admins and managers may delete tasks")
	}

	if err := s.dispatch.RecordSync(ctx, dispatch.Activity{
		Actor:       p.ID,
		Action:      models.ActionDeleteTask,
		EntityType:  models.EntityTask,
		EntityID:    t.ID,
		EntityLabel: t.Label(),
		Details:     snapshot(t),
	}); err != nil {
		return apperr.Internal("tasks.Delete: audit", err)
	}

	n, err := s.tasks.Delete(ctx, id)
	if err != nil {
		return apperr.Internal("tasks.Delete", err)
	}
	if n == 0 {
		return apperr.NotFound("task")
	}
	s.log.Info("task deleted", zap.String("task_id", id.Hex()), zap.String("actor", p.ID.Hex()))

	for _, a := range t.Attachments {
		s.releaseBlob(ctx, t.ID, a)
	}
	return nil
}

// snapshot is the denormalized copy kept in the delete-task record.
func snapshot(t models.Task) map[string]any {
	snap := map[string]any{
		"title":       t.Title,
		"status":      t.Status,
		"priority":    t.Priority,
		"assigned_to": t.AssignedTo.Hex(),
		"created_by":  t.CreatedBy.Hex(),
		"comments":    len(t.Comments),
		"attachments": len(t.Attachments),
	}
	if t.CustomerID != nil {
		snap["customer_id"] = t.CustomerID.Hex()
	}
	if t.DueDate != nil {
		snap["due_date"] = t.DueDate.UTC()
	}
	return snap
}

func (s *Service) releaseBlob(ctx context.Context, taskID primitive.ObjectID, a models.Attachment) {
	if err := s.blobs.Delete(ctx, a.BlobRef); err != nil {
		s.log.Warn("failed to release attachment blob",
			zap.String("task_id", taskID.Hex()),
			zap.String("attachment_id", a.ID.Hex()),
			zap.String("blob_ref", a.BlobRef),
			zap.Error(err))
	}
}

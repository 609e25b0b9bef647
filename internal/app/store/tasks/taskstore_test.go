package taskstore_test

import (
	"testing"
	"time"

	"github.com/dalemusser/crmhub/internal/app/policy"
	taskstore "github.com/dalemusser/crmhub/internal/app/store/tasks"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/dalemusser/crmhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Task{
		Title:      "Prepare quote",
		Priority:   models.PriorityHigh,
		Status:     models.StatusTodo,
		AssignedTo: primitive.NewObjectID(),
		CreatedBy:  primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Version != 1 {
		t.Errorf("expected version 1, got %d", created.Version)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Comments == nil || got.Attachments == nil {
		t.Error("comments and attachments should be stored as empty arrays")
	}
}

func TestStore_UpdateFields_VersionGuard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task := fixtures.CreateTask(ctx, "Guarded", primitive.NewObjectID(), primitive.NewObjectID())

	updated, err := store.UpdateFields(ctx, task.ID, task.Version, bson.M{"status": models.StatusInProgress})
	if err != nil {
		t.Fatalf("UpdateFields failed: %v", err)
	}
	if updated.Status != models.StatusInProgress || updated.Version != task.Version+1 {
		t.Errorf("unexpected task after update: status=%q version=%d", updated.Status, updated.Version)
	}

	// A second writer holding the old version loses.
	_, err = store.UpdateFields(ctx, task.ID, task.Version, bson.M{"status": models.StatusCompleted})
	if err != taskstore.ErrVersionConflict {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}

	_, err = store.UpdateFields(ctx, primitive.NewObjectID(), 1, bson.M{"status": models.StatusCompleted})
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments for unknown task, got %v", err)
	}
}

func TestStore_UpdateFields_Unset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task := fixtures.CreateTaskDue(ctx, "Due", primitive.NewObjectID(), primitive.NewObjectID(), time.Now().Add(time.Hour), models.StatusTodo)

	updated, err := store.UpdateFields(ctx, task.ID, task.Version, bson.M{}, "due_date")
	if err != nil {
		t.Fatalf("UpdateFields failed: %v", err)
	}
	if updated.DueDate != nil {
		t.Error("expected due date to be cleared")
	}
}

func TestStore_CommentsAndAttachments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task := fixtures.CreateTask(ctx, "Threaded", primitive.NewObjectID(), primitive.NewObjectID())

	withComment, err := store.PushComment(ctx, task.ID, task.Version, models.Comment{
		ID: primitive.NewObjectID(), Text: "first", Author: task.CreatedBy, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("PushComment failed: %v", err)
	}
	if len(withComment.Comments) != 1 || withComment.Version != task.Version+1 {
		t.Fatalf("unexpected task after comment: %d comments, version %d", len(withComment.Comments), withComment.Version)
	}

	att := models.Attachment{ID: primitive.NewObjectID(), Filename: "quote.pdf", BlobRef: "ref", Size: 10}
	withAtt, err := store.PushAttachment(ctx, task.ID, withComment.Version, att)
	if err != nil {
		t.Fatalf("PushAttachment failed: %v", err)
	}
	if len(withAtt.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(withAtt.Attachments))
	}

	if _, err := store.PullAttachment(ctx, task.ID, withComment.Version, att.ID); err != taskstore.ErrVersionConflict {
		t.Fatalf("expected ErrVersionConflict for a stale pull, got %v", err)
	}
	pulled, err := store.PullAttachment(ctx, task.ID, withAtt.Version, att.ID)
	if err != nil {
		t.Fatalf("PullAttachment failed: %v", err)
	}
	if len(pulled.Attachments) != 0 || pulled.Version != task.Version+3 {
		t.Errorf("unexpected task after pull: %d attachments, version %d", len(pulled.Attachments), pulled.Version)
	}

	if _, err := store.PullAttachment(ctx, task.ID, pulled.Version, att.ID); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments for a missing attachment, got %v", err)
	}
}

func TestStore_PushRejectsStaleVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task := fixtures.CreateTask(ctx, "Contended", primitive.NewObjectID(), primitive.NewObjectID())

	// A reassignment lands between the caller's read and its write.
	if _, err := store.UpdateFields(ctx, task.ID, task.Version, bson.M{"assigned_to": primitive.NewObjectID()}); err != nil {
		t.Fatalf("UpdateFields failed: %v", err)
	}

	_, err := store.PushComment(ctx, task.ID, task.Version, models.Comment{
		ID: primitive.NewObjectID(), Text: "late", Author: task.AssignedTo, CreatedAt: time.Now().UTC(),
	})
	if err != taskstore.ErrVersionConflict {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	_, err = store.PushAttachment(ctx, task.ID, task.Version, models.Attachment{ID: primitive.NewObjectID(), Filename: "x.txt"})
	if err != taskstore.ErrVersionConflict {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	got, err := store.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Comments) != 0 || len(got.Attachments) != 0 {
		t.Errorf("stale writes must not land: %d comments, %d attachments", len(got.Comments), len(got.Attachments))
	}

	if _, err := store.PushComment(ctx, primitive.NewObjectID(), 1, models.Comment{}); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments for a missing task, got %v", err)
	}
}

func TestStore_FindWithScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	fixtures.CreateTask(ctx, "mine as creator", me, other)
	fixtures.CreateTask(ctx, "mine as assignee", other, me)
	fixtures.CreateTask(ctx, "not mine", other, other)

	tasks, err := store.Find(ctx, taskstore.ScopeFilter(policy.Scope{PrincipalID: me}))
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 visible tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.CreatedBy != me && task.AssignedTo != me {
			t.Errorf("task %q is outside the scope", task.Title)
		}
	}

	n, err := store.Count(ctx, taskstore.ScopeFilter(policy.Scope{All: true}))
	if err != nil || n != 3 {
		t.Errorf("expected 3 tasks for unrestricted scope, got %d (%v)", n, err)
	}
	n, _ = store.Count(ctx, taskstore.ScopeFilter(policy.Scope{None: true}))
	if n != 0 {
		t.Errorf("expected no tasks for empty scope, got %d", n)
	}
}

func TestStore_Search(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	fixtures.CreateTask(ctx, "Renewal for Globex", me, me)
	fixtures.CreateTask(ctx, "Globex onboarding", other, other)

	hits, err := store.Search(ctx, "globex", policy.Scope{PrincipalID: me}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Title != "Renewal for Globex" {
		t.Fatalf("expected only the visible task, got %+v", hits)
	}
	if hits[0].Score <= 0 {
		t.Errorf("expected positive score, got %v", hits[0].Score)
	}
}

func TestStore_DueBetween(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	u := primitive.NewObjectID()
	fixtures.CreateTaskDue(ctx, "due soon", u, u, now.Add(3*time.Hour), models.StatusTodo)
	fixtures.CreateTaskDue(ctx, "due soon but done", u, u, now.Add(3*time.Hour), models.StatusCompleted)
	fixtures.CreateTaskDue(ctx, "overdue", u, u, now.Add(-time.Hour), models.StatusInProgress)
	fixtures.CreateTaskDue(ctx, "next week", u, u, now.Add(7*24*time.Hour), models.StatusTodo)

	tasks, err := store.DueBetween(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DueBetween failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "due soon" {
		t.Errorf("expected only the open task due within 24h, got %d tasks", len(tasks))
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task := fixtures.CreateTask(ctx, "Gone", primitive.NewObjectID(), primitive.NewObjectID())
	n, err := store.Delete(ctx, task.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	if _, err := store.GetByID(ctx, task.ID); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments after delete, got %v", err)
	}
}

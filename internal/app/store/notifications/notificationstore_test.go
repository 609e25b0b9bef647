package notificationstore_test

import (
	"testing"

	notificationstore "github.com/dalemusser/crmhub/internal/app/store/notifications"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/dalemusser/crmhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func seed(t *testing.T, store *notificationstore.Store, recipient primitive.ObjectID, kinds ...string) []models.Notification {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var out []models.Notification
	for _, k := range kinds {
		n, err := store.Create(ctx, models.Notification{
			Recipient:     recipient,
			Kind:          k,
			Message:       "hello",
			RelatedEntity: models.EntityRef{Type: models.EntityTask, ID: primitive.NewObjectID()},
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		out = append(out, n)
	}
	return out
}

func TestStore_ListAndFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := primitive.NewObjectID()
	created := seed(t, store, me, models.KindNewTask, models.KindCommentAdded, models.KindNewTask)
	seed(t, store, primitive.NewObjectID(), models.KindNewTask)

	all, err := store.List(ctx, me, notificationstore.Filter{}, 0, 20)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(all))
	}

	if _, err := store.MarkRead(ctx, created[0].ID, me); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	n, _ := store.Count(ctx, me, notificationstore.Filter{UnreadOnly: true, Kind: models.KindNewTask})
	if n != 1 {
		t.Errorf("expected 1 unread new-task, got %d", n)
	}
	unread, _ := store.UnreadCount(ctx, me)
	if unread != 2 {
		t.Errorf("expected 2 unread, got %d", unread)
	}
}

func TestStore_MarkRead_OtherRecipient(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	n := seed(t, store, owner, models.KindCallLogged)[0]

	if _, err := store.MarkRead(ctx, n.ID, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Fatalf("expected ErrNoDocuments for another recipient, got %v", err)
	}

	first, err := store.MarkRead(ctx, n.ID, owner)
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if !first.IsRead || first.ReadAt == nil {
		t.Fatal("expected notification to be read with a timestamp")
	}
	again, err := store.MarkRead(ctx, n.ID, owner)
	if err != nil {
		t.Fatalf("second MarkRead failed: %v", err)
	}
	if !again.ReadAt.Equal(*first.ReadAt) {
		t.Error("marking twice should keep the original read time")
	}
}

func TestStore_MarkAllRead_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := primitive.NewObjectID()
	seed(t, store, me, models.KindNewTask, models.KindTaskUpdated)

	changed, err := store.MarkAllRead(ctx, me)
	if err != nil || changed != 2 {
		t.Fatalf("first MarkAllRead = %d, %v", changed, err)
	}
	changed, err = store.MarkAllRead(ctx, me)
	if err != nil || changed != 0 {
		t.Fatalf("second MarkAllRead = %d, %v; want 0, nil", changed, err)
	}
}

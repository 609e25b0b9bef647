package notificationstore

import (
	"context"
	"time"

	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Filter narrows a recipient's inbox listing.
type Filter struct {
	UnreadOnly bool
	Kind       string
}

func inbox(recipient primitive.ObjectID, f Filter) bson.M {
	q := bson.M{"recipient": recipient}
	if f.UnreadOnly {
		q["is_read"] = false
	}
	if f.Kind != "" {
		q["kind"] = f.Kind
	}
	return q
}

// Create stores a new unread notification.
func (s *Store) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	n.ID = primitive.NewObjectID()
	n.IsRead = false
	n.ReadAt = nil
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// List returns a recipient's notifications, newest first.
func (s *Store) List(ctx context.Context, recipient primitive.ObjectID, f Filter, skip, limit int64) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, inbox(recipient, f), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of a recipient's notifications matching f.
func (s *Store) Count(ctx context.Context, recipient primitive.ObjectID, f Filter) (int64, error) {
	return s.c.CountDocuments(ctx, inbox(recipient, f))
}

// UnreadCount returns the number of unread notifications for recipient.
func (s *Store) UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.Count(ctx, recipient, Filter{UnreadOnly: true})
}

// MarkRead marks one notification read. The recipient is part of the match,
// so another principal's notification is reported as mongo.ErrNoDocuments.
// Marking an already-read notification keeps its original ReadAt.
func (s *Store) MarkRead(ctx context.Context, id, recipient primitive.ObjectID) (models.Notification, error) {
	match := bson.M{"_id": id, "recipient": recipient}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "recipient": recipient, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": time.Now().UTC()}})
	if err != nil {
		return models.Notification{}, err
	}

	var n models.Notification
	if err := s.c.FindOne(ctx, match).Decode(&n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// MarkAllRead marks every unread notification of recipient read and returns
// how many changed. A second call changes nothing and returns 0.
func (s *Store) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"recipient": recipient, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

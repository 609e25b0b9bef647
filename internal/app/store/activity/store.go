// internal/app/store/activity/store.go
package activitystore

import (
	"context"
	"time"

	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the append-only activity log. Records are never updated or removed.
type Store struct {
	c *mongo.Collection
}

// New creates a new activity Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activity_records")}
}

// Filter narrows an activity listing. Zero values match everything.
type Filter struct {
	EntityType string
	EntityID   *primitive.ObjectID
	Actor      *primitive.ObjectID
	Action     string
	Since      *time.Time
}

func (f Filter) toBSON() bson.M {
	q := bson.M{}
	if f.EntityType != "" {
		q["entity_type"] = f.EntityType
	}
	if f.EntityID != nil {
		q["entity_id"] = *f.EntityID
	}
	if f.Actor != nil {
		q["actor"] = *f.Actor
	}
	if f.Action != "" {
		q["action"] = f.Action
	}
	if f.Since != nil {
		q["created_at"] = bson.M{"$gte": *f.Since}
	}
	return q
}

// Append stores one activity record.
func (s *Store) Append(ctx context.Context, rec models.ActivityRecord) (models.ActivityRecord, error) {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return models.ActivityRecord{}, err
	}
	return rec, nil
}

// Query returns records matching f, newest first, honoring skip and limit.
func (s *Store) Query(ctx context.Context, f Filter, skip, limit int64) ([]models.ActivityRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, f.toBSON(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recs []models.ActivityRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Count returns the number of records matching f.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	return s.c.CountDocuments(ctx, f.toBSON())
}

// ForEntity returns every record for one entity, newest first.
func (s *Store) ForEntity(ctx context.Context, entityType string, id primitive.ObjectID) ([]models.ActivityRecord, error) {
	return s.Query(ctx, Filter{EntityType: entityType, EntityID: &id}, 0, 0)
}

package callstore

import (
	"context"
	"time"

	"github.com/dalemusser/crmhub/internal/app/policy"
	"github.com/dalemusser/crmhub/internal/app/store/scoped"
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
	return &Store{c: db.Collection("calls")}
}

// Hit is a search result with its text relevance score.
type Hit struct {
	models.Call `bson:",inline"`
	Score       float64 `bson:"score" json:"score"`
}

// ScopeFilter is the visibility filter for scope: users see their own calls.
func ScopeFilter(scope policy.Scope) bson.M {
	return scoped.Filter(scope, "", "user_id")
}

// Create inserts a call. Tags are normalized to a set.
func (s *Store) Create(ctx context.Context, c models.Call) (models.Call, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Tags = models.NormalizeTags(c.Tags)
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Call{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Call, error) {
	var c models.Call
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Call{}, err
	}
	return c, nil
}

// Replace stores the mutable fields of c and refreshes UpdatedAt.
// Ownership and creation fields are never rewritten.
func (s *Store) Replace(ctx context.Context, c models.Call) (models.Call, error) {
	set := bson.M{
		"direction":          c.Direction,
		"summary":            c.Summary,
		"outcome":            c.Outcome,
		"follow_up_required": c.FollowUpRequired,
		"tags":               models.NormalizeTags(c.Tags),
		"updated_at":         time.Now().UTC(),
	}
	unset := bson.M{}
	if c.DurationSeconds != nil {
		set["duration_seconds"] = *c.DurationSeconds
	} else {
		unset["duration_seconds"] = ""
	}
	if c.FollowUpDate != nil {
		set["follow_up_date"] = c.FollowUpDate.UTC()
	} else {
		unset["follow_up_date"] = ""
	}
	upd := bson.M{"$set": set}
	if len(unset) > 0 {
		upd["$unset"] = unset
	}

	var out models.Call
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": c.ID}, upd,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		return models.Call{}, err
	}
	return out, nil
}

// Delete removes a call by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Find returns calls matching the given filter with optional find options.
// The caller is responsible for building the filter and options (pagination, sorting, projection).
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Call, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var calls []models.Call
	if err := cur.All(ctx, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// Count returns the number of calls matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// Search runs a weighted text search restricted to scope, best match first.
func (s *Store) Search(ctx context.Context, q string, scope policy.Scope, limit int64) ([]Hit, error) {
	filter := scoped.And(scoped.Text(q), ScopeFilter(scope))
	cur, err := s.c.Find(ctx, filter, scoped.TextOptions(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	hits := []Hit{}
	if err := cur.All(ctx, &hits); err != nil {
		return nil, err
	}
	return hits, nil
}

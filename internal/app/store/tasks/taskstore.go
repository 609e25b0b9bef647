package taskstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/crmhub/internal/app/policy"
	"github.com/dalemusser/crmhub/internal/app/store/scoped"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrVersionConflict is returned when a guarded update finds the task at a
// different version than the caller read.
var ErrVersionConflict = errors.New("task was modified concurrently")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// Hit is a search result with its text relevance score.
type Hit struct {
	models.Task `bson:",inline"`
	Score       float64 `bson:"score" json:"score"`
}

// ScopeFilter is the visibility filter for scope: users see tasks they
// created or are assigned to.
func ScopeFilter(scope policy.Scope) bson.M {
	return scoped.Filter(scope, "", "created_by", "assigned_to")
}

// Create inserts a new task at version 1.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	if t.Attachments == nil {
		t.Attachments = []models.Attachment{}
	}
	if t.Comments == nil {
		t.Comments = []models.Comment{}
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Version = 1
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// GetByID loads a task. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

var after = options.FindOneAndUpdate().SetReturnDocument(options.After)

// UpdateFields applies set to the task only if it is still at version,
// bumping the version. Returns ErrVersionConflict if the version moved on
// and mongo.ErrNoDocuments if the task is gone.
func (s *Store) UpdateFields(ctx context.Context, id primitive.ObjectID, version int64, set bson.M, unset ...string) (models.Task, error) {
	upd := bson.M{
		"$set": withUpdatedAt(set),
		"$inc": bson.M{"version": 1},
	}
	if len(unset) > 0 {
		u := bson.M{}
		for _, f := range unset {
			u[f] = ""
		}
		upd["$unset"] = u
	}

	var t models.Task
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "version": version}, upd, after).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return models.Task{}, s.missOrConflict(ctx, id)
	}
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func (s *Store) missOrConflict(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return mongo.ErrNoDocuments
	}
	return ErrVersionConflict
}

// PushComment appends c if the task is still at version, and bumps the
// version. A stale version yields ErrVersionConflict.
func (s *Store) PushComment(ctx context.Context, id primitive.ObjectID, version int64, c models.Comment) (models.Task, error) {
	return s.push(ctx, id, version, "comments", c)
}

// PushAttachment appends a if the task is still at version, and bumps the
// version. A stale version yields ErrVersionConflict.
func (s *Store) PushAttachment(ctx context.Context, id primitive.ObjectID, version int64, a models.Attachment) (models.Task, error) {
	return s.push(ctx, id, version, "attachments", a)
}

func (s *Store) push(ctx context.Context, id primitive.ObjectID, version int64, field string, v any) (models.Task, error) {
	upd := bson.M{
		"$push": bson.M{field: v},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
		"$inc":  bson.M{"version": 1},
	}
	var t models.Task
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "version": version}, upd, after).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return models.Task{}, s.missOrConflict(ctx, id)
	}
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// PullAttachment removes the attachment if the task is still at version,
// and bumps the version. Returns mongo.ErrNoDocuments if the task or the
// attachment does not exist, ErrVersionConflict on a stale version.
func (s *Store) PullAttachment(ctx context.Context, id primitive.ObjectID, version int64, attachmentID primitive.ObjectID) (models.Task, error) {
	upd := bson.M{
		"$pull": bson.M{"attachments": bson.M{"_id": attachmentID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
		"$inc":  bson.M{"version": 1},
	}
	var t models.Task
	filter := bson.M{"_id": id, "version": version, "attachments._id": attachmentID}
	err := s.c.FindOneAndUpdate(ctx, filter, upd, after).Decode(&t)
	if err == mongo.ErrNoDocuments {
		n, cerr := s.c.CountDocuments(ctx, bson.M{"_id": id, "attachments._id": attachmentID})
		if cerr != nil {
			return models.Task{}, cerr
		}
		if n == 0 {
			return models.Task{}, mongo.ErrNoDocuments
		}
		return models.Task{}, ErrVersionConflict
	}
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// Delete removes a task by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Find returns tasks matching the given filter with optional find options.
// The caller is responsible for building the filter and options (pagination, sorting, projection).
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tasks []models.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Count returns the number of tasks matching the given filter.
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

// DueBetween returns open tasks whose due date falls in (from, to].
func (s *Store) DueBetween(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	filter := bson.M{
		"status":   bson.M{"$ne": models.StatusCompleted},
		"due_date": bson.M{"$gt": from.UTC(), "$lte": to.UTC()},
	}
	return s.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}}))
}

func withUpdatedAt(set bson.M) bson.M {
	out := make(bson.M, len(set)+1)
	for k, v := range set {
		out[k] = v
	}
	out["updated_at"] = time.Now().UTC()
	return out
}

package userstore

import (
	"context"

	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher loads fresh principal data on each authenticated request.
// It never reads the password hash.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a Fetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// FetchPrincipal loads the principal with id. It returns mongo.ErrNoDocuments
// when the principal does not exist; the caller decides what inactive means.
func (f *Fetcher) FetchPrincipal(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	proj := options.FindOne().SetProjection(bson.M{
		"_id":        1,
		"name":       1,
		"email":      1,
		"role":       1,
		"active":     1,
		"created_at": 1,
		"updated_at": 1,
	})

	var u models.User
	if err := f.users.FindOne(ctx, bson.M{"_id": id}, proj).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

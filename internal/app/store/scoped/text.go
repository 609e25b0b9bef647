package scoped

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Text returns a $text clause for the collection's weighted text index.
func Text(q string) bson.M {
	return bson.M{"$text": bson.M{"$search": q}}
}

// TextOptions projects the relevance score into "score" and sorts by it,
// best match first.
func TextOptions(limit int64) *options.FindOptions {
	score := bson.M{"$meta": "textScore"}
	return options.Find().
		SetProjection(bson.M{"score": score}).
		SetSort(bson.D{{Key: "score", Value: score}, {Key: "_id", Value: 1}}).
		SetLimit(limit)
}

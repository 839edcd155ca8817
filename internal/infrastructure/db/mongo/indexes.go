package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionUsers    = "users"
	collectionPosts    = "posts"
	collectionComments = "comments"
)

// sortNewestFirst orders by creation time; _id breaks ties between documents
// created in the same millisecond so pages never overlap.
var sortNewestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// byNewest prefixes the newest-first ordering with an equality field.
func byNewest(field string) bson.D {
	return append(bson.D{{Key: field, Value: 1}}, sortNewestFirst...)
}

// EnsureIndexes creates the unique and listing indexes of every collection.
// Creating an index that already exists is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	plan := map[string][]mongo.IndexModel{
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collectionPosts: {
			{Keys: sortNewestFirst},
			{Keys: byNewest("author")},
		},
		collectionComments: {
			{Keys: byNewest("post")},
			{Keys: byNewest("author")},
		},
	}

	for coll, models := range plan {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

package bootstrap

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EnsureIndexes creates the indexes the feed and connection queries depend
// on. Safe to run on every startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("posts").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "published", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("published_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("author_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "tags", Value: 1}},
			Options: options.Index().SetName("tags"),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("connections").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_lo", Value: 1}, {Key: "pair_hi", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_pair"),
		},
		{
			Keys:    bson.D{{Key: "requester_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("requester_status"),
		},
		{
			Keys:    bson.D{{Key: "recipient_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("recipient_status"),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_username"),
		},
	})
	return err
}

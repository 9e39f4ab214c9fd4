package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/commune-app/backend/internal/feed"
)

// maxTagGroups bounds the aggregation result; the trender truncates further.
const maxTagGroups = 500

// TagTrendingRepository implements feed.TagAggregator over the posts
// collection: one row per tag per post, grouped by exact tag string.
type TagTrendingRepository struct {
	col *mongo.Collection
}

func NewTagTrendingRepository(db *mongo.Database) *TagTrendingRepository {
	return &TagTrendingRepository{col: db.Collection("posts")}
}

func (r *TagTrendingRepository) AggregateTags(ctx context.Context, since time.Time) ([]feed.TagCount, error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"published": true}}},
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.M{
			"_id":         "$tags",
			"total_count": bson.M{"$sum": 1},
			"recent_count": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{"$created_at", since}},
				1,
				0,
			}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "recent_count", Value: -1},
			{Key: "total_count", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$limit", Value: maxTagGroups}},
	}

	cur, err := r.col.Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []feed.TagCount
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

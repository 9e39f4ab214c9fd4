package feed

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/commune-app/backend/model"
)

// ErrStoreUnavailable is the only error the feed core returns for a failed
// store call. Driver errors are logged, never surfaced.
var ErrStoreUnavailable = errors.New("feed: store unavailable")

// Filter narrows a published-post query. Zero values mean "no restriction".
// The store returns matches sorted by created_at descending.
type Filter struct {
	AuthorIn     []bson.ObjectID // only these authors
	AuthorNotIn  []bson.ObjectID // exclude these authors
	CreatedAfter time.Time       // created_at >= this (inclusive)
	CreatedUntil time.Time       // created_at < this (exclusive)
}

// PostStore is the slice of the posts collection the ranker needs.
type PostStore interface {
	FindPublished(ctx context.Context, f Filter) ([]model.Post, error)
	CountPublished(ctx context.Context) (int64, error)
	Sample(ctx context.Context, size int) ([]model.Post, error)
}

// ConnectionStore resolves the raw connection documents of one user.
type ConnectionStore interface {
	ConnectionsFor(ctx context.Context, userID bson.ObjectID) ([]model.Connection, error)
}

// TagCount is one row of the tag aggregation: how many published posts carry
// the tag overall and how many of those fall inside the trending window.
type TagCount struct {
	Tag         string `json:"tag"         bson:"_id"`
	TotalCount  int    `json:"totalCount"  bson:"total_count"`
	RecentCount int    `json:"recentCount" bson:"recent_count"`
}

// TagAggregator groups published posts by tag, one row per tag per post.
type TagAggregator interface {
	AggregateTags(ctx context.Context, since time.Time) ([]TagCount, error)
}

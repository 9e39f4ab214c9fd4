package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/commune-app/backend/internal/feed"
	"github.com/commune-app/backend/model"
)

var (
	ErrNotFound  = errors.New("repository: not found")
	ErrForbidden = errors.New("repository: not the owner")
)

// MaxTagsPerPost caps the tag list at write time.
const MaxTagsPerPost = 10

// PostRepository owns the posts collection. It also implements feed.PostStore
// so the ranker can consume it through its port.
type PostRepository struct {
	col *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{col: db.Collection("posts")}
}

// NormalizeTags lowercases, trims, dedupes, and caps a tag list. Order of
// first appearance is preserved.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == MaxTagsPerPost {
			break
		}
	}
	return out
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	now := time.Now().UTC()
	post.ID = bson.NewObjectID()
	post.Tags = NormalizeTags(post.Tags)
	post.Likes = []bson.ObjectID{}
	post.Comments = []model.Comment{}
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := r.col.InsertOne(ctx, post)
	return err
}

func (r *PostRepository) GetByID(ctx context.Context, id bson.ObjectID) (*model.Post, error) {
	var p model.Post
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Normalize()
	return &p, nil
}

// Update modifies body, tags, or the publication flag of the caller's own
// post. Nil fields are left untouched.
func (r *PostRepository) Update(ctx context.Context, id, userID bson.ObjectID, body *string, tags []string, published *bool) (*model.Post, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if body != nil {
		set["body"] = *body
	}
	if tags != nil {
		set["tags"] = NormalizeTags(tags)
	}
	if published != nil {
		set["published"] = *published
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": set},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, r.notFoundOrForbidden(ctx, id)
	}
	return r.GetByID(ctx, id)
}

func (r *PostRepository) Delete(ctx context.Context, id, userID bson.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return r.notFoundOrForbidden(ctx, id)
	}
	return nil
}

func (r *PostRepository) ListByAuthor(ctx context.Context, authorID bson.ObjectID, limit int64) ([]model.Post, error) {
	return r.list(ctx, bson.M{"user_id": authorID, "published": true}, limit)
}

// Search runs a case-insensitive substring match on published post bodies.
func (r *PostRepository) Search(ctx context.Context, q string, limit int64) ([]model.Post, error) {
	return r.list(ctx, bson.M{
		"published": true,
		"body":      bson.M{"$regex": q, "$options": "i"},
	}, limit)
}

func (r *PostRepository) ListByTag(ctx context.Context, tag string, limit int64) ([]model.Post, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return r.list(ctx, bson.M{"published": true, "tags": tag}, limit)
}

// Like adds userID to the post's like set; repeating it is a no-op.
func (r *PostRepository) Like(ctx context.Context, postID, userID bson.ObjectID) error {
	return r.updateLikes(ctx, postID, bson.M{"$addToSet": bson.M{"likes": userID}})
}

func (r *PostRepository) Unlike(ctx context.Context, postID, userID bson.ObjectID) error {
	return r.updateLikes(ctx, postID, bson.M{"$pull": bson.M{"likes": userID}})
}

// AddComment appends to the embedded comment list; insertion order is the
// display order.
func (r *PostRepository) AddComment(ctx context.Context, postID, userID bson.ObjectID, text string) (*model.Comment, error) {
	c := model.Comment{
		ID:        bson.NewObjectID(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{"$push": bson.M{"comments": c}},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return &c, nil
}

// DeleteComment removes the caller's own comment from a post.
func (r *PostRepository) DeleteComment(ctx context.Context, postID, commentID, userID bson.ObjectID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID, "user_id": userID}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	if res.ModifiedCount == 0 {
		return ErrForbidden
	}
	return nil
}

// ---- feed.PostStore ----

func (r *PostRepository) FindPublished(ctx context.Context, f feed.Filter) ([]model.Post, error) {
	filter := bson.M{"published": true}
	if len(f.AuthorIn) > 0 {
		filter["user_id"] = bson.M{"$in": f.AuthorIn}
	}
	if len(f.AuthorNotIn) > 0 {
		filter["user_id"] = bson.M{"$nin": f.AuthorNotIn}
	}
	created := bson.M{}
	if !f.CreatedAfter.IsZero() {
		created["$gte"] = f.CreatedAfter
	}
	if !f.CreatedUntil.IsZero() {
		created["$lt"] = f.CreatedUntil
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}
	return r.findSortedDesc(ctx, filter)
}

func (r *PostRepository) CountPublished(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"published": true})
}

// Sample draws a uniform random subset of published posts.
func (r *PostRepository) Sample(ctx context.Context, size int) ([]model.Post, error) {
	if size <= 0 {
		size = 1
	}
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"published": true}}},
		{{Key: "$sample", Value: bson.M{"size": size}}},
	}
	cur, err := r.col.Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var items []model.Post
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ---- helpers ----

func (r *PostRepository) findSortedDesc(ctx context.Context, filter bson.M) ([]model.Post, error) {
	opt := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opt)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var items []model.Post
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostRepository) list(ctx context.Context, filter bson.M, limit int64) ([]model.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	opt := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	cur, err := r.col.Find(ctx, filter, opt)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var items []model.Post
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Normalize()
	}
	return items, nil
}

func (r *PostRepository) updateLikes(ctx context.Context, postID bson.ObjectID, update bson.M) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": postID, "published": true}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostRepository) notFoundOrForbidden(ctx context.Context, id bson.ObjectID) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err == nil && n > 0 {
		return ErrForbidden
	}
	return ErrNotFound
}

package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/commune-app/backend/model"
)

const (
	// RecencyWindow is the promotion boundary for connection posts.
	RecencyWindow = 24 * time.Hour

	DefaultPageSize = 20
	MaxPageSize     = 50

	// randomOversample widens the $sample beyond one page so repeated random
	// requests do not keep drawing from the same handful of posts.
	randomOversample = 3
)

// FeedPost is a post plus the per-response fields derived for the viewer.
// Nothing here is persisted.
type FeedPost struct {
	model.Post

	LikesCount       int     `json:"likesCount"`
	CommentsCount    int     `json:"commentsCount"`
	IsLiked          bool    `json:"isLiked"`
	IsFromConnection bool    `json:"isFromConnection"`
	IsRecent         bool    `json:"isRecent"`
	Score            float64 `json:"score,omitempty"`
}

// ConnectionActivity summarises the viewer's graph for the response header.
type ConnectionActivity struct {
	ConnectionCount int `json:"connectionCount"`
	RecentPostCount int `json:"recentPostCount"`
}

// Page is one page of the ranked feed plus its pagination metadata.
type Page struct {
	Posts      []FeedPost         `json:"posts"`
	Mode       Mode               `json:"mode"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPosts int                `json:"totalPosts"`
	TotalPages int                `json:"totalPages"`
	HasNext    bool               `json:"hasNext"`
	HasPrev    bool               `json:"hasPrev"`
	Activity   ConnectionActivity `json:"connectionActivity"`
	Message    string             `json:"message,omitempty"`
}

// Ranker produces ordered, paginated feeds from the post store. It holds no
// state between requests; every call is an independent point-in-time read.
type Ranker struct {
	posts  PostStore
	logger *slog.Logger

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewRanker(posts PostStore, logger *slog.Logger) *Ranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{posts: posts, logger: logger, Now: time.Now}
}

// Feed computes one page for the viewer under the given mode. Any store
// failure aborts the whole request; no partial feed is ever returned.
func (r *Ranker) Feed(ctx context.Context, viewer ViewerContext, page, pageSize int, mode Mode) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	now := r.Now()

	total, err := r.posts.CountPublished(ctx)
	if err != nil {
		return nil, r.storeErr("count published", err)
	}
	if total == 0 {
		// Explicit fast path: skip every merge/sort step.
		return &Page{
			Posts:    []FeedPost{},
			Mode:     mode,
			Page:     page,
			PageSize: pageSize,
			Activity: ConnectionActivity{ConnectionCount: viewer.ConnectionCount()},
			Message:  "no posts have been published yet",
		}, nil
	}

	if mode == ModeRandom {
		return r.randomFeed(ctx, viewer, page, pageSize, now)
	}

	merged, recentConn, err := r.connectionMerge(ctx, viewer, now)
	if err != nil {
		return nil, err
	}

	applyMode(merged, mode, now)

	p := paginate(merged, page, pageSize)
	p.Mode = mode
	p.Activity = ConnectionActivity{
		ConnectionCount: viewer.ConnectionCount(),
		RecentPostCount: recentConn,
	}
	r.derive(p, viewer, mode, now)
	return p, nil
}

// connectionMerge retrieves the three buckets of the connection-priority
// order and merges them: recent connection posts first, then strangers and
// older connection posts on a single chronological timeline. Viewers with no
// connections get the plain latest-first timeline in one query.
//
// The buckets are separate store reads; a post changing buckets between them
// is a benign race, not something the ranker compensates for.
func (r *Ranker) connectionMerge(ctx context.Context, viewer ViewerContext, now time.Time) ([]model.Post, int, error) {
	if viewer.ConnectionCount() == 0 {
		all, err := r.posts.FindPublished(ctx, Filter{})
		if err != nil {
			return nil, 0, r.storeErr("find published", err)
		}
		normalize(all)
		return all, 0, nil
	}

	connected := viewer.ConnectedIDs()
	cutoff := now.Add(-RecencyWindow)

	recent, err := r.posts.FindPublished(ctx, Filter{AuthorIn: connected, CreatedAfter: cutoff})
	if err != nil {
		return nil, 0, r.storeErr("find recent connection posts", err)
	}
	strangers, err := r.posts.FindPublished(ctx, Filter{AuthorNotIn: connected})
	if err != nil {
		return nil, 0, r.storeErr("find stranger posts", err)
	}
	older, err := r.posts.FindPublished(ctx, Filter{AuthorIn: connected, CreatedUntil: cutoff})
	if err != nil {
		return nil, 0, r.storeErr("find older connection posts", err)
	}

	merged := make([]model.Post, 0, len(recent)+len(strangers)+len(older))
	merged = append(merged, recent...)
	merged = append(merged, mergeByCreatedDesc(strangers, older)...)
	normalize(merged)
	return merged, len(recent), nil
}

func (r *Ranker) randomFeed(ctx context.Context, viewer ViewerContext, page, pageSize int, now time.Time) (*Page, error) {
	sampled, err := r.posts.Sample(ctx, pageSize*randomOversample)
	if err != nil {
		return nil, r.storeErr("sample published", err)
	}
	normalize(sampled)

	recentConn := 0
	if viewer.ConnectionCount() > 0 {
		recent, err := r.posts.FindPublished(ctx, Filter{
			AuthorIn:     viewer.ConnectedIDs(),
			CreatedAfter: now.Add(-RecencyWindow),
		})
		if err != nil {
			return nil, r.storeErr("find recent connection posts", err)
		}
		recentConn = len(recent)
	}

	p := paginate(sampled, page, pageSize)
	p.Mode = ModeRandom
	p.Activity = ConnectionActivity{
		ConnectionCount: viewer.ConnectionCount(),
		RecentPostCount: recentConn,
	}
	r.derive(p, viewer, ModeRandom, now)
	return p, nil
}

// applyMode re-sorts the merged sequence in place. The sorts are stable, so
// the incoming merge order is the final tie-break.
func applyMode(posts []model.Post, mode Mode, now time.Time) {
	switch mode {
	case ModeOldest:
		// Abandons the connection-priority order entirely.
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].CreatedAt.Before(posts[j].CreatedAt)
		})
	case ModePopular:
		sort.SliceStable(posts, func(i, j int) bool {
			li, lj := len(posts[i].Likes), len(posts[j].Likes)
			if li != lj {
				return li > lj
			}
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	case ModeTrending:
		// Scores compare against the single timestamp captured at request
		// start so the ordering cannot shift mid-sort.
		sort.SliceStable(posts, func(i, j int) bool {
			si, sj := mixedScore(&posts[i], now), mixedScore(&posts[j], now)
			if si != sj {
				return si > sj
			}
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	}
}

// paginate slices the full ordered sequence and fills the page math. Counts
// always reflect the full set, never the slice.
func paginate(posts []model.Post, page, pageSize int) *Page {
	total := len(posts)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	slice := posts[start:end]
	out := make([]FeedPost, len(slice))
	for i := range slice {
		out[i] = FeedPost{Post: slice[i]}
	}

	return &Page{
		Posts:      out,
		Page:       page,
		PageSize:   pageSize,
		TotalPosts: total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1 && totalPages > 0,
	}
}

// derive fills the per-viewer display fields. It runs after the page slice so
// discarded rows cost nothing.
func (r *Ranker) derive(p *Page, viewer ViewerContext, mode Mode, now time.Time) {
	cutoff := now.Add(-RecencyWindow)
	for i := range p.Posts {
		fp := &p.Posts[i]
		fp.LikesCount = len(fp.Likes)
		fp.CommentsCount = len(fp.Comments)
		fp.IsLiked = fp.Post.LikedBy(viewer.UserID)
		fp.IsFromConnection = viewer.IsConnected(fp.UserID)
		fp.IsRecent = !fp.CreatedAt.Before(cutoff)
		switch mode {
		case ModePopular:
			fp.Score = float64(fp.LikesCount)
		case ModeTrending:
			fp.Score = mixedScore(&fp.Post, now)
		}
	}
}

// mergeByCreatedDesc merges two sequences that are each sorted by created_at
// descending into one descending timeline.
func mergeByCreatedDesc(a, b []model.Post) []model.Post {
	out := make([]model.Post, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if !a[i].CreatedAt.Before(b[j].CreatedAt) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

func normalize(posts []model.Post) {
	for i := range posts {
		posts[i].Normalize()
	}
}

func (r *Ranker) storeErr(op string, err error) error {
	r.logger.Error("feed store call failed", "op", op, "error", err)
	return fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
}

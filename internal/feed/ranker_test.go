package feed

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/commune-app/backend/model"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func oid(n byte) bson.ObjectID {
	var id bson.ObjectID
	id[11] = n
	return id
}

// fakeStore implements PostStore over an in-memory slice with the same
// contract the Mongo repository provides: published only, created_at
// descending.
type fakeStore struct {
	posts   []model.Post
	failOp  string
	rng     *rand.Rand
	queries int
}

var errBoom = errors.New("boom")

func (f *fakeStore) FindPublished(_ context.Context, flt Filter) ([]model.Post, error) {
	f.queries++
	if f.failOp == "find" {
		return nil, errBoom
	}
	in := make(map[bson.ObjectID]struct{}, len(flt.AuthorIn))
	for _, id := range flt.AuthorIn {
		in[id] = struct{}{}
	}
	notIn := make(map[bson.ObjectID]struct{}, len(flt.AuthorNotIn))
	for _, id := range flt.AuthorNotIn {
		notIn[id] = struct{}{}
	}

	var out []model.Post
	for _, p := range f.posts {
		if !p.Published {
			continue
		}
		if len(in) > 0 {
			if _, ok := in[p.UserID]; !ok {
				continue
			}
		}
		if _, ok := notIn[p.UserID]; ok {
			continue
		}
		if !flt.CreatedAfter.IsZero() && p.CreatedAt.Before(flt.CreatedAfter) {
			continue
		}
		if !flt.CreatedUntil.IsZero() && !p.CreatedAt.Before(flt.CreatedUntil) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeStore) CountPublished(context.Context) (int64, error) {
	if f.failOp == "count" {
		return 0, errBoom
	}
	var n int64
	for _, p := range f.posts {
		if p.Published {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) Sample(_ context.Context, size int) ([]model.Post, error) {
	if f.failOp == "sample" {
		return nil, errBoom
	}
	var pub []model.Post
	for _, p := range f.posts {
		if p.Published {
			pub = append(pub, p)
		}
	}
	rng := f.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	rng.Shuffle(len(pub), func(i, j int) { pub[i], pub[j] = pub[j], pub[i] })
	if len(pub) > size {
		pub = pub[:size]
	}
	return pub, nil
}

type postOpt func(*model.Post)

func withLikes(ids ...bson.ObjectID) postOpt {
	return func(p *model.Post) { p.Likes = ids }
}

func withComments(n int) postOpt {
	return func(p *model.Post) {
		for i := 0; i < n; i++ {
			p.Comments = append(p.Comments, model.Comment{ID: bson.NewObjectID(), CreatedAt: p.CreatedAt})
		}
	}
}

func unpublished() postOpt {
	return func(p *model.Post) { p.Published = false }
}

func withTags(tags ...string) postOpt {
	return func(p *model.Post) { p.Tags = tags }
}

func post(id byte, author bson.ObjectID, age time.Duration, opts ...postOpt) model.Post {
	p := model.Post{
		ID:        oid(id),
		UserID:    author,
		Body:      "post",
		Published: true,
		CreatedAt: testNow.Add(-age),
	}
	for _, o := range opts {
		o(&p)
	}
	return p
}

func newTestRanker(store *fakeStore) *Ranker {
	r := NewRanker(store, nil)
	r.Now = func() time.Time { return testNow }
	return r
}

func viewerWith(viewerID bson.ObjectID, connections ...bson.ObjectID) ViewerContext {
	connected := map[bson.ObjectID]struct{}{viewerID: {}}
	for _, id := range connections {
		connected[id] = struct{}{}
	}
	return ViewerContext{UserID: viewerID, Connected: connected}
}

func ids(posts []FeedPost) []bson.ObjectID {
	out := make([]bson.ObjectID, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func wantOrder(t *testing.T, got []FeedPost, want ...bson.ObjectID) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d posts, want %d (%v)", len(got), len(want), ids(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %v, want %v (full order %v)", i, got[i].ID, id, ids(got))
		}
	}
}

func TestFeedExcludesUnpublishedInEveryMode(t *testing.T) {
	viewer := viewerWith(oid(1), oid(2))
	store := &fakeStore{posts: []model.Post{
		post(10, oid(2), 1*time.Hour),
		post(11, oid(2), 2*time.Hour, unpublished()),
		post(12, oid(3), 3*time.Hour),
		post(13, oid(3), 4*time.Hour, unpublished()),
	}}
	r := newTestRanker(store)

	for _, mode := range []Mode{ModeLatest, ModeOldest, ModePopular, ModeTrending, ModeRandom} {
		page, err := r.Feed(context.Background(), viewer, 1, 10, mode)
		if err != nil {
			t.Fatalf("mode %s: %v", mode, err)
		}
		for _, p := range page.Posts {
			if !p.Published {
				t.Errorf("mode %s: unpublished post %v in feed", mode, p.ID)
			}
		}
	}
}

func TestFeedConnectionPromotion(t *testing.T) {
	// Viewer V has one connection C. C posted 2h ago (P1), a stranger posted
	// 10h ago (P2), C posted 48h ago (P3). Expected: P1 promoted, then P2 and
	// P3 merged chronologically.
	v, c, stranger := oid(1), oid(2), oid(3)
	store := &fakeStore{posts: []model.Post{
		post(101, c, 2*time.Hour),
		post(102, stranger, 10*time.Hour),
		post(103, c, 48*time.Hour),
	}}
	r := newTestRanker(store)

	page, err := r.Feed(context.Background(), viewerWith(v, c), 1, 10, ModeLatest)
	if err != nil {
		t.Fatal(err)
	}
	wantOrder(t, page.Posts, oid(101), oid(102), oid(103))

	if page.Activity.ConnectionCount != 1 {
		t.Errorf("connection count = %d, want 1", page.Activity.ConnectionCount)
	}
	if page.Activity.RecentPostCount != 1 {
		t.Errorf("recent post count = %d, want 1", page.Activity.RecentPostCount)
	}
}

func TestFeedPromotesRecentConnectionPostsAboveNewerStrangers(t *testing.T) {
	// A stranger post newer than a recent connection post still ranks below it.
	v, c, stranger := oid(1), oid(2), oid(3)
	store := &fakeStore{posts: []model.Post{
		post(10, stranger, 30*time.Minute),
		post(11, c, 5*time.Hour),
	}}
	r := newTestRanker(store)

	page, err := r.Feed(context.Background(), viewerWith(v, c), 1, 10, ModeLatest)
	if err != nil {
		t.Fatal(err)
	}
	wantOrder(t, page.Posts, oid(11), oid(10))
}

func TestFeedNoConnectionsSingleTimeline(t *testing.T) {
	v := oid(1)
	store := &fakeStore{posts: []model.Post{
		post(10, oid(2), 3*time.Hour),
		post(11, oid(3), 1*time.Hour),
		post(12, oid(4), 2*time.Hour),
	}}
	r := newTestRanker(store)

	page, err := r.Feed(context.Background(), viewerWith(v), 1, 10, ModeLatest)
	if err != nil {
		t.Fatal(err)
	}
	wantOrder(t, page.Posts, oid(11), oid(12), oid(10))

	if store.queries != 1 {
		t.Errorf("no-connection feed ran %d queries, want 1", store.queries)
	}
}

func TestFeedSelfPostsRankAsConnectionPosts(t *testing.T) {
	v, stranger := oid(1), oid(3)
	store := &fakeStore{posts: []model.Post{
		post(10, stranger, 1*time.Hour),
		post(11, v, 6*time.Hour),
	}}
	r := newTestRanker(store)

	// One real connection so partitioning kicks in; own post is in bucket A.
	page, err := r.Feed(context.Background(), viewerWith(v, oid(2)), 1, 10, ModeLatest)
	if err != nil {
		t.Fatal(err)
	}
	wantOrder(t, page.Posts, oid(11), oid(10))
	if !page.Posts[0].IsFromConnection {
		t.Error("own post not flagged as connection post")
	}
}

func TestFeedPaginationMath(t *testing.T) {
	v := oid(1)
	var posts []model.Post
	for i := byte(0); i < 7; i++ {
		posts = append(posts, post(10+i, oid(2), time.Duration(i+1)*time.Hour))
	}
	store := &fakeStore{posts: posts}
	r := newTestRanker(store)

	full, err := r.Feed(context.Background(), viewerWith(v), 1, 50, ModeLatest)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		page, pageSize     int
		wantLen, wantPages int
		wantNext, wantPrev bool
	}{
		{1, 3, 3, 3, true, false},
		{2, 3, 3, 3, true, true},
		{3, 3, 1, 3, false, true},
		{4, 3, 0, 3, false, true},
		{1, 7, 7, 1, false, false},
		{1, 2, 2, 4, true, false},
	}
	for _, tc := range cases {
		page, err := r.Feed(context.Background(), viewerWith(v), tc.page, tc.pageSize, ModeLatest)
		if err != nil {
			t.Fatal(err)
		}
		if len(page.Posts) != tc.wantLen {
			t.Errorf("page %d size %d: got %d posts, want %d", tc.page, tc.pageSize, len(page.Posts), tc.wantLen)
		}
		if page.TotalPosts != 7 {
			t.Errorf("page %d size %d: totalPosts = %d, want 7", tc.page, tc.pageSize, page.TotalPosts)
		}
		if page.TotalPages != tc.wantPages {
			t.Errorf("page %d size %d: totalPages = %d, want %d", tc.page, tc.pageSize, page.TotalPages, tc.wantPages)
		}
		if page.HasNext != tc.wantNext || page.HasPrev != tc.wantPrev {
			t.Errorf("page %d size %d: hasNext/hasPrev = %v/%v, want %v/%v",
				tc.page, tc.pageSize, page.HasNext, page.HasPrev, tc.wantNext, tc.wantPrev)
		}

		// The slice must be exactly the corresponding window of the full order.
		start := (tc.page - 1) * tc.pageSize
		for i, p := range page.Posts {
			if p.ID != full.Posts[start+i].ID {
				t.Errorf("page %d size %d: slice mismatch at %d", tc.page, tc.pageSize, i)
			}
		}
	}
}

func TestFeedPageSizeCap(t *testing.T) {
	v := oid(1)
	store := &fakeStore{posts: []model.Post{post(10, oid(2), time.Hour)}}
	r := newTestRanker(store)

	page, err := r.Feed(context.Background(), viewerWith(v), 1, 500, ModeLatest)
	if err != nil {
		t.Fatal(err)
	}
	if page.PageSize != MaxPageSize {
		t.Errorf("pageSize = %d, want capped at %d", page.PageSize, MaxPageSize)
	}
}

func TestFeedEmptyStoreFastPath(t *testing.T) {
	store := &fakeStore{posts: []model.Post{
		post(10, oid(2), time.Hour, unpublished()),
	}}
	r := newTestRanker(store)

	for _, mode := range []Mode{ModeLatest, ModeOldest, ModePopular, ModeTrending, ModeRandom} {
		page, err := r.Feed(context.Background(), viewerWith(oid(1), oid(2)), 3, 10, mode)
		if err != nil {
			t.Fatalf("mode %s: %v", mode, err)
		}
		if len(page.Posts) != 0 || page.TotalPages != 0 || page.TotalPosts != 0 {
			t.Errorf("mode %s: expected empty page, got %+v", mode, page)
		}
		if page.HasNext || page.HasPrev {
			t.Errorf("mode %s: hasNext/hasPrev should be false on empty store", mode)
		}
		if page.Message == "" {
			t.Errorf("mode %s: empty page should carry a message", mode)
		}
		if store.queries != 0 {
			t.Errorf("mode %s: fast path ran %d partition queries", mode, store.queries)
		}
	}
}

func TestFeedOldestModeGlobalAscending(t *testing.T) {
	v, c := oid(1), oid(2)
	store := &fakeStore{posts: []model.Post{
		post(10, c, 1*time.Hour),       // recent connection, promoted under latest
		post(11, oid(3), 30*time.Hour), // stranger
		post(12, c, 60*time.Hour),      // old connection
	}}
	r := newTestRanker(store)

	page, err := r.Feed(context.Background(), viewerWith(v, c), 1, 10, ModeOldest)
	if err != nil {
		t.Fatal(err)
	}
	// Purely ascending by creation time: the connection merge no longer governs.
	wantOrder(t, page.Posts, oid(12), oid(11), oid(10))
}

func TestFeedPopularOrdering(t *testing.T) {
	v := oid(1)
	likers := []bson.ObjectID{oid(5), oid(6), oid(7), oid(8), oid(9)}
	store := &fakeStore{posts: []model.Post{
		post(10, oid(2), 3*time.Hour, withLikes(likers...)),      // 5 likes, older of the tied pair
		post(11, oid(2), 2*time.Hour, withLikes(likers...)),      // 5 likes, newer
		post(12, oid(2), 1*time.Hour, withLikes(oid(5), oid(6))), // 2 likes, newest
	}}
	r := newTestRanker(store)

	page, err := r.Feed(context.Background(), viewerWith(v), 1, 10, ModePopular)
	if err != nil {
		t.Fatal(err)
	}
	// Ties on like count break by creation time descending.
	wantOrder(t, page.Posts, oid(11), oid(10), oid(12))

	for i := 0; i < len(page.Posts)-1; i++ {
		a, b := page.Posts[i], page.Posts[i+1]
		if a.LikesCount < b.LikesCount {
			t.Errorf("popular order violated at %d: %d < %d", i, a.LikesCount, b.LikesCount)
		}
		if a.LikesCount == b.LikesCount && a.CreatedAt.Before(b.CreatedAt) {
			t.Errorf("popular tie-break violated at %d", i)
		}
	}
}

func TestFeedTrendingScore(t *testing.T) {
	v := oid(1)
	store := &fakeStore{posts: []model.Post{
		// Fresh but no engagement: score = 30 - 2/24.
		post(10, oid(2), 2*time.Hour),
		// Two days old with 3 likes and 2 comments: 28 + 2*(3+3) = 40.
		post(11, oid(2), 48*time.Hour, withLikes(oid(5), oid(6), oid(7)), withComments(2)),
	}}
	r := newTestRanker(store)

	page, err := r.Feed(context.Background(), viewerWith(v), 1, 10, ModeTrending)
	if err != nil {
		t.Fatal(err)
	}
	wantOrder(t, page.Posts, oid(11), oid(10))

	wantTop := 28.0 + 2*(3+1.5*2)
	if got := page.Posts[0].Score; got != wantTop {
		t.Errorf("top score = %v, want %v", got, wantTop)
	}
	wantSecond := 30.0 - 2.0/24.0
	if got := page.Posts[1].Score; got != wantSecond {
		t.Errorf("second score = %v, want %v", got, wantSecond)
	}
}

func TestFeedTrendingRecencyFloorsAtZero(t *testing.T) {
	v := oid(1)
	store := &fakeStore{posts: []model.Post{
		// 40 days old: recency term is 0, not negative.
		post(10, oid(2), 40*24*time.Hour, withLikes(oid(5))),
	}}
	r := newTestRanker(store)

	page, err := r.Feed(context.Background(), viewerWith(v), 1, 10, ModeTrending)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := page.Posts[0].Score, 2.0; got != want {
		t.Errorf("score = %v, want %v", got, want)
	}
}

func TestFeedRandomModeSamplesCandidates(t *testing.T) {
	v := oid(1)
	var posts []model.Post
	known := make(map[bson.ObjectID]bool)
	for i := byte(0); i < 30; i++ {
		p := post(10+i, oid(2), time.Duration(i+1)*time.Hour)
		posts = append(posts, p)
		known[p.ID] = true
	}
	store := &fakeStore{posts: posts, rng: rand.New(rand.NewSource(42))}
	r := newTestRanker(store)

	page, err := r.Feed(context.Background(), viewerWith(v), 1, 5, ModeRandom)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Posts) != 5 {
		t.Fatalf("got %d posts, want 5", len(page.Posts))
	}
	seen := make(map[bson.ObjectID]bool)
	for _, p := range page.Posts {
		if !known[p.ID] {
			t.Errorf("sampled unknown post %v", p.ID)
		}
		if seen[p.ID] {
			t.Errorf("duplicate post %v in random page", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestFeedDerivedFields(t *testing.T) {
	v, c, stranger := oid(1), oid(2), oid(3)
	store := &fakeStore{posts: []model.Post{
		post(10, c, 2*time.Hour, withLikes(v, oid(9)), withComments(3)),
		post(11, stranger, 30*time.Hour),
	}}
	r := newTestRanker(store)

	page, err := r.Feed(context.Background(), viewerWith(v, c), 1, 10, ModeLatest)
	if err != nil {
		t.Fatal(err)
	}
	wantOrder(t, page.Posts, oid(10), oid(11))

	top := page.Posts[0]
	if top.LikesCount != 2 || top.CommentsCount != 3 {
		t.Errorf("counts = %d/%d, want 2/3", top.LikesCount, top.CommentsCount)
	}
	if !top.IsLiked || !top.IsFromConnection || !top.IsRecent {
		t.Errorf("flags = liked:%v conn:%v recent:%v, want all true", top.IsLiked, top.IsFromConnection, top.IsRecent)
	}

	other := page.Posts[1]
	if other.IsLiked || other.IsFromConnection || other.IsRecent {
		t.Errorf("stranger post flags = liked:%v conn:%v recent:%v, want all false", other.IsLiked, other.IsFromConnection, other.IsRecent)
	}
	if other.Likes == nil || other.Comments == nil {
		t.Error("absent like/comment containers must decode as empty, not nil")
	}
}

func TestFeedStoreFailureAbortsRequest(t *testing.T) {
	viewer := viewerWith(oid(1), oid(2))
	for _, failOp := range []string{"count", "find"} {
		store := &fakeStore{
			posts:  []model.Post{post(10, oid(2), time.Hour)},
			failOp: failOp,
		}
		r := newTestRanker(store)

		page, err := r.Feed(context.Background(), viewer, 1, 10, ModeLatest)
		if page != nil {
			t.Errorf("failOp %s: got partial page, want none", failOp)
		}
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Errorf("failOp %s: err = %v, want ErrStoreUnavailable", failOp, err)
		}
		if errors.Is(err, errBoom) {
			t.Errorf("failOp %s: store-internal error leaked through the return value", failOp)
		}
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"":         ModeLatest,
		"latest":   ModeLatest,
		"LATEST":   ModeLatest,
		"oldest":   ModeOldest,
		"popular":  ModePopular,
		"trending": ModeTrending,
		"mixed":    ModeTrending,
		"random":   ModeRandom,
		"bogus":    ModeLatest,
		" latest ": ModeLatest,
	}
	for in, want := range cases {
		if got := ParseMode(in); got != want {
			t.Errorf("ParseMode(%q) = %v, want %v", in, got, want)
		}
	}
}

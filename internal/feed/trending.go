package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

const (
	DefaultTrendWindowDays = 7
	DefaultTrendLimit      = 10
	MaxTrendLimit          = 50
)

// Trender ranks tags by how often they appear on published posts inside a
// trailing window. Tag equality is exact string equality; tags are already
// lowercased at write time.
type Trender struct {
	tags   TagAggregator
	logger *slog.Logger

	Now func() time.Time
}

func NewTrender(tags TagAggregator, logger *slog.Logger) *Trender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trender{tags: tags, logger: logger, Now: time.Now}
}

// TrendingTags returns the top tags ordered by in-window count, then total
// count, then tag string for a stable result.
func (t *Trender) TrendingTags(ctx context.Context, windowDays, limit int) ([]TagCount, error) {
	if windowDays <= 0 {
		windowDays = DefaultTrendWindowDays
	}
	if limit <= 0 {
		limit = DefaultTrendLimit
	}
	if limit > MaxTrendLimit {
		limit = MaxTrendLimit
	}

	since := t.Now().Add(-time.Duration(windowDays) * 24 * time.Hour)

	rows, err := t.tags.AggregateTags(ctx, since)
	if err != nil {
		t.logger.Error("tag aggregation failed", "window_days", windowDays, "error", err)
		return nil, fmt.Errorf("aggregate tags: %w", ErrStoreUnavailable)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].RecentCount != rows[j].RecentCount {
			return rows[i].RecentCount > rows[j].RecentCount
		}
		if rows[i].TotalCount != rows[j].TotalCount {
			return rows[i].TotalCount > rows[j].TotalCount
		}
		return rows[i].Tag < rows[j].Tag
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	if rows == nil {
		rows = []TagCount{}
	}
	return rows, nil
}

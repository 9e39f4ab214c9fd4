package feed

import (
	"time"

	"github.com/commune-app/backend/model"
)

// mixedScore is the trending rank: a recency term that decays continuously
// over 30 days plus a weighted engagement term. daysSince is fractional, so
// the score moves between requests, not in daily steps.
func mixedScore(p *model.Post, now time.Time) float64 {
	days := now.Sub(p.CreatedAt).Hours() / 24
	recency := 30 - days
	if recency < 0 {
		recency = 0
	}
	return recency + 2*(float64(len(p.Likes))+1.5*float64(len(p.Comments)))
}

package feed

import "strings"

// Mode selects the secondary ordering applied on top of the
// connection-priority merge.
type Mode string

const (
	ModeLatest   Mode = "latest"
	ModeOldest   Mode = "oldest"
	ModePopular  Mode = "popular"
	ModeTrending Mode = "trending"
	ModeRandom   Mode = "random"
)

// ParseMode maps a query-string value to a Mode. Unknown values fall back to
// ModeLatest instead of failing; "mixed" is an alias kept for older clients.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "latest", "":
		return ModeLatest
	case "oldest":
		return ModeOldest
	case "popular":
		return ModePopular
	case "trending", "mixed":
		return ModeTrending
	case "random":
		return ModeRandom
	default:
		return ModeLatest
	}
}

// Package domain contains the core types for swipe-driven media tracking:
// ledger records, direction state, named lists, and followed-list mirrors.
package domain

import (
	"fmt"
	"time"
)

// Direction is the user's commitment level for a catalog item.
// Directions form a total order; writes may only promote, never demote.
type Direction int

const (
	// DirectionSkipped means the user swiped the item away.
	DirectionSkipped Direction = iota
	// DirectionWatchlist means the user saved the item for later.
	DirectionWatchlist
	// DirectionSeen means the user marked the item as watched.
	DirectionSeen
)

// Rank returns the position of the direction in the promotion order.
// Seen > Watchlist > Skipped.
func (d Direction) Rank() int {
	return int(d)
}

// String returns the storage representation of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionSkipped:
		return "skipped"
	case DirectionWatchlist:
		return "watchlist"
	case DirectionSeen:
		return "seen"
	default:
		return "unknown"
	}
}

// ParseDirection converts a storage string back to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "skipped":
		return DirectionSkipped, true
	case "watchlist":
		return DirectionWatchlist, true
	case "seen":
		return DirectionSeen, true
	default:
		return DirectionSkipped, false
	}
}

// ItemKey builds the composite unique key for a catalog identity.
// Kind is part of the key because movie and series IDs share a numeric space.
func ItemKey(kind CatalogKind, id int64) string {
	return fmt.Sprintf("%s_%d", kind, id)
}

// LedgerRecord is the durable per-item state: the user's direction decision
// plus denormalized display fields so lists render without a catalog fetch.
// Exactly one record exists per UniqueKey.
type LedgerRecord struct {
	UniqueKey   string      `json:"unique_key"`
	Kind        CatalogKind `json:"kind"`
	CatalogID   int64       `json:"catalog_id"`
	Direction   Direction   `json:"direction"`
	DateChanged time.Time   `json:"date_changed"`

	// Denormalized display fields captured at swipe time.
	Title           string  `json:"title"`
	Overview        string  `json:"overview,omitempty"`
	PosterPath      string  `json:"poster_path,omitempty"`
	ReleaseDate     string  `json:"release_date,omitempty"`
	CommunityRating float64 `json:"community_rating,omitempty"`
	GenreIDs        []int   `json:"genre_ids,omitempty"`

	// PersonalRating is user-set (1..5) and independent of direction.
	PersonalRating *int `json:"personal_rating,omitempty"`

	// SourcePlatform is set only when the swipe happened under a
	// platform filter (e.g. a specific streaming service).
	SourcePlatform string `json:"source_platform,omitempty"`
}

// Promotes reports whether changing this record to the requested direction
// is a promotion. Equal or lower rank is rejected so a re-served item can
// never demote a seen record or erase its metadata.
func (r *LedgerRecord) Promotes(requested Direction) bool {
	return requested.Rank() > r.Direction.Rank()
}

// ValidRating reports whether stars is an acceptable personal rating.
func ValidRating(stars int) bool {
	return stars >= 1 && stars <= 5
}

package domain

import "time"

// FollowedList is a read-only local mirror of a remote published list the
// user follows. It is replaced wholesale on every remote change event and
// never written back to the remote store.
//
// IsActive=false marks a list whose owner unpublished it or deleted their
// account; the cache is kept so the UI can show "no longer available"
// instead of a hard error.
type FollowedList struct {
	RemoteDocID      string    `json:"remote_doc_id"`
	Name             string    `json:"name"`
	OwnerID          string    `json:"owner_id"`
	OwnerDisplayName string    `json:"owner_display_name"`
	IsActive         bool      `json:"is_active"`
	FollowedAt       time.Time `json:"followed_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FollowedListItem is one mirrored member of a followed list, denormalized
// for rendering without any join against the local ledger.
type FollowedListItem struct {
	RemoteDocID     string      `json:"remote_doc_id"`
	ItemKey         string      `json:"item_key"`
	Kind            CatalogKind `json:"kind"`
	CatalogID       int64       `json:"catalog_id"`
	Title           string      `json:"title"`
	PosterPath      string      `json:"poster_path,omitempty"`
	ReleaseDate     string      `json:"release_date,omitempty"`
	CommunityRating float64     `json:"community_rating,omitempty"`
	SortOrder       int         `json:"sort_order"`
}

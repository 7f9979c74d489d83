// Package remote defines the contract for the opaque remote document store
// that backs list publishing and following, plus an in-memory
// implementation for tests and embedders without a backend.
//
// The store is treated as an eventually consistent key-value document
// service: reads and writes by document ID, batched writes, and one
// change-listener subscription per document delivering full-document
// snapshots. Transport and authentication belong to the implementation.
package remote

import "context"

// Document is a published-list snapshot as stored remotely. Items are
// embedded so followers render without any join.
type Document struct {
	Name             string         `json:"name"`
	OwnerID          string         `json:"owner_id"`
	OwnerDisplayName string         `json:"owner_display_name"`
	IsActive         bool           `json:"is_active"`
	UpdatedAt        int64          `json:"updated_at"`
	Items            []DocumentItem `json:"items"`
}

// DocumentItem is one embedded member of a published list.
type DocumentItem struct {
	ItemKey         string  `json:"item_key"`
	Kind            string  `json:"kind"`
	CatalogID       int64   `json:"catalog_id"`
	Title           string  `json:"title"`
	PosterPath      string  `json:"poster_path,omitempty"`
	ReleaseDate     string  `json:"release_date,omitempty"`
	CommunityRating float64 `json:"community_rating,omitempty"`
	SortOrder       int     `json:"sort_order"`
}

// Snapshot is one change event delivered to a listener. Exists=false means
// the document was deleted remotely.
type Snapshot struct {
	DocID  string
	Doc    Document
	Exists bool
	// Err is set when the listener itself failed; the subscription is dead
	// after an errored snapshot.
	Err error
}

// Write is one element of a batched write.
type Write struct {
	DocID string
	Doc   Document
	// Delete removes the document instead of setting it.
	Delete bool
}

// Store is the remote document service contract. Writes surface errors
// synchronously; delivery to followers is eventually consistent.
type Store interface {
	Set(ctx context.Context, docID string, doc Document) error
	Get(ctx context.Context, docID string) (Document, bool, error)
	Delete(ctx context.Context, docID string) error
	ApplyBatch(ctx context.Context, writes []Write) error
	// Listen subscribes to a document. fn is called with the current state
	// immediately and again on every change until cancel is called.
	Listen(docID string, fn func(Snapshot)) (cancel func())
}

package domain

import "time"

// MediaList is a user-created named collection of ledger records.
// Membership lives in ListEntry join rows, not on the list itself.
type MediaList struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	SortOrder int       `json:"sort_order"`

	// Publish state. RemoteDocID is set only while the list is published.
	RemoteDocID  string     `json:"remote_doc_id,omitempty"`
	IsPublished  bool       `json:"is_published"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// ListEntry links one MediaList to one LedgerRecord by its unique key.
// At most one entry may exist per (ListID, ItemKey) pair; the store
// repairs duplicates rather than trusting a constraint alone.
type ListEntry struct {
	ID        string    `json:"id"`
	ListID    string    `json:"list_id"`
	ItemKey   string    `json:"item_key"`
	DateAdded time.Time `json:"date_added"`
	SortOrder int       `json:"sort_order"`
}

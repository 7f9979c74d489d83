// Package store defines the persistence interface for the tracking core.
package store

import (
	"context"
	"time"

	"github.com/mit112/flickswiper/internal/domain"
	"github.com/mit112/flickswiper/internal/errors"
)

// Sentinel errors returned by store implementations.
var (
	ErrNotFound      = errors.ErrNotFound
	ErrAlreadyExists = errors.ErrAlreadyExists
)

// UpsertResult describes what a direction upsert actually did. Callers must
// inspect it rather than assume the requested direction was applied: equal
// or lower rank requests leave the record untouched.
type UpsertResult struct {
	Record *domain.LedgerRecord
	// Created is true when no record existed for the key before this call.
	Created bool
	// Promoted is true when an existing record's direction was raised.
	Promoted bool
	// PrevDirection and PrevChanged hold the pre-call state of an existing
	// record, for undo. Both are zero when Created is true.
	PrevDirection domain.Direction
	PrevChanged   time.Time
}

// Store is the persistence interface for ledger records, lists, and the
// followed-list cache. Implementations commit each operation atomically;
// a failure leaves no partial state behind.
type Store interface {
	Close() error

	// Ledger
	GetLedgerRecord(ctx context.Context, key string) (*domain.LedgerRecord, error)
	UpsertDirection(ctx context.Context, item domain.CatalogItem, direction domain.Direction, sourcePlatform string) (*UpsertResult, error)
	SetPersonalRating(ctx context.Context, key string, stars int) error
	RestoreDirection(ctx context.Context, key string, direction domain.Direction, dateChanged time.Time) error
	DeleteLedgerRecord(ctx context.Context, key string) error
	PurgeDirection(ctx context.Context, direction domain.Direction) (int, error)
	ListLedgerRecords(ctx context.Context, direction *domain.Direction, page Pagination) ([]*domain.LedgerRecord, error)
	CountLedgerRecords(ctx context.Context) (int, error)

	// Lists
	CreateList(ctx context.Context, list *domain.MediaList) error
	GetList(ctx context.Context, listID string) (*domain.MediaList, error)
	ListLists(ctx context.Context) ([]*domain.MediaList, error)
	UpdateList(ctx context.Context, list *domain.MediaList) error
	DeleteList(ctx context.Context, listID string) error

	// List membership
	AddListEntries(ctx context.Context, listID string, itemKeys []string) error
	RemoveListEntries(ctx context.Context, listID string, itemKeys []string) error
	ReconcileListEntries(ctx context.Context, listID string, selectedKeys []string) error
	GetListEntries(ctx context.Context, listID string) ([]*domain.ListEntry, error)

	// Followed-list cache
	ReplaceFollowedList(ctx context.Context, list *domain.FollowedList, items []*domain.FollowedListItem) error
	GetFollowedList(ctx context.Context, remoteDocID string) (*domain.FollowedList, []*domain.FollowedListItem, error)
	ListFollowedLists(ctx context.Context) ([]*domain.FollowedList, error)
	SetFollowedListActive(ctx context.Context, remoteDocID string, active bool) error
	DeleteFollowedList(ctx context.Context, remoteDocID string) error
}

// Package service provides the business logic layer for ledger tracking,
// named lists, publishing, and follow synchronization.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mit112/flickswiper/internal/domain"
	"github.com/mit112/flickswiper/internal/errors"
	"github.com/mit112/flickswiper/internal/store"
)

// LedgerService orchestrates direction-setting actions on the ledger.
// Every write goes through the store's upsert guard, so callers can replay
// actions freely without demoting records or erasing metadata.
type LedgerService struct {
	store  store.Store
	logger *slog.Logger
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(store store.Store, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		logger: logger,
	}
}

// MarkSeen records an item as seen. sourcePlatform is the active platform
// filter at swipe time, empty when none was active.
func (s *LedgerService) MarkSeen(ctx context.Context, item domain.CatalogItem, sourcePlatform string) (*store.UpsertResult, error) {
	return s.apply(ctx, item, domain.DirectionSeen, sourcePlatform)
}

// SaveToWatchlist records an item as saved for later.
func (s *LedgerService) SaveToWatchlist(ctx context.Context, item domain.CatalogItem) (*store.UpsertResult, error) {
	return s.apply(ctx, item, domain.DirectionWatchlist, "")
}

// MarkSkipped records an item as swiped away.
func (s *LedgerService) MarkSkipped(ctx context.Context, item domain.CatalogItem) (*store.UpsertResult, error) {
	return s.apply(ctx, item, domain.DirectionSkipped, "")
}

func (s *LedgerService) apply(ctx context.Context, item domain.CatalogItem, direction domain.Direction, sourcePlatform string) (*store.UpsertResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := s.store.UpsertDirection(ctx, item, direction, sourcePlatform)
	if err != nil {
		return nil, err
	}

	s.logger.Info("direction applied",
		"key", item.Key(),
		"requested", direction.String(),
		"stored", res.Record.Direction.String(),
		"created", res.Created,
		"promoted", res.Promoted,
	)

	return res, nil
}

// SetPersonalRating sets a 1..5 star rating on an existing record.
// The rating is independent of direction.
func (s *LedgerService) SetPersonalRating(ctx context.Context, key string, stars int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !domain.ValidRating(stars) {
		return errors.Validationf("rating %d out of range 1..5", stars)
	}

	if err := s.store.SetPersonalRating(ctx, key, stars); err != nil {
		return err
	}

	s.logger.Info("personal rating set", "key", key, "stars", stars)
	return nil
}

// MoveWatchlistToSeen promotes a watchlisted record to seen. A record
// already seen is left unchanged; a skipped record cannot be moved this
// way and returns a conflict.
func (s *LedgerService) MoveWatchlistToSeen(ctx context.Context, key string) (*domain.LedgerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := s.store.GetLedgerRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec.Direction == domain.DirectionSkipped {
		return nil, errors.Conflict("record is skipped, not watchlisted")
	}

	item := domain.CatalogItem{
		Kind:            rec.Kind,
		ID:              rec.CatalogID,
		Title:           rec.Title,
		Overview:        rec.Overview,
		PosterPath:      rec.PosterPath,
		ReleaseDate:     rec.ReleaseDate,
		CommunityRating: rec.CommunityRating,
		GenreIDs:        rec.GenreIDs,
	}

	res, err := s.store.UpsertDirection(ctx, item, domain.DirectionSeen, "")
	if err != nil {
		return nil, err
	}

	s.logger.Info("watchlist record moved to seen", "key", key)
	return res.Record, nil
}

// Remove deletes a record and every list entry referencing it.
func (s *LedgerService) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.store.DeleteLedgerRecord(ctx, key); err != nil {
		return err
	}

	s.logger.Info("ledger record removed", "key", key)
	return nil
}

// Purge deletes all records with the given direction, with cascading
// cleanup of their list entries. Used by settings-level resets.
func (s *LedgerService) Purge(ctx context.Context, direction domain.Direction) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n, err := s.store.PurgeDirection(ctx, direction)
	if err != nil {
		return 0, err
	}

	s.logger.Info("ledger purged", "direction", direction.String(), "removed", n)
	return n, nil
}

// Records returns ledger records, optionally filtered by direction. A zero
// Pagination returns everything.
func (s *LedgerService) Records(ctx context.Context, direction *domain.Direction, page store.Pagination) ([]*domain.LedgerRecord, error) {
	return s.store.ListLedgerRecords(ctx, direction, page)
}

// Get returns one record by key.
func (s *LedgerService) Get(ctx context.Context, key string) (*domain.LedgerRecord, error) {
	return s.store.GetLedgerRecord(ctx, key)
}

// RestoreDirection rewinds a record to a prior direction and change
// timestamp, bypassing the promotion guard. Only the session undo path
// should call this.
func (s *LedgerService) RestoreDirection(ctx context.Context, key string, direction domain.Direction, dateChanged time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.store.RestoreDirection(ctx, key, direction, dateChanged); err != nil {
		return err
	}

	s.logger.Info("direction restored", "key", key, "direction", direction.String())
	return nil
}

// Package session drives the discovery loop: a FIFO queue of candidate
// items fed by bounded, deduplicated pagination, with a bounded undo stack
// over the ledger.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mit112/flickswiper/internal/catalog"
	"github.com/mit112/flickswiper/internal/config"
	"github.com/mit112/flickswiper/internal/domain"
	"github.com/mit112/flickswiper/internal/errors"
	"github.com/mit112/flickswiper/internal/service"
	"github.com/mit112/flickswiper/internal/store"
)

// undoEntry captures one swipe for reversal. PrevDirection is nil when the
// swipe created the record, so undo knows whether to delete or restore.
type undoEntry struct {
	Item          domain.CatalogItem
	Applied       domain.Direction
	PrevDirection *domain.Direction
	PrevChanged   time.Time
}

// Controller owns one discovery surface. All session caches (the queue,
// the seen-this-session set, the undo stack) are instance state, so
// independent sessions and tests never contaminate each other.
//
// The controller is safe for concurrent use, but the loop is logically
// single-threaded: a fetch already in flight suppresses a new one, and a
// reload supersedes and cancels whatever was running.
type Controller struct {
	provider catalog.Provider
	ledger   *service.LedgerService
	cfg      config.SessionConfig
	logger   *slog.Logger

	mu          sync.Mutex
	filters     domain.Filters
	queue       []domain.CatalogItem
	undo        []undoEntry
	sessionSeen map[string]bool
	nextPage    int
	exhausted   bool

	loading    bool
	generation int
	cancelLoad context.CancelFunc

	debounce *time.Timer
}

// New creates a session controller with an empty queue.
func New(provider catalog.Provider, ledger *service.LedgerService, cfg config.SessionConfig, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		provider:    provider,
		ledger:      ledger,
		cfg:         cfg,
		logger:      logger,
		sessionSeen: make(map[string]bool),
		nextPage:    1,
	}
}

// Filters returns the current discovery filters.
func (c *Controller) Filters() domain.Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// SetFilters changes the discovery filters and schedules a reload after a
// short quiet period. Rapid successive changes reset the timer instead of
// queueing multiple reloads, and an in-flight load is superseded.
func (c *Controller) SetFilters(filters domain.Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.filters = filters

	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(c.cfg.DebounceInterval, func() {
		if err := c.Reload(context.Background()); err != nil {
			c.logger.Warn("debounced reload failed", "error", err)
		}
	})
}

// Reload resets the queue and pagination state, cancels any in-flight
// load, and fetches fresh content for the current filters.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
	c.generation++
	c.loading = false
	c.queue = nil
	c.sessionSeen = make(map[string]bool)
	c.nextPage = 1
	c.exhausted = false
	c.mu.Unlock()

	return c.LoadContent(ctx)
}

// LoadContent fetches candidate pages until enough new items accumulate.
//
// Each page is filtered against the seen-this-session set (providers may
// return overlapping pages) and, unless the filters re-surface swiped
// items, against the ledger. A page contributing fewer than the minimum
// yield triggers a fetch of the next page, capped at MaxPagesPerLoad
// consecutive pages so a provider full of already-swiped content cannot
// loop forever. A run of pages yielding zero new items exits early.
//
// A load already in flight suppresses this call. Results of a superseded
// load are discarded, never committed.
func (c *Controller) LoadContent(ctx context.Context) error {
	c.mu.Lock()
	if c.loading || c.exhausted {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	gen := c.generation
	filters := c.filters
	page := c.nextPage

	loadCtx, cancel := context.WithCancel(ctx)
	c.cancelLoad = cancel
	c.mu.Unlock()

	defer cancel()

	var (
		collected []domain.CatalogItem
		zeroYield int
		exhausted bool
		fetches   int
	)

	for fetches < c.cfg.MaxPagesPerLoad {
		result, err := c.provider.FetchPage(loadCtx, filters, page)
		if err != nil {
			c.finishLoad(gen, nil, page, false)
			return err
		}
		fetches++
		page++

		fresh := c.filterNew(loadCtx, filters, result.Items, collected)
		collected = append(collected, fresh...)

		if len(fresh) == 0 {
			zeroYield++
		} else {
			zeroYield = 0
		}

		if result.IsLastPage {
			exhausted = true
			break
		}
		if len(collected) >= c.cfg.MinPageYield {
			break
		}
		if zeroYield >= c.cfg.ZeroYieldLimit {
			// Consecutive pages contributed nothing new: treat as
			// exhaustion rather than churning through the cap.
			break
		}
	}

	c.finishLoad(gen, collected, page, exhausted)

	c.logger.Debug("content loaded",
		"fetched_pages", fetches,
		"new_items", len(collected),
		"exhausted", exhausted,
	)
	return nil
}

// filterNew drops items already seen this session, already collected in
// this load, or already present in the ledger (unless re-surfacing is on).
func (c *Controller) filterNew(ctx context.Context, filters domain.Filters, items, collected []domain.CatalogItem) []domain.CatalogItem {
	pending := make(map[string]bool, len(collected))
	for _, item := range collected {
		pending[item.Key()] = true
	}

	c.mu.Lock()
	seen := make(map[string]bool, len(c.sessionSeen))
	for k := range c.sessionSeen {
		seen[k] = true
	}
	c.mu.Unlock()

	var fresh []domain.CatalogItem
	for _, item := range items {
		key := item.Key()
		if seen[key] || pending[key] {
			continue
		}
		if !filters.IncludeSwiped {
			if _, err := c.ledger.Get(ctx, key); err == nil {
				continue
			} else if !errors.Is(err, store.ErrNotFound) {
				c.logger.Warn("ledger lookup failed during filter", "key", key, "error", err)
				continue
			}
		}
		fresh = append(fresh, item)
	}
	return fresh
}

// finishLoad commits the results of a load unless a newer generation
// superseded it while the fetch was in flight.
func (c *Controller) finishLoad(gen int, items []domain.CatalogItem, nextPage int, exhausted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}

	c.loading = false
	c.cancelLoad = nil
	for _, item := range items {
		c.sessionSeen[item.Key()] = true
	}
	c.queue = append(c.queue, items...)
	c.nextPage = nextPage
	c.exhausted = exhausted
}

// Next removes and returns the front of the queue. When the queue drops
// below the minimum yield it kicks a background load so the user does not
// swipe into an empty deck.
func (c *Controller) Next(ctx context.Context) (domain.CatalogItem, bool) {
	c.mu.Lock()
	if len(c.queue) == 0 {
		c.mu.Unlock()
		return domain.CatalogItem{}, false
	}
	item := c.queue[0]
	c.queue = c.queue[1:]
	low := len(c.queue) < c.cfg.MinPageYield && !c.exhausted && !c.loading
	c.mu.Unlock()

	if low {
		go func() {
			if err := c.LoadContent(context.WithoutCancel(ctx)); err != nil {
				c.logger.Warn("background refill failed", "error", err)
			}
		}()
	}
	return item, true
}

// Peek returns the front of the queue without removing it.
func (c *Controller) Peek() (domain.CatalogItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return domain.CatalogItem{}, false
	}
	return c.queue[0], true
}

// QueueLen returns the number of queued candidates.
func (c *Controller) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// SwipeSeen marks the item seen and records an undo entry.
func (c *Controller) SwipeSeen(ctx context.Context, item domain.CatalogItem) error {
	c.mu.Lock()
	platform := c.filters.Platform
	c.mu.Unlock()

	res, err := c.ledger.MarkSeen(ctx, item, platform)
	if err != nil {
		return err
	}
	c.afterSwipe(item, domain.DirectionSeen, res)
	return nil
}

// SwipeSkip marks the item skipped and records an undo entry.
func (c *Controller) SwipeSkip(ctx context.Context, item domain.CatalogItem) error {
	res, err := c.ledger.MarkSkipped(ctx, item)
	if err != nil {
		return err
	}
	c.afterSwipe(item, domain.DirectionSkipped, res)
	return nil
}

// SwipeWatchlist saves the item to the watchlist and records an undo
// entry.
func (c *Controller) SwipeWatchlist(ctx context.Context, item domain.CatalogItem) error {
	res, err := c.ledger.SaveToWatchlist(ctx, item)
	if err != nil {
		return err
	}
	c.afterSwipe(item, domain.DirectionWatchlist, res)
	return nil
}

// afterSwipe removes the item from the queue and pushes an undo entry.
// Even a no-op write (guard rejected a demotion) gets an entry, so undoing
// it restores only the queue position.
func (c *Controller) afterSwipe(item domain.CatalogItem, applied domain.Direction, res *store.UpsertResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := item.Key()
	for i, queued := range c.queue {
		if queued.Key() == key {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			break
		}
	}
	c.sessionSeen[key] = true

	entry := undoEntry{
		Item:        item,
		Applied:     applied,
		PrevChanged: res.PrevChanged,
	}
	if !res.Created {
		prev := res.PrevDirection
		entry.PrevDirection = &prev
	}

	c.undo = append(c.undo, entry)
	if len(c.undo) > c.cfg.UndoDepth {
		c.undo = c.undo[len(c.undo)-c.cfg.UndoDepth:]
	}
}

// UndoDepth returns how many swipes can currently be undone.
func (c *Controller) UndoDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.undo)
}

// Undo reverses the most recent swipe. A swipe that created the record
// deletes it outright; a swipe that promoted an existing record restores
// the previous direction and change timestamp, preserving any rating or
// metadata accumulated before the promotion. The item returns to the
// front of the queue either way.
func (c *Controller) Undo(ctx context.Context) (domain.CatalogItem, error) {
	c.mu.Lock()
	if len(c.undo) == 0 {
		c.mu.Unlock()
		return domain.CatalogItem{}, errors.NotFound("nothing to undo")
	}
	entry := c.undo[len(c.undo)-1]
	c.undo = c.undo[:len(c.undo)-1]
	c.mu.Unlock()

	key := entry.Item.Key()

	if entry.PrevDirection == nil {
		if err := c.ledger.Remove(ctx, key); err != nil && !errors.Is(err, store.ErrNotFound) {
			return domain.CatalogItem{}, err
		}
	} else {
		if err := c.ledger.RestoreDirection(ctx, key, *entry.PrevDirection, entry.PrevChanged); err != nil {
			return domain.CatalogItem{}, err
		}
	}

	c.mu.Lock()
	c.queue = append([]domain.CatalogItem{entry.Item}, c.queue...)
	delete(c.sessionSeen, key)
	c.mu.Unlock()

	c.logger.Info("swipe undone", "key", key, "applied", entry.Applied.String())
	return entry.Item, nil
}

// Close stops the debounce timer and cancels any in-flight load.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
	c.generation++
}

package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit112/flickswiper/internal/catalog"
	"github.com/mit112/flickswiper/internal/config"
	"github.com/mit112/flickswiper/internal/domain"
	"github.com/mit112/flickswiper/internal/errors"
	"github.com/mit112/flickswiper/internal/logger"
	"github.com/mit112/flickswiper/internal/service"
	"github.com/mit112/flickswiper/internal/store"
	"github.com/mit112/flickswiper/internal/store/sqlite"
)

// stubProvider serves scripted pages and counts fetches.
type stubProvider struct {
	mu      sync.Mutex
	pages   map[int]catalog.Page
	fetches int
	// fallback is served for pages not in the script.
	fallback catalog.Page
	err      error
}

func (p *stubProvider) FetchPage(_ context.Context, _ domain.Filters, page int) (catalog.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetches++
	if p.err != nil {
		return catalog.Page{}, p.err
	}
	if pg, ok := p.pages[page]; ok {
		return pg, nil
	}
	return p.fallback, nil
}

func (p *stubProvider) fetchCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetches
}

func movie(id int64) domain.CatalogItem {
	return domain.CatalogItem{
		Kind:  domain.KindMovie,
		ID:    id,
		Title: fmt.Sprintf("Movie %d", id),
	}
}

func movies(ids ...int64) []domain.CatalogItem {
	items := make([]domain.CatalogItem, len(ids))
	for i, id := range ids {
		items[i] = movie(id)
	}
	return items
}

func newTestLedger(t *testing.T) *service.LedgerService {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return service.NewLedgerService(s, logger.Discard().Logger)
}

func newTestController(t *testing.T, provider catalog.Provider) *Controller {
	t.Helper()
	c := New(provider, newTestLedger(t), config.Default().Session, logger.Discard().Logger)
	t.Cleanup(c.Close)
	return c
}

func TestLoadContent_FillsQueue(t *testing.T) {
	provider := &stubProvider{
		pages: map[int]catalog.Page{
			1: {Items: movies(1, 2, 3, 4, 5, 6), IsLastPage: false},
		},
	}
	c := newTestController(t, provider)

	require.NoError(t, c.LoadContent(context.Background()))

	assert.Equal(t, 6, c.QueueLen())
	assert.Equal(t, 1, provider.fetchCount())
}

func TestNext_PopsInOrder(t *testing.T) {
	provider := &stubProvider{
		pages: map[int]catalog.Page{
			1: {Items: movies(1, 2, 3, 4, 5, 6), IsLastPage: true},
		},
	}
	c := newTestController(t, provider)

	require.NoError(t, c.LoadContent(context.Background()))

	first, ok := c.Next(context.Background())
	require.True(t, ok)
	assert.Equal(t, int64(1), first.ID)

	second, ok := c.Next(context.Background())
	require.True(t, ok)
	assert.Equal(t, int64(2), second.ID)

	assert.Equal(t, 4, c.QueueLen())
}

func TestNext_EmptyQueue(t *testing.T) {
	c := newTestController(t, &stubProvider{fallback: catalog.Page{IsLastPage: true}})

	_, ok := c.Next(context.Background())
	assert.False(t, ok)
}

func TestLoadContent_DeduplicatesOverlappingPages(t *testing.T) {
	// Provider pagination is unstable: page 2 partially repeats page 1.
	provider := &stubProvider{
		pages: map[int]catalog.Page{
			1: {Items: movies(1, 2, 3)},
			2: {Items: movies(2, 3, 4, 5, 6)},
		},
		fallback: catalog.Page{IsLastPage: true},
	}
	c := newTestController(t, provider)

	require.NoError(t, c.LoadContent(context.Background()))

	keys := map[string]int{}
	for c.QueueLen() > 0 {
		item, ok := c.Peek()
		require.True(t, ok)
		keys[item.Key()]++
		require.NoError(t, c.SwipeSkip(context.Background(), item))
	}
	for key, n := range keys {
		assert.Equal(t, 1, n, "item %s queued %d times", key, n)
	}
	assert.Len(t, keys, 6)
}

func TestLoadContent_SkipsLedgerRecords(t *testing.T) {
	provider := &stubProvider{
		pages: map[int]catalog.Page{
			1: {Items: movies(1, 2, 3, 4, 5, 6, 7), IsLastPage: true},
		},
	}
	ledger := newTestLedger(t)
	c := New(provider, ledger, config.Default().Session, logger.Discard().Logger)
	t.Cleanup(c.Close)

	_, err := ledger.MarkSeen(context.Background(), movie(1), "")
	require.NoError(t, err)
	_, err = ledger.MarkSkipped(context.Background(), movie(2))
	require.NoError(t, err)

	require.NoError(t, c.LoadContent(context.Background()))
	assert.Equal(t, 5, c.QueueLen())
}

func TestLoadContent_IncludeSwipedResurfaces(t *testing.T) {
	provider := &stubProvider{
		pages: map[int]catalog.Page{
			1: {Items: movies(1, 2, 3), IsLastPage: true},
		},
	}
	ledger := newTestLedger(t)
	c := New(provider, ledger, config.Default().Session, logger.Discard().Logger)
	t.Cleanup(c.Close)

	_, err := ledger.MarkSeen(context.Background(), movie(1), "")
	require.NoError(t, err)

	c.filters.IncludeSwiped = true
	require.NoError(t, c.LoadContent(context.Background()))
	assert.Equal(t, 3, c.QueueLen())
}

func TestLoadContent_TerminatesOnAllSeenProvider(t *testing.T) {
	// Every page the provider has is already in the ledger, and it never
	// signals a last page. The load must still terminate within the cap.
	provider := &stubProvider{
		fallback: catalog.Page{Items: movies(1, 2, 3), IsLastPage: false},
	}
	ledger := newTestLedger(t)
	c := New(provider, ledger, config.Default().Session, logger.Discard().Logger)
	t.Cleanup(c.Close)

	for _, item := range movies(1, 2, 3) {
		_, err := ledger.MarkSkipped(context.Background(), item)
		require.NoError(t, err)
	}

	require.NoError(t, c.LoadContent(context.Background()))

	assert.Equal(t, 0, c.QueueLen())
	assert.LessOrEqual(t, provider.fetchCount(), 5)
}

func TestLoadContent_ProviderErrorSurfaces(t *testing.T) {
	provider := &stubProvider{err: errors.Provider("boom", nil)}
	c := newTestController(t, provider)

	err := c.LoadContent(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProvider))
	// No retry on fetch failure: pagination retries cover low yield only.
	assert.Equal(t, 1, provider.fetchCount())
}

func TestSwipeAndUndo_FreshInsertDeletesRecord(t *testing.T) {
	provider := &stubProvider{
		pages: map[int]catalog.Page{1: {Items: movies(1, 2), IsLastPage: true}},
	}
	ledger := newTestLedger(t)
	c := New(provider, ledger, config.Default().Session, logger.Discard().Logger)
	t.Cleanup(c.Close)
	ctx := context.Background()

	require.NoError(t, c.LoadContent(ctx))
	item, _ := c.Peek()

	require.NoError(t, c.SwipeSeen(ctx, item))
	_, err := ledger.Get(ctx, item.Key())
	require.NoError(t, err)

	got, err := c.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, item.Key(), got.Key())

	// Fresh insert: the record is gone entirely.
	_, err = ledger.Get(ctx, item.Key())
	assert.True(t, errors.Is(err, store.ErrNotFound))

	// Item is back at the front of the queue.
	front, ok := c.Peek()
	require.True(t, ok)
	assert.Equal(t, item.Key(), front.Key())
}

func TestUndo_PromotionRestoresPreviousDirection(t *testing.T) {
	provider := &stubProvider{}
	ledger := newTestLedger(t)
	c := New(provider, ledger, config.Default().Session, logger.Discard().Logger)
	t.Cleanup(c.Close)
	ctx := context.Background()

	item := movie(550)
	_, err := ledger.SaveToWatchlist(ctx, item)
	require.NoError(t, err)
	require.NoError(t, ledger.SetPersonalRating(ctx, item.Key(), 4))

	require.NoError(t, c.SwipeSeen(ctx, item))
	rec, err := ledger.Get(ctx, item.Key())
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionSeen, rec.Direction)

	_, err = c.Undo(ctx)
	require.NoError(t, err)

	// Promotion undo restores the direction but keeps the record and its
	// rating.
	rec, err = ledger.Get(ctx, item.Key())
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionWatchlist, rec.Direction)
	require.NotNil(t, rec.PersonalRating)
	assert.Equal(t, 4, *rec.PersonalRating)
}

func TestUndo_StackBounded(t *testing.T) {
	provider := &stubProvider{}
	c := newTestController(t, provider)
	ctx := context.Background()

	for i := int64(1); i <= 14; i++ {
		require.NoError(t, c.SwipeSkip(ctx, movie(i)))
	}
	assert.Equal(t, 10, c.UndoDepth())

	undone := 0
	for {
		if _, err := c.Undo(ctx); err != nil {
			assert.True(t, errors.Is(err, errors.ErrNotFound))
			break
		}
		undone++
	}
	assert.Equal(t, 10, undone)
}

func TestSeenRecordSurvivesReServeAndUndo(t *testing.T) {
	// The end-to-end guard scenario: mark seen, rate 5, then get the item
	// re-served and swiped the other ways. Nothing may change, and undoing
	// the no-op watchlist save changes nothing either.
	provider := &stubProvider{}
	ledger := newTestLedger(t)
	c := New(provider, ledger, config.Default().Session, logger.Discard().Logger)
	t.Cleanup(c.Close)
	ctx := context.Background()

	item := movie(550)
	require.NoError(t, c.SwipeSeen(ctx, item))
	require.NoError(t, ledger.SetPersonalRating(ctx, item.Key(), 5))

	require.NoError(t, c.SwipeSkip(ctx, item))
	rec, err := ledger.Get(ctx, item.Key())
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionSeen, rec.Direction)
	require.NotNil(t, rec.PersonalRating)
	assert.Equal(t, 5, *rec.PersonalRating)

	require.NoError(t, c.SwipeWatchlist(ctx, item))
	rec, err = ledger.Get(ctx, item.Key())
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionSeen, rec.Direction)

	// Undo the watchlist no-op: previousDirection was Seen, so the record
	// is restored to Seen, rating intact.
	_, err = c.Undo(ctx)
	require.NoError(t, err)

	rec, err = ledger.Get(ctx, item.Key())
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionSeen, rec.Direction)
	require.NotNil(t, rec.PersonalRating)
	assert.Equal(t, 5, *rec.PersonalRating)
}

func TestSetFilters_DebouncesReload(t *testing.T) {
	provider := &stubProvider{
		fallback: catalog.Page{Items: movies(1, 2, 3, 4, 5), IsLastPage: true},
	}
	cfg := config.Default().Session
	cfg.DebounceInterval = 30 * time.Millisecond

	c := New(provider, newTestLedger(t), cfg, logger.Discard().Logger)
	t.Cleanup(c.Close)

	// Three rapid filter changes must coalesce into a single reload.
	c.SetFilters(domain.Filters{Kind: domain.KindMovie})
	c.SetFilters(domain.Filters{Kind: domain.KindMovie, GenreIDs: []int{18}})
	c.SetFilters(domain.Filters{Kind: domain.KindMovie, GenreIDs: []int{18, 53}})

	require.Eventually(t, func() bool {
		return c.QueueLen() == 5
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, provider.fetchCount())
}

package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit112/flickswiper/internal/domain"
	"github.com/mit112/flickswiper/internal/errors"
	"github.com/mit112/flickswiper/internal/logger"
	"github.com/mit112/flickswiper/internal/remote"
	"github.com/mit112/flickswiper/internal/store"
	"github.com/mit112/flickswiper/internal/store/sqlite"
)

// testEnv wires the full service stack against a throwaway sqlite store
// and an in-memory remote.
type testEnv struct {
	store   store.Store
	remote  *remote.Memory
	ledger  *LedgerService
	lists   *ListService
	publish *PublishService
	follow  *FollowService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	log := logger.Discard().Logger
	mem := remote.NewMemory()
	publish := NewPublishService(s, mem, "flickswiper.app", log)

	return &testEnv{
		store:   s,
		remote:  mem,
		ledger:  NewLedgerService(s, log),
		lists:   NewListService(s, publish, log),
		publish: publish,
		follow:  NewFollowService(s, mem, log),
	}
}

func catalogItem(id int64, title string) domain.CatalogItem {
	return domain.CatalogItem{
		Kind:       domain.KindMovie,
		ID:         id,
		Title:      title,
		PosterPath: "/poster.jpg",
	}
}

func TestLedgerService_MarkSeenCreatesRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.ledger.MarkSeen(ctx, catalogItem(550, "Fight Club"), "netflix")
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Equal(t, domain.DirectionSeen, res.Record.Direction)
	assert.Equal(t, "netflix", res.Record.SourcePlatform)
	assert.Equal(t, "movie_550", res.Record.UniqueKey)
}

func TestLedgerService_DemotionIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := catalogItem(550, "Fight Club")

	_, err := env.ledger.MarkSeen(ctx, item, "")
	require.NoError(t, err)

	res, err := env.ledger.SaveToWatchlist(ctx, item)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.False(t, res.Promoted)
	assert.Equal(t, domain.DirectionSeen, res.Record.Direction)
	assert.Equal(t, domain.DirectionSeen, res.PrevDirection)
}

func TestLedgerService_SetPersonalRating(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := catalogItem(550, "Fight Club")

	_, err := env.ledger.MarkSeen(ctx, item, "")
	require.NoError(t, err)

	require.NoError(t, env.ledger.SetPersonalRating(ctx, item.Key(), 5))

	rec, err := env.ledger.Get(ctx, item.Key())
	require.NoError(t, err)
	require.NotNil(t, rec.PersonalRating)
	assert.Equal(t, 5, *rec.PersonalRating)

	err = env.ledger.SetPersonalRating(ctx, item.Key(), 6)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	err = env.ledger.SetPersonalRating(ctx, "movie_999", 3)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestLedgerService_MoveWatchlistToSeen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := catalogItem(603, "The Matrix")

	_, err := env.ledger.SaveToWatchlist(ctx, item)
	require.NoError(t, err)

	rec, err := env.ledger.MoveWatchlistToSeen(ctx, item.Key())
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionSeen, rec.Direction)

	// A skipped record is not on the watchlist, so the move is rejected.
	skipped := catalogItem(604, "Reloaded")
	_, err = env.ledger.MarkSkipped(ctx, skipped)
	require.NoError(t, err)

	_, err = env.ledger.MoveWatchlistToSeen(ctx, skipped.Key())
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestLedgerService_PurgeSkipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		_, err := env.ledger.MarkSkipped(ctx, catalogItem(i, "Skip"))
		require.NoError(t, err)
	}
	_, err := env.ledger.MarkSeen(ctx, catalogItem(10, "Keep"), "")
	require.NoError(t, err)

	n, err := env.ledger.Purge(ctx, domain.DirectionSkipped)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	seen := domain.DirectionSeen
	recs, err := env.ledger.Records(ctx, &seen, store.Pagination{})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

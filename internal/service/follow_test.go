package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit112/flickswiper/internal/errors"
	"github.com/mit112/flickswiper/internal/remote"
)

func seedRemoteList(t *testing.T, env *testEnv, docID, name string, itemKeys ...string) {
	t.Helper()

	items := make([]remote.DocumentItem, len(itemKeys))
	for i, key := range itemKeys {
		items[i] = remote.DocumentItem{
			ItemKey:   key,
			Kind:      "movie",
			Title:     "Remote " + key,
			SortOrder: i,
		}
	}
	require.NoError(t, env.remote.Set(context.Background(), docID, remote.Document{
		Name:             name,
		OwnerID:          "owner-1",
		OwnerDisplayName: "Alex",
		IsActive:         true,
		UpdatedAt:        time.Now().Unix(),
		Items:            items,
	}))
}

func TestFollowService_FollowMirrorsSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seedRemoteList(t, env, "doc-1", "Alex's Picks", "movie_550", "movie_603")

	require.NoError(t, env.follow.Follow(ctx, "doc-1"))

	list, items, err := env.follow.FollowedList(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Alex's Picks", list.Name)
	assert.Equal(t, "Alex", list.OwnerDisplayName)
	assert.True(t, list.IsActive)
	require.Len(t, items, 2)
	assert.Equal(t, "movie_550", items[0].ItemKey)
}

func TestFollowService_FollowMissingDoc(t *testing.T) {
	env := newTestEnv(t)

	err := env.follow.Follow(context.Background(), "no-such-doc")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestFollowService_ChangeEventReplacesCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seedRemoteList(t, env, "doc-1", "Alex's Picks", "movie_550")
	require.NoError(t, env.follow.Follow(ctx, "doc-1"))
	require.NoError(t, env.follow.Start(ctx))
	t.Cleanup(env.follow.Stop)

	// The owner rewrites the document: the cache is replaced in full, not
	// merged.
	seedRemoteList(t, env, "doc-1", "Renamed Picks", "movie_603", "movie_604")

	list, items, err := env.follow.FollowedList(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed Picks", list.Name)
	require.Len(t, items, 2)
	assert.Equal(t, "movie_603", items[0].ItemKey)
	assert.Equal(t, "movie_604", items[1].ItemKey)
}

func TestFollowService_DeactivatedDocDegradesCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seedRemoteList(t, env, "doc-1", "Alex's Picks", "movie_550")
	require.NoError(t, env.follow.Follow(ctx, "doc-1"))
	require.NoError(t, env.follow.Start(ctx))
	t.Cleanup(env.follow.Stop)

	// Owner unpublishes: IsActive flips to false.
	doc, ok, err := env.remote.Get(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, ok)
	doc.IsActive = false
	require.NoError(t, env.remote.Set(ctx, "doc-1", doc))

	list, items, err := env.follow.FollowedList(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, list.IsActive)
	// The cached items survive so the UI can still render the list.
	assert.Len(t, items, 1)
}

func TestFollowService_DeletedDocDegradesCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seedRemoteList(t, env, "doc-1", "Alex's Picks", "movie_550")
	require.NoError(t, env.follow.Follow(ctx, "doc-1"))
	require.NoError(t, env.follow.Start(ctx))
	t.Cleanup(env.follow.Stop)

	require.NoError(t, env.remote.Delete(ctx, "doc-1"))

	list, _, err := env.follow.FollowedList(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, list.IsActive)
}

func TestFollowService_Unfollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seedRemoteList(t, env, "doc-1", "Alex's Picks", "movie_550")
	require.NoError(t, env.follow.Follow(ctx, "doc-1"))

	require.NoError(t, env.follow.Unfollow(ctx, "doc-1"))

	_, _, err := env.follow.FollowedList(ctx, "doc-1")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	// Unfollowing twice is harmless.
	require.NoError(t, env.follow.Unfollow(ctx, "doc-1"))
}

func TestFollowService_FollowedAtSurvivesUpdates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seedRemoteList(t, env, "doc-1", "Alex's Picks", "movie_550")
	require.NoError(t, env.follow.Follow(ctx, "doc-1"))

	first, _, err := env.follow.FollowedList(ctx, "doc-1")
	require.NoError(t, err)

	require.NoError(t, env.follow.Start(ctx))
	t.Cleanup(env.follow.Stop)
	seedRemoteList(t, env, "doc-1", "Alex's Picks v2", "movie_550")

	second, _, err := env.follow.FollowedList(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Alex's Picks v2", second.Name)
	assert.True(t, second.FollowedAt.Equal(first.FollowedAt))
}

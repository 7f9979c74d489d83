package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirection_Order(t *testing.T) {
	assert.Greater(t, DirectionSeen.Rank(), DirectionWatchlist.Rank())
	assert.Greater(t, DirectionWatchlist.Rank(), DirectionSkipped.Rank())
}

func TestDirection_StringRoundTrip(t *testing.T) {
	for _, d := range []Direction{DirectionSkipped, DirectionWatchlist, DirectionSeen} {
		got, ok := ParseDirection(d.String())
		assert.True(t, ok)
		assert.Equal(t, d, got)
	}

	_, ok := ParseDirection("liked")
	assert.False(t, ok)
}

func TestItemKey(t *testing.T) {
	assert.Equal(t, "movie_550", ItemKey(KindMovie, 550))
	assert.Equal(t, "series_1399", ItemKey(KindSeries, 1399))

	// Same numeric ID, different kinds: keys must not collide.
	assert.NotEqual(t, ItemKey(KindMovie, 42), ItemKey(KindSeries, 42))
}

func TestLedgerRecord_Promotes(t *testing.T) {
	tests := []struct {
		name      string
		current   Direction
		requested Direction
		want      bool
	}{
		{"skipped to watchlist", DirectionSkipped, DirectionWatchlist, true},
		{"skipped to seen", DirectionSkipped, DirectionSeen, true},
		{"watchlist to seen", DirectionWatchlist, DirectionSeen, true},
		{"seen to watchlist", DirectionSeen, DirectionWatchlist, false},
		{"seen to skipped", DirectionSeen, DirectionSkipped, false},
		{"watchlist to skipped", DirectionWatchlist, DirectionSkipped, false},
		{"same direction", DirectionSeen, DirectionSeen, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &LedgerRecord{Direction: tt.current}
			assert.Equal(t, tt.want, rec.Promotes(tt.requested))
		})
	}
}

func TestValidRating(t *testing.T) {
	for stars := 1; stars <= 5; stars++ {
		assert.True(t, ValidRating(stars), "stars=%d", stars)
	}
	assert.False(t, ValidRating(0))
	assert.False(t, ValidRating(6))
	assert.False(t, ValidRating(-1))
}

package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit112/flickswiper/internal/domain"
	"github.com/mit112/flickswiper/internal/errors"
)

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discover/movie", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "18,53", r.URL.Query().Get("with_genres"))

		json.NewEncoder(w).Encode(map[string]any{
			"page":        2,
			"total_pages": 2,
			"results": []map[string]any{
				{"id": 550, "title": "Fight Club", "overview": "o", "vote_average": 8.4, "genre_ids": []int{18, 53}, "release_date": "1999-10-15"},
				{"id": 603, "title": "The Matrix", "vote_average": 8.2},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", 5*time.Second, nil)

	page, err := c.FetchPage(context.Background(), domain.Filters{Kind: domain.KindMovie, GenreIDs: []int{18, 53}}, 2)
	require.NoError(t, err)

	assert.True(t, page.IsLastPage)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "movie_550", page.Items[0].Key())
	assert.Equal(t, "Fight Club", page.Items[0].Title)
	assert.Equal(t, 8.4, page.Items[0].CommunityRating)
}

func TestFetchPage_SeriesUsesNameAndAirDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/tv", r.URL.Path)
		assert.Equal(t, "twin", r.URL.Query().Get("query"))

		json.NewEncoder(w).Encode(map[string]any{
			"page":        1,
			"total_pages": 4,
			"results": []map[string]any{
				{"id": 1923, "name": "Twin Peaks", "first_air_date": "1990-04-08"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second, nil)

	page, err := c.FetchPage(context.Background(), domain.Filters{Kind: domain.KindSeries, Query: "twin"}, 1)
	require.NoError(t, err)

	assert.False(t, page.IsLastPage)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "series_1923", page.Items[0].Key())
	assert.Equal(t, "Twin Peaks", page.Items[0].Title)
	assert.Equal(t, "1990-04-08", page.Items[0].ReleaseDate)
}

func TestFetchPage_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second, nil)

	_, err := c.FetchPage(context.Background(), domain.Filters{}, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProvider))
}

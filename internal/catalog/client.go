package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mit112/flickswiper/internal/domain"
	"github.com/mit112/flickswiper/internal/errors"
	"github.com/mit112/flickswiper/internal/ratelimit"
)

// Client fetches discovery pages from a TMDB-style JSON API.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *ratelimit.KeyedLimiter
	logger      *slog.Logger
}

// NewClient creates a new catalog client.
// Rate limited to 4 requests per second per endpoint family, inside the
// documented TMDB bound of 40 requests per 10 seconds.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: ratelimit.New(4, 10),
		logger:      logger,
	}
}

// pageResponse mirrors the provider's discover/search payload.
type pageResponse struct {
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
	Results    []pageResult `json:"results"`
}

type pageResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	GenreIDs     []int   `json:"genre_ids"`
}

// FetchPage fetches one page of candidates matching the filters.
// A transport or decode failure surfaces as a provider error; the session
// loop treats it as a loading error and does not retry.
func (c *Client) FetchPage(ctx context.Context, filters domain.Filters, page int) (Page, error) {
	family := "discover"
	if filters.Query != "" {
		family = "search"
	}
	if err := c.rateLimiter.Wait(ctx, family); err != nil {
		return Page{}, err
	}

	endpoint := c.endpoint(filters, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Page{}, errors.Provider("build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, errors.Provider("fetch page", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, errors.Provider(fmt.Sprintf("provider returned %d", resp.StatusCode), nil)
	}

	var body pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Page{}, errors.Provider("decode page", err)
	}

	kind := filters.Kind
	if kind == "" {
		kind = domain.KindMovie
	}

	items := make([]domain.CatalogItem, 0, len(body.Results))
	for _, r := range body.Results {
		items = append(items, r.toItem(kind))
	}

	c.logger.Debug("fetched catalog page",
		"page", page,
		"items", len(items),
		"last", body.Page >= body.TotalPages,
	)

	return Page{
		Items:      items,
		IsLastPage: body.TotalPages > 0 && body.Page >= body.TotalPages,
	}, nil
}

func (r pageResult) toItem(kind domain.CatalogKind) domain.CatalogItem {
	title := r.Title
	if title == "" {
		title = r.Name
	}
	release := r.ReleaseDate
	if release == "" {
		release = r.FirstAirDate
	}
	return domain.CatalogItem{
		Kind:            kind,
		ID:              r.ID,
		Title:           title,
		Overview:        r.Overview,
		PosterPath:      r.PosterPath,
		ReleaseDate:     release,
		CommunityRating: r.VoteAverage,
		GenreIDs:        r.GenreIDs,
	}
}

// endpoint builds the discover or search URL for the filters.
func (c *Client) endpoint(filters domain.Filters, page int) string {
	kind := "movie"
	if filters.Kind == domain.KindSeries {
		kind = "tv"
	}

	path := "/discover/" + kind
	if filters.Query != "" {
		path = "/search/" + kind
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	if filters.Query != "" {
		q.Set("query", filters.Query)
	}
	if len(filters.GenreIDs) > 0 {
		parts := make([]string, len(filters.GenreIDs))
		for i, id := range filters.GenreIDs {
			parts[i] = strconv.Itoa(id)
		}
		q.Set("with_genres", strings.Join(parts, ","))
	}
	if filters.Platform != "" {
		q.Set("with_watch_providers", filters.Platform)
	}

	return c.baseURL + path + "?" + q.Encode()
}

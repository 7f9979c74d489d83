// Package catalog defines the content provider contract and an HTTP client
// for a paginated title-discovery API.
package catalog

import (
	"context"

	"github.com/mit112/flickswiper/internal/domain"
)

// Page is one page of candidate items from the provider.
type Page struct {
	Items []domain.CatalogItem
	// IsLastPage signals pagination exhaustion. Providers make no promise
	// that pages never overlap, so callers must deduplicate.
	IsLastPage bool
}

// Provider serves paginated candidate items for the discovery session.
type Provider interface {
	FetchPage(ctx context.Context, filters domain.Filters, page int) (Page, error)
}

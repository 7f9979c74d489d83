package domain

// CatalogKind distinguishes item taxonomies that share a numeric ID space.
type CatalogKind string

const (
	// KindMovie is a feature film.
	KindMovie CatalogKind = "movie"
	// KindSeries is an episodic show.
	KindSeries CatalogKind = "series"
)

// CatalogItem is one candidate item returned by the content provider.
type CatalogItem struct {
	Kind            CatalogKind `json:"kind"`
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	Overview        string      `json:"overview,omitempty"`
	PosterPath      string      `json:"poster_path,omitempty"`
	ReleaseDate     string      `json:"release_date,omitempty"`
	CommunityRating float64     `json:"community_rating,omitempty"`
	GenreIDs        []int       `json:"genre_ids,omitempty"`
}

// Key returns the composite unique key for this item.
func (c CatalogItem) Key() string {
	return ItemKey(c.Kind, c.ID)
}

// Filters narrows what the discovery session asks the provider for.
type Filters struct {
	Kind     CatalogKind `json:"kind"`
	GenreIDs []int       `json:"genre_ids,omitempty"`
	// Platform restricts results to one streaming service. When set, swipes
	// record it as the ledger record's SourcePlatform.
	Platform string `json:"platform,omitempty"`
	Query    string `json:"query,omitempty"`
	// IncludeSwiped re-surfaces items that already have a ledger record.
	// The ledger's promotion guard makes re-swiping them harmless.
	IncludeSwiped bool `json:"include_swiped,omitempty"`
}

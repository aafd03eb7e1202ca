package domain

// Sort modes for search results.
const (
	SortRelevance  = "relevance"
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortNewest     = "newest"
	SortOldest     = "oldest"
	SortPopularity = "popularity"
)

// ValidSortModes returns the list of valid sort modes.
func ValidSortModes() []string {
	return []string{SortRelevance, SortPriceAsc, SortPriceDesc, SortNewest, SortOldest, SortPopularity}
}

// IsValidSort checks whether the given mode is a valid sort mode.
func IsValidSort(mode string) bool {
	for _, m := range ValidSortModes() {
		if m == mode {
			return true
		}
	}
	return false
}

// Availability modes.
const (
	AvailabilityAll     = "all"
	AvailabilityInStock = "in_stock"
)

// Dimension constraint operators.
const (
	DimensionExact = "exact"
	DimensionMin   = "min"
	DimensionMax   = "max"
)

// DimensionFilter constrains the physical size of matched artworks.
type DimensionFilter struct {
	ValueCm float64 `json:"value_cm"`
	Op      string  `json:"op"` // exact, min, max
}

// SearchFilters is a request-scoped value object. It is constructed once per
// search call and never mutated afterwards; interpreter hints are merged into
// a fresh copy via query.Hints.ApplyTo.
type SearchFilters struct {
	Query         string           `json:"query,omitempty"`
	Categories    []string         `json:"categories,omitempty"`
	Styles        []string         `json:"styles,omitempty"`
	Mediums       []string         `json:"mediums,omitempty"`
	ArtistIDs     []string         `json:"artist_ids,omitempty"`
	Colors        []string         `json:"colors,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
	MinPriceCents *int64           `json:"min_price_cents,omitempty"`
	MaxPriceCents *int64           `json:"max_price_cents,omitempty"`
	MinYear       *int             `json:"min_year,omitempty"`
	MaxYear       *int             `json:"max_year,omitempty"`
	Dimension     *DimensionFilter `json:"dimension,omitempty"`
	Sort          string           `json:"sort,omitempty"`
	Availability  string           `json:"availability,omitempty"`
}

// SearchResult is an artwork annotated with its relevance to a query.
type SearchResult struct {
	Artwork        Artwork  `json:"artwork"`
	RelevanceScore float64  `json:"relevance_score"`
	MatchReasons   []string `json:"match_reasons"`
}

// SearchPage is one page of annotated results.
type SearchPage struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	TookMs  int64          `json:"took_ms"`
}

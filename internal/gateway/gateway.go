// Package gateway defines the data access contract the ranking engine runs
// against. Implementations live in the postgres and memory subpackages.
package gateway

import (
	"context"

	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
)

// ScoredArtwork is a catalog item with an optional gateway-supplied score.
// A nil score means the calling strategy assigns its own fixed score.
type ScoredArtwork struct {
	Artwork domain.Artwork
	Score   *float64
}

// PopularityScore normalizes an engagement count against the highest count
// in the same batch into a score in (0.5, 0.9]. Returns nil when there is no
// engagement signal to normalize.
func PopularityScore(engaged, maxEngaged int) *float64 {
	if engaged <= 0 || maxEngaged <= 0 {
		return nil
	}
	s := 0.5 + 0.4*float64(engaged)/float64(maxEngaged)
	return &s
}

// CatalogPage is one page of a catalog query.
type CatalogPage struct {
	Items []domain.Artwork
	Total int
}

// Gateway is the engine's view of the data store.
type Gateway interface {
	// QueryCatalog returns artworks matching the filters, paged. With sort
	// empty or "relevance" the ordering is the store's default; the caller
	// re-ranks.
	QueryCatalog(ctx context.Context, filters domain.SearchFilters, page, perPage int) (CatalogPage, error)

	// FindSimilarUsers returns IDs of users with purchase patterns close to
	// the given user's.
	FindSimilarUsers(ctx context.Context, userID string, limit int) ([]string, error)

	// CollaborativeCandidates returns artworks the similar users engaged with
	// that the requesting user has not.
	CollaborativeCandidates(ctx context.Context, userID string, similarUserIDs []string, limit int) ([]ScoredArtwork, error)

	// TrendingItems returns the most-engaged in-stock artworks over the
	// trailing window.
	TrendingItems(ctx context.Context, limit, windowDays int) ([]domain.Artwork, error)

	// SimilarItems returns artworks similar to the seed set, excluding the
	// seeds themselves.
	SimilarItems(ctx context.Context, seedIDs []string, limit int) ([]domain.Artwork, error)

	// BrowsingHistory returns the user's most recent views, newest first.
	BrowsingHistory(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error)

	// PurchaseHistory returns all of the user's completed order lines.
	PurchaseHistory(ctx context.Context, userID string) ([]domain.PurchaseEntry, error)

	// FollowedArtists returns IDs of artists the user follows.
	FollowedArtists(ctx context.Context, userID string) ([]string, error)
}

// Indexer is implemented by gateways that maintain their own artwork index
// from catalog change events.
type Indexer interface {
	Upsert(ctx context.Context, artwork domain.Artwork) error
	Remove(ctx context.Context, artworkID string) error
}

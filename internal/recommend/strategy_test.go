package recommend

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
	"github.com/nkosimano/ChartedArt-sub001/internal/gateway"
)

// stubGateway implements gateway.Gateway with overridable behavior per call.
type stubGateway struct {
	queryCatalog     func(filters domain.SearchFilters, page, perPage int) (gateway.CatalogPage, error)
	findSimilarUsers func(userID string, limit int) ([]string, error)
	collabCandidates func(userID string, similarUserIDs []string, limit int) ([]gateway.ScoredArtwork, error)
	trendingItems    func(limit, windowDays int) ([]domain.Artwork, error)
	similarItems     func(seedIDs []string, limit int) ([]domain.Artwork, error)
}

func (s *stubGateway) QueryCatalog(_ context.Context, f domain.SearchFilters, page, perPage int) (gateway.CatalogPage, error) {
	if s.queryCatalog == nil {
		return gateway.CatalogPage{}, nil
	}
	return s.queryCatalog(f, page, perPage)
}

func (s *stubGateway) FindSimilarUsers(_ context.Context, userID string, limit int) ([]string, error) {
	if s.findSimilarUsers == nil {
		return nil, nil
	}
	return s.findSimilarUsers(userID, limit)
}

func (s *stubGateway) CollaborativeCandidates(_ context.Context, userID string, similarUserIDs []string, limit int) ([]gateway.ScoredArtwork, error) {
	if s.collabCandidates == nil {
		return nil, nil
	}
	return s.collabCandidates(userID, similarUserIDs, limit)
}

func (s *stubGateway) TrendingItems(_ context.Context, limit, windowDays int) ([]domain.Artwork, error) {
	if s.trendingItems == nil {
		return nil, nil
	}
	return s.trendingItems(limit, windowDays)
}

func (s *stubGateway) SimilarItems(_ context.Context, seedIDs []string, limit int) ([]domain.Artwork, error) {
	if s.similarItems == nil {
		return nil, nil
	}
	return s.similarItems(seedIDs, limit)
}

func (s *stubGateway) BrowsingHistory(_ context.Context, _ string, _ int) ([]domain.HistoryEntry, error) {
	return nil, nil
}

func (s *stubGateway) PurchaseHistory(_ context.Context, _ string) ([]domain.PurchaseEntry, error) {
	return nil, nil
}

func (s *stubGateway) FollowedArtists(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestCollaborativeGenerate(t *testing.T) {
	supplied := 0.85
	gw := &stubGateway{
		findSimilarUsers: func(userID string, limit int) ([]string, error) {
			assert.Equal(t, "u1", userID)
			return []string{"u2", "u3"}, nil
		},
		collabCandidates: func(userID string, similarUserIDs []string, limit int) ([]gateway.ScoredArtwork, error) {
			assert.Equal(t, []string{"u2", "u3"}, similarUserIDs)
			return []gateway.ScoredArtwork{
				{Artwork: domain.Artwork{ID: "a"}},
				{Artwork: domain.Artwork{ID: "b"}, Score: &supplied},
			}, nil
		},
	}

	recs := NewCollaborative(gw, testLogger()).Generate(context.Background(), Input{UserID: "u1"}, 10)

	require.Len(t, recs, 2)
	assert.Equal(t, 0.7, recs[0].Score)
	assert.Equal(t, 0.85, recs[1].Score)
	assert.Equal(t, domain.StrategyCollaborative, recs[0].Strategy)
	assert.Equal(t, "Users with similar taste also liked this", recs[0].Reason)
}

func TestCollaborativeDegradesGracefully(t *testing.T) {
	anonymous := NewCollaborative(&stubGateway{}, testLogger())
	assert.Empty(t, anonymous.Generate(context.Background(), Input{}, 10))

	noPeers := NewCollaborative(&stubGateway{
		findSimilarUsers: func(string, int) ([]string, error) { return nil, nil },
	}, testLogger())
	assert.Empty(t, noPeers.Generate(context.Background(), Input{UserID: "u1"}, 10))

	failing := NewCollaborative(&stubGateway{
		findSimilarUsers: func(string, int) ([]string, error) { return nil, errors.New("down") },
	}, testLogger())
	assert.Empty(t, failing.Generate(context.Background(), Input{UserID: "u1"}, 10))
}

func TestContentBasedGenerate(t *testing.T) {
	profile := domain.PreferenceProfile{
		Categories:      []string{"painting"},
		Styles:          []string{"abstract"},
		Mediums:         []string{"oil"},
		Colors:          []string{"blue"},
		MinPriceCents:   10000,
		MaxPriceCents:   50000,
		FollowedArtists: []string{"fav"},
	}

	perfect := domain.Artwork{ID: "perfect", Category: "painting", Style: "abstract", Medium: "oil", Colors: []string{"blue"}, ArtistID: "fav", PriceCents: 20000}
	partial := domain.Artwork{ID: "partial", Category: "painting", Style: "realism", Medium: "ink", ArtistID: "other", PriceCents: 90000}

	var gotPerPage int
	gw := &stubGateway{
		queryCatalog: func(f domain.SearchFilters, page, perPage int) (gateway.CatalogPage, error) {
			gotPerPage = perPage
			assert.Equal(t, []string{"painting"}, f.Categories)
			assert.Equal(t, domain.AvailabilityInStock, f.Availability)
			return gateway.CatalogPage{Items: []domain.Artwork{partial, perfect}, Total: 2}, nil
		},
	}

	recs := NewContentBased(gw, testLogger()).Generate(context.Background(), Input{Profile: profile}, 10)

	assert.Equal(t, 20, gotPerPage, "over-fetches twice the limit")
	require.Len(t, recs, 2)
	assert.Equal(t, "perfect", recs[0].Artwork.ID)
	assert.Equal(t, 1.0, recs[0].Score)
	assert.Equal(t, "partial", recs[1].Artwork.ID)
	assert.InDelta(t, 0.7, recs[1].Score, 1e-9)
}

func TestContentBasedTruncatesToLimit(t *testing.T) {
	items := make([]domain.Artwork, 6)
	for i := range items {
		items[i] = domain.Artwork{ID: string(rune('a' + i)), Category: "painting"}
	}
	gw := &stubGateway{
		queryCatalog: func(domain.SearchFilters, int, int) (gateway.CatalogPage, error) {
			return gateway.CatalogPage{Items: items, Total: 6}, nil
		},
	}

	recs := NewContentBased(gw, testLogger()).Generate(context.Background(), Input{
		Profile: domain.PreferenceProfile{Categories: []string{"painting"}},
	}, 3)

	assert.Len(t, recs, 3)
}

func TestContentBasedEmptyProfile(t *testing.T) {
	recs := NewContentBased(&stubGateway{}, testLogger()).Generate(context.Background(), Input{}, 10)
	assert.Empty(t, recs)
}

func TestTrendingGenerate(t *testing.T) {
	gw := &stubGateway{
		trendingItems: func(limit, windowDays int) ([]domain.Artwork, error) {
			assert.Equal(t, 30, windowDays)
			return []domain.Artwork{{ID: "hot"}}, nil
		},
	}

	recs := NewTrending(gw, testLogger()).Generate(context.Background(), Input{}, 10)

	require.Len(t, recs, 1)
	assert.Equal(t, 0.6, recs[0].Score)
	assert.Equal(t, domain.StrategyTrending, recs[0].Strategy)
}

func TestTrendingFallsBackToNewest(t *testing.T) {
	gw := &stubGateway{
		trendingItems: func(int, int) ([]domain.Artwork, error) {
			return nil, errors.New("redis down")
		},
		queryCatalog: func(f domain.SearchFilters, page, perPage int) (gateway.CatalogPage, error) {
			assert.Equal(t, domain.SortNewest, f.Sort)
			assert.Equal(t, domain.AvailabilityInStock, f.Availability)
			return gateway.CatalogPage{Items: []domain.Artwork{{ID: "fresh"}}, Total: 1}, nil
		},
	}

	recs := NewTrending(gw, testLogger()).Generate(context.Background(), Input{}, 10)

	require.Len(t, recs, 1)
	assert.Equal(t, 0.5, recs[0].Score)
	assert.Equal(t, "Recently added", recs[0].Reason)
}

func TestSimilarToRecentGenerate(t *testing.T) {
	now := time.Now()
	views := make([]domain.HistoryEntry, 7)
	for i := range views {
		views[i] = domain.HistoryEntry{ArtworkID: string(rune('a' + i)), ViewedAt: now}
	}

	var gotSeeds []string
	gw := &stubGateway{
		similarItems: func(seedIDs []string, limit int) ([]domain.Artwork, error) {
			gotSeeds = seedIDs
			return []domain.Artwork{{ID: "match"}}, nil
		},
	}

	recs := NewSimilarToRecent(gw, testLogger()).Generate(context.Background(), Input{RecentViews: views}, 10)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, gotSeeds, "seeds from the five most recent views")
	require.Len(t, recs, 1)
	assert.Equal(t, 0.65, recs[0].Score)
}

func TestSimilarToRecentNoHistory(t *testing.T) {
	recs := NewSimilarToRecent(&stubGateway{}, testLogger()).Generate(context.Background(), Input{}, 10)
	assert.Empty(t, recs)
}

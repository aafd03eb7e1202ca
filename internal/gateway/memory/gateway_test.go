package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
)

func newTestArtwork(title, description string, priceCents int64) domain.Artwork {
	now := time.Now().UTC()
	return domain.Artwork{
		ID:          uuid.New().String(),
		Title:       title,
		Slug:        "test-slug",
		Description: description,
		PriceCents:  priceCents,
		Currency:    "USD",
		Category:    "painting",
		Style:       "abstract",
		Medium:      "oil",
		Colors:      []string{"blue"},
		Tags:        []string{"test"},
		ArtistID:    "artist-1",
		Year:        2020,
		WidthCm:     40,
		HeightCm:    30,
		StockCount:  3,
		CreatedAt:   now,
	}
}

func TestGateway_QueryCatalog_TextMatch(t *testing.T) {
	ctx := context.Background()
	g := New()

	a := newTestArtwork("Harbor at Dawn", "Soft morning light over the marina", 45000)
	require.NoError(t, g.Upsert(ctx, a))

	page, err := g.QueryCatalog(ctx, domain.SearchFilters{Query: "harbor"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, a.ID, page.Items[0].ID)

	page, err = g.QueryCatalog(ctx, domain.SearchFilters{Query: "sculpture garden"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Empty(t, page.Items)
}

func TestGateway_QueryCatalog_TextMatchesDescriptionAndTags(t *testing.T) {
	ctx := context.Background()
	g := New()

	byDesc := newTestArtwork("Untitled No. 4", "A study of marina reflections", 30000)
	byTag := newTestArtwork("Untitled No. 5", "Color field work", 30000)
	byTag.Tags = []string{"marina", "coastal"}
	require.NoError(t, g.Upsert(ctx, byDesc))
	require.NoError(t, g.Upsert(ctx, byTag))

	page, err := g.QueryCatalog(ctx, domain.SearchFilters{Query: "marina"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestGateway_QueryCatalog_Filters(t *testing.T) {
	ctx := context.Background()
	g := New()

	match := newTestArtwork("Blue Field", "", 45000)
	tooCheap := newTestArtwork("Sketch", "", 2000)
	wrongStyle := newTestArtwork("Portrait", "", 45000)
	wrongStyle.Style = "realism"
	outOfStock := newTestArtwork("Sold Out", "", 45000)
	outOfStock.StockCount = 0

	for _, a := range []domain.Artwork{match, tooCheap, wrongStyle, outOfStock} {
		require.NoError(t, g.Upsert(ctx, a))
	}

	minPrice := int64(10000)
	page, err := g.QueryCatalog(ctx, domain.SearchFilters{
		Styles:        []string{"abstract"},
		MinPriceCents: &minPrice,
		Availability:  domain.AvailabilityInStock,
	}, 1, 20)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, match.ID, page.Items[0].ID)
}

func TestGateway_QueryCatalog_YearAndDimension(t *testing.T) {
	ctx := context.Background()
	g := New()

	old := newTestArtwork("Old Work", "", 30000)
	old.Year = 1985
	recent := newTestArtwork("Recent Work", "", 30000)
	recent.Year = 2021
	small := newTestArtwork("Small Recent", "", 30000)
	small.Year = 2021
	small.WidthCm, small.HeightCm = 10, 8

	for _, a := range []domain.Artwork{old, recent, small} {
		require.NoError(t, g.Upsert(ctx, a))
	}

	minYear := 2000
	page, err := g.QueryCatalog(ctx, domain.SearchFilters{
		MinYear:   &minYear,
		Dimension: &domain.DimensionFilter{ValueCm: 30, Op: domain.DimensionMin},
	}, 1, 20)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, recent.ID, page.Items[0].ID)
}

func TestGateway_QueryCatalog_SortsAndPaging(t *testing.T) {
	ctx := context.Background()
	g := New()

	cheap := newTestArtwork("Cheap", "", 1000)
	mid := newTestArtwork("Mid", "", 5000)
	dear := newTestArtwork("Dear", "", 9000)
	for _, a := range []domain.Artwork{mid, dear, cheap} {
		require.NoError(t, g.Upsert(ctx, a))
	}

	page, err := g.QueryCatalog(ctx, domain.SearchFilters{Sort: domain.SortPriceAsc}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, cheap.ID, page.Items[0].ID)
	assert.Equal(t, mid.ID, page.Items[1].ID)

	page, err = g.QueryCatalog(ctx, domain.SearchFilters{Sort: domain.SortPriceAsc}, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, dear.ID, page.Items[0].ID)
}

func TestGateway_RemoveDropsFromResults(t *testing.T) {
	ctx := context.Background()
	g := New()

	a := newTestArtwork("Ephemeral", "", 20000)
	require.NoError(t, g.Upsert(ctx, a))
	require.NoError(t, g.Remove(ctx, a.ID))

	page, err := g.QueryCatalog(ctx, domain.SearchFilters{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
}

func TestGateway_SimilarUsersAndCollaborative(t *testing.T) {
	ctx := context.Background()
	g := New()

	shared := newTestArtwork("Shared Taste", "", 30000)
	popular := newTestArtwork("New For You", "", 35000)
	niche := newTestArtwork("Deeper Cut", "", 40000)
	require.NoError(t, g.Upsert(ctx, shared))
	require.NoError(t, g.Upsert(ctx, popular))
	require.NoError(t, g.Upsert(ctx, niche))

	now := time.Now().UTC()
	g.RecordPurchase("alice", domain.PurchaseEntry{ArtworkID: shared.ID, Quantity: 1, PurchasedAt: now})
	g.RecordPurchase("bob", domain.PurchaseEntry{ArtworkID: shared.ID, Quantity: 1, PurchasedAt: now})
	g.RecordPurchase("carol", domain.PurchaseEntry{ArtworkID: shared.ID, Quantity: 1, PurchasedAt: now})
	g.RecordPurchase("bob", domain.PurchaseEntry{ArtworkID: popular.ID, Quantity: 1, PurchasedAt: now})
	g.RecordPurchase("carol", domain.PurchaseEntry{ArtworkID: popular.ID, Quantity: 1, PurchasedAt: now})
	g.RecordPurchase("bob", domain.PurchaseEntry{ArtworkID: niche.ID, Quantity: 1, PurchasedAt: now})

	similar, err := g.FindSimilarUsers(ctx, "alice", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob", "carol"}, similar)

	candidates, err := g.CollaborativeCandidates(ctx, "alice", similar, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, popular.ID, candidates[0].Artwork.ID)
	require.NotNil(t, candidates[0].Score)
	assert.InDelta(t, 0.9, *candidates[0].Score, 1e-9, "the most-engaged candidate scores the ceiling")
	assert.Equal(t, niche.ID, candidates[1].Artwork.ID)
	require.NotNil(t, candidates[1].Score)
	assert.InDelta(t, 0.7, *candidates[1].Score, 1e-9)
}

func TestGateway_FindSimilarUsers_NoPurchases(t *testing.T) {
	g := New()

	similar, err := g.FindSimilarUsers(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, similar)
}

func TestGateway_TrendingItems(t *testing.T) {
	ctx := context.Background()
	g := New()

	hot := newTestArtwork("Hot", "", 30000)
	warm := newTestArtwork("Warm", "", 30000)
	stale := newTestArtwork("Stale", "", 30000)
	soldOut := newTestArtwork("Popular But Gone", "", 30000)
	soldOut.StockCount = 0

	for _, a := range []domain.Artwork{hot, warm, stale, soldOut} {
		require.NoError(t, g.Upsert(ctx, a))
	}

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		g.RecordView("u", domain.HistoryEntry{ArtworkID: hot.ID, ViewedAt: now.AddDate(0, 0, -1)})
		g.RecordView("u", domain.HistoryEntry{ArtworkID: soldOut.ID, ViewedAt: now.AddDate(0, 0, -1)})
	}
	g.RecordView("u", domain.HistoryEntry{ArtworkID: warm.ID, ViewedAt: now.AddDate(0, 0, -2)})
	g.RecordView("u", domain.HistoryEntry{ArtworkID: stale.ID, ViewedAt: now.AddDate(0, 0, -45)})

	trending, err := g.TrendingItems(ctx, 10, 30)
	require.NoError(t, err)
	require.Len(t, trending, 2)
	assert.Equal(t, hot.ID, trending[0].ID)
	assert.Equal(t, warm.ID, trending[1].ID)
}

func TestGateway_SimilarItems(t *testing.T) {
	ctx := context.Background()
	g := New()

	seed := newTestArtwork("Seed", "", 30000)
	sameStyle := newTestArtwork("Same Style", "", 30000)
	sameCategoryOnly := newTestArtwork("Same Category", "", 30000)
	sameCategoryOnly.Style = "realism"
	unrelated := newTestArtwork("Unrelated", "", 30000)
	unrelated.Style = "cubism"
	unrelated.Category = "sculpture"
	unrelated.Tags = []string{"bronze"}

	for _, a := range []domain.Artwork{seed, sameStyle, sameCategoryOnly, unrelated} {
		require.NoError(t, g.Upsert(ctx, a))
	}

	similar, err := g.SimilarItems(ctx, []string{seed.ID}, 10)
	require.NoError(t, err)
	require.Len(t, similar, 2)
	assert.Equal(t, sameStyle.ID, similar[0].ID)
	assert.Equal(t, sameCategoryOnly.ID, similar[1].ID)

	for _, s := range similar {
		assert.NotEqual(t, seed.ID, s.ID)
	}
}

func TestGateway_HistoryAndFollows(t *testing.T) {
	ctx := context.Background()
	g := New()

	now := time.Now().UTC()
	for i := 0; i < 7; i++ {
		g.RecordView("u", domain.HistoryEntry{
			ArtworkID: uuid.New().String(),
			ViewedAt:  now.Add(time.Duration(i) * time.Minute),
		})
	}
	g.RecordPurchase("u", domain.PurchaseEntry{ArtworkID: "bought", Quantity: 2, PurchasedAt: now})
	g.Follow("u", "artist-9")

	history, err := g.BrowsingHistory(ctx, "u", 5)
	require.NoError(t, err)
	assert.Len(t, history, 5)

	purchases, err := g.PurchaseHistory(ctx, "u")
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, 2, purchases[0].Quantity)

	follows, err := g.FollowedArtists(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"artist-9"}, follows)
}

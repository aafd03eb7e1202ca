package postgres

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
	"github.com/nkosimano/ChartedArt-sub001/pkg/database"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

func testGateway(mock pgxmock.PgxPoolIface, similarity SimilarityFinder) *Gateway {
	return New(mock, nil, similarity, slog.New(slog.DiscardHandler))
}

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

var artworkColumnNames = []string{
	"id", "title", "slug", "description", "price_cents", "currency",
	"category", "style", "medium", "colors", "tags", "artist_id", "year",
	"width_cm", "height_cm", "stock_count", "created_at",
}

var artworkColumnsWithCount = append(append([]string{}, artworkColumnNames...), "total_count")

func sampleArtwork(id string) domain.Artwork {
	return domain.Artwork{
		ID:          id,
		Title:       "Harbor at Dawn",
		Slug:        "harbor-at-dawn",
		Description: "Soft morning light over the marina",
		PriceCents:  45000,
		Currency:    "USD",
		Category:    "painting",
		Style:       "impressionism",
		Medium:      "oil",
		Colors:      []string{"blue", "orange"},
		Tags:        []string{"coastal"},
		ArtistID:    "artist-1",
		Year:        2021,
		WidthCm:     60,
		HeightCm:    40,
		StockCount:  2,
		CreatedAt:   now,
	}
}

func artworkRow(a domain.Artwork) []any {
	return []any{
		a.ID, a.Title, a.Slug, a.Description, a.PriceCents, a.Currency,
		a.Category, a.Style, a.Medium, a.Colors, a.Tags, a.ArtistID, a.Year,
		a.WidthCm, a.HeightCm, a.StockCount, a.CreatedAt,
	}
}

func artworkRowWithCount(a domain.Artwork, total int) []any {
	return append(artworkRow(a), total)
}

func TestQueryCatalog_NoFilters(t *testing.T) {
	mock := newMock(t)
	g := testGateway(mock, nil)

	a := sampleArtwork("art-1")
	mock.ExpectQuery("SELECT .+ FROM artworks").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(artworkColumnsWithCount).
			AddRow(artworkRowWithCount(a, 42)...))

	page, err := g.QueryCatalog(context.Background(), domain.SearchFilters{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 42, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, a, page.Items[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryCatalog_WithFilters(t *testing.T) {
	mock := newMock(t)
	g := testGateway(mock, nil)

	minPrice := int64(10000)
	filters := domain.SearchFilters{
		Query:         "harbor",
		Categories:    []string{"painting"},
		MinPriceCents: &minPrice,
		Availability:  domain.AvailabilityInStock,
	}

	mock.ExpectQuery("SELECT .+ FROM artworks").
		WithArgs("%harbor%", []string{"painting"}, minPrice, 10, 10).
		WillReturnRows(pgxmock.NewRows(artworkColumnsWithCount))

	page, err := g.QueryCatalog(context.Background(), filters, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Empty(t, page.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryCatalog_QueryError(t *testing.T) {
	mock := newMock(t)
	g := testGateway(mock, nil)

	mock.ExpectQuery("SELECT .+ FROM artworks").
		WithArgs(20, 0).
		WillReturnError(errors.New("connection refused"))

	_, err := g.QueryCatalog(context.Background(), domain.SearchFilters{}, 1, 20)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindSimilarUsers(t *testing.T) {
	mock := newMock(t)
	g := testGateway(mock, nil)

	mock.ExpectQuery("SELECT o2.user_id").
		WithArgs("u1", 10).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).
			AddRow("u2").
			AddRow("u3"))

	users, err := g.FindSimilarUsers(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u3"}, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollaborativeCandidates(t *testing.T) {
	mock := newMock(t)
	g := testGateway(mock, nil)

	popular := sampleArtwork("art-2")
	niche := sampleArtwork("art-5")
	columns := append(append([]string{}, artworkColumnNames...), "engaged")
	mock.ExpectQuery("SELECT .+ FROM artworks").
		WithArgs("u1", []string{"u2", "u3"}, 5).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(append(artworkRow(popular), 4)...).
			AddRow(append(artworkRow(niche), 2)...))

	candidates, err := g.CollaborativeCandidates(context.Background(), "u1", []string{"u2", "u3"}, 5)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, popular, candidates[0].Artwork)
	require.NotNil(t, candidates[0].Score)
	assert.InDelta(t, 0.9, *candidates[0].Score, 1e-9, "the most-engaged candidate scores the ceiling")
	require.NotNil(t, candidates[1].Score)
	assert.InDelta(t, 0.7, *candidates[1].Score, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollaborativeCandidates_NoSimilarUsers(t *testing.T) {
	mock := newMock(t)
	g := testGateway(mock, nil)

	candidates, err := g.CollaborativeCandidates(context.Background(), "u1", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrendingItems(t *testing.T) {
	mock := newMock(t)
	g := testGateway(mock, nil)

	a := sampleArtwork("art-3")
	mock.ExpectQuery("SELECT .+ FROM artworks").
		WithArgs(30, 10).
		WillReturnRows(pgxmock.NewRows(artworkColumnNames).
			AddRow(artworkRow(a)...))

	items, err := g.TrendingItems(context.Background(), 10, 30)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, a.ID, items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type stubFinder struct {
	ids []string
	err error
}

func (s *stubFinder) SimilarIDs(_ context.Context, _ []string, _ int) ([]string, error) {
	return s.ids, s.err
}

func TestSimilarItems_UsesSimilarityService(t *testing.T) {
	mock := newMock(t)
	g := testGateway(mock, &stubFinder{ids: []string{"art-9", "art-8"}})

	first := sampleArtwork("art-8")
	second := sampleArtwork("art-9")
	mock.ExpectQuery("SELECT .+ FROM artworks").
		WithArgs([]string{"art-9", "art-8"}).
		WillReturnRows(pgxmock.NewRows(artworkColumnNames).
			AddRow(artworkRow(first)...).
			AddRow(artworkRow(second)...))

	items, err := g.SimilarItems(context.Background(), []string{"seed"}, 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	// Service ordering wins over row ordering.
	assert.Equal(t, "art-9", items[0].ID)
	assert.Equal(t, "art-8", items[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSimilarItems_FallsBackToAffinityQuery(t *testing.T) {
	mock := newMock(t)
	g := testGateway(mock, &stubFinder{err: errors.New("circuit open")})

	a := sampleArtwork("art-4")
	mock.ExpectQuery("WITH seed AS").
		WithArgs([]string{"seed"}, 5).
		WillReturnRows(pgxmock.NewRows(artworkColumnNames).
			AddRow(artworkRow(a)...))

	items, err := g.SimilarItems(context.Background(), []string{"seed"}, 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "art-4", items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSimilarItems_EmptySeeds(t *testing.T) {
	mock := newMock(t)
	g := testGateway(mock, nil)

	items, err := g.SimilarItems(context.Background(), nil, 5)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBrowsingHistory(t *testing.T) {
	mock := newMock(t)
	g := testGateway(mock, nil)

	cols := []string{"artwork_id", "category", "style", "medium", "colors", "price_cents", "time_spent_seconds", "viewed_at"}
	mock.ExpectQuery("SELECT .+ FROM artwork_views").
		WithArgs("u1", 20).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("art-1", "painting", "abstract", "oil", []string{"blue"}, int64(45000), 62.5, now))

	entries, err := g.BrowsingHistory(context.Background(), "u1", 20)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "art-1", entries[0].ArtworkID)
	assert.Equal(t, 62.5, entries[0].TimeSpentSeconds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseHistory(t *testing.T) {
	mock := newMock(t)
	g := testGateway(mock, nil)

	cols := []string{"artwork_id", "category", "style", "medium", "colors", "price_cents", "quantity", "purchased_at"}
	mock.ExpectQuery("SELECT .+ FROM order_items").
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("art-2", "print", "pop art", "ink", []string{"red"}, int64(12000), 2, now))

	entries, err := g.PurchaseHistory(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowedArtists(t *testing.T) {
	mock := newMock(t)
	g := testGateway(mock, nil)

	mock.ExpectQuery("SELECT artist_id FROM artist_follows").
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"artist_id"}).AddRow("artist-7"))

	artists, err := g.FollowedArtists(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"artist-7"}, artists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert(t *testing.T) {
	mock := newMock(t)
	g := testGateway(mock, nil)

	a := sampleArtwork("art-1")
	mock.ExpectExec("INSERT INTO artworks").
		WithArgs(
			a.ID, a.Title, a.Slug, a.Description, a.PriceCents, a.Currency,
			a.Category, a.Style, a.Medium, a.Colors, a.Tags, a.ArtistID, a.Year,
			a.WidthCm, a.HeightCm, a.StockCount, a.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, g.Upsert(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemove(t *testing.T) {
	mock := newMock(t)
	g := testGateway(mock, nil)

	mock.ExpectExec("DELETE FROM artworks WHERE").
		WithArgs("art-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, g.Remove(context.Background(), "art-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Package postgres implements the data access gateway on PostgreSQL, with a
// Redis cache in front of the trending ranking and an optional visual
// similarity service for similar-item lookups.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
	"github.com/nkosimano/ChartedArt-sub001/internal/gateway"
	"github.com/nkosimano/ChartedArt-sub001/pkg/database"
)

// SimilarityFinder resolves artwork IDs similar to a seed set. The postgres
// gateway falls back to a SQL affinity query when the finder is nil or
// errors.
type SimilarityFinder interface {
	SimilarIDs(ctx context.Context, seedIDs []string, limit int) ([]string, error)
}

const trendingCacheTTL = 5 * time.Minute

// Gateway implements gateway.Gateway against PostgreSQL.
type Gateway struct {
	db         database.DBTX
	redis      *redis.Client
	similarity SimilarityFinder
	logger     *slog.Logger
}

// New creates a postgres-backed gateway. The redis client and the similarity
// finder are both optional; nil disables the trending cache and the
// similarity service respectively.
func New(db database.DBTX, rdb *redis.Client, similarity SimilarityFinder, logger *slog.Logger) *Gateway {
	return &Gateway{db: db, redis: rdb, similarity: similarity, logger: logger}
}

var (
	_ gateway.Gateway = (*Gateway)(nil)
	_ gateway.Indexer = (*Gateway)(nil)
)

const artworkColumns = `a.id, a.title, a.slug, a.description, a.price_cents, a.currency,
	       a.category, a.style, a.medium, a.colors, a.tags, a.artist_id, a.year,
	       a.width_cm, a.height_cm, a.stock_count, a.created_at`

// QueryCatalog filters artworks with a dynamically built WHERE clause. The
// total count rides along via count(*) OVER() so one round trip serves both.
func (g *Gateway) QueryCatalog(ctx context.Context, filters domain.SearchFilters, page, perPage int) (gateway.CatalogPage, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if q := strings.TrimSpace(filters.Query); q != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(a.title ILIKE $%d OR a.description ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(a.tags) tag WHERE tag ILIKE $%d))",
			argIndex, argIndex, argIndex))
		args = append(args, "%"+q+"%")
		argIndex++
	}

	for _, set := range []struct {
		column string
		values []string
	}{
		{"a.category", filters.Categories},
		{"a.style", filters.Styles},
		{"a.medium", filters.Mediums},
		{"a.artist_id", filters.ArtistIDs},
	} {
		if len(set.values) > 0 {
			conditions = append(conditions, fmt.Sprintf("%s = ANY($%d)", set.column, argIndex))
			args = append(args, set.values)
			argIndex++
		}
	}

	if len(filters.Colors) > 0 {
		conditions = append(conditions, fmt.Sprintf("a.colors && $%d", argIndex))
		args = append(args, filters.Colors)
		argIndex++
	}
	if len(filters.Tags) > 0 {
		conditions = append(conditions, fmt.Sprintf("a.tags && $%d", argIndex))
		args = append(args, filters.Tags)
		argIndex++
	}

	if filters.MinPriceCents != nil {
		conditions = append(conditions, fmt.Sprintf("a.price_cents >= $%d", argIndex))
		args = append(args, *filters.MinPriceCents)
		argIndex++
	}
	if filters.MaxPriceCents != nil {
		conditions = append(conditions, fmt.Sprintf("a.price_cents <= $%d", argIndex))
		args = append(args, *filters.MaxPriceCents)
		argIndex++
	}

	if filters.MinYear != nil {
		conditions = append(conditions, fmt.Sprintf("a.year >= $%d", argIndex))
		args = append(args, *filters.MinYear)
		argIndex++
	}
	if filters.MaxYear != nil {
		conditions = append(conditions, fmt.Sprintf("a.year <= $%d", argIndex))
		args = append(args, *filters.MaxYear)
		argIndex++
	}

	if d := filters.Dimension; d != nil {
		op := ""
		switch d.Op {
		case domain.DimensionMin:
			op = ">="
		case domain.DimensionMax:
			op = "<="
		case domain.DimensionExact:
			conditions = append(conditions, fmt.Sprintf("abs(GREATEST(a.width_cm, a.height_cm) - $%d) <= 1", argIndex))
			args = append(args, d.ValueCm)
			argIndex++
		}
		if op != "" {
			conditions = append(conditions, fmt.Sprintf("GREATEST(a.width_cm, a.height_cm) %s $%d", op, argIndex))
			args = append(args, d.ValueCm)
			argIndex++
		}
	}

	if filters.Availability == domain.AvailabilityInStock {
		conditions = append(conditions, "a.stock_count > 0")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       count(*) OVER() AS total_count
		FROM artworks a
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		artworkColumns, whereClause, orderBy(filters.Sort), argIndex, argIndex+1,
	)

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	args = append(args, perPage, (page-1)*perPage)

	rows, err := g.db.Query(ctx, query, args...)
	if err != nil {
		return gateway.CatalogPage{}, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var (
		items []domain.Artwork
		total int
	)
	for rows.Next() {
		a, err := scanArtwork(rows, &total)
		if err != nil {
			return gateway.CatalogPage{}, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return gateway.CatalogPage{}, fmt.Errorf("iterate catalog rows: %w", err)
	}

	if items == nil {
		items = []domain.Artwork{}
	}
	return gateway.CatalogPage{Items: items, Total: total}, nil
}

// orderBy maps a sort option to a deterministic ORDER BY clause. Relevance
// and unknown sorts fall back to newest-first; the service re-ranks those.
func orderBy(sortOpt string) string {
	switch sortOpt {
	case domain.SortPriceAsc:
		return "a.price_cents ASC, a.id ASC"
	case domain.SortPriceDesc:
		return "a.price_cents DESC, a.id ASC"
	case domain.SortOldest:
		return "a.created_at ASC, a.id ASC"
	case domain.SortPopularity:
		return "(SELECT count(*) FROM artwork_views v WHERE v.artwork_id = a.id) DESC, a.id ASC"
	default:
		return "a.created_at DESC, a.id ASC"
	}
}

// FindSimilarUsers returns users whose purchases overlap the given user's,
// most overlapping first.
func (g *Gateway) FindSimilarUsers(ctx context.Context, userID string, limit int) ([]string, error) {
	query := `
		SELECT o2.user_id
		FROM order_items o1
		JOIN order_items o2 ON o2.artwork_id = o1.artwork_id AND o2.user_id <> o1.user_id
		WHERE o1.user_id = $1
		GROUP BY o2.user_id
		ORDER BY count(*) DESC, o2.user_id ASC
		LIMIT $2`

	rows, err := g.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("find similar users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan similar user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similar users: %w", err)
	}
	return users, nil
}

// CollaborativeCandidates returns artworks the similar users bought or
// viewed that the requesting user has not engaged with, ranked by how many
// of them engaged. Each candidate carries a popularity score normalized
// against the most-engaged candidate in the batch.
func (g *Gateway) CollaborativeCandidates(ctx context.Context, userID string, similarUserIDs []string, limit int) ([]gateway.ScoredArtwork, error) {
	if len(similarUserIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s, pop.engaged
		FROM artworks a
		JOIN (
			SELECT artwork_id, count(DISTINCT user_id) AS engaged
			FROM (
				SELECT artwork_id, user_id FROM order_items WHERE user_id = ANY($2)
				UNION ALL
				SELECT artwork_id, user_id FROM artwork_views WHERE user_id = ANY($2)
			) e
			GROUP BY artwork_id
		) pop ON pop.artwork_id = a.id
		WHERE a.stock_count > 0
		  AND a.id NOT IN (
			SELECT artwork_id FROM order_items WHERE user_id = $1
			UNION
			SELECT artwork_id FROM artwork_views WHERE user_id = $1
		  )
		ORDER BY pop.engaged DESC, a.id ASC
		LIMIT $3`, artworkColumns)

	rows, err := g.db.Query(ctx, query, userID, similarUserIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("collaborative candidates: %w", err)
	}
	defer rows.Close()

	type candidate struct {
		artwork domain.Artwork
		engaged int
	}
	var scanned []candidate
	maxEngaged := 0
	for rows.Next() {
		var engaged int
		a, err := scanArtwork(rows, &engaged)
		if err != nil {
			return nil, err
		}
		if engaged > maxEngaged {
			maxEngaged = engaged
		}
		scanned = append(scanned, candidate{artwork: a, engaged: engaged})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collaborative candidates: %w", err)
	}

	candidates := make([]gateway.ScoredArtwork, 0, len(scanned))
	for _, c := range scanned {
		candidates = append(candidates, gateway.ScoredArtwork{
			Artwork: c.artwork,
			Score:   gateway.PopularityScore(c.engaged, maxEngaged),
		})
	}
	return candidates, nil
}

// TrendingItems ranks in-stock artworks by engagement inside the window. The
// ranking is cached in Redis since it is identical for every caller.
func (g *Gateway) TrendingItems(ctx context.Context, limit, windowDays int) ([]domain.Artwork, error) {
	cacheKey := fmt.Sprintf("trending:%d:%d", windowDays, limit)

	if g.redis != nil {
		cached, err := g.redis.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var items []domain.Artwork
			if unmarshalErr := json.Unmarshal(cached, &items); unmarshalErr == nil {
				return items, nil
			}
			// Corrupt entry: treat as a miss and overwrite below.
		} else if !errors.Is(err, redis.Nil) {
			g.logger.WarnContext(ctx, "trending cache read failed", slog.String("error", err.Error()))
		}
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM artworks a
		JOIN (
			SELECT artwork_id, count(*) AS engagement
			FROM (
				SELECT artwork_id, viewed_at AS happened_at FROM artwork_views
				UNION ALL
				SELECT artwork_id, purchased_at FROM order_items
			) e
			WHERE e.happened_at > now() - make_interval(days => $1)
			GROUP BY artwork_id
		) t ON t.artwork_id = a.id
		WHERE a.stock_count > 0
		ORDER BY t.engagement DESC, a.id ASC
		LIMIT $2`, artworkColumns)

	rows, err := g.db.Query(ctx, query, windowDays, limit)
	if err != nil {
		return nil, fmt.Errorf("query trending: %w", err)
	}
	defer rows.Close()

	var items []domain.Artwork
	for rows.Next() {
		a, err := scanArtwork(rows, nil)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trending rows: %w", err)
	}

	if g.redis != nil {
		if payload, err := json.Marshal(items); err == nil {
			if err := g.redis.Set(ctx, cacheKey, payload, trendingCacheTTL).Err(); err != nil {
				g.logger.WarnContext(ctx, "trending cache write failed", slog.String("error", err.Error()))
			}
		}
	}
	return items, nil
}

// SimilarItems asks the similarity service for neighbors of the seed set and
// loads them from the catalog. When the service is unavailable it falls back
// to a style and category affinity query.
func (g *Gateway) SimilarItems(ctx context.Context, seedIDs []string, limit int) ([]domain.Artwork, error) {
	if len(seedIDs) == 0 {
		return nil, nil
	}

	if g.similarity != nil {
		ids, err := g.similarity.SimilarIDs(ctx, seedIDs, limit)
		if err == nil && len(ids) > 0 {
			return g.artworksByIDs(ctx, ids)
		}
		if err != nil {
			g.logger.WarnContext(ctx, "similarity service unavailable, using affinity fallback",
				slog.String("error", err.Error()))
		}
	}

	query := fmt.Sprintf(`
		WITH seed AS (
			SELECT array_agg(DISTINCT style) AS styles,
			       array_agg(DISTINCT category) AS categories
			FROM artworks
			WHERE id = ANY($1)
		)
		SELECT %s
		FROM artworks a, seed s
		WHERE a.id <> ALL($1)
		  AND a.stock_count > 0
		  AND (a.style = ANY(s.styles) OR a.category = ANY(s.categories))
		ORDER BY (a.style = ANY(s.styles))::int * 3 + (a.category = ANY(s.categories))::int * 2 DESC,
		         a.created_at DESC, a.id ASC
		LIMIT $2`, artworkColumns)

	rows, err := g.db.Query(ctx, query, seedIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("query similar artworks: %w", err)
	}
	defer rows.Close()

	var items []domain.Artwork
	for rows.Next() {
		a, err := scanArtwork(rows, nil)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similar rows: %w", err)
	}
	return items, nil
}

// artworksByIDs loads artworks preserving the order of the given IDs.
func (g *Gateway) artworksByIDs(ctx context.Context, ids []string) ([]domain.Artwork, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM artworks a
		WHERE a.id = ANY($1)`, artworkColumns)

	rows, err := g.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("load artworks by id: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Artwork, len(ids))
	for rows.Next() {
		a, err := scanArtwork(rows, nil)
		if err != nil {
			return nil, err
		}
		byID[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artworks by id: %w", err)
	}

	ordered := make([]domain.Artwork, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
		}
	}
	return ordered, nil
}

// BrowsingHistory returns the user's most recent views with the artwork
// attributes the profile builder needs, newest first.
func (g *Gateway) BrowsingHistory(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	query := `
		SELECT v.artwork_id, a.category, a.style, a.medium, a.colors, a.price_cents,
		       v.time_spent_seconds, v.viewed_at
		FROM artwork_views v
		JOIN artworks a ON a.id = v.artwork_id
		WHERE v.user_id = $1
		ORDER BY v.viewed_at DESC
		LIMIT $2`

	rows, err := g.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query browsing history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(
			&e.ArtworkID,
			&e.Category,
			&e.Style,
			&e.Medium,
			&e.Colors,
			&e.PriceCents,
			&e.TimeSpentSeconds,
			&e.ViewedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}

// PurchaseHistory returns every completed order line for the user.
func (g *Gateway) PurchaseHistory(ctx context.Context, userID string) ([]domain.PurchaseEntry, error) {
	query := `
		SELECT o.artwork_id, a.category, a.style, a.medium, a.colors, a.price_cents,
		       o.quantity, o.purchased_at
		FROM order_items o
		JOIN artworks a ON a.id = o.artwork_id
		WHERE o.user_id = $1
		ORDER BY o.purchased_at DESC`

	rows, err := g.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query purchase history: %w", err)
	}
	defer rows.Close()

	var entries []domain.PurchaseEntry
	for rows.Next() {
		var e domain.PurchaseEntry
		if err := rows.Scan(
			&e.ArtworkID,
			&e.Category,
			&e.Style,
			&e.Medium,
			&e.Colors,
			&e.PriceCents,
			&e.Quantity,
			&e.PurchasedAt,
		); err != nil {
			return nil, fmt.Errorf("scan purchase row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase rows: %w", err)
	}
	return entries, nil
}

// FollowedArtists returns the artists the user follows.
func (g *Gateway) FollowedArtists(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT artist_id FROM artist_follows WHERE user_id = $1 ORDER BY followed_at DESC`

	rows, err := g.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query followed artists: %w", err)
	}
	defer rows.Close()

	var artists []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan followed artist: %w", err)
		}
		artists = append(artists, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate followed artists: %w", err)
	}
	return artists, nil
}

// Upsert inserts or replaces an artwork row.
func (g *Gateway) Upsert(ctx context.Context, a domain.Artwork) error {
	query := `
		INSERT INTO artworks (id, title, slug, description, price_cents, currency, category, style,
		                      medium, colors, tags, artist_id, year, width_cm, height_cm, stock_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			slug = EXCLUDED.slug,
			description = EXCLUDED.description,
			price_cents = EXCLUDED.price_cents,
			currency = EXCLUDED.currency,
			category = EXCLUDED.category,
			style = EXCLUDED.style,
			medium = EXCLUDED.medium,
			colors = EXCLUDED.colors,
			tags = EXCLUDED.tags,
			artist_id = EXCLUDED.artist_id,
			year = EXCLUDED.year,
			width_cm = EXCLUDED.width_cm,
			height_cm = EXCLUDED.height_cm,
			stock_count = EXCLUDED.stock_count`

	_, err := g.db.Exec(ctx, query,
		a.ID,
		a.Title,
		a.Slug,
		a.Description,
		a.PriceCents,
		a.Currency,
		a.Category,
		a.Style,
		a.Medium,
		a.Colors,
		a.Tags,
		a.ArtistID,
		a.Year,
		a.WidthCm,
		a.HeightCm,
		a.StockCount,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert artwork: %w", err)
	}
	return nil
}

// Remove deletes an artwork row.
func (g *Gateway) Remove(ctx context.Context, artworkID string) error {
	if _, err := g.db.Exec(ctx, `DELETE FROM artworks WHERE id = $1`, artworkID); err != nil {
		return fmt.Errorf("delete artwork: %w", err)
	}
	return nil
}

// scanArtwork reads one artwork row. When extra is non-nil the row is
// expected to end with one additional integer column (a count(*) OVER()
// total or an engagement count).
func scanArtwork(rows pgx.Rows, extra *int) (domain.Artwork, error) {
	var a domain.Artwork
	dest := []any{
		&a.ID,
		&a.Title,
		&a.Slug,
		&a.Description,
		&a.PriceCents,
		&a.Currency,
		&a.Category,
		&a.Style,
		&a.Medium,
		&a.Colors,
		&a.Tags,
		&a.ArtistID,
		&a.Year,
		&a.WidthCm,
		&a.HeightCm,
		&a.StockCount,
		&a.CreatedAt,
	}
	if extra != nil {
		dest = append(dest, extra)
	}
	if err := rows.Scan(dest...); err != nil {
		return domain.Artwork{}, fmt.Errorf("scan artwork row: %w", err)
	}
	return a, nil
}

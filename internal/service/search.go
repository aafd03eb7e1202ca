// Package service holds the discovery business logic: search over the
// catalog and personalized recommendations.
package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/nkosimano/ChartedArt-sub001/internal/cache"
	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
	"github.com/nkosimano/ChartedArt-sub001/internal/gateway"
	"github.com/nkosimano/ChartedArt-sub001/internal/query"
	"github.com/nkosimano/ChartedArt-sub001/internal/scoring"
	apperrors "github.com/nkosimano/ChartedArt-sub001/pkg/errors"
)

// gatewayTimeout bounds a single data store call so a slow backend degrades
// into an error instead of an unbounded wait.
const gatewayTimeout = 3 * time.Second

// SearchService interprets free-text queries, runs them against the gateway,
// and ranks the results.
type SearchService struct {
	gw     gateway.Gateway
	cache  *cache.SessionCache
	logger *slog.Logger
	now    func() time.Time

	// generations implements last-request-wins per caller: a search started
	// before a newer one from the same caller finishes is discarded with
	// ErrSuperseded. Searches from different callers never interfere.
	generations *generationTable
}

// NewSearchService creates the search service.
func NewSearchService(gw gateway.Gateway, sessionCache *cache.SessionCache, logger *slog.Logger) *SearchService {
	return &SearchService{
		gw:          gw,
		cache:       sessionCache,
		logger:      logger,
		now:         time.Now,
		generations: newGenerationTable(),
	}
}

// Search runs one catalog search. Free text in filters.Query is interpreted
// into structured hints first; explicit filters always win over hints.
// callerID scopes last-request-wins; empty means anonymous and exempt.
func (s *SearchService) Search(ctx context.Context, callerID string, filters domain.SearchFilters, page, perPage int) (domain.SearchPage, error) {
	if filters.Sort != "" && !domain.IsValidSort(filters.Sort) {
		return domain.SearchPage{}, apperrors.InvalidInput("unknown sort option: " + filters.Sort)
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	merged := query.Interpret(filters.Query).ApplyTo(filters)

	key := cache.Key(merged, page, perPage)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	var gen uint64
	if callerID != "" {
		gen = s.generations.begin(callerID)
	}
	start := s.now()

	gwCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	catalogPage, err := s.gw.QueryCatalog(gwCtx, merged, page, perPage)
	if err != nil {
		s.logger.ErrorContext(ctx, "catalog query failed", slog.String("error", err.Error()))
		return domain.SearchPage{}, apperrors.Unavailable("search is temporarily unavailable", err)
	}

	if callerID != "" && s.generations.superseded(callerID, gen) {
		return domain.SearchPage{}, apperrors.ErrSuperseded
	}

	scoredAt := s.now()
	results := make([]domain.SearchResult, 0, len(catalogPage.Items))
	for _, item := range catalogPage.Items {
		results = append(results, domain.SearchResult{
			Artwork:        item,
			RelevanceScore: scoring.Score(item, merged, scoredAt),
			MatchReasons:   scoring.Reasons(item, merged),
		})
	}

	// The store sorts every mode except relevance, which is ours.
	if merged.Sort == "" || merged.Sort == domain.SortRelevance {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].RelevanceScore > results[j].RelevanceScore
		})
	}

	searchPage := domain.SearchPage{
		Results: results,
		Total:   catalogPage.Total,
		Page:    page,
		PerPage: perPage,
		TookMs:  s.now().Sub(start).Milliseconds(),
	}

	s.cache.Put(key, searchPage)
	return searchPage, nil
}

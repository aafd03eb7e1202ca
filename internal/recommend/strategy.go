// Package recommend holds the recommendation strategies and the blender that
// merges their output. Strategies degrade to an empty list when their data
// dependency is missing or the gateway fails; the blender compensates with
// whatever the other strategies returned.
package recommend

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
	"github.com/nkosimano/ChartedArt-sub001/internal/gateway"
)

// Input carries the per-request personalization data shared by every
// strategy. UserID is empty for anonymous callers.
type Input struct {
	UserID      string
	Profile     domain.PreferenceProfile
	RecentViews []domain.HistoryEntry
}

// Strategy generates scored suggestions for one recommendation angle.
// Implementations never return an error: a failed or inapplicable strategy
// yields an empty list.
type Strategy interface {
	Name() string
	Generate(ctx context.Context, in Input, limit int) []domain.Recommendation
}

// Fixed per-strategy scores, used when the gateway does not supply its own.
const (
	collaborativeScore    = 0.7
	similarScore          = 0.65
	trendingScore         = 0.6
	trendingFallbackScore = 0.5
)

const trendingWindowDays = 30

// recentViewSeedCount bounds how many recent views seed the similarity
// strategy.
const recentViewSeedCount = 5

// Collaborative suggests artworks that users with overlapping purchase
// patterns engaged with.
type Collaborative struct {
	gw  gateway.Gateway
	log *slog.Logger
}

func NewCollaborative(gw gateway.Gateway, log *slog.Logger) *Collaborative {
	return &Collaborative{gw: gw, log: log}
}

func (s *Collaborative) Name() string { return domain.StrategyCollaborative }

func (s *Collaborative) Generate(ctx context.Context, in Input, limit int) []domain.Recommendation {
	if in.UserID == "" {
		return nil
	}

	similarUsers, err := s.gw.FindSimilarUsers(ctx, in.UserID, limit)
	if err != nil {
		s.log.WarnContext(ctx, "similar user lookup failed", slog.String("error", err.Error()))
		return nil
	}
	if len(similarUsers) == 0 {
		return nil
	}

	candidates, err := s.gw.CollaborativeCandidates(ctx, in.UserID, similarUsers, limit)
	if err != nil {
		s.log.WarnContext(ctx, "collaborative candidate lookup failed", slog.String("error", err.Error()))
		return nil
	}

	recs := make([]domain.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		score := collaborativeScore
		if c.Score != nil {
			score = *c.Score
		}
		recs = append(recs, domain.Recommendation{
			Artwork:  c.Artwork,
			Score:    score,
			Reason:   "Users with similar taste also liked this",
			Strategy: domain.StrategyCollaborative,
		})
	}
	return recs
}

// ContentBased queries the catalog by the preference profile and ranks
// candidates by how closely they align with it.
type ContentBased struct {
	gw  gateway.Gateway
	log *slog.Logger
}

func NewContentBased(gw gateway.Gateway, log *slog.Logger) *ContentBased {
	return &ContentBased{gw: gw, log: log}
}

func (s *ContentBased) Name() string { return domain.StrategyContent }

func (s *ContentBased) Generate(ctx context.Context, in Input, limit int) []domain.Recommendation {
	if in.Profile.Empty() {
		return nil
	}

	minPrice := in.Profile.MinPriceCents
	maxPrice := in.Profile.MaxPriceCents
	filters := domain.SearchFilters{
		Categories:    in.Profile.Categories,
		Styles:        in.Profile.Styles,
		Mediums:       in.Profile.Mediums,
		ArtistIDs:     in.Profile.FollowedArtists,
		MinPriceCents: &minPrice,
		MaxPriceCents: &maxPrice,
		Availability:  domain.AvailabilityInStock,
	}

	// Over-fetch so alignment ranking has candidates to discard.
	page, err := s.gw.QueryCatalog(ctx, filters, 1, limit*2)
	if err != nil {
		s.log.WarnContext(ctx, "content-based catalog query failed", slog.String("error", err.Error()))
		return nil
	}

	recs := make([]domain.Recommendation, 0, len(page.Items))
	for _, item := range page.Items {
		recs = append(recs, domain.Recommendation{
			Artwork:  item,
			Score:    alignment(item, in.Profile),
			Reason:   "Matches your preferences",
			Strategy: domain.StrategyContent,
		})
	}

	sortByScore(recs)
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// alignment scores how closely an artwork matches a preference profile.
func alignment(item domain.Artwork, profile domain.PreferenceProfile) float64 {
	score := 0.5

	if containsFold(profile.Categories, item.Category) {
		score += 0.2
	}
	if containsFold(profile.Styles, item.Style) {
		score += 0.15
	}
	if containsFold(profile.Mediums, item.Medium) {
		score += 0.1
	}
	if len(profile.Colors) > 0 && len(item.Colors) > 0 {
		overlap := 0
		for _, c := range item.Colors {
			if containsFold(profile.Colors, c) {
				overlap++
			}
		}
		score += 0.1 * float64(overlap) / float64(len(item.Colors))
	}
	if containsFold(profile.FollowedArtists, item.ArtistID) {
		score += 0.3
	}
	if item.PriceCents >= profile.MinPriceCents && item.PriceCents <= profile.MaxPriceCents {
		score += 0.05
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Trending surfaces the most-engaged artworks of the trailing month, falling
// back to the newest in-stock pieces when the popularity ranking is
// unavailable.
type Trending struct {
	gw  gateway.Gateway
	log *slog.Logger
}

func NewTrending(gw gateway.Gateway, log *slog.Logger) *Trending {
	return &Trending{gw: gw, log: log}
}

func (s *Trending) Name() string { return domain.StrategyTrending }

func (s *Trending) Generate(ctx context.Context, in Input, limit int) []domain.Recommendation {
	items, err := s.gw.TrendingItems(ctx, limit, trendingWindowDays)
	if err == nil {
		recs := make([]domain.Recommendation, 0, len(items))
		for _, item := range items {
			recs = append(recs, domain.Recommendation{
				Artwork:  item,
				Score:    trendingScore,
				Reason:   "Trending with other collectors",
				Strategy: domain.StrategyTrending,
			})
		}
		return recs
	}

	s.log.WarnContext(ctx, "trending lookup failed, falling back to newest",
		slog.String("error", err.Error()))

	page, err := s.gw.QueryCatalog(ctx, domain.SearchFilters{
		Sort:         domain.SortNewest,
		Availability: domain.AvailabilityInStock,
	}, 1, limit)
	if err != nil {
		s.log.WarnContext(ctx, "newest fallback failed", slog.String("error", err.Error()))
		return nil
	}

	recs := make([]domain.Recommendation, 0, len(page.Items))
	for _, item := range page.Items {
		recs = append(recs, domain.Recommendation{
			Artwork:  item,
			Score:    trendingFallbackScore,
			Reason:   "Recently added",
			Strategy: domain.StrategyTrending,
		})
	}
	return recs
}

// SimilarToRecent suggests artworks similar to the user's most recent views.
type SimilarToRecent struct {
	gw  gateway.Gateway
	log *slog.Logger
}

func NewSimilarToRecent(gw gateway.Gateway, log *slog.Logger) *SimilarToRecent {
	return &SimilarToRecent{gw: gw, log: log}
}

func (s *SimilarToRecent) Name() string { return domain.StrategySimilar }

func (s *SimilarToRecent) Generate(ctx context.Context, in Input, limit int) []domain.Recommendation {
	if len(in.RecentViews) == 0 {
		return nil
	}

	seeds := make([]string, 0, recentViewSeedCount)
	for _, v := range in.RecentViews {
		seeds = append(seeds, v.ArtworkID)
		if len(seeds) == recentViewSeedCount {
			break
		}
	}

	items, err := s.gw.SimilarItems(ctx, seeds, limit)
	if err != nil {
		s.log.WarnContext(ctx, "similar item lookup failed", slog.String("error", err.Error()))
		return nil
	}

	recs := make([]domain.Recommendation, 0, len(items))
	for _, item := range items {
		recs = append(recs, domain.Recommendation{
			Artwork:  item,
			Score:    similarScore,
			Reason:   "Similar to pieces you viewed recently",
			Strategy: domain.StrategySimilar,
		})
	}
	return recs
}

func sortByScore(recs []domain.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
}

func containsFold(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}

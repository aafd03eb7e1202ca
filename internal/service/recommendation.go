package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
	"github.com/nkosimano/ChartedArt-sub001/internal/gateway"
	"github.com/nkosimano/ChartedArt-sub001/internal/preference"
	"github.com/nkosimano/ChartedArt-sub001/internal/recommend"
	apperrors "github.com/nkosimano/ChartedArt-sub001/pkg/errors"
)

// Target share of the limit requested from each strategy. The blender works
// with whatever each strategy actually returns.
var strategyQuotas = []struct {
	strategy string
	percent  int
}{
	{domain.StrategyCollaborative, 40},
	{domain.StrategyContent, 30},
	{domain.StrategyTrending, 20},
	{domain.StrategySimilar, 10},
}

const browsingHistoryLimit = 50

// RecommendationService builds preference profiles and fans out to the
// recommendation strategies.
type RecommendationService struct {
	gw         gateway.Gateway
	strategies map[string]recommend.Strategy
	logger     *slog.Logger

	// generations implements last-request-wins per caller; anonymous
	// requests are exempt.
	generations *generationTable
}

// NewRecommendationService wires the four standard strategies against the
// gateway.
func NewRecommendationService(gw gateway.Gateway, logger *slog.Logger) *RecommendationService {
	return &RecommendationService{
		gw: gw,
		strategies: map[string]recommend.Strategy{
			domain.StrategyCollaborative: recommend.NewCollaborative(gw, logger),
			domain.StrategyContent:       recommend.NewContentBased(gw, logger),
			domain.StrategyTrending:      recommend.NewTrending(gw, logger),
			domain.StrategySimilar:       recommend.NewSimilarToRecent(gw, logger),
		},
		logger:      logger,
		generations: newGenerationTable(),
	}
}

// Recommend produces a blended, diversified recommendation list. UserID may
// be empty: anonymous callers get mostly trending results because the
// personalized strategies yield nothing for them.
func (s *RecommendationService) Recommend(ctx context.Context, userID string, limit int) ([]domain.Recommendation, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var gen uint64
	if userID != "" {
		gen = s.generations.begin(userID)
	}

	in := s.personalizationInput(ctx, userID)

	lists := make([][]domain.Recommendation, len(strategyQuotas))
	var wg sync.WaitGroup
	for i, q := range strategyQuotas {
		quota := limit * q.percent / 100
		if quota < 1 {
			quota = 1
		}

		wg.Add(1)
		go func(i int, name string, quota int) {
			defer wg.Done()

			strategyCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
			defer cancel()

			lists[i] = s.strategies[name].Generate(strategyCtx, in, quota)
		}(i, q.strategy, quota)
	}
	wg.Wait()

	if userID != "" && s.generations.superseded(userID, gen) {
		return nil, apperrors.ErrSuperseded
	}

	return recommend.Blend(lists, limit), nil
}

// personalizationInput loads the user's history and derives the preference
// profile. Gateway failures degrade to an empty signal of that kind.
func (s *RecommendationService) personalizationInput(ctx context.Context, userID string) recommend.Input {
	if userID == "" {
		return recommend.Input{}
	}

	gwCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	views, err := s.gw.BrowsingHistory(gwCtx, userID, browsingHistoryLimit)
	if err != nil {
		s.logger.WarnContext(ctx, "browsing history unavailable", slog.String("error", err.Error()))
	}
	purchases, err := s.gw.PurchaseHistory(gwCtx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "purchase history unavailable", slog.String("error", err.Error()))
	}
	follows, err := s.gw.FollowedArtists(gwCtx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "followed artists unavailable", slog.String("error", err.Error()))
	}

	profile := preference.Build(views, purchases)
	profile.FollowedArtists = follows

	return recommend.Input{
		UserID:      userID,
		Profile:     profile,
		RecentViews: views,
	}
}

// Profile returns the derived preference profile for a user.
func (s *RecommendationService) Profile(ctx context.Context, userID string) (domain.PreferenceProfile, error) {
	if userID == "" {
		return domain.PreferenceProfile{}, apperrors.Unauthorized("a user identity is required for the preference profile")
	}
	return s.personalizationInput(ctx, userID).Profile, nil
}

// SimilarTo returns artworks similar to one seed artwork.
func (s *RecommendationService) SimilarTo(ctx context.Context, artworkID string, limit int) ([]domain.Recommendation, error) {
	if limit < 1 || limit > 100 {
		limit = 12
	}

	gwCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	items, err := s.gw.SimilarItems(gwCtx, []string{artworkID}, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "similar item lookup failed", slog.String("error", err.Error()))
		return nil, apperrors.Unavailable("similar artworks are temporarily unavailable", err)
	}

	recs := make([]domain.Recommendation, 0, len(items))
	for _, item := range items {
		recs = append(recs, domain.Recommendation{
			Artwork:  item,
			Score:    0.65,
			Reason:   "Similar to this piece",
			Strategy: domain.StrategySimilar,
		})
	}
	return recs, nil
}

// Trending returns the current trending list, using the strategy so its
// newest-items fallback applies here too.
func (s *RecommendationService) Trending(ctx context.Context, limit int) ([]domain.Recommendation, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	strategyCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	return s.strategies[domain.StrategyTrending].Generate(strategyCtx, recommend.Input{}, limit), nil
}

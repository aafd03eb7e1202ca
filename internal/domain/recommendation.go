package domain

// Recommendation strategies.
const (
	StrategyCollaborative = "collaborative"
	StrategyContent       = "content"
	StrategyTrending      = "trending"
	StrategySimilar       = "similar"
	StrategyPersonalized  = "personalized"
)

// Recommendation is a scored artwork suggestion produced by one strategy.
type Recommendation struct {
	Artwork  Artwork `json:"artwork"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
	Strategy string  `json:"strategy"`
}

// PreferenceProfile is a derived, per-user taste summary. It is rebuilt from
// raw history at the start of each recommendation request and discarded
// afterwards.
type PreferenceProfile struct {
	Categories      []string `json:"categories"`
	Styles          []string `json:"styles"`
	Mediums         []string `json:"mediums"`
	Colors          []string `json:"colors"`
	MinPriceCents   int64    `json:"min_price_cents"`
	MaxPriceCents   int64    `json:"max_price_cents"`
	FollowedArtists []string `json:"followed_artists"`
}

// Empty reports whether the profile carries no taste signal at all.
func (p PreferenceProfile) Empty() bool {
	return len(p.Categories) == 0 && len(p.Styles) == 0 && len(p.Mediums) == 0 &&
		len(p.Colors) == 0 && len(p.FollowedArtists) == 0
}

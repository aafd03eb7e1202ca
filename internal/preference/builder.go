// Package preference derives a taste profile from a user's browsing and
// purchase history. The profile drives the content-based recommendation
// strategy and the profile endpoint.
package preference

import (
	"math"
	"sort"

	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
)

// History weighting. A view's weight grows with time spent, capped so a
// single long session cannot dominate; a purchase always outweighs any view.
const (
	viewWeightDivisorSeconds = 30
	viewWeightCap            = 3
	viewWeightFloor          = 0.5
	purchaseWeightPerUnit    = 5

	topCategoryCount = 5
	topStyleCount    = 5
	topMediumCount   = 5
	topColorCount    = 8
)

// Default price range in cents when no price points were observed.
const (
	defaultMinPriceCents int64 = 0
	defaultMaxPriceCents int64 = 1_000_000
)

// Build derives a preference profile from history. Followed artists are not
// part of history; the caller sets them on the returned profile.
func Build(views []domain.HistoryEntry, purchases []domain.PurchaseEntry) domain.PreferenceProfile {
	categories := counter{}
	styles := counter{}
	mediums := counter{}
	colors := counter{}
	var prices []int64

	for _, v := range views {
		weight := math.Min(v.TimeSpentSeconds/viewWeightDivisorSeconds, viewWeightCap)
		weight = math.Max(weight, viewWeightFloor)
		accumulate(categories, styles, mediums, colors, v.Category, v.Style, v.Medium, v.Colors, weight)
		prices = append(prices, v.PriceCents)
	}

	for _, p := range purchases {
		weight := float64(p.Quantity) * purchaseWeightPerUnit
		accumulate(categories, styles, mediums, colors, p.Category, p.Style, p.Medium, p.Colors, weight)
		prices = append(prices, p.PriceCents)
	}

	minPrice, maxPrice := priceRange(prices)

	return domain.PreferenceProfile{
		Categories:    categories.top(topCategoryCount),
		Styles:        styles.top(topStyleCount),
		Mediums:       mediums.top(topMediumCount),
		Colors:        colors.top(topColorCount),
		MinPriceCents: minPrice,
		MaxPriceCents: maxPrice,
	}
}

func accumulate(categories, styles, mediums, colors counter, category, style, medium string, itemColors []string, weight float64) {
	categories.add(category, weight)
	styles.add(style, weight)
	mediums.add(medium, weight)
	for _, c := range itemColors {
		colors.add(c, weight)
	}
}

// priceRange narrows the observed prices to an interquartile band widened by
// half the IQR on each side, floored at zero.
func priceRange(prices []int64) (int64, int64) {
	if len(prices) == 0 {
		return defaultMinPriceCents, defaultMaxPriceCents
	}

	sorted := make([]int64, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	q25 := sorted[n*25/100]
	q75 := sorted[n*75/100]
	iqr := q75 - q25

	low := q25 - iqr/2
	if low < 0 {
		low = 0
	}
	return low, q75 + iqr/2
}

// counter accumulates fractional weights per key.
type counter map[string]float64

func (c counter) add(key string, weight float64) {
	if key == "" {
		return
	}
	c[key] += weight
}

// top returns up to n keys by descending weight. Ties break alphabetically so
// the output is stable.
func (c counter) top(n int) []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c[keys[i]] != c[keys[j]] {
			return c[keys[i]] > c[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

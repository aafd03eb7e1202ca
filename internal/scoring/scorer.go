// Package scoring ranks catalog items against search filters. Scores are
// deterministic for identical inputs and a fixed clock.
package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
)

// Score bonuses over the base. Each match adds its bonus; the total clamps
// at 1.0, so an exact title match dominates on its own.
const (
	baseScore          = 0.5
	exactTitleBonus    = 1.0
	titleMatchBonus    = 0.7
	descMatchBonus     = 0.3
	tagMatchBonus      = 0.4
	categoryMatchBonus = 0.2
	styleMatchBonus    = 0.2
	recencyBonus       = 0.1

	recencyWindow = 30 * 24 * time.Hour
)

// Score returns a relevance score in [0,1] for the item under the given
// filters. The now argument pins the recency bonus so callers and tests
// control time.
func Score(item domain.Artwork, filters domain.SearchFilters, now time.Time) float64 {
	score := baseScore

	query := strings.ToLower(strings.TrimSpace(filters.Query))
	title := strings.ToLower(item.Title)

	if query != "" {
		switch {
		case title == query:
			score += exactTitleBonus
		case strings.Contains(title, query):
			score += titleMatchBonus
		}
		if strings.Contains(strings.ToLower(item.Description), query) {
			score += descMatchBonus
		}
		if tagMatches(item.Tags, query) {
			score += tagMatchBonus
		}
	}

	if containsFold(filters.Categories, item.Category) {
		score += categoryMatchBonus
	}
	if containsFold(filters.Styles, item.Style) {
		score += styleMatchBonus
	}
	if now.Sub(item.CreatedAt) < recencyWindow {
		score += recencyBonus
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Reasons explains a score as human-readable clauses, in the same order the
// bonuses are checked: title, description, tag, category, style, color.
func Reasons(item domain.Artwork, filters domain.SearchFilters) []string {
	var reasons []string

	query := strings.ToLower(strings.TrimSpace(filters.Query))
	if query != "" {
		if strings.Contains(strings.ToLower(item.Title), query) {
			reasons = append(reasons, "Title matches your search")
		}
		if strings.Contains(strings.ToLower(item.Description), query) {
			reasons = append(reasons, "Description matches your search")
		}
		if tagMatches(item.Tags, query) {
			reasons = append(reasons, "Tagged with your search terms")
		}
	}

	if containsFold(filters.Categories, item.Category) {
		reasons = append(reasons, fmt.Sprintf("%s category", item.Category))
	}
	if containsFold(filters.Styles, item.Style) {
		reasons = append(reasons, fmt.Sprintf("%s style", item.Style))
	}

	if overlap := colorOverlap(item.Colors, filters.Colors); len(overlap) > 0 {
		reasons = append(reasons, fmt.Sprintf("contains %s colors", strings.Join(overlap, ", ")))
	}

	return reasons
}

func tagMatches(tags []string, query string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func containsFold(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}

// colorOverlap returns the item colors present in the requested set, in item
// order.
func colorOverlap(itemColors, wanted []string) []string {
	if len(wanted) == 0 {
		return nil
	}
	var overlap []string
	for _, c := range itemColors {
		if containsFold(wanted, c) {
			overlap = append(overlap, c)
		}
	}
	return overlap
}

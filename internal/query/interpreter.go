// Package query extracts structured filter hints from free-text search input.
// Interpretation is best effort: text with no recognizable pattern yields no
// hints, and the raw text still participates in the catalog's text match.
package query

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
)

// Hints are the structured filters inferred from free text. Every field is
// optional and independently present.
type Hints struct {
	Categories    []string
	Styles        []string
	Mediums       []string
	Colors        []string
	MinPriceCents *int64
	MaxPriceCents *int64
	MinYear       *int
	MaxYear       *int
	Dimension     *domain.DimensionFilter
}

// Empty reports whether no hint was extracted.
func (h Hints) Empty() bool {
	return len(h.Categories) == 0 && len(h.Styles) == 0 && len(h.Mediums) == 0 &&
		len(h.Colors) == 0 && h.MinPriceCents == nil && h.MaxPriceCents == nil &&
		h.MinYear == nil && h.MaxYear == nil && h.Dimension == nil
}

// ApplyTo merges the hints into a copy of the given filters. Explicit filters
// win: a hint only fills a dimension the caller left empty. The input is
// never mutated.
func (h Hints) ApplyTo(f domain.SearchFilters) domain.SearchFilters {
	merged := f

	if len(merged.Categories) == 0 {
		merged.Categories = h.Categories
	}
	if len(merged.Styles) == 0 {
		merged.Styles = h.Styles
	}
	if len(merged.Mediums) == 0 {
		merged.Mediums = h.Mediums
	}
	if len(merged.Colors) == 0 {
		merged.Colors = h.Colors
	}
	if merged.MinPriceCents == nil && merged.MaxPriceCents == nil {
		merged.MinPriceCents = h.MinPriceCents
		merged.MaxPriceCents = h.MaxPriceCents
	}
	if merged.MinYear == nil && merged.MaxYear == nil {
		merged.MinYear = h.MinYear
		merged.MaxYear = h.MaxYear
	}
	if merged.Dimension == nil {
		merged.Dimension = h.Dimension
	}

	return merged
}

// Fixed vocabularies matched by substring against the lower-cased input.
var (
	colorVocabulary = []string{
		"red", "blue", "green", "yellow", "orange", "purple", "pink",
		"black", "white", "brown", "gray", "gold", "silver",
	}

	styleVocabulary = []string{
		"abstract", "realism", "impressionism", "expressionism", "minimalism",
		"surrealism", "pop art", "cubism", "contemporary", "vintage",
	}

	mediumVocabulary = []string{
		"oil", "acrylic", "watercolor", "charcoal", "ink", "pastel",
		"digital", "photography", "mixed media",
	}

	categoryVocabulary = []string{
		"painting", "drawing", "print", "photography", "sculpture",
		"digital", "collage", "textile",
	}
)

// Price patterns. Amounts are whole currency units in the text; hints carry
// minor units (cents).
var (
	priceUnderRe   = regexp.MustCompile(`(?:under|below|less than)\s*\$?(\d+)`)
	priceOverRe    = regexp.MustCompile(`(?:over|above|more than)\s*\$?(\d+)`)
	priceBetweenRe = regexp.MustCompile(`\$(\d+)\s*(?:-|to)\s*\$?(\d+)`)
)

// Year patterns.
var (
	yearSinceRe   = regexp.MustCompile(`(?:from|since|after)\s+(?:the\s+)?(\d{4})`)
	yearBeforeRe  = regexp.MustCompile(`(?:before|until)\s+(\d{4})`)
	yearBetweenRe = regexp.MustCompile(`(\d{4})\s*(?:-|to)\s*(\d{4})`)
	yearDecadeRe  = regexp.MustCompile(`(\d{4})s`)
)

const earliestYear = 1800

// Size keywords. The first matching hint wins; large is checked first.
var (
	largeKeywords = []string{"large", "big", "huge"}
	smallKeywords = []string{"small", "tiny", "miniature"}
)

const (
	largeMinCm = 30
	smallMaxCm = 12
)

// Interpret parses free text into structured filter hints. It never fails;
// unrecognized text yields empty hints. Calling it twice on identical input
// yields identical output.
func Interpret(text string) Hints {
	return InterpretAt(text, time.Now().Year())
}

// InterpretAt is Interpret with an injected current year, for open-ended
// "since YYYY" ranges. Tests use it to pin time.
func InterpretAt(text string, currentYear int) Hints {
	var h Hints

	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return h
	}

	h.MinPriceCents, h.MaxPriceCents = extractPrice(lower)
	h.Colors = matchVocabulary(lower, colorVocabulary)
	h.Styles = matchVocabulary(lower, styleVocabulary)
	h.Mediums = matchVocabulary(lower, mediumVocabulary)
	h.Categories = matchVocabulary(lower, categoryVocabulary)
	h.MinYear, h.MaxYear = extractYears(lower, currentYear)
	h.Dimension = extractSize(lower)

	return h
}

// extractPrice applies the price patterns in order; the first match wins.
func extractPrice(lower string) (minCents, maxCents *int64) {
	if m := priceUnderRe.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return int64Ptr(0), int64Ptr(v * 100)
		}
	}
	if m := priceOverRe.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return int64Ptr(v * 100), nil
		}
	}
	if m := priceBetweenRe.FindStringSubmatch(lower); m != nil {
		lo, err1 := strconv.ParseInt(m[1], 10, 64)
		hi, err2 := strconv.ParseInt(m[2], 10, 64)
		if err1 == nil && err2 == nil {
			return int64Ptr(lo * 100), int64Ptr(hi * 100)
		}
	}
	return nil, nil
}

// matchVocabulary collects every vocabulary word present in the input.
func matchVocabulary(lower string, vocabulary []string) []string {
	var matches []string
	for _, word := range vocabulary {
		if strings.Contains(lower, word) {
			matches = append(matches, word)
		}
	}
	return matches
}

// extractYears applies the year patterns in order; the first match wins.
// Decades ("1990s") are checked after explicit ranges so "1990-1995" is not
// misread.
func extractYears(lower string, currentYear int) (minYear, maxYear *int) {
	if m := yearSinceRe.FindStringSubmatch(lower); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			// "from the 1990s" is a decade, not an open-ended range.
			if strings.Contains(lower, m[1]+"s") {
				return intPtr(y), intPtr(y + 9)
			}
			return intPtr(y), intPtr(currentYear)
		}
	}
	if m := yearBeforeRe.FindStringSubmatch(lower); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			return intPtr(earliestYear), intPtr(y)
		}
	}
	if m := yearBetweenRe.FindStringSubmatch(lower); m != nil {
		lo, err1 := strconv.Atoi(m[1])
		hi, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil {
			return intPtr(lo), intPtr(hi)
		}
	}
	if m := yearDecadeRe.FindStringSubmatch(lower); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			return intPtr(y), intPtr(y + 9)
		}
	}
	return nil, nil
}

// extractSize returns the first matching size hint, large before small.
func extractSize(lower string) *domain.DimensionFilter {
	for _, kw := range largeKeywords {
		if strings.Contains(lower, kw) {
			return &domain.DimensionFilter{ValueCm: largeMinCm, Op: domain.DimensionMin}
		}
	}
	for _, kw := range smallKeywords {
		if strings.Contains(lower, kw) {
			return &domain.DimensionFilter{ValueCm: smallMaxCm, Op: domain.DimensionMax}
		}
	}
	return nil
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

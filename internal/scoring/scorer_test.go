package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func artwork() domain.Artwork {
	return domain.Artwork{
		Title:       "Sunset Over Harbor",
		Description: "A vivid coastal scene at dusk",
		Category:    "painting",
		Style:       "impressionism",
		Colors:      []string{"orange", "blue"},
		Tags:        []string{"coastal", "sunset"},
		CreatedAt:   fixedNow.AddDate(0, -6, 0),
	}
}

func TestScoreBaseline(t *testing.T) {
	score := Score(artwork(), domain.SearchFilters{}, fixedNow)
	assert.Equal(t, 0.5, score)
}

func TestScoreTitleMatches(t *testing.T) {
	item := artwork()

	exact := Score(item, domain.SearchFilters{Query: "sunset over harbor"}, fixedNow)
	assert.Equal(t, 1.0, exact)

	// Substring title match also hits the sunset tag: 0.5 + 0.7 + 0.4, clamped.
	substring := Score(item, domain.SearchFilters{Query: "harbor"}, fixedNow)
	assert.InDelta(t, 1.0, substring, 1e-9)

	// Exact match never scores below substring match.
	assert.GreaterOrEqual(t, exact, substring)
}

func TestScoreDescriptionAndTag(t *testing.T) {
	item := artwork()

	desc := Score(item, domain.SearchFilters{Query: "coastal scene"}, fixedNow)
	assert.InDelta(t, 0.8, desc, 1e-9)

	// "coastal" hits both the description and the coastal tag.
	tag := Score(item, domain.SearchFilters{Query: "coastal"}, fixedNow)
	assert.InDelta(t, 1.0, tag, 1e-9)
}

func TestScoreCategoryStyleRecency(t *testing.T) {
	item := artwork()
	filters := domain.SearchFilters{
		Categories: []string{"painting"},
		Styles:     []string{"impressionism"},
	}

	assert.InDelta(t, 0.9, Score(item, filters, fixedNow), 1e-9)

	item.CreatedAt = fixedNow.AddDate(0, 0, -10)
	assert.InDelta(t, 1.0, Score(item, filters, fixedNow), 1e-9)

	// Exactly 30 days old is outside the recency window.
	item.CreatedAt = fixedNow.Add(-30 * 24 * time.Hour)
	assert.InDelta(t, 0.9, Score(item, filters, fixedNow), 1e-9)
}

func TestScoreClampedToOne(t *testing.T) {
	item := artwork()
	item.CreatedAt = fixedNow.AddDate(0, 0, -1)
	filters := domain.SearchFilters{
		Query:      "sunset over harbor",
		Categories: []string{"painting"},
		Styles:     []string{"impressionism"},
	}
	assert.Equal(t, 1.0, Score(item, filters, fixedNow))
}

func TestScoreDeterministic(t *testing.T) {
	item := artwork()
	filters := domain.SearchFilters{Query: "coastal", Categories: []string{"painting"}}
	assert.Equal(t, Score(item, filters, fixedNow), Score(item, filters, fixedNow))
}

func TestReasonsOrder(t *testing.T) {
	item := artwork()
	filters := domain.SearchFilters{
		Query:      "sunset",
		Categories: []string{"painting"},
		Styles:     []string{"impressionism"},
		Colors:     []string{"blue"},
	}

	reasons := Reasons(item, filters)

	assert.Equal(t, []string{
		"Title matches your search",
		"Tagged with your search terms",
		"painting category",
		"impressionism style",
		"contains blue colors",
	}, reasons)
}

func TestReasonsEmptyWhenNothingMatches(t *testing.T) {
	reasons := Reasons(artwork(), domain.SearchFilters{Query: "sculpture"})
	assert.Empty(t, reasons)
}

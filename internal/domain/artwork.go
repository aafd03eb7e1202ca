package domain

import (
	"time"
)

// Artwork is the read-only catalog projection the discovery engine ranks.
// The catalog service owns the record; this service never mutates it.
type Artwork struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category"`
	Style       string    `json:"style"`
	Medium      string    `json:"medium"`
	Colors      []string  `json:"colors"`
	Tags        []string  `json:"tags"`
	ArtistID    string    `json:"artist_id"`
	Year        int       `json:"year"`
	WidthCm     float64   `json:"width_cm"`
	HeightCm    float64   `json:"height_cm"`
	StockCount  int       `json:"stock_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// InStock reports whether the artwork has remaining stock.
func (a Artwork) InStock() bool {
	return a.StockCount > 0
}

// HasColor reports whether the artwork's dominant colors include the given one.
func (a Artwork) HasColor(color string) bool {
	for _, c := range a.Colors {
		if c == color {
			return true
		}
	}
	return false
}

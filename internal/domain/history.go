package domain

import "time"

// HistoryEntry is one artwork view from a user's browsing history.
type HistoryEntry struct {
	ArtworkID        string    `json:"artwork_id"`
	Category         string    `json:"category"`
	Style            string    `json:"style"`
	Medium           string    `json:"medium"`
	Colors           []string  `json:"colors"`
	PriceCents       int64     `json:"price_cents"`
	TimeSpentSeconds float64   `json:"time_spent_seconds"`
	ViewedAt         time.Time `json:"viewed_at"`
}

// PurchaseEntry is one completed order line from a user's purchase history.
type PurchaseEntry struct {
	ArtworkID   string    `json:"artwork_id"`
	Category    string    `json:"category"`
	Style       string    `json:"style"`
	Medium      string    `json:"medium"`
	Colors      []string  `json:"colors"`
	PriceCents  int64     `json:"price_cents"`
	Quantity    int       `json:"quantity"`
	PurchasedAt time.Time `json:"purchased_at"`
}

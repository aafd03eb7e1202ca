// Package event keeps the discovery engine in sync with catalog changes
// published on Kafka by the catalog service.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nkosimano/ChartedArt-sub001/internal/cache"
	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
	"github.com/nkosimano/ChartedArt-sub001/internal/gateway"
	pkgkafka "github.com/nkosimano/ChartedArt-sub001/pkg/kafka"
	"github.com/nkosimano/ChartedArt-sub001/pkg/slug"
)

// Kafka topics for artwork domain events consumed by the discovery service.
var (
	TopicArtworkCreated = pkgkafka.Topic("artwork", "created")
	TopicArtworkUpdated = pkgkafka.Topic("artwork", "updated")
	TopicArtworkDeleted = pkgkafka.Topic("artwork", "deleted")
)

// ArtworkEventData is the payload of artwork.created and artwork.updated.
type ArtworkEventData struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price_cents"`
	Currency    string   `json:"currency"`
	Category    string   `json:"category"`
	Style       string   `json:"style"`
	Medium      string   `json:"medium"`
	Colors      []string `json:"colors"`
	Tags        []string `json:"tags"`
	ArtistID    string   `json:"artist_id"`
	Year        int      `json:"year"`
	WidthCm     float64  `json:"width_cm"`
	HeightCm    float64  `json:"height_cm"`
	StockCount  int      `json:"stock_count"`

	CreatedAt time.Time `json:"created_at"`
}

// ArtworkDeletedData is the payload of artwork.deleted.
type ArtworkDeletedData struct {
	ID string `json:"id"`
}

// Consumer applies catalog change events to the artwork index and flushes
// the search session cache so stale pages stop serving.
type Consumer struct {
	indexer      gateway.Indexer
	sessionCache *cache.SessionCache
	logger       *slog.Logger
}

// NewConsumer creates a catalog event consumer.
func NewConsumer(indexer gateway.Indexer, sessionCache *cache.SessionCache, logger *slog.Logger) *Consumer {
	return &Consumer{
		indexer:      indexer,
		sessionCache: sessionCache,
		logger:       logger,
	}
}

// Handle processes one Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicArtworkCreated, TopicArtworkUpdated:
		return c.handleArtworkUpserted(ctx, event)
	case TopicArtworkDeleted:
		return c.handleArtworkDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *Consumer) handleArtworkUpserted(ctx context.Context, event *pkgkafka.Event) error {
	var data ArtworkEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal artwork event data: %w", err)
	}
	if data.ID == "" {
		return fmt.Errorf("artwork event %s has no artwork id", event.EventID)
	}

	if data.Slug == "" {
		data.Slug = slug.Generate(data.Title)
	}
	if data.CreatedAt.IsZero() {
		data.CreatedAt = event.Timestamp
	}

	artwork := domain.Artwork{
		ID:          data.ID,
		Title:       data.Title,
		Slug:        data.Slug,
		Description: data.Description,
		PriceCents:  data.PriceCents,
		Currency:    data.Currency,
		Category:    data.Category,
		Style:       data.Style,
		Medium:      data.Medium,
		Colors:      data.Colors,
		Tags:        data.Tags,
		ArtistID:    data.ArtistID,
		Year:        data.Year,
		WidthCm:     data.WidthCm,
		HeightCm:    data.HeightCm,
		StockCount:  data.StockCount,
		CreatedAt:   data.CreatedAt,
	}

	if err := c.indexer.Upsert(ctx, artwork); err != nil {
		return fmt.Errorf("upsert artwork from event: %w", err)
	}

	c.sessionCache.Flush()

	c.logger.InfoContext(ctx, "applied artwork event",
		slog.String("event_type", event.EventType),
		slog.String("artwork_id", data.ID),
	)
	return nil
}

func (c *Consumer) handleArtworkDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ArtworkDeletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal artwork.deleted data: %w", err)
	}
	if data.ID == "" {
		return fmt.Errorf("artwork.deleted event %s has no artwork id", event.EventID)
	}

	if err := c.indexer.Remove(ctx, data.ID); err != nil {
		return fmt.Errorf("remove artwork from event: %w", err)
	}

	c.sessionCache.Flush()

	c.logger.InfoContext(ctx, "removed artwork after delete event",
		slog.String("artwork_id", data.ID),
	)
	return nil
}

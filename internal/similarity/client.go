// Package similarity talks to the visual similarity service, which ranks
// catalog artworks against a set of seed artworks by image embedding
// distance.
package similarity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nkosimano/ChartedArt-sub001/pkg/httpclient"
)

// Client calls the similarity service over HTTP behind a circuit breaker.
// Callers should treat any error as "no similarity data" and fall back.
type Client struct {
	baseURL string
	http    *httpclient.CircuitBreakerClient
	logger  *slog.Logger
}

// New creates a similarity client for the given base URL.
func New(baseURL string, cbClient *httpclient.CircuitBreakerClient, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    cbClient,
		logger:  logger,
	}
}

type similarResponse struct {
	ArtworkIDs []string `json:"artwork_ids"`
}

// SimilarIDs returns IDs of artworks similar to the seeds, best match first.
// Seeds themselves are excluded by the service.
func (c *Client) SimilarIDs(ctx context.Context, seedIDs []string, limit int) ([]string, error) {
	if len(seedIDs) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("seeds", strings.Join(seedIDs, ","))
	q.Set("limit", strconv.Itoa(limit))

	resp, err := c.http.Get(ctx, c.baseURL+"/v1/similar?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("similarity request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("similarity service returned status %d", resp.StatusCode)
	}

	var body similarResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode similarity response: %w", err)
	}

	if len(body.ArtworkIDs) > limit && limit > 0 {
		body.ArtworkIDs = body.ArtworkIDs[:limit]
	}
	return body.ArtworkIDs, nil
}

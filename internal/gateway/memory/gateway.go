// Package memory is an in-memory Gateway implementation. It backs local
// development and tests, and doubles as the reference for filter semantics.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
	"github.com/nkosimano/ChartedArt-sub001/internal/gateway"
)

type engagement struct {
	userID    string
	artworkID string
	at        time.Time
}

// Gateway keeps the catalog and engagement data in maps guarded by a RWMutex.
type Gateway struct {
	mu        sync.RWMutex
	artworks  map[string]domain.Artwork
	views     map[string][]domain.HistoryEntry  // by user, newest first
	purchases map[string][]domain.PurchaseEntry // by user
	follows   map[string][]string               // by user
	activity  []engagement                      // views and purchases, for trending
	now       func() time.Time
}

// New creates an empty in-memory gateway.
func New() *Gateway {
	return &Gateway{
		artworks:  make(map[string]domain.Artwork),
		views:     make(map[string][]domain.HistoryEntry),
		purchases: make(map[string][]domain.PurchaseEntry),
		follows:   make(map[string][]string),
		now:       time.Now,
	}
}

var (
	_ gateway.Gateway = (*Gateway)(nil)
	_ gateway.Indexer = (*Gateway)(nil)
)

// Upsert adds or replaces an artwork in the index.
func (g *Gateway) Upsert(_ context.Context, artwork domain.Artwork) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.artworks[artwork.ID] = artwork
	return nil
}

// Remove deletes an artwork from the index by ID.
func (g *Gateway) Remove(_ context.Context, artworkID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.artworks, artworkID)
	return nil
}

// RecordView appends a view to a user's browsing history and to the activity
// log feeding trending.
func (g *Gateway) RecordView(userID string, entry domain.HistoryEntry) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.views[userID] = append([]domain.HistoryEntry{entry}, g.views[userID]...)
	g.activity = append(g.activity, engagement{userID: userID, artworkID: entry.ArtworkID, at: entry.ViewedAt})
}

// RecordPurchase appends a purchase to a user's history and to the activity
// log.
func (g *Gateway) RecordPurchase(userID string, entry domain.PurchaseEntry) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.purchases[userID] = append(g.purchases[userID], entry)
	g.activity = append(g.activity, engagement{userID: userID, artworkID: entry.ArtworkID, at: entry.PurchasedAt})
}

// Follow records that a user follows an artist.
func (g *Gateway) Follow(userID, artistID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.follows[userID] = append(g.follows[userID], artistID)
}

// QueryCatalog filters and sorts the index, then pages the result.
func (g *Gateway) QueryCatalog(_ context.Context, filters domain.SearchFilters, page, perPage int) (gateway.CatalogPage, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	queryLower := strings.ToLower(filters.Query)

	matched := make([]domain.Artwork, 0)
	for _, a := range g.artworks {
		if g.matches(a, filters, queryLower) {
			matched = append(matched, a)
		}
	}

	g.sortArtworks(matched, filters.Sort)

	total := len(matched)
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	if offset > total {
		offset = total
	}
	end := offset + perPage
	if end > total {
		end = total
	}

	return gateway.CatalogPage{Items: matched[offset:end], Total: total}, nil
}

// FindSimilarUsers returns users whose purchased artworks overlap the given
// user's, most overlapping first.
func (g *Gateway) FindSimilarUsers(_ context.Context, userID string, limit int) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	mine := make(map[string]bool)
	for _, p := range g.purchases[userID] {
		mine[p.ArtworkID] = true
	}
	if len(mine) == 0 {
		return nil, nil
	}

	overlaps := make(map[string]int)
	for other, entries := range g.purchases {
		if other == userID {
			continue
		}
		for _, p := range entries {
			if mine[p.ArtworkID] {
				overlaps[other]++
			}
		}
	}

	users := make([]string, 0, len(overlaps))
	for u := range overlaps {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if overlaps[users[i]] != overlaps[users[j]] {
			return overlaps[users[i]] > overlaps[users[j]]
		}
		return users[i] < users[j]
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// CollaborativeCandidates returns artworks the similar users engaged with
// that the requesting user has neither viewed nor purchased, scored by
// engagement normalized against the batch maximum.
func (g *Gateway) CollaborativeCandidates(_ context.Context, userID string, similarUserIDs []string, limit int) ([]gateway.ScoredArtwork, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[string]bool)
	for _, v := range g.views[userID] {
		seen[v.ArtworkID] = true
	}
	for _, p := range g.purchases[userID] {
		seen[p.ArtworkID] = true
	}

	counts := make(map[string]int)
	for _, other := range similarUserIDs {
		for _, p := range g.purchases[other] {
			if !seen[p.ArtworkID] {
				counts[p.ArtworkID]++
			}
		}
		for _, v := range g.views[other] {
			if !seen[v.ArtworkID] {
				counts[v.ArtworkID]++
			}
		}
	}

	type candidate struct {
		artwork domain.Artwork
		engaged int
	}
	var selected []candidate
	maxEngaged := 0
	for _, id := range rankedIDs(counts) {
		a, ok := g.artworks[id]
		if !ok {
			continue
		}
		if counts[id] > maxEngaged {
			maxEngaged = counts[id]
		}
		selected = append(selected, candidate{artwork: a, engaged: counts[id]})
		if limit > 0 && len(selected) >= limit {
			break
		}
	}

	candidates := make([]gateway.ScoredArtwork, 0, len(selected))
	for _, c := range selected {
		candidates = append(candidates, gateway.ScoredArtwork{
			Artwork: c.artwork,
			Score:   gateway.PopularityScore(c.engaged, maxEngaged),
		})
	}
	return candidates, nil
}

// TrendingItems ranks in-stock artworks by engagement count inside the
// trailing window.
func (g *Gateway) TrendingItems(_ context.Context, limit, windowDays int) ([]domain.Artwork, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cutoff := g.now().AddDate(0, 0, -windowDays)
	counts := make(map[string]int)
	for _, e := range g.activity {
		if e.at.After(cutoff) {
			counts[e.artworkID]++
		}
	}

	var trending []domain.Artwork
	for _, id := range rankedIDs(counts) {
		a, ok := g.artworks[id]
		if !ok || !a.InStock() {
			continue
		}
		trending = append(trending, a)
		if limit > 0 && len(trending) >= limit {
			break
		}
	}
	return trending, nil
}

// SimilarItems ranks the catalog by style, category, and tag overlap with the
// seed artworks. Seeds are excluded from the result.
func (g *Gateway) SimilarItems(_ context.Context, seedIDs []string, limit int) ([]domain.Artwork, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seedSet := make(map[string]bool, len(seedIDs))
	seedStyles := make(map[string]bool)
	seedCategories := make(map[string]bool)
	seedTags := make(map[string]bool)
	for _, id := range seedIDs {
		seedSet[id] = true
		seed, ok := g.artworks[id]
		if !ok {
			continue
		}
		seedStyles[strings.ToLower(seed.Style)] = true
		seedCategories[strings.ToLower(seed.Category)] = true
		for _, t := range seed.Tags {
			seedTags[strings.ToLower(t)] = true
		}
	}

	affinity := make(map[string]int)
	for id, a := range g.artworks {
		if seedSet[id] || !a.InStock() {
			continue
		}
		score := 0
		if seedStyles[strings.ToLower(a.Style)] {
			score += 3
		}
		if seedCategories[strings.ToLower(a.Category)] {
			score += 2
		}
		for _, t := range a.Tags {
			if seedTags[strings.ToLower(t)] {
				score++
			}
		}
		if score > 0 {
			affinity[id] = score
		}
	}

	var similar []domain.Artwork
	for _, id := range rankedIDs(affinity) {
		similar = append(similar, g.artworks[id])
		if limit > 0 && len(similar) >= limit {
			break
		}
	}
	return similar, nil
}

// BrowsingHistory returns a user's most recent views, newest first.
func (g *Gateway) BrowsingHistory(_ context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	entries := g.views[userID]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]domain.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// PurchaseHistory returns all of a user's completed order lines.
func (g *Gateway) PurchaseHistory(_ context.Context, userID string) ([]domain.PurchaseEntry, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]domain.PurchaseEntry, len(g.purchases[userID]))
	copy(out, g.purchases[userID])
	return out, nil
}

// FollowedArtists returns the artists a user follows.
func (g *Gateway) FollowedArtists(_ context.Context, userID string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, len(g.follows[userID]))
	copy(out, g.follows[userID])
	return out, nil
}

// matches checks every filter dimension against one artwork.
func (g *Gateway) matches(a domain.Artwork, filters domain.SearchFilters, queryLower string) bool {
	if queryLower != "" {
		if !strings.Contains(strings.ToLower(a.Title), queryLower) &&
			!strings.Contains(strings.ToLower(a.Description), queryLower) &&
			!anyContains(a.Tags, queryLower) {
			return false
		}
	}

	if len(filters.Categories) != 0 && !containsFold(filters.Categories, a.Category) {
		return false
	}
	if len(filters.Styles) != 0 && !containsFold(filters.Styles, a.Style) {
		return false
	}
	if len(filters.Mediums) != 0 && !containsFold(filters.Mediums, a.Medium) {
		return false
	}
	if len(filters.ArtistIDs) != 0 && !containsFold(filters.ArtistIDs, a.ArtistID) {
		return false
	}
	if len(filters.Colors) != 0 && !anyOverlap(a.Colors, filters.Colors) {
		return false
	}
	if len(filters.Tags) != 0 && !anyOverlap(a.Tags, filters.Tags) {
		return false
	}

	if filters.MinPriceCents != nil && a.PriceCents < *filters.MinPriceCents {
		return false
	}
	if filters.MaxPriceCents != nil && a.PriceCents > *filters.MaxPriceCents {
		return false
	}

	if filters.MinYear != nil && a.Year < *filters.MinYear {
		return false
	}
	if filters.MaxYear != nil && a.Year > *filters.MaxYear {
		return false
	}

	if filters.Dimension != nil && !matchesDimension(a, *filters.Dimension) {
		return false
	}

	if filters.Availability == domain.AvailabilityInStock && !a.InStock() {
		return false
	}

	return true
}

// matchesDimension checks the larger side of the artwork against the
// constraint. Exact allows a small tolerance.
func matchesDimension(a domain.Artwork, d domain.DimensionFilter) bool {
	side := a.WidthCm
	if a.HeightCm > side {
		side = a.HeightCm
	}
	switch d.Op {
	case domain.DimensionMin:
		return side >= d.ValueCm
	case domain.DimensionMax:
		return side <= d.ValueCm
	case domain.DimensionExact:
		diff := side - d.ValueCm
		return diff >= -1 && diff <= 1
	default:
		return true
	}
}

// sortArtworks orders matched artworks. The default ordering is by ID so
// pagination is deterministic; the caller re-ranks for relevance.
func (g *Gateway) sortArtworks(artworks []domain.Artwork, sortBy string) {
	switch sortBy {
	case domain.SortPriceAsc:
		sort.Slice(artworks, func(i, j int) bool {
			return artworks[i].PriceCents < artworks[j].PriceCents
		})
	case domain.SortPriceDesc:
		sort.Slice(artworks, func(i, j int) bool {
			return artworks[i].PriceCents > artworks[j].PriceCents
		})
	case domain.SortNewest:
		sort.Slice(artworks, func(i, j int) bool {
			return artworks[i].CreatedAt.After(artworks[j].CreatedAt)
		})
	case domain.SortOldest:
		sort.Slice(artworks, func(i, j int) bool {
			return artworks[i].CreatedAt.Before(artworks[j].CreatedAt)
		})
	case domain.SortPopularity:
		counts := make(map[string]int)
		for _, e := range g.activity {
			counts[e.artworkID]++
		}
		sort.Slice(artworks, func(i, j int) bool {
			if counts[artworks[i].ID] != counts[artworks[j].ID] {
				return counts[artworks[i].ID] > counts[artworks[j].ID]
			}
			return artworks[i].ID < artworks[j].ID
		})
	default:
		sort.Slice(artworks, func(i, j int) bool {
			return artworks[i].ID < artworks[j].ID
		})
	}
}

// rankedIDs orders map keys by descending count, ties by ID.
func rankedIDs(counts map[string]int) []string {
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

func anyContains(values []string, queryLower string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), queryLower) {
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

func anyOverlap(values, wanted []string) bool {
	for _, v := range values {
		if containsFold(wanted, v) {
			return true
		}
	}
	return false
}

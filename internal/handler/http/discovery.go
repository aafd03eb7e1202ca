// Package http exposes the discovery API over HTTP.
package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
	"github.com/nkosimano/ChartedArt-sub001/internal/service"
	"github.com/nkosimano/ChartedArt-sub001/pkg/httputil"
	"github.com/nkosimano/ChartedArt-sub001/pkg/pagination"
)

// userIDHeader carries the authenticated user identity, set by the edge
// proxy. Absence means an anonymous caller.
const userIDHeader = "X-User-ID"

// DiscoveryHandler handles HTTP requests for search and recommendations.
type DiscoveryHandler struct {
	search *service.SearchService
	recs   *service.RecommendationService
	logger *slog.Logger
}

// NewDiscoveryHandler creates the discovery HTTP handler.
func NewDiscoveryHandler(search *service.SearchService, recs *service.RecommendationService, logger *slog.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{search: search, recs: recs, logger: logger}
}

// Search handles GET /api/v1/discovery/search
func (h *DiscoveryHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := domain.SearchFilters{
		Query:        strings.TrimSpace(q.Get("q")),
		Categories:   parseCSV(q.Get("category")),
		Styles:       parseCSV(q.Get("style")),
		Mediums:      parseCSV(q.Get("medium")),
		ArtistIDs:    parseCSV(q.Get("artist_id")),
		Colors:       parseCSV(q.Get("color")),
		Tags:         parseCSV(q.Get("tag")),
		Sort:         q.Get("sort"),
		Availability: q.Get("availability"),
	}

	if filters.Sort != "" && !domain.IsValidSort(filters.Sort) {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "INVALID_PARAMETER",
				Message: "sort must be one of: relevance, price_asc, price_desc, newest, oldest, popularity",
			},
		})
		return
	}

	minPrice, ok := parsePriceParam(w, q.Get("min_price_cents"), "min_price_cents")
	if !ok {
		return
	}
	filters.MinPriceCents = minPrice

	maxPrice, ok := parsePriceParam(w, q.Get("max_price_cents"), "max_price_cents")
	if !ok {
		return
	}
	filters.MaxPriceCents = maxPrice

	if filters.MinPriceCents != nil && filters.MaxPriceCents != nil && *filters.MinPriceCents > *filters.MaxPriceCents {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price_cents must not exceed max_price_cents"},
		})
		return
	}

	if v := q.Get("min_year"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			filters.MinYear = &year
		}
	}
	if v := q.Get("max_year"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			filters.MaxYear = &year
		}
	}

	params := pagination.FromRequest(r)

	result, err := h.search.Search(r.Context(), r.Header.Get(userIDHeader), filters, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Recommendations handles GET /api/v1/discovery/recommendations
func (h *DiscoveryHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	limit := parseLimit(r, 20)

	recs, err := h.recs.Recommend(r.Context(), userID, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: recs})
}

// Similar handles GET /api/v1/discovery/similar/{id}
func (h *DiscoveryHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	recs, err := h.recs.SimilarTo(r.Context(), id.String(), parseLimit(r, 12))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: recs})
}

// Trending handles GET /api/v1/discovery/trending
func (h *DiscoveryHandler) Trending(w http.ResponseWriter, r *http.Request) {
	recs, err := h.recs.Trending(r.Context(), parseLimit(r, 20))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: recs})
}

// Profile handles GET /api/v1/discovery/profile
func (h *DiscoveryHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.recs.Profile(r.Context(), r.Header.Get(userIDHeader))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: profile})
}

func parseCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return nil
	}
	return values
}

func parsePriceParam(w http.ResponseWriter, raw, name string) (*int64, bool) {
	if raw == "" {
		return nil, true
	}
	price, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || price < 0 {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: name + " must be a non-negative integer"},
		})
		return nil, false
	}
	return &price, true
}

func parseLimit(r *http.Request, fallback int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 && limit <= 100 {
			return limit
		}
	}
	return fallback
}

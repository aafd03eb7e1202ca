package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nkosimano/ChartedArt-sub001/internal/service"
	"github.com/nkosimano/ChartedArt-sub001/pkg/health"
	"github.com/nkosimano/ChartedArt-sub001/pkg/middleware"
)

// NewRouter creates a chi router with all discovery routes registered.
func NewRouter(
	searchService *service.SearchService,
	recService *service.RecommendationService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Tracing("discovery"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("discovery"))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	discovery := NewDiscoveryHandler(searchService, recService, logger)

	r.Route("/api/v1/discovery", func(r chi.Router) {
		r.Get("/search", discovery.Search)
		r.Get("/recommendations", discovery.Recommendations)
		r.Get("/similar/{id}", discovery.Similar)
		r.Get("/trending", discovery.Trending)
		r.Get("/profile", discovery.Profile)
	})

	return r
}

// Package app wires the discovery service together and runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nkosimano/ChartedArt-sub001/internal/cache"
	"github.com/nkosimano/ChartedArt-sub001/internal/config"
	"github.com/nkosimano/ChartedArt-sub001/internal/event"
	"github.com/nkosimano/ChartedArt-sub001/internal/gateway"
	gatewaymemory "github.com/nkosimano/ChartedArt-sub001/internal/gateway/memory"
	gatewaypg "github.com/nkosimano/ChartedArt-sub001/internal/gateway/postgres"
	handler "github.com/nkosimano/ChartedArt-sub001/internal/handler/http"
	"github.com/nkosimano/ChartedArt-sub001/internal/service"
	"github.com/nkosimano/ChartedArt-sub001/internal/similarity"
	"github.com/nkosimano/ChartedArt-sub001/pkg/database"
	"github.com/nkosimano/ChartedArt-sub001/pkg/health"
	"github.com/nkosimano/ChartedArt-sub001/pkg/httpclient"
	pkgkafka "github.com/nkosimano/ChartedArt-sub001/pkg/kafka"
	"github.com/nkosimano/ChartedArt-sub001/pkg/tracing"
)

// App wires together all dependencies and runs the discovery service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	consumers      []*pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
	cleanup        []func()
}

// NewApp creates the application, initializing the gateway, services, event
// consumers, and the HTTP server.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{cfg: cfg, logger: logger}

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "discovery",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSample,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	app.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	var (
		gw      gateway.Gateway
		indexer gateway.Indexer
	)
	switch cfg.Gateway {
	case "postgres":
		pgCfg := database.DefaultPostgresConfig()
		pgCfg.Host = cfg.PostgresHost
		pgCfg.Port = cfg.PostgresPort
		pgCfg.User = cfg.PostgresUser
		pgCfg.Password = cfg.PostgresPassword
		pgCfg.DBName = cfg.PostgresDB
		pgCfg.SSLMode = cfg.PostgresSSLMode

		pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("init postgres pool: %w", err)
		}
		app.cleanup = append(app.cleanup, pool.Close)
		healthHandler.Register("postgres", pool.Ping)

		redisCfg := database.DefaultRedisConfig()
		redisCfg.Host = cfg.RedisHost
		redisCfg.Port = cfg.RedisPort
		redisCfg.Password = cfg.RedisPassword
		redisCfg.DB = cfg.RedisDB

		rdb, err := database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			// Redis only caches the trending ranking; start degraded.
			logger.Warn("redis unavailable, trending cache disabled",
				slog.String("error", err.Error()))
			rdb = nil
		} else {
			app.cleanup = append(app.cleanup, func() { _ = rdb.Close() })
			healthHandler.Register("redis", func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			})
		}

		var finder gatewaypg.SimilarityFinder
		if cfg.SimilarityServiceURL != "" {
			cbClient := httpclient.NewCircuitBreakerClient(
				httpclient.New(httpclient.DefaultConfig()),
				httpclient.DefaultCircuitBreakerConfig("similarity"),
				logger,
			)
			finder = similarity.New(cfg.SimilarityServiceURL, cbClient, logger)
			logger.Info("similarity service client initialized",
				slog.String("url", cfg.SimilarityServiceURL))
		}

		pgGateway := gatewaypg.New(pool, rdb, finder, logger)
		gw, indexer = pgGateway, pgGateway
		logger.Info("postgres gateway initialized", slog.String("host", cfg.PostgresHost))

	default:
		memGateway := gatewaymemory.New()
		gw, indexer = memGateway, memGateway
		logger.Info("in-memory gateway initialized")
	}

	sessionCache := cache.NewSessionCache()
	searchService := service.NewSearchService(gw, sessionCache, logger)
	recService := service.NewRecommendationService(gw, logger)

	eventConsumer := event.NewConsumer(indexer, sessionCache, logger)
	topics := []string{
		event.TopicArtworkCreated,
		event.TopicArtworkUpdated,
		event.TopicArtworkDeleted,
	}
	for _, topic := range topics {
		consumerCfg := pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  "discovery-service",
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}
		app.consumers = append(app.consumers, pkgkafka.NewConsumer(consumerCfg, eventConsumer.Handle, logger))
	}
	logger.Info("kafka consumers initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.Int("topic_count", len(topics)),
	)

	healthHandler.Register("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})

	router := handler.NewRouter(searchService, recService, healthHandler, logger)

	app.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the context
// is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	for _, fn := range a.cleanup {
		fn()
	}

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

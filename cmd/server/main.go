package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "gamehub/searchservice/internal/api/http"
	"gamehub/searchservice/internal/app"
	"gamehub/searchservice/internal/catalog"
	"gamehub/searchservice/internal/domain"
	"gamehub/searchservice/internal/metrics"
	"gamehub/searchservice/internal/providers/mirror"
	"gamehub/searchservice/internal/providers/steam"
	"gamehub/searchservice/internal/search"
	"gamehub/searchservice/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "game-search")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "game-search"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.Duration("requestTimeout", cfg.RequestTimeout),
		slog.String("apiEndpoint", cfg.APIEndpoint),
		slog.String("storeEndpoint", cfg.StoreEndpoint),
		slog.Int("mirrorEndpoints", len(cfg.MirrorEndpoints)),
		slog.String("backupPath", cfg.BackupPath),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Duration("cacheTTL", cfg.CacheTTL),
	)

	storeClient := &http.Client{Timeout: cfg.RequestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	catalogClient := &http.Client{Timeout: cfg.CatalogTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}

	steamClient := steam.NewClient(steam.Config{
		APIEndpoint:   cfg.APIEndpoint,
		StoreEndpoint: cfg.StoreEndpoint,
		UserAgent:     cfg.UserAgent,
		Client:        storeClient,
	})

	catalogStore := catalog.NewStore(
		buildCatalogSources(cfg, catalogClient),
		catalog.WithBackupPath(cfg.BackupPath),
		catalog.WithTTL(cfg.CatalogTTL),
		catalog.WithBackupMaxAge(cfg.BackupMaxAge),
		catalog.WithLoadTimeout(cfg.CatalogTimeout),
		catalog.WithLogger(logger),
	)

	breaker := search.NewBreaker(search.BreakerConfig{
		FailureThreshold: cfg.BreakerThreshold,
		Cooldown:         cfg.BreakerCooldown,
	})
	enricher := search.NewEnricher(steamClient, breaker,
		search.WithBatchSize(cfg.EnrichBatchSize),
		search.WithBatchDelay(cfg.EnrichBatchDelay),
		search.WithEnricherLogger(logger),
	)

	serviceOpts := append(buildCacheOptions(cfg, logger), search.WithLogger(logger))
	searchService := search.NewService(catalogStore, steamClient, breaker, enricher, serviceOpts...)

	// Warm the catalog in the background so the first search does not
	// pay for the full download.
	go func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), cfg.CatalogTimeout+5*time.Second)
		defer cancel()
		snapshot := catalogStore.Get(warmCtx)
		logger.Info("catalog warmed",
			slog.String("source", string(snapshot.Source)),
			slog.Int("entries", len(snapshot.Entries)),
		)
	}()

	handler := apihttp.NewServer(searchService,
		apihttp.WithLogger(logger),
		apihttp.WithCatalogStatus(catalogStore),
	).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("game search service started",
		slog.String("addr", cfg.HTTPAddr),
		slog.Duration("timeout", cfg.RequestTimeout),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("game search service stopped")
}

// buildCatalogSources assembles the catalog source chain: the official
// API first, then the configured mirrors in order, then an optional
// tertiary mirror. The on-disk backup is handled by the store itself.
func buildCatalogSources(cfg app.Config, client *http.Client) []catalog.Source {
	sources := []catalog.Source{
		steam.NewClient(steam.Config{
			APIEndpoint:   cfg.APIEndpoint,
			StoreEndpoint: cfg.StoreEndpoint,
			UserAgent:     cfg.UserAgent,
			Client:        client,
		}),
	}
	for i, endpoint := range cfg.MirrorEndpoints {
		sources = append(sources, mirror.NewProvider(mirror.Config{
			Name:      fmt.Sprintf("mirror-%d", i+1),
			Endpoint:  endpoint,
			Kind:      domainSourceForMirror(i),
			UserAgent: cfg.UserAgent,
			Client:    client,
		}))
	}
	if endpoint := strings.TrimSpace(cfg.TertiaryMirror); endpoint != "" {
		sources = append(sources, mirror.NewProvider(mirror.Config{
			Name:      "tertiary-mirror",
			Endpoint:  endpoint,
			Kind:      domain.CatalogSourceTertiary,
			UserAgent: cfg.UserAgent,
			Client:    client,
		}))
	}
	return sources
}

func domainSourceForMirror(index int) domain.CatalogSource {
	if index == 0 {
		return domain.CatalogSourceSecondary
	}
	return domain.CatalogSourceTertiary
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildCacheOptions(cfg app.Config, logger *slog.Logger) []search.ServiceOption {
	var opts []search.ServiceOption

	if cfg.CacheDisabled {
		opts = append(opts, search.WithCacheDisabled(true))
		return opts
	}

	if cfg.CacheTTL > 0 {
		opts = append(opts, search.WithCacheTTL(cfg.CacheTTL))
	}

	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Warn("invalid redis url, using in-memory cache only", slog.String("error", err.Error()))
			return opts
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable, using in-memory cache only", slog.String("error", err.Error()))
			return opts
		}
		logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
		opts = append(opts, search.WithRedisCache(search.NewRedisCacheBackend(redisClient)))
	}

	return opts
}

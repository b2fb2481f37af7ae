// Command analyzer starts the text analysis HTTP service.
//
// Texts are submitted with POST /api/v1/analyses and come back as reports.
// Reports are cached in memory and, when enabled, in Redis; persisted to
// PostgreSQL; and announced on the analysis-completed Kafka topic.
//
// Usage:
//
//	go run ./cmd/analyzer [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/internal/report"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/internal/textstats"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	purgeCache := flag.Bool("purge-cache", false, "drop cached reports from redis at startup, e.g. after word lists change")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, metrics.New(), *purgeCache)
	stop()
	if err != nil {
		slog.Error("analyzer service stopped with error", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx ends. Every resource it opens is closed before it
// returns.
func run(ctx context.Context, cfg *config.Config, m *metrics.Metrics, purgeCache bool) error {
	slog.Info("starting analyzer service", "port", cfg.Server.Port)

	checker := health.NewChecker()
	opts := []report.ServiceOption{
		report.WithMetrics(m),
		report.WithSaveRetry(resilience.RetryConfig{MaxAttempts: 3}),
	}

	var shared report.Cache
	if cfg.Redis.Enabled {
		rc, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			// the in-memory cache still serves
			slog.Warn("redis unavailable, continuing without shared cache", "error", err)
		} else {
			defer rc.Close()
			redisCache := report.NewRedisCache(rc, cfg.Redis.CacheTTL)
			if purgeCache {
				if _, err := redisCache.Purge(ctx); err != nil {
					return err
				}
			}
			shared = redisCache
			checker.Register("redis", health.Ping(health.StatusDegraded, rc.Ping))
			slog.Info("connected to redis", "addr", cfg.Redis.Addr)
		}
	}
	cache, err := report.NewMemoryCache(cfg.Cache.MemoryEntries, shared)
	if err != nil {
		return err
	}

	if cfg.Postgres.Enabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
		if err := report.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrating report schema: %w", err)
		}
		opts = append(opts, report.WithRepository(report.NewStore(db)))
		checker.Register("postgres", health.Ping(health.StatusDown, db.Ping))
		slog.Info("connected to postgres")
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalysisCompleted)
		defer producer.Close()
		opts = append(opts, report.WithPublisher(report.NewPublisher(producer, resilience.RetryConfig{MaxAttempts: 3})))
		slog.Info("kafka producer initialized", "topic", producer.Topic())
	}

	dictionaries := textstats.SharedDictionaries(cfg.Analysis.WordListDir)
	svc := report.NewService(cfg.Analysis, dictionaries, cache, opts...)

	mux := http.NewServeMux()
	report.NewHandler(svc, cfg.Analysis.MaxTextBytes).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	chain := []func(http.Handler) http.Handler{
		middleware.Recovery,
		middleware.RequestID,
		middleware.Logging,
		middleware.Metrics(m),
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		chain = append(chain, middleware.CORS(cfg.Server.CORSOrigins))
	}
	if cfg.Server.RateLimitPerMinute > 0 {
		limiter := middleware.NewLimiter(ctx, cfg.Server.RateLimitPerMinute, time.Minute)
		chain = append(chain, middleware.RateLimit(limiter))
	}
	chain = append(chain, middleware.Timeout(cfg.Server.RequestTimeout))
	handler := middleware.Chain(mux, chain...)

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analyzer service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	<-shutdownDone

	hits, misses := svc.CacheStats()
	slog.Info("analyzer service stopped", "cache_hits", hits, "cache_misses", misses)
	return nil
}

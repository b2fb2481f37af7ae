// Command worker analyzes texts submitted over Kafka and aggregates the
// analysis-completed stream into running totals.
//
// Submissions on the analysis-submitted topic go through the same report
// service as the HTTP API. Every completed analysis, whichever process ran
// it, is counted and served at GET /api/v1/stats.
//
// Usage:
//
//	go run ./cmd/worker [-config configs/worker.yaml] [-snapshot-interval 1m]
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

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/internal/analytics/aggregator"
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
	configPath := flag.String("config", "configs/worker.yaml", "path to config file")
	snapshotInterval := flag.Duration("snapshot-interval", time.Minute, "how often analytics totals are saved to postgres")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, metrics.New(), *snapshotInterval)
	stop()
	if err != nil {
		slog.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
}

// run consumes and serves until ctx ends, closing everything it opened
// before it returns.
func run(ctx context.Context, cfg *config.Config, m *metrics.Metrics, snapshotInterval time.Duration) error {
	if !cfg.Kafka.Enabled {
		return errors.New("the worker needs kafka.enabled")
	}
	slog.Info("starting worker", "port", cfg.Server.Port, "brokers", cfg.Kafka.Brokers)

	checker := health.NewChecker()
	agg := analytics.NewAggregator()
	opts := []report.ServiceOption{
		report.WithMetrics(m),
		report.WithSaveRetry(resilience.RetryConfig{MaxAttempts: 3}),
	}

	var shared report.Cache
	if cfg.Redis.Enabled {
		rc, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, continuing without shared cache", "error", err)
		} else {
			defer rc.Close()
			shared = report.NewRedisCache(rc, cfg.Redis.CacheTTL)
			checker.Register("redis", health.Ping(health.StatusDegraded, rc.Ping))
		}
	}
	cache, err := report.NewMemoryCache(cfg.Cache.MemoryEntries, shared)
	if err != nil {
		return err
	}

	var snapshots *aggregator.Store
	if cfg.Postgres.Enabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx, report.Schema, aggregator.Schema); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
		opts = append(opts, report.WithRepository(report.NewStore(db)))
		checker.Register("postgres", health.Ping(health.StatusDown, db.Ping))

		snapshots = aggregator.NewStore(db)
		latest, err := snapshots.LatestSnapshot(ctx)
		if err != nil {
			slog.Warn("could not load analytics snapshot", "error", err)
		} else if latest != nil {
			agg.Restore(*latest)
		}
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalysisCompleted)
	defer producer.Close()
	opts = append(opts, report.WithPublisher(report.NewPublisher(producer, resilience.RetryConfig{MaxAttempts: 3})))

	svc := report.NewService(cfg.Analysis, textstats.SharedDictionaries(cfg.Analysis.WordListDir), cache, opts...)

	submissions := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalysisSubmitted, report.HandleSubmission(svc))
	statsCfg := cfg.Kafka
	statsCfg.ConsumerGroup += "-stats"
	completed := kafka.NewConsumer(statsCfg, cfg.Kafka.Topics.AnalysisCompleted, analytics.HandleEvent(agg))

	mux := http.NewServeMux()
	analytics.NewHandler(agg).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: middleware.Chain(mux,
			middleware.Recovery,
			middleware.RequestID,
			middleware.Logging,
			middleware.Metrics(m),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return submissions.Start(gctx) })
	g.Go(func() error { return completed.Start(gctx) })
	if snapshots != nil {
		done := snapshots.StartPeriodicSave(gctx, agg, snapshotInterval)
		g.Go(func() error {
			<-done
			return nil
		})
	}
	g.Go(func() error {
		slog.Info("worker listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving stats: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	stats := agg.Stats()
	slog.Info("worker stopped", "total_analyses", stats.TotalAnalyses)
	return nil
}

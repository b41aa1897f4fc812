// Command recommender serves job recommendations and candidate rankings.
//
// It builds the TF-IDF model from the configured corpus source (a CSV file
// or PostgreSQL), caches results in Redis, rebuilds the model when a corpus
// update arrives on Kafka, and publishes match events for the analytics
// service.
//
// Usage:
//
//	go run ./cmd/recommender [-config configs/development.yaml]
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

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/AbaeNeupane/Placement-Assistance/internal/analytics"
	"github.com/AbaeNeupane/Placement-Assistance/internal/api"
	"github.com/AbaeNeupane/Placement-Assistance/internal/cache"
	"github.com/AbaeNeupane/Placement-Assistance/internal/corpus"
	"github.com/AbaeNeupane/Placement-Assistance/internal/recommender"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/config"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/health"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/kafka"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/logger"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/metrics"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/middleware"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/postgres"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/ratelimit"
	pkgredis "github.com/AbaeNeupane/Placement-Assistance/pkg/redis"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting recommender service",
		"port", cfg.Server.Port,
		"corpus_source", cfg.Matching.CorpusSource,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	checker := health.NewChecker()

	// PostgreSQL is the corpus source when configured so, and otherwise an
	// optional store for company URLs, applicants and history.
	var db *postgres.Client
	db, err = postgres.New(ctx, cfg.Postgres)
	if err != nil {
		if cfg.Matching.CorpusSource == config.SourcePostgres {
			slog.Error("postgres is required for the configured corpus source", "error", err)
			os.Exit(1)
		}
		slog.Warn("postgres unavailable, running without application urls, applicants or history", "error", err)
	} else {
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			slog.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		checker.Register("postgres", health.PingCheck(db, cfg.Matching.CorpusSource != config.SourcePostgres))
	}

	var store api.Store
	var snapshots analytics.SnapshotLister
	var source recommender.Source = corpus.CSVSource{Path: cfg.Matching.CorpusPath}
	if db != nil {
		repo := corpus.NewRepository(db)
		store = repo
		snapshots = analytics.NewStore(db)
		if cfg.Matching.CorpusSource == config.SourcePostgres {
			source = repo
		}
	}

	engine := recommender.NewEngine(source,
		recommender.WithReloadTimeout(cfg.Matching.ReloadTimeout),
		recommender.WithRetry(resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
		}),
		recommender.WithReloadHook(func(model *recommender.Model, err error, took time.Duration) {
			jobs := 0
			if model != nil {
				jobs = model.Len()
			}
			m.ObserveReload(jobs, err, took)
		}),
	)
	if _, err := engine.Reload(ctx); err != nil {
		// Keep serving: health reports down and requests get 503 until a
		// reload succeeds.
		slog.Error("initial corpus load failed", "source", source.Name(), "error", err)
	}
	checker.Register("corpus", func(ctx context.Context) health.ComponentHealth {
		model := engine.Model()
		if model == nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: "corpus not loaded"}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d jobs, version %s", model.Len(), model.Version()),
		}
	})

	var resultCache *cache.ResultCache
	if cfg.Redis.Addr != "" {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, result caching disabled", "error", err)
			checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: "unavailable at startup"}
			})
		} else {
			defer redisClient.Close()
			resultCache = cache.New(redisClient, cfg.Redis.CacheTTL, cache.WithMetrics(m))
			checker.Register("redis", health.PingCheck(redisClient, true))
			slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	aggregator := analytics.NewAggregator()
	trackers := []analytics.Tracker{aggregator}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Kafka.Enabled() {
		// Every replica must rebuild on every update, so each joins its own
		// consumer group.
		groupID := fmt.Sprintf("%s-%s", cfg.Kafka.ConsumerGroup, uuid.NewString())
		corpusConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CorpusUpdates,
			recommender.HandleCorpusEvent(engine, resultCache), kafka.WithGroupID(groupID))
		g.Go(func() error { return corpusConsumer.Start(gctx) })

		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, 10000, 100, 2*time.Second, m)
		trackers = append(trackers, collector)
		g.Go(func() error { return collector.Run(gctx) })

		slog.Info("kafka enabled",
			"corpus_topic", cfg.Kafka.Topics.CorpusUpdates,
			"analytics_topic", cfg.Kafka.Topics.AnalyticsEvents,
			"group", groupID,
		)
	} else {
		slog.Warn("kafka disabled, corpus changes need an explicit reload")
	}

	handler := api.New(api.Options{
		Engine:        engine,
		Cache:         resultCache,
		Store:         store,
		Tracker:       analytics.Multi(trackers...),
		Metrics:       m,
		DefaultTopN:   cfg.Matching.DefaultTopN,
		MaxTopN:       cfg.Matching.MaxTopN,
		MaxCandidates: cfg.Matching.MaxCandidates,
	})

	mux := http.NewServeMux()
	handler.Register(mux)
	analytics.NewHandler(aggregator, snapshots).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.CORS(middleware.CORSFromConfig(cfg.CORS)),
	}
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(cfg.RateLimit.RequestsPerSec, cfg.RateLimit.Burst, cfg.RateLimit.CleanupInterval)
		defer limiter.Stop()
		mws = append(mws, middleware.RateLimit(limiter))
	}
	mws = append(mws,
		middleware.Metrics(m),
		middleware.Timeout(cfg.Server.RequestTimeout),
		middleware.BodyLimit(cfg.Matching.MaxRequestBody),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, mws...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = metrics.StartServer(cfg.Metrics.Port)
	}

	g.Go(func() error {
		slog.Info("recommender service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if shutdownMetrics != nil {
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("recommender service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("recommender service stopped")
}

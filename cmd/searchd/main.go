package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/searchlite/searchlite/internal/cache"
	"github.com/searchlite/searchlite/internal/ingest"
	"github.com/searchlite/searchlite/internal/server"
	"github.com/searchlite/searchlite/internal/service"
	"github.com/searchlite/searchlite/internal/snapshot"
	"github.com/searchlite/searchlite/pkg/config"
	apperrors "github.com/searchlite/searchlite/pkg/errors"
	"github.com/searchlite/searchlite/pkg/health"
	"github.com/searchlite/searchlite/pkg/kafka"
	"github.com/searchlite/searchlite/pkg/logger"
	"github.com/searchlite/searchlite/pkg/metrics"
	"github.com/searchlite/searchlite/pkg/postgres"
	pkgredis "github.com/searchlite/searchlite/pkg/redis"
	"github.com/searchlite/searchlite/pkg/textindex"
)

const shutdownSnapshotName = "shutdown"

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting searchlite",
		"port", cfg.Server.Port,
		"preprocessor", cfg.Engine.Preprocessor,
		"tokenizer", cfg.Engine.Tokenizer,
	)

	engine, err := service.BuildEngine(cfg.Engine)
	if err != nil {
		slog.Error("failed to build index engine", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, query caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	opts := []service.Option{}
	if queryCache != nil {
		opts = append(opts, service.WithCache(queryCache))
	}
	if m != nil {
		opts = append(opts, service.WithMetrics(m))
	}
	svc := service.New(engine, opts...)

	var store *snapshot.Store
	pgClient, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, snapshot persistence disabled", "error", err)
		pgClient = nil
	} else {
		defer pgClient.Close()
		store, err = snapshot.NewStore(ctx, pgClient)
		if err != nil {
			slog.Error("failed to initialize snapshot store", "error", err)
			os.Exit(1)
		}
		restoreLatest(ctx, svc, store)
	}

	checker := health.NewChecker()
	checker.Register("engine", func(ctx context.Context) health.ComponentHealth {
		docs, tokens := svc.Counts()
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d tokens", docs, tokens),
		}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if pgClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := pgClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := server.NewHandler(svc, store, cfg.Server, m)
	router := server.NewRouter(h, checker, m, cfg.Server.RequestTimeout)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.Metrics.Enabled {
		stopMetrics := metrics.StartServer(cfg.Metrics.Port)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return stopMetrics(shutdownCtx)
		})
	}

	consumer := ingest.New(kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.Documents, ingest.HandleMessage(svc)))
	g.Go(func() error {
		slog.Info("document consumer started", "topic", cfg.Kafka.Topics.Documents)
		if err := consumer.Start(gctx); err != nil && gctx.Err() == nil {
			slog.Warn("document consumer stopped", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return consumer.Close()
	})

	if err := g.Wait(); err != nil {
		slog.Error("service error", "error", err)
		os.Exit(1)
	}

	if store != nil {
		saveShutdownSnapshot(svc, store, cfg.Server.ShutdownTimeout)
	}
	slog.Info("searchlite stopped")
}

// restoreLatest loads the most recent snapshot into the engine, if one
// exists. A fresh database is not an error.
func restoreLatest(ctx context.Context, svc *service.Service, store *snapshot.Store) {
	name, payload, err := store.LoadLatest(ctx)
	if err != nil {
		if stderrors.Is(err, apperrors.ErrSnapshotNotFound) {
			slog.Info("no snapshot to restore, starting empty")
			return
		}
		slog.Warn("failed to load latest snapshot", "error", err)
		return
	}
	if err := svc.RestoreJSON(ctx, payload); err != nil {
		slog.Warn("failed to restore snapshot", "name", name, "error", err)
		return
	}
	docs, tokens := svc.Counts()
	slog.Info("restored snapshot", "name", name, "documents", docs, "tokens", tokens)
}

func saveShutdownSnapshot(svc *service.Service, store *snapshot.Store, timeout time.Duration) {
	payload, err := svc.SnapshotJSON()
	if err != nil {
		slog.Warn("failed to serialize shutdown snapshot", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := store.Save(ctx, shutdownSnapshotName, textindex.SchemaVersion, payload); err != nil {
		slog.Warn("failed to save shutdown snapshot", "error", err)
		return
	}
	slog.Info("saved shutdown snapshot", "name", shutdownSnapshotName)
}

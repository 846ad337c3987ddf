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

	"github.com/zombar/contentlens/internal/api"
	"github.com/zombar/contentlens/internal/archive"
	"github.com/zombar/contentlens/internal/config"
	"github.com/zombar/contentlens/internal/database"
	"github.com/zombar/contentlens/internal/extract"
	"github.com/zombar/contentlens/internal/metrics"
	"github.com/zombar/contentlens/internal/provider"
	"github.com/zombar/contentlens/internal/queue"
	"github.com/zombar/contentlens/internal/scoring"
	"github.com/zombar/contentlens/internal/tracing"
	"github.com/zombar/contentlens/pkg/logging"
)

const metricsNamespace = "contentlens"

func main() {
	if err := run(); err != nil {
		slog.Error("contentlens service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.PathFromArgs(os.Args[1:]))
	if err != nil {
		return err
	}
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Setup structured logging with JSON output
	logger := logging.New(os.Stdout, cfg.ServiceName, cfg.SlogLevel())
	slog.SetDefault(logger)

	logger.Info("contentlens service initializing", "version", api.Version)

	ctx := context.Background()

	tp, err := tracing.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
		logger.Info("tracing initialized", "otlp_endpoint", cfg.OTLPEndpoint)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	dbMetrics := metrics.NewDatabaseMetrics(metricsNamespace)
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			dbMetrics.UpdateDBStats(db.Conn())
		}
	}()
	logger.Info("database ready", "dialect", db.Dialect())

	p, err := provider.FromConfig(ctx, cfg.Provider)
	if err != nil {
		logger.Warn("failed to initialize AI provider, falling back to heuristic analysis",
			"error", err,
			"provider", cfg.Provider.Preference,
		)
		p = nil
	}

	businessMetrics := metrics.NewBusinessMetrics(metricsNamespace)
	svc, err := scoring.New(p, scoring.Options{
		MaxContentLength:  cfg.MaxContentLength,
		ProviderTimeout:   cfg.ProviderTimeout,
		ProviderRateLimit: cfg.ProviderRateLimit,
		CacheSize:         cfg.CacheSize,
	}, businessMetrics, logger)
	if err != nil {
		return err
	}
	logger.Info("scoring service initialized", "provider", svc.ProviderName())

	apiCfg := api.Config{
		Scoring:            svc,
		DB:                 db,
		Fetcher:            extract.NewFetcher(cfg.FetchTimeout, logger),
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}

	var archiver queue.Archiver
	if cfg.Archive.Enabled() {
		store, err := newArchive(ctx, cfg.Archive)
		if err != nil {
			logger.Warn("report archive unavailable, continuing without it", "error", err)
		} else {
			apiCfg.Archive = store
			archiver = store
			logger.Info("report archive ready", "bucket", store.Bucket())
		}
	}

	var worker *queue.Worker
	if cfg.RedisAddr != "" {
		client := queue.NewClient(queue.ClientConfig{RedisAddr: cfg.RedisAddr})
		defer client.Close()
		apiCfg.Queue = client

		processor := queue.NewProcessor(db, svc, client, archiver, businessMetrics, logger)
		worker = queue.NewWorker(queue.WorkerConfig{
			RedisAddr:   cfg.RedisAddr,
			Concurrency: cfg.WorkerConcurrency,
		}, processor, logger)

		go func() {
			if err := worker.Start(); err != nil {
				logger.Error("queue worker stopped", "error", err)
			}
		}()
	} else {
		logger.Info("REDIS_ADDR not set, async analysis disabled")
	}

	apiHandler, err := api.NewHandler(apiCfg)
	if err != nil {
		return err
	}

	handler := buildHandler(apiHandler, cfg.ServiceName, logger, metrics.NewHTTPMetrics(metricsNamespace))

	// Provider calls are bounded by PROVIDER_TIMEOUT; leave headroom for
	// the inline path
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.ProviderTimeout*2 + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("contentlens service starting",
			"port", cfg.Port,
			"database_dialect", db.Dialect(),
			"provider", svc.ProviderName(),
			"async", worker != nil,
			"archive", apiCfg.Archive != nil,
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if worker != nil {
		worker.Shutdown()
	}

	logger.Info("server stopped")
	return nil
}

// buildHandler wraps the API with the middleware chain:
// tracing -> HTTP logging -> metrics -> handlers
func buildHandler(apiHandler http.Handler, serviceName string, logger *slog.Logger, httpMetrics *metrics.HTTPMetrics) http.Handler {
	return tracing.HTTPMiddleware(serviceName)(
		logging.HTTPLoggingMiddleware(logger)(
			httpMetrics.Middleware(apiHandler),
		),
	)
}

func newArchive(ctx context.Context, cfg config.ArchiveConfig) (*archive.Archive, error) {
	store, err := archive.New(archive.Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

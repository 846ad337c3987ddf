package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Queue priorities: higher value = higher priority
var queuePriorities = map[string]int{
	QueueScoring:    6,
	QueueEnrichment: 3,
}

// Enrichment backoff: 30s, 1m, 2m, 5m, 10m
var enrichDelays = []time.Duration{
	30 * time.Second,
	1 * time.Minute,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

// Scoring only fails on storage errors: 10s, 30s, 1m
var scoreDelays = []time.Duration{
	10 * time.Second,
	30 * time.Second,
	1 * time.Minute,
}

// Worker wraps the Asynq server for processing tasks
type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	concurrency int
	logger      *slog.Logger
}

// WorkerConfig contains configuration for the queue worker
type WorkerConfig struct {
	RedisAddr   string
	Concurrency int
}

// NewWorker creates a queue worker dispatching to processor
func NewWorker(cfg WorkerConfig, processor *Processor, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	serverCfg := asynq.Config{
		Concurrency:     cfg.Concurrency,
		Queues:          queuePriorities,
		StrictPriority:  false,
		RetryDelayFunc:  retryDelay,
		ShutdownTimeout: 30 * time.Second,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)

			logger.Error("task processing error",
				"task_type", task.Type(),
				"error", err,
				"retry_count", retried,
				"max_retries", maxRetry,
			)
		}),
		Logger:   newAsynqLogger(logger),
		LogLevel: asynq.WarnLevel,
	}

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, serverCfg)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeScore, processor.HandleScore)
	mux.HandleFunc(TypeEnrich, processor.HandleEnrich)

	return &Worker{
		server:      server,
		mux:         mux,
		concurrency: cfg.Concurrency,
		logger:      logger,
	}
}

// retryDelay picks the backoff for the n-th retry of a task
func retryDelay(n int, err error, task *asynq.Task) time.Duration {
	delays := scoreDelays
	if task.Type() == TypeEnrich {
		delays = enrichDelays
	}
	if n < 0 {
		n = 0
	}
	if n < len(delays) {
		return delays[n]
	}
	return delays[len(delays)-1]
}

// Start starts the worker to begin processing tasks
func (w *Worker) Start() error {
	w.logger.Info("starting asynq worker",
		"concurrency", w.concurrency,
		"queues", queuePriorities,
	)

	// Run blocks until Shutdown
	if err := w.server.Run(w.mux); err != nil {
		return fmt.Errorf("asynq server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the worker
func (w *Worker) Shutdown() {
	w.logger.Info("shutting down asynq worker")
	w.server.Shutdown()
}

// asynqLogger routes asynq's internal logs through slog
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{logger: logger.With("component", "asynq")}
}

func (l *asynqLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.logger.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zombar/contentlens/internal/content"
	"github.com/zombar/contentlens/internal/database"
	"github.com/zombar/contentlens/internal/metrics"
	"github.com/zombar/contentlens/internal/models"
	"github.com/zombar/contentlens/internal/tracing"
)

// Store persists analyses between the two stages
type Store interface {
	SaveAnalysis(analysis *models.Analysis) error
	GetAnalysis(id string) (*models.Analysis, error)
	UpdateStage(id, stage, lastError string) error
}

// Scorer produces heuristic reports and provider enrichments
type Scorer interface {
	Heuristic(text string, contentType models.ContentType) *models.Report
	Enrich(ctx context.Context, text string, contentType models.ContentType) (*models.SmartAnalysisResult, error)
	HasProvider() bool
	ProviderName() string
}

// Enqueuer schedules the enrichment stage
type Enqueuer interface {
	EnqueueEnrich(ctx context.Context, analysisID string) (string, error)
}

// Archiver copies finished reports to object storage
type Archiver interface {
	PutReport(ctx context.Context, analysis *models.Analysis) error
}

// Processor implements the task handlers. It has no Redis dependency so the
// handlers can be driven directly.
type Processor struct {
	store    Store
	scorer   Scorer
	enqueuer Enqueuer
	archive  Archiver
	metrics  *metrics.BusinessMetrics
	logger   *slog.Logger
}

// NewProcessor wires the handlers. archive and m may be nil.
func NewProcessor(store Store, scorer Scorer, enqueuer Enqueuer, archive Archiver, m *metrics.BusinessMetrics, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		store:    store,
		scorer:   scorer,
		enqueuer: enqueuer,
		archive:  archive,
		metrics:  m,
		logger:   logger,
	}
}

// startTaskSpan continues the enqueuing request's trace when the payload
// carries one, otherwise it starts a new root span.
func startTaskSpan(ctx context.Context, taskType, analysisID string, info TraceInfo) (context.Context, trace.Span, time.Duration) {
	var queueWait time.Duration
	if info.EnqueuedAt > 0 {
		queueWait = time.Since(time.Unix(0, info.EnqueuedAt))
	}

	if traceID, err := trace.TraceIDFromHex(info.TraceID); err == nil {
		if spanID, err := trace.SpanIDFromHex(info.SpanID); err == nil {
			remote := trace.NewSpanContext(trace.SpanContextConfig{
				TraceID:    traceID,
				SpanID:     spanID,
				TraceFlags: trace.FlagsSampled,
				Remote:     true,
			})
			ctx = trace.ContextWithRemoteSpanContext(ctx, remote)
		}
	}

	ctx, span := tracing.Tracer().Start(ctx, "asynq.task.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("task.type", taskType),
			attribute.String("analysis.id", analysisID),
			attribute.Float64("queue.wait_time_seconds", queueWait.Seconds()),
			attribute.Int64("enqueued_at", info.EnqueuedAt),
		),
	)
	span.AddEvent("task_processing_started")
	return ctx, span, queueWait
}

// HandleScore runs the heuristic stage and schedules enrichment when a
// provider is configured.
func (p *Processor) HandleScore(ctx context.Context, t *asynq.Task) error {
	var payload ScorePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		p.logger.Error("failed to unmarshal task payload", "task_type", TypeScore, "error", err)
		return fmt.Errorf("invalid task payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, span, queueWait := startTaskSpan(ctx, TypeScore, payload.AnalysisID, payload.TraceInfo)
	defer span.End()

	p.logger.Info("scoring content",
		"analysis_id", payload.AnalysisID,
		"content_type", payload.ContentType,
		"char_count", len([]rune(payload.Content)),
		"queue_wait_seconds", queueWait.Seconds(),
		"trace_id", tracing.TraceIDFromContext(ctx),
	)

	start := time.Now()
	report := p.scorer.Heuristic(payload.Content, payload.ContentType)
	report.ID = payload.AnalysisID

	enrich := p.scorer.HasProvider()
	stage := models.StageCompleted
	if enrich {
		stage = models.StageEnriching
	}

	analysis := &models.Analysis{
		ID:              payload.AnalysisID,
		Content:         payload.Content,
		ContentPreview:  content.Preview(payload.Content, content.DefaultPreviewLength),
		ContentType:     report.DetectedType,
		OverallScore:    report.OverallScore,
		Provider:        report.Provider,
		Report:          report,
		ProcessingStage: stage,
	}

	if err := p.store.SaveAnalysis(analysis); err != nil {
		tracing.RecordError(ctx, err)
		p.metrics.RecordJob(TypeScore, "error")
		return fmt.Errorf("failed to save heuristic analysis: %w", err)
	}
	p.metrics.RecordAnalysis(ctx, report.Provider, string(report.DetectedType), report.OverallScore, time.Since(start))

	if !enrich {
		p.archiveReport(ctx, analysis)
		p.metrics.RecordJob(TypeScore, "completed")
		return nil
	}

	if _, err := p.enqueuer.EnqueueEnrich(ctx, payload.AnalysisID); err != nil {
		// The heuristic result stands on its own
		p.logger.Error("failed to enqueue enrichment", "analysis_id", payload.AnalysisID, "error", err)
		if err := p.store.UpdateStage(payload.AnalysisID, models.StageCompleted, err.Error()); err != nil {
			return fmt.Errorf("failed to update stage: %w", err)
		}
		analysis.ProcessingStage = models.StageCompleted
		p.archiveReport(ctx, analysis)
	}

	p.metrics.RecordJob(TypeScore, "completed")
	return nil
}

// HandleEnrich replaces the heuristic scores with the provider's. Transient
// provider failures are retried; anything else keeps the heuristic result.
func (p *Processor) HandleEnrich(ctx context.Context, t *asynq.Task) error {
	var payload EnrichPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		p.logger.Error("failed to unmarshal task payload", "task_type", TypeEnrich, "error", err)
		return fmt.Errorf("invalid task payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, span, queueWait := startTaskSpan(ctx, TypeEnrich, payload.AnalysisID, payload.TraceInfo)
	defer span.End()

	retryCount, _ := asynq.GetRetryCount(ctx)
	maxRetry, hasMax := asynq.GetMaxRetry(ctx)
	lastAttempt := hasMax && retryCount >= maxRetry
	span.SetAttributes(attribute.Int("retry_count", retryCount))

	p.logger.Info("enriching analysis",
		"analysis_id", payload.AnalysisID,
		"provider", p.scorer.ProviderName(),
		"retry_count", retryCount,
		"max_retries", maxRetry,
		"queue_wait_seconds", queueWait.Seconds(),
		"trace_id", tracing.TraceIDFromContext(ctx),
	)

	analysis, err := p.store.GetAnalysis(payload.AnalysisID)
	if errors.Is(err, database.ErrNotFound) {
		p.metrics.RecordJob(TypeEnrich, "skipped")
		return fmt.Errorf("analysis %s: %w", payload.AnalysisID, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis: %w", err)
	}

	start := time.Now()
	result, err := p.scorer.Enrich(ctx, analysis.Content, analysis.ContentType)
	if err != nil {
		tracing.RecordError(ctx, err)

		if isRetriable(err) && !lastAttempt {
			p.logger.Warn("retriable provider error, will retry",
				"analysis_id", payload.AnalysisID,
				"error", err,
				"retry_count", retryCount,
			)
			p.metrics.RecordJob(TypeEnrich, "retry")
			return err
		}

		p.logger.Warn("enrichment failed, keeping heuristic result",
			"analysis_id", payload.AnalysisID,
			"error", err,
		)
		p.metrics.RecordFallback(p.scorer.ProviderName(), "enrich_failed")
		if err := p.store.UpdateStage(payload.AnalysisID, models.StageCompleted, err.Error()); err != nil {
			return fmt.Errorf("failed to update stage: %w", err)
		}
		analysis.ProcessingStage = models.StageCompleted
		p.archiveReport(ctx, analysis)
		p.metrics.RecordJob(TypeEnrich, "failed")
		return nil
	}

	if analysis.Report == nil {
		analysis.Report = p.scorer.Heuristic(analysis.Content, analysis.ContentType)
		analysis.Report.ID = analysis.ID
	}
	analysis.Report.SmartAnalysisResult = *result
	analysis.Report.Provider = p.scorer.ProviderName()
	analysis.Report.Heuristic = false
	analysis.OverallScore = result.OverallScore
	analysis.Provider = p.scorer.ProviderName()
	analysis.ProcessingStage = models.StageCompleted
	analysis.LastError = ""

	if err := p.store.SaveAnalysis(analysis); err != nil {
		tracing.RecordError(ctx, err)
		return fmt.Errorf("failed to save enriched analysis: %w", err)
	}

	p.metrics.RecordAnalysis(ctx, analysis.Provider, string(analysis.ContentType), analysis.OverallScore, time.Since(start))
	p.metrics.RecordJob(TypeEnrich, "completed")
	p.archiveReport(ctx, analysis)

	p.logger.Info("enrichment completed",
		"analysis_id", payload.AnalysisID,
		"provider", analysis.Provider,
		"overall_score", analysis.OverallScore,
	)
	return nil
}

func (p *Processor) archiveReport(ctx context.Context, analysis *models.Analysis) {
	if p.archive == nil {
		return
	}
	if err := p.archive.PutReport(ctx, analysis); err != nil {
		p.logger.Warn("failed to archive report", "analysis_id", analysis.ID, "error", err)
	}
}

// isRetriable reports whether a provider error is worth another attempt
func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	retriablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"service unavailable",
		"bad gateway",
		"gateway timeout",
		"too many requests",
		"rate limit",
		"status 429",
		"status 500",
		"status 502",
		"status 503",
		"status 504",
		"overloaded",
		"i/o timeout",
		"no such host",
		"network is unreachable",
	}

	for _, pattern := range retriablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zombar/contentlens/internal/models"
)

// Task type constants
const (
	TypeScore  = "contentlens:score"
	TypeEnrich = "contentlens:enrich"
)

// Queue names
const (
	QueueScoring    = "scoring"
	QueueEnrichment = "enrichment"
)

// Job states reported by the API
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// ErrJobNotFound is returned when neither the queue nor the store knows a job
var ErrJobNotFound = errors.New("job not found")

// TraceInfo links a task back to the request that enqueued it
type TraceInfo struct {
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	EnqueuedAt int64  `json:"enqueued_at"` // Unix timestamp in nanoseconds
}

// ScorePayload is the heuristic stage input
type ScorePayload struct {
	AnalysisID  string             `json:"analysis_id"`
	Content     string             `json:"content"`
	ContentType models.ContentType `json:"content_type"`
	TraceInfo
}

// EnrichPayload is the provider stage input; the text is read back from the store
type EnrichPayload struct {
	AnalysisID string `json:"analysis_id"`
	TraceInfo
}

// Client wraps the Asynq client for enqueueing tasks
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// ClientConfig contains configuration for the queue client
type ClientConfig struct {
	RedisAddr string
}

// NewClient creates a new queue client
func NewClient(cfg ClientConfig) *Client {
	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
	}

	return &Client{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
	}
}

// traceInfo captures the current span and records an enqueue event on it
func traceInfo(ctx context.Context, taskType, taskID, analysisID string) TraceInfo {
	info := TraceInfo{EnqueuedAt: time.Now().UnixNano()}

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		info.TraceID = spanCtx.TraceID().String()
		info.SpanID = spanCtx.SpanID().String()

		span.AddEvent("task_enqueued", trace.WithAttributes(
			attribute.String("task.type", taskType),
			attribute.String("task.id", taskID),
			attribute.String("analysis_id", analysisID),
			attribute.Int64("enqueued_at", info.EnqueuedAt),
		))
	}

	return info
}

func newScoreTask(ctx context.Context, analysisID, content string, contentType models.ContentType) (*asynq.Task, error) {
	payload := ScorePayload{
		AnalysisID:  analysisID,
		Content:     content,
		ContentType: contentType,
		TraceInfo:   traceInfo(ctx, TypeScore, analysisID, analysisID),
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}

	return asynq.NewTask(TypeScore, payloadBytes,
		asynq.TaskID(analysisID),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
		asynq.Queue(QueueScoring),
		asynq.Retention(24*time.Hour),
	), nil
}

func enrichTaskID(analysisID string) string {
	return analysisID + "-enrich"
}

func newEnrichTask(ctx context.Context, analysisID string) (*asynq.Task, error) {
	taskID := enrichTaskID(analysisID)
	payload := EnrichPayload{
		AnalysisID: analysisID,
		TraceInfo:  traceInfo(ctx, TypeEnrich, taskID, analysisID),
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}

	return asynq.NewTask(TypeEnrich, payloadBytes,
		asynq.TaskID(taskID),
		asynq.MaxRetry(5),
		asynq.Timeout(5*time.Minute),
		asynq.Queue(QueueEnrichment),
		asynq.Retention(24*time.Hour),
	), nil
}

// EnqueueScore enqueues the heuristic stage for a sanitized text
func (c *Client) EnqueueScore(ctx context.Context, analysisID, content string, contentType models.ContentType) (string, error) {
	task, err := newScoreTask(ctx, analysisID, content, contentType)
	if err != nil {
		return "", err
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue score task: %w", err)
	}
	return info.ID, nil
}

// EnqueueEnrich enqueues the provider stage for a saved analysis
func (c *Client) EnqueueEnrich(ctx context.Context, analysisID string) (string, error) {
	task, err := newEnrichTask(ctx, analysisID)
	if err != nil {
		return "", err
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue enrich task: %w", err)
	}
	return info.ID, nil
}

// TaskStatus reports whether a score task is still waiting or running
func (c *Client) TaskStatus(jobID string) (string, error) {
	info, err := c.inspector.GetTaskInfo(QueueScoring, jobID)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return "", ErrJobNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to inspect task: %w", err)
	}
	return taskStatus(info.State), nil
}

func taskStatus(state asynq.TaskState) string {
	switch state {
	case asynq.TaskStateActive:
		return StatusProcessing
	case asynq.TaskStateCompleted:
		return StatusCompleted
	default:
		return StatusQueued
	}
}

// Ping checks the Redis connection
func (c *Client) Ping() error {
	_, err := c.inspector.Queues()
	return err
}

// Close closes the client connection
func (c *Client) Close() error {
	if err := c.inspector.Close(); err != nil {
		c.client.Close()
		return err
	}
	return c.client.Close()
}

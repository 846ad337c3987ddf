package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zombar/contentlens/internal/archive"
	"github.com/zombar/contentlens/internal/content"
	"github.com/zombar/contentlens/internal/database"
	"github.com/zombar/contentlens/internal/extract"
	"github.com/zombar/contentlens/internal/models"
	"github.com/zombar/contentlens/internal/queue"
	"github.com/zombar/contentlens/internal/scoring"
	"github.com/zombar/contentlens/internal/tracing"
	"github.com/zombar/contentlens/pkg/logging"
)

// Version is reported by /health
var Version = "0.1.0"

// JobQueue is the async pipeline as seen by the API
type JobQueue interface {
	EnqueueScore(ctx context.Context, analysisID, content string, contentType models.ContentType) (string, error)
	TaskStatus(jobID string) (string, error)
	Ping() error
}

// ReportArchive stores finished reports
type ReportArchive interface {
	PutReport(ctx context.Context, analysis *models.Analysis) error
	GetReport(ctx context.Context, analysis *models.Analysis) ([]byte, error)
	Ping(ctx context.Context) error
}

// Config holds the handler's collaborators. Queue and Archive are optional.
type Config struct {
	Scoring            *scoring.Service
	DB                 *database.DB
	Queue              JobQueue
	Archive            ReportArchive
	Fetcher            *extract.Fetcher
	Logger             *slog.Logger
	RateLimitPerMinute int
}

// Handler handles HTTP requests
type Handler struct {
	scoring *scoring.Service
	db      *database.DB
	queue   JobQueue
	archive ReportArchive
	fetcher *extract.Fetcher
	logger  *slog.Logger
	limiter *clientLimiter
	mux     *http.ServeMux
}

func newHandler(cfg Config) (*Handler, error) {
	if cfg.Scoring == nil || cfg.DB == nil {
		return nil, errors.New("scoring service and database are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = extract.NewFetcher(extract.DefaultTimeout, cfg.Logger)
	}

	limiter, err := newClientLimiter(cfg.RateLimitPerMinute)
	if err != nil {
		return nil, err
	}

	h := &Handler{
		scoring: cfg.Scoring,
		db:      cfg.DB,
		queue:   cfg.Queue,
		archive: cfg.Archive,
		fetcher: cfg.Fetcher,
		logger:  cfg.Logger,
		limiter: limiter,
		mux:     http.NewServeMux(),
	}
	h.setupRoutes()
	return h, nil
}

// NewHandler creates the API handler with CORS and per-client rate limiting
func NewHandler(cfg Config) (http.Handler, error) {
	h, err := newHandler(cfg)
	if err != nil {
		return nil, err
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(h.limiter.Middleware(h.mux)), nil
}

// setupRoutes configures all API routes
func (h *Handler) setupRoutes() {
	h.mux.Handle("/metrics", promhttp.Handler())
	h.mux.HandleFunc("/health", h.handleHealth)
	h.mux.HandleFunc("/api/analyze", h.handleAnalyze)
	h.mux.HandleFunc("/api/compare", h.handleCompare)
	h.mux.HandleFunc("/api/rewrite", h.handleRewrite)
	h.mux.HandleFunc("/api/fetch-url", h.handleFetchURL)
	h.mux.HandleFunc("/api/history", h.handleHistory)
	h.mux.HandleFunc("/api/analyses/", h.handleAnalysisOperations)
	h.mux.HandleFunc("/api/jobs/", h.handleJobStatus)
}

// handleHealth reports provider and dependency status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	ai := "mock"
	if h.scoring.HasProvider() {
		ai = "configured"
	}

	status := "ok"
	dbStatus := "ok"
	if err := h.db.Ping(); err != nil {
		status = "degraded"
		dbStatus = "error"
	}

	queueStatus := "disabled"
	if h.queue != nil {
		queueStatus = "ok"
		if err := h.queue.Ping(); err != nil {
			status = "degraded"
			queueStatus = "error"
		}
	}

	archiveStatus := "disabled"
	if h.archive != nil {
		archiveStatus = "ok"
		if err := h.archive.Ping(ctx); err != nil {
			archiveStatus = "error"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":   status,
		"version":  Version,
		"ai":       ai,
		"provider": h.scoring.ProviderName(),
		"database": dbStatus,
		"queue":    queueStatus,
		"archive":  archiveStatus,
		"time":     time.Now().Format(time.RFC3339),
	})
}

// handleAnalyze scores content inline, or enqueues it when async is requested
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Content string `json:"content"`
		Type    string `json:"type"`
		Async   bool   `json:"async,omitempty"`
	}
	if !h.decodeContent(w, r, &req, 1) {
		return
	}

	text, contentType, err := h.scoring.Prepare(req.Content, req.Type)
	if err != nil {
		respondError(w, h.contentErrorMessage(err), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tracing.SetSpanAttributes(ctx,
		attribute.Int("content.length", len([]rune(text))),
		attribute.String("content.type", string(contentType)),
		attribute.Bool("analyze.async", req.Async))

	analysisID := uuid.New().String()

	if req.Async {
		if h.queue == nil {
			respondError(w, "Async analysis requires a queue", http.StatusServiceUnavailable)
			return
		}
		taskID, err := h.queue.EnqueueScore(ctx, analysisID, text, contentType)
		if err != nil {
			logging.HTTPErrorLogger(h.logger, http.StatusInternalServerError, err, r)
			respondError(w, fmt.Sprintf("Failed to enqueue analysis: %v", err), http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]interface{}{
			"job_id":  analysisID,
			"task_id": taskID,
			"status":  queue.StatusQueued,
			"message": "Analysis queued for processing",
		}, http.StatusAccepted)
		return
	}

	report := h.scoring.AnalyzePrepared(ctx, text, contentType)
	report.ID = analysisID
	h.persist(ctx, r, text, report)

	respondJSON(w, report, http.StatusOK)
}

// persist records an inline analysis in the history. Failures are logged;
// the caller still gets its report.
func (h *Handler) persist(ctx context.Context, r *http.Request, text string, report *models.Report) {
	analysis := &models.Analysis{
		ID:              report.ID,
		Content:         text,
		ContentPreview:  content.Preview(text, content.DefaultPreviewLength),
		ContentType:     report.DetectedType,
		OverallScore:    report.OverallScore,
		Provider:        report.Provider,
		Report:          report,
		ProcessingStage: models.StageCompleted,
	}

	_, span := tracing.Tracer().Start(ctx, "database.save_analysis")
	span.SetAttributes(attribute.String("analysis.id", analysis.ID))
	err := h.db.SaveAnalysis(analysis)
	if err != nil {
		span.RecordError(err)
	}
	span.End()
	if err != nil {
		logging.HTTPErrorLogger(h.logger, http.StatusInternalServerError, err, r)
		return
	}

	if h.archive != nil {
		if err := h.archive.PutReport(ctx, analysis); err != nil {
			h.logger.Warn("failed to archive report", "analysis_id", analysis.ID, "error", err)
		}
	}
}

// handleCompare scores two versions side by side
func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ContentA string `json:"contentA"`
		ContentB string `json:"contentB"`
		Type     string `json:"type"`
	}
	if !h.decodeContent(w, r, &req, 2) {
		return
	}

	comparison, err := h.scoring.Compare(r.Context(), req.ContentA, req.ContentB, req.Type)
	if err != nil {
		msg := h.contentErrorMessage(err)
		var versionErr *scoring.VersionError
		if errors.As(err, &versionErr) {
			msg = fmt.Sprintf("Version %s: %s", versionErr.Version, msg)
		}
		respondError(w, msg, http.StatusBadRequest)
		return
	}

	respondJSON(w, comparison, http.StatusOK)
}

// handleRewrite proposes alternative hooks. The type defaults to auto.
func (h *Handler) handleRewrite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Content string `json:"content"`
		Type    string `json:"type"`
	}
	if !h.decodeContent(w, r, &req, 1) {
		return
	}
	if req.Content == "" {
		respondError(w, "Content required", http.StatusBadRequest)
		return
	}
	if req.Type == "" {
		req.Type = content.AutoDetect
	}

	result, err := h.scoring.Rewrite(r.Context(), req.Content, req.Type)
	if err != nil {
		respondError(w, h.contentErrorMessage(err), http.StatusBadRequest)
		return
	}

	respondJSON(w, result, http.StatusOK)
}

// handleFetchURL extracts article text from a web page
func (h *Handler) handleFetchURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	extracted, err := h.fetcher.FetchURL(r.Context(), req.URL)
	if err != nil {
		msg, status := fetchErrorResponse(err)
		if status >= http.StatusInternalServerError {
			logging.HTTPErrorLogger(h.logger, status, err, r)
		}
		respondError(w, msg, status)
		return
	}

	respondJSON(w, extracted, http.StatusOK)
}

func fetchErrorResponse(err error) (string, int) {
	var statusErr *extract.StatusError
	switch {
	case errors.Is(err, extract.ErrURLRequired):
		return "URL is required", http.StatusBadRequest
	case errors.Is(err, extract.ErrUnsupportedScheme):
		return "Only HTTP/HTTPS URLs supported", http.StatusBadRequest
	case errors.Is(err, extract.ErrInvalidURL):
		return "Invalid URL", http.StatusBadRequest
	case errors.Is(err, extract.ErrNotEnoughContent):
		return "Could not extract readable content from this URL", http.StatusUnprocessableEntity
	case errors.As(err, &statusErr):
		return fmt.Sprintf("Failed to fetch URL (%d)", statusErr.StatusCode), http.StatusBadGateway
	case errors.Is(err, extract.ErrFetchTimeout):
		return "URL fetch timed out", http.StatusGatewayTimeout
	default:
		return "Failed to fetch URL", http.StatusInternalServerError
	}
}

// handleHistory lists analyses newest first, twenty per page
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	history, err := h.db.ListAnalyses(page)
	if err != nil {
		logging.HTTPErrorLogger(h.logger, http.StatusInternalServerError, err, r)
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, history, http.StatusOK)
}

// handleAnalysisOperations handles GET and DELETE for one analysis and GET
// for its archived report
func (h *Handler) handleAnalysisOperations(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(r.URL.Path[len("/api/analyses/"):], "/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		respondError(w, "Analysis ID is required", http.StatusBadRequest)
		return
	}

	switch {
	case sub == "report" && r.Method == http.MethodGet:
		h.getArchivedReport(w, r, id)
	case sub != "":
		respondError(w, "Not found", http.StatusNotFound)
	case r.Method == http.MethodGet:
		h.getAnalysis(w, r, id)
	case r.Method == http.MethodDelete:
		h.deleteAnalysis(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// getAnalysis retrieves a specific analysis
func (h *Handler) getAnalysis(w http.ResponseWriter, r *http.Request, id string) {
	analysis, err := h.db.GetAnalysis(id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, "Analysis not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.HTTPErrorLogger(h.logger, http.StatusInternalServerError, err, r)
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, analysis, http.StatusOK)
}

// deleteAnalysis deletes a specific analysis
func (h *Handler) deleteAnalysis(w http.ResponseWriter, r *http.Request, id string) {
	err := h.db.DeleteAnalysis(id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, "Analysis not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.HTTPErrorLogger(h.logger, http.StatusInternalServerError, err, r)
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getArchivedReport streams the report JSON kept in object storage
func (h *Handler) getArchivedReport(w http.ResponseWriter, r *http.Request, id string) {
	if h.archive == nil {
		respondError(w, "Report archive not configured", http.StatusServiceUnavailable)
		return
	}

	analysis, err := h.db.GetAnalysis(id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, "Analysis not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.HTTPErrorLogger(h.logger, http.StatusInternalServerError, err, r)
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data, err := h.archive.GetReport(r.Context(), analysis)
	if errors.Is(err, archive.ErrNotFound) {
		respondError(w, "Report not archived", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.HTTPErrorLogger(h.logger, http.StatusBadGateway, err, r)
		respondError(w, "Failed to read archived report", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleJobStatus reports the stage of an async analysis
func (h *Handler) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := r.URL.Path[len("/api/jobs/"):]
	if idx := strings.Index(jobID, "/"); idx != -1 {
		jobID = jobID[:idx]
	}
	if jobID == "" {
		respondError(w, "Job ID is required", http.StatusBadRequest)
		return
	}

	analysis, err := h.db.GetAnalysis(jobID)
	if err == nil {
		status := queue.StatusCompleted
		if analysis.ProcessingStage == models.StageEnriching {
			status = queue.StatusProcessing
		}

		response := map[string]interface{}{
			"job_id":     jobID,
			"status":     status,
			"created_at": analysis.CreatedAt,
			"updated_at": analysis.UpdatedAt,
		}
		// The heuristic report is already usable while enrichment runs
		response["analysis"] = analysis
		respondJSON(w, response, http.StatusOK)
		return
	}
	if !errors.Is(err, database.ErrNotFound) {
		logging.HTTPErrorLogger(h.logger, http.StatusInternalServerError, err, r)
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Not saved yet: ask the queue
	if h.queue != nil {
		status, err := h.queue.TaskStatus(jobID)
		if err == nil {
			respondJSON(w, map[string]interface{}{
				"job_id": jobID,
				"status": status,
			}, http.StatusOK)
			return
		}
		if !errors.Is(err, queue.ErrJobNotFound) {
			logging.HTTPErrorLogger(h.logger, http.StatusInternalServerError, err, r)
			respondError(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	respondJSON(w, map[string]interface{}{
		"job_id":  jobID,
		"status":  "not_found",
		"message": "Job not found - it may have expired",
	}, http.StatusNotFound)
}

// bodyLimitFactor allows for JSON escaping and multi-byte runes on top of
// the character ceiling
const bodyLimitFactor = 4

// decodeContent decodes a JSON body carrying up to texts content fields.
// Bodies past the size bound are rejected as too long before any scoring.
func (h *Handler) decodeContent(w http.ResponseWriter, r *http.Request, v interface{}, texts int) bool {
	limit := int64(h.scoring.MaxContentLength()) * bodyLimitFactor * int64(texts)
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, h.contentErrorMessage(scoring.ErrContentTooLong), http.StatusBadRequest)
			return false
		}
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// contentErrorMessage maps validation errors onto user-facing messages
func (h *Handler) contentErrorMessage(err error) string {
	switch {
	case errors.Is(err, scoring.ErrContentRequired):
		return "Content and type are required"
	case errors.Is(err, scoring.ErrContentTooLong):
		return fmt.Sprintf("Content too long. Max %s characters.", formatThousands(h.scoring.MaxContentLength()))
	case errors.Is(err, scoring.ErrEmptyContent):
		return "Content cannot be empty."
	default:
		return "Analysis failed"
	}
}

// formatThousands renders n with comma separators, e.g. 15000 -> "15,000"
func formatThousands(n int) string {
	if n < 0 {
		return "-" + formatThousands(-n)
	}
	s := strconv.Itoa(n)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

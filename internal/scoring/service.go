// Package scoring orchestrates one analysis request: input validation,
// content type resolution, the optional provider call and the heuristic
// fallback.
package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/zombar/contentlens/internal/analyzer"
	"github.com/zombar/contentlens/internal/content"
	"github.com/zombar/contentlens/internal/metrics"
	"github.com/zombar/contentlens/internal/models"
	"github.com/zombar/contentlens/internal/provider"
	"github.com/zombar/contentlens/internal/tracing"
)

var (
	ErrContentRequired = errors.New("content and type are required")
	ErrContentTooLong  = errors.New("content too long")
	ErrEmptyContent    = errors.New("content cannot be empty")
)

// VersionError tells which side of a comparison failed validation
type VersionError struct {
	Version string
	Err     error
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("version %s: %v", e.Version, e.Err)
}

func (e *VersionError) Unwrap() error {
	return e.Err
}

// Fallback reasons reported in logs and metrics
const (
	reasonTimeout     = "timeout"
	reasonMalformed   = "malformed"
	reasonRateLimited = "rate_limited"
	reasonError       = "error"
)

// Options tune the service
type Options struct {
	MaxContentLength int
	ProviderTimeout  time.Duration
	// ProviderRateLimit is provider calls per second; 0 means unlimited
	ProviderRateLimit float64
	// CacheSize is the number of cached provider results; 0 disables the cache
	CacheSize int
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		MaxContentLength:  15000,
		ProviderTimeout:   20 * time.Second,
		ProviderRateLimit: 2,
		CacheSize:         512,
	}
}

// Service scores content with the configured provider and falls back to
// the heuristic engine whenever the provider is absent or fails.
type Service struct {
	engine   *analyzer.Analyzer
	provider provider.Provider
	opts     Options
	limiter  *rate.Limiter
	analyses *lru.Cache[string, models.SmartAnalysisResult]
	rewrites *lru.Cache[string, []models.HookRewrite]
	metrics  *metrics.BusinessMetrics
	logger   *slog.Logger
}

// New creates a Service. p may be nil for heuristics only; m may be nil.
func New(p provider.Provider, opts Options, m *metrics.BusinessMetrics, logger *slog.Logger) (*Service, error) {
	if opts.MaxContentLength <= 0 {
		opts.MaxContentLength = DefaultOptions().MaxContentLength
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		engine:   analyzer.New(),
		provider: p,
		opts:     opts,
		metrics:  m,
		logger:   logger,
	}

	if opts.ProviderRateLimit > 0 {
		burst := int(math.Ceil(opts.ProviderRateLimit))
		s.limiter = rate.NewLimiter(rate.Limit(opts.ProviderRateLimit), burst)
	}

	if opts.CacheSize > 0 {
		var err error
		if s.analyses, err = lru.New[string, models.SmartAnalysisResult](opts.CacheSize); err != nil {
			return nil, fmt.Errorf("failed to create analysis cache: %w", err)
		}
		if s.rewrites, err = lru.New[string, []models.HookRewrite](opts.CacheSize); err != nil {
			return nil, fmt.Errorf("failed to create rewrite cache: %w", err)
		}
	}

	return s, nil
}

// ProviderName returns the configured provider, or "heuristic"
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return models.HeuristicProvider
	}
	return s.provider.Name()
}

// HasProvider reports whether a remote provider is configured
func (s *Service) HasProvider() bool {
	return s.provider != nil
}

// MaxContentLength is the input ceiling in characters
func (s *Service) MaxContentLength() int {
	return s.opts.MaxContentLength
}

// Prepare validates and sanitizes raw input and resolves its content type.
// An empty declared type is rejected; "auto" detects the type from the text.
func (s *Service) Prepare(raw, declaredType string) (string, models.ContentType, error) {
	if raw == "" || strings.TrimSpace(declaredType) == "" {
		return "", "", ErrContentRequired
	}

	text := content.Sanitize(raw)
	if utf8.RuneCountInString(text) > s.opts.MaxContentLength {
		return "", "", ErrContentTooLong
	}
	if text == "" {
		return "", "", ErrEmptyContent
	}

	return text, content.ResolveContentType(declaredType, text), nil
}

// Analyze produces a full report for raw input
func (s *Service) Analyze(ctx context.Context, raw, declaredType string) (*models.Report, error) {
	text, contentType, err := s.Prepare(raw, declaredType)
	if err != nil {
		return nil, err
	}
	return s.AnalyzePrepared(ctx, text, contentType), nil
}

// AnalyzePrepared scores text that has already been through Prepare
func (s *Service) AnalyzePrepared(ctx context.Context, text string, contentType models.ContentType) *models.Report {
	ctx, span := tracing.Tracer().Start(ctx, "scoring.analyze")
	defer span.End()

	start := time.Now()
	report := s.engine.Report(text, contentType)

	if s.provider != nil {
		result, err := s.Enrich(ctx, text, contentType)
		if err != nil {
			s.fallback(ctx, "analyze", err)
		} else {
			report.SmartAnalysisResult = *result
			report.Provider = s.provider.Name()
			report.Heuristic = false
		}
	}

	tracing.SetSpanAttributes(ctx,
		attribute.String("content_type", string(contentType)),
		attribute.String("provider", report.Provider),
		attribute.Int("char_count", report.CharCount),
		attribute.Int("overall_score", report.OverallScore),
	)

	source := report.Provider
	s.metrics.RecordAnalysis(ctx, source, string(contentType), report.OverallScore, time.Since(start))
	return report
}

// Heuristic scores text with the built-in engine only
func (s *Service) Heuristic(text string, contentType models.ContentType) *models.Report {
	return s.engine.Report(text, contentType)
}

// Enrich asks the provider for a SmartAnalysisResult. Unlike
// AnalyzePrepared it surfaces provider errors so callers can retry.
func (s *Service) Enrich(ctx context.Context, text string, contentType models.ContentType) (*models.SmartAnalysisResult, error) {
	if s.provider == nil {
		return nil, provider.ErrNotConfigured
	}

	key := cacheKey(s.provider.Name(), "analyze", contentType, text)
	if s.analyses != nil {
		if cached, ok := s.analyses.Get(key); ok {
			s.metrics.RecordCache(true)
			return &cached, nil
		}
		s.metrics.RecordCache(false)
	}

	ctx, cancel := s.providerContext(ctx)
	defer cancel()

	ctx, span := tracing.Tracer().Start(ctx, "provider."+s.provider.Name()+".analyze")
	defer span.End()

	if err := s.wait(ctx); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	result, err := s.provider.Analyze(ctx, text, contentType)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("%s analyze: %w", s.provider.Name(), err)
	}

	if s.analyses != nil {
		s.analyses.Add(key, *result)
	}
	return result, nil
}

// Compare analyzes two versions concurrently and reports A minus B
func (s *Service) Compare(ctx context.Context, rawA, rawB, declaredType string) (*models.Comparison, error) {
	textA, typeA, err := s.Prepare(rawA, declaredType)
	if err != nil {
		return nil, &VersionError{Version: "A", Err: err}
	}
	textB, typeB, err := s.Prepare(rawB, declaredType)
	if err != nil {
		return nil, &VersionError{Version: "B", Err: err}
	}

	var a, b *models.Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a = s.AnalyzePrepared(gctx, textA, typeA)
		return nil
	})
	g.Go(func() error {
		b = s.AnalyzePrepared(gctx, textB, typeB)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.Comparison{
		A:      a,
		B:      b,
		Delta:  delta(a, b),
		Winner: winner(a.OverallScore, b.OverallScore),
	}, nil
}

func delta(a, b *models.Report) models.ScoreDelta {
	return models.ScoreDelta{
		Overall:   a.OverallScore - b.OverallScore,
		Hook:      a.HookStrength.Score - b.HookStrength.Score,
		Structure: a.Structure.Score - b.Structure.Score,
		Emotion:   a.EmotionalTriggers.Score - b.EmotionalTriggers.Score,
		Flesch:    a.Readability.FleschReadingEase - b.Readability.FleschReadingEase,
	}
}

func winner(a, b int) string {
	switch {
	case a > b:
		return "A"
	case b > a:
		return "B"
	default:
		return "tie"
	}
}

// Rewrite proposes three alternative hooks
func (s *Service) Rewrite(ctx context.Context, raw, declaredType string) (*models.RewriteResult, error) {
	text, contentType, err := s.Prepare(raw, declaredType)
	if err != nil {
		return nil, err
	}

	if s.provider != nil {
		rewrites, err := s.providerRewrite(ctx, text, contentType)
		if err == nil {
			return &models.RewriteResult{Rewrites: rewrites, Provider: s.provider.Name()}, nil
		}
		s.fallback(ctx, "rewrite", err)
	}

	return &models.RewriteResult{
		Rewrites:  FallbackRewrites(text),
		Provider:  models.HeuristicProvider,
		Heuristic: true,
	}, nil
}

func (s *Service) providerRewrite(ctx context.Context, text string, contentType models.ContentType) ([]models.HookRewrite, error) {
	key := cacheKey(s.provider.Name(), "rewrite", contentType, text)
	if s.rewrites != nil {
		if cached, ok := s.rewrites.Get(key); ok {
			s.metrics.RecordCache(true)
			return cached, nil
		}
		s.metrics.RecordCache(false)
	}

	ctx, cancel := s.providerContext(ctx)
	defer cancel()

	ctx, span := tracing.Tracer().Start(ctx, "provider."+s.provider.Name()+".rewrite")
	defer span.End()

	if err := s.wait(ctx); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	rewrites, err := s.provider.Rewrite(ctx, text, contentType)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("%s rewrite: %w", s.provider.Name(), err)
	}

	if s.rewrites != nil {
		s.rewrites.Add(key, rewrites)
	}
	return rewrites, nil
}

func (s *Service) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.ProviderTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.ProviderTimeout)
	}
	return context.WithCancel(ctx)
}

// errRateLimited marks a call abandoned while waiting for the limiter
var errRateLimited = errors.New("provider rate limit wait exceeded")

func (s *Service) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", errRateLimited, err)
	}
	return nil
}

func (s *Service) fallback(ctx context.Context, op string, err error) {
	reason := fallbackReason(err)
	s.logger.WarnContext(ctx, "provider failed, using heuristic result",
		"provider", s.provider.Name(),
		"operation", op,
		"reason", reason,
		"error", err,
		"trace_id", tracing.TraceIDFromContext(ctx),
	)
	s.metrics.RecordFallback(s.provider.Name(), reason)
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, errRateLimited):
		return reasonRateLimited
	case errors.Is(err, context.DeadlineExceeded):
		return reasonTimeout
	case errors.Is(err, provider.ErrMalformedResponse):
		return reasonMalformed
	default:
		return reasonError
	}
}

func cacheKey(providerName, op string, contentType models.ContentType, text string) string {
	sum := sha256.Sum256([]byte(providerName + "\x00" + op + "\x00" + string(contentType) + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

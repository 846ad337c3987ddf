package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/contentlens/internal/analyzer"
	"github.com/zombar/contentlens/internal/metrics"
	"github.com/zombar/contentlens/internal/models"
	"github.com/zombar/contentlens/internal/provider"
	"github.com/zombar/contentlens/pkg/logging"
)

const strongPost = "Why do most people never finish what they start?\n" +
	"I struggled with this for 5 years.\n" +
	"Here's the secret: you just need a simple system today.\n" +
	"What do you think?"

type fakeProvider struct {
	mu       sync.Mutex
	calls    int
	result   *models.SmartAnalysisResult
	rewrites []models.HookRewrite
	err      error
	block    bool
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Analyze(ctx context.Context, text string, contentType models.ContentType) (*models.SmartAnalysisResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	result := *f.result
	return &result, nil
}

func (f *fakeProvider) Rewrite(ctx context.Context, text string, contentType models.ContentType) ([]models.HookRewrite, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.rewrites, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func providerResult() *models.SmartAnalysisResult {
	return &models.SmartAnalysisResult{
		OverallScore:      88,
		HookStrength:      models.HookAnalysis{Score: 90, Feedback: "Great hook", Techniques: []string{"Question Hook"}},
		Structure:         models.StructureAnalysis{Score: 85, Feedback: "Clean"},
		EmotionalTriggers: models.EmotionalAnalysis{Score: 87, Feedback: "Strong", Triggers: []string{"Curiosity"}},
		Improvements:      []string{"Tighten the close."},
		Summary:           "Strong post.",
	}
}

func newService(t *testing.T, p provider.Provider, opts Options) *Service {
	t.Helper()
	svc, err := New(p, opts, nil, logging.Discard())
	require.NoError(t, err)
	return svc
}

func TestPrepare(t *testing.T) {
	svc := newService(t, nil, Options{MaxContentLength: 20})

	tests := []struct {
		name     string
		raw      string
		declared string
		text     string
		ct       models.ContentType
		err      error
	}{
		{name: "missing content", raw: "", declared: "auto", err: ErrContentRequired},
		{name: "missing type", raw: "hello", declared: "", err: ErrContentRequired},
		{name: "whitespace only", raw: "   \n\n  ", declared: "auto", err: ErrEmptyContent},
		{name: "control characters only", raw: "\x00\x01\x7f", declared: "tweet", err: ErrEmptyContent},
		{name: "too long", raw: strings.Repeat("a", 21), declared: "auto", err: ErrContentTooLong},
		{name: "sanitized under limit", raw: "  hello\r\nworld  ", declared: "auto", text: "hello\nworld", ct: models.ShortForm},
		{name: "declared type", raw: "hello", declared: "article", text: "hello", ct: models.LongForm},
		{name: "unknown type", raw: "hello", declared: "memo", text: "hello", ct: models.LongForm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ct, err := svc.Prepare(tt.raw, tt.declared)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.text, text)
			assert.Equal(t, tt.ct, ct)
		})
	}
}

func TestAnalyzeHeuristicOnly(t *testing.T) {
	svc := newService(t, nil, DefaultOptions())

	report, err := svc.Analyze(context.Background(), strongPost, "short-form")
	require.NoError(t, err)

	assert.Equal(t, analyzer.New().Report(strongPost, models.ShortForm), report)
	assert.Equal(t, models.HeuristicProvider, report.Provider)
	assert.True(t, report.Heuristic)
	assert.Equal(t, 72, report.OverallScore)
	assert.Equal(t, models.HeuristicProvider, svc.ProviderName())
	assert.False(t, svc.HasProvider())
}

func TestAnalyzeWithProvider(t *testing.T) {
	fake := &fakeProvider{result: providerResult()}
	svc := newService(t, fake, DefaultOptions())

	report, err := svc.Analyze(context.Background(), strongPost, "auto")
	require.NoError(t, err)

	assert.Equal(t, *providerResult(), report.SmartAnalysisResult)
	assert.Equal(t, "fake", report.Provider)
	assert.False(t, report.Heuristic)
	// Readability and tone always come from the engine
	assert.Equal(t, analyzer.AnalyzeReadability(strongPost), report.Readability)
	assert.Equal(t, analyzer.AnalyzeTone(strongPost), report.Tone)
}

func TestAnalyzeFallsBackOnProviderError(t *testing.T) {
	registry := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = registry
	m := metrics.NewBusinessMetrics("contentlens")

	fake := &fakeProvider{err: fmt.Errorf("bad output: %w", provider.ErrMalformedResponse)}
	svc, err := New(fake, DefaultOptions(), m, logging.Discard())
	require.NoError(t, err)

	report, err := svc.Analyze(context.Background(), strongPost, "short-form")
	require.NoError(t, err)

	assert.Equal(t, analyzer.RunSmartAnalysis(strongPost, models.ShortForm), report.SmartAnalysisResult)
	assert.Equal(t, models.HeuristicProvider, report.Provider)
	assert.True(t, report.Heuristic)

	count, err := testutil.GatherAndCount(registry, "contentlens_provider_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAnalyzeFallsBackOnTimeout(t *testing.T) {
	fake := &fakeProvider{block: true}
	opts := DefaultOptions()
	opts.ProviderTimeout = 20 * time.Millisecond
	svc := newService(t, fake, opts)

	start := time.Now()
	report, err := svc.Analyze(context.Background(), strongPost, "short-form")
	require.NoError(t, err)

	assert.True(t, report.Heuristic)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestAnalyzeCachesProviderResults(t *testing.T) {
	fake := &fakeProvider{result: providerResult()}
	svc := newService(t, fake, DefaultOptions())

	for i := 0; i < 3; i++ {
		_, err := svc.Analyze(context.Background(), strongPost, "short-form")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fake.callCount())

	// A different content type is a different cache entry
	_, err := svc.Analyze(context.Background(), strongPost, "long-form")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.callCount())
}

func TestAnalyzeCacheDisabled(t *testing.T) {
	fake := &fakeProvider{result: providerResult()}
	opts := DefaultOptions()
	opts.CacheSize = 0
	svc := newService(t, fake, opts)

	for i := 0; i < 3; i++ {
		_, err := svc.Analyze(context.Background(), strongPost, "short-form")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, fake.callCount())
}

func TestEnrichWithoutProvider(t *testing.T) {
	svc := newService(t, nil, DefaultOptions())
	_, err := svc.Enrich(context.Background(), "text", models.ShortForm)
	assert.ErrorIs(t, err, provider.ErrNotConfigured)
}

func TestEnrichSurfacesProviderErrors(t *testing.T) {
	boom := errors.New("connection refused")
	svc := newService(t, &fakeProvider{err: boom}, DefaultOptions())

	_, err := svc.Enrich(context.Background(), "text", models.ShortForm)
	assert.ErrorIs(t, err, boom)
}

func TestProviderRateLimit(t *testing.T) {
	fake := &fakeProvider{result: providerResult()}
	opts := DefaultOptions()
	opts.CacheSize = 0
	opts.ProviderRateLimit = 0.001
	opts.ProviderTimeout = 50 * time.Millisecond
	svc := newService(t, fake, opts)

	_, err := svc.Enrich(context.Background(), "one", models.ShortForm)
	require.NoError(t, err)

	_, err = svc.Enrich(context.Background(), "two", models.ShortForm)
	assert.ErrorIs(t, err, errRateLimited)
	assert.Equal(t, 1, fake.callCount())
}

func TestFallbackReason(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{context.DeadlineExceeded, reasonTimeout},
		{fmt.Errorf("fake analyze: %w", context.DeadlineExceeded), reasonTimeout},
		{fmt.Errorf("x: %w", provider.ErrMalformedResponse), reasonMalformed},
		{fmt.Errorf("%w: burst", errRateLimited), reasonRateLimited},
		{errors.New("status 500"), reasonError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, fallbackReason(tt.err), tt.err.Error())
	}
}

func TestCompare(t *testing.T) {
	svc := newService(t, nil, DefaultOptions())

	weak := "Ship it."
	result, err := svc.Compare(context.Background(), strongPost, weak, "short-form")
	require.NoError(t, err)

	a := analyzer.New().Report(strongPost, models.ShortForm)
	b := analyzer.New().Report(weak, models.ShortForm)

	assert.Equal(t, a, result.A)
	assert.Equal(t, b, result.B)
	assert.Equal(t, models.ScoreDelta{
		Overall:   a.OverallScore - b.OverallScore,
		Hook:      a.HookStrength.Score - b.HookStrength.Score,
		Structure: a.Structure.Score - b.Structure.Score,
		Emotion:   a.EmotionalTriggers.Score - b.EmotionalTriggers.Score,
		Flesch:    a.Readability.FleschReadingEase - b.Readability.FleschReadingEase,
	}, result.Delta)
	assert.Equal(t, "A", result.Winner)
}

func TestCompareTie(t *testing.T) {
	svc := newService(t, nil, DefaultOptions())

	result, err := svc.Compare(context.Background(), strongPost, strongPost, "short-form")
	require.NoError(t, err)
	assert.Equal(t, "tie", result.Winner)
	assert.Equal(t, models.ScoreDelta{}, result.Delta)
}

func TestCompareValidatesBothVersions(t *testing.T) {
	svc := newService(t, nil, DefaultOptions())

	_, err := svc.Compare(context.Background(), "fine", "   ", "short-form")
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Contains(t, err.Error(), "version B")

	var versionErr *VersionError
	require.ErrorAs(t, err, &versionErr)
	assert.Equal(t, "B", versionErr.Version)
}

func TestWinner(t *testing.T) {
	assert.Equal(t, "A", winner(70, 60))
	assert.Equal(t, "B", winner(60, 70))
	assert.Equal(t, "tie", winner(65, 65))
}

func TestRewriteWithoutProvider(t *testing.T) {
	svc := newService(t, nil, DefaultOptions())

	result, err := svc.Rewrite(context.Background(), "Writing Every Day Is Overrated. Here is why.", "auto")
	require.NoError(t, err)

	assert.True(t, result.Heuristic)
	assert.Equal(t, models.HeuristicProvider, result.Provider)
	require.Len(t, result.Rewrites, 3)
	assert.Equal(t, "Most people get this wrong about writing every day is overrated... and it's costing them everything.",
		result.Rewrites[0].Hook)
}

func TestRewriteWithProvider(t *testing.T) {
	rewrites := []models.HookRewrite{{Style: "Bold Claim", Hook: "Stop writing daily.", Why: "Contrarian."}}
	fake := &fakeProvider{rewrites: rewrites}
	svc := newService(t, fake, DefaultOptions())

	result, err := svc.Rewrite(context.Background(), strongPost, "short-form")
	require.NoError(t, err)
	assert.Equal(t, &models.RewriteResult{Rewrites: rewrites, Provider: "fake"}, result)

	// Cached on the second call
	_, err = svc.Rewrite(context.Background(), strongPost, "short-form")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.callCount())
}

func TestRewriteFallsBackOnProviderError(t *testing.T) {
	svc := newService(t, &fakeProvider{err: errors.New("down")}, DefaultOptions())

	result, err := svc.Rewrite(context.Background(), strongPost, "short-form")
	require.NoError(t, err)
	assert.True(t, result.Heuristic)
	assert.Equal(t, FallbackRewrites(strongPost), result.Rewrites)
}

func TestRewriteValidates(t *testing.T) {
	svc := newService(t, nil, DefaultOptions())
	_, err := svc.Rewrite(context.Background(), "", "auto")
	assert.ErrorIs(t, err, ErrContentRequired)
}

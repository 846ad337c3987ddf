package queue

import (
	"context"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/zombar/contentlens/internal/database"
	"github.com/zombar/contentlens/internal/models"
	"github.com/zombar/contentlens/internal/provider"
	"github.com/zombar/contentlens/internal/scoring"
	"github.com/zombar/contentlens/pkg/logging"
)

const samplePost = "Why do most people never finish what they start?\n" +
	"I struggled with this for 5 years.\n" +
	"Here's the secret: you just need a simple system today.\n" +
	"What do you think?"

type memoryStore struct {
	mu       sync.Mutex
	analyses map[string]*models.Analysis
	saveErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{analyses: map[string]*models.Analysis{}}
}

func (s *memoryStore) SaveAnalysis(a *models.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	stored := *a
	s.analyses[a.ID] = &stored
	return nil
}

func (s *memoryStore) GetAnalysis(id string) (*models.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.analyses[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (s *memoryStore) UpdateStage(id, stage, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.analyses[id]
	if !ok {
		return database.ErrNotFound
	}
	a.ProcessingStage = stage
	a.LastError = lastError
	return nil
}

func (s *memoryStore) get(t *testing.T, id string) *models.Analysis {
	t.Helper()
	a, err := s.GetAnalysis(id)
	require.NoError(t, err)
	return a
}

// captureEnqueuer builds enrich tasks without Redis
type captureEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (e *captureEnqueuer) EnqueueEnrich(ctx context.Context, analysisID string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	task, err := newEnrichTask(ctx, analysisID)
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	e.mu.Unlock()
	return enrichTaskID(analysisID), nil
}

type recordingArchive struct {
	mu  sync.Mutex
	ids []string
}

func (a *recordingArchive) PutReport(ctx context.Context, analysis *models.Analysis) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ids = append(a.ids, analysis.ID)
	return nil
}

type stubProvider struct {
	result *models.SmartAnalysisResult
	err    error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Analyze(ctx context.Context, text string, contentType models.ContentType) (*models.SmartAnalysisResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	result := *p.result
	return &result, nil
}

func (p *stubProvider) Rewrite(ctx context.Context, text string, contentType models.ContentType) ([]models.HookRewrite, error) {
	return nil, p.err
}

func providerResult() *models.SmartAnalysisResult {
	return &models.SmartAnalysisResult{
		OverallScore:      91,
		HookStrength:      models.HookAnalysis{Score: 93, Feedback: "Sharp", Techniques: []string{"Question Hook"}},
		Structure:         models.StructureAnalysis{Score: 88, Feedback: "Tight"},
		EmotionalTriggers: models.EmotionalAnalysis{Score: 90, Feedback: "Vivid", Triggers: []string{"Curiosity"}},
		Improvements:      []string{},
		Summary:           "Ready to ship.",
	}
}

func newTestScorer(t *testing.T, p provider.Provider) *scoring.Service {
	t.Helper()
	opts := scoring.DefaultOptions()
	opts.CacheSize = 0
	opts.ProviderRateLimit = 0
	svc, err := scoring.New(p, opts, nil, logging.Discard())
	require.NoError(t, err)
	return svc
}

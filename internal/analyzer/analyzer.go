// Package analyzer implements the heuristic content-scoring engine.
//
// Every exported analysis is a pure function of its input: no I/O, no shared
// mutable state and no error returns. Degenerate input (empty, one word, no
// punctuation) produces fully populated results at documented floor values.
package analyzer

import (
	"sync"
	"unicode/utf8"

	"github.com/zombar/contentlens/internal/models"
)

// Score bands and weights. These are tuned values and are pinned by tests.
const (
	scoreFloor   = 15
	scoreCeiling = 98

	hookBase          = 50
	techniqueBonus    = 5
	powerWordBonus    = 4
	questionBonus     = 6
	hookLengthBonus   = 5
	hookLengthPenalty = 5
	numericLeadBonus  = 6
	subtitleBonus     = 3
	emojiBonus        = 3

	structureBase = 50
	emotionBase   = 40
	maxTriggers   = 6

	hookWeight      = 0.35
	structureWeight = 0.30
	emotionWeight   = 0.35
	maxImprovements = 5

	strengthThreshold = 70
	weaknessThreshold = 50

	maxPersonality     = 5
	maxToneSuggestions = 3

	longSentenceWords = 25
	wordsPerMinute    = 238
)

// Analyzer composes the independent analyses into a single report
type Analyzer struct{}

// New creates a new Analyzer
func New() *Analyzer {
	return &Analyzer{}
}

// Report runs the aggregate, readability and tone analyses in parallel and
// joins their results. The caller is expected to pass sanitized text.
func (a *Analyzer) Report(text string, contentType models.ContentType) *models.Report {
	contentType = normalizeType(contentType)

	var (
		wg          sync.WaitGroup
		smart       models.SmartAnalysisResult
		readability models.ReadabilityReport
		tone        models.ToneReport
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		smart = RunSmartAnalysis(text, contentType)
	}()
	go func() {
		defer wg.Done()
		readability = AnalyzeReadability(text)
	}()
	go func() {
		defer wg.Done()
		tone = AnalyzeTone(text)
	}()
	wg.Wait()

	return &models.Report{
		SmartAnalysisResult: smart,
		Readability:         readability,
		Tone:                tone,
		Provider:            models.HeuristicProvider,
		Heuristic:           true,
		DetectedType:        contentType,
		CharCount:           utf8.RuneCountInString(text),
	}
}

// normalizeType folds anything other than short-form into long-form
func normalizeType(ct models.ContentType) models.ContentType {
	return models.ParseContentType(string(ct))
}

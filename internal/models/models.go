package models

import (
	"strings"
	"time"
)

// ContentType selects the branch-specific thresholds used by the hook and
// structure analyzers.
type ContentType string

const (
	ShortForm ContentType = "short-form"
	LongForm  ContentType = "long-form"
)

// ParseContentType maps a caller-supplied label onto a ContentType.
// Unknown labels are treated as long-form.
func ParseContentType(s string) ContentType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short-form", "short", "tweet", "post", "thread":
		return ShortForm
	case "long-form", "long", "article", "newsletter", "blog":
		return LongForm
	default:
		return LongForm
	}
}

// Label returns the audience-facing name used in provider prompts
func (c ContentType) Label() string {
	if c == ShortForm {
		return "X/Twitter post"
	}
	return "Substack article"
}

// HookAnalysis scores the opening line
type HookAnalysis struct {
	Score      int      `json:"score"`
	Feedback   string   `json:"feedback"`
	Techniques []string `json:"techniques"`
}

// StructureAnalysis scores formatting and flow
type StructureAnalysis struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// EmotionalAnalysis scores psychological trigger density
type EmotionalAnalysis struct {
	Score    int      `json:"score"`
	Feedback string   `json:"feedback"`
	Triggers []string `json:"triggers"`
}

// SmartAnalysisResult is the aggregate of hook, structure and emotion scoring
type SmartAnalysisResult struct {
	OverallScore      int               `json:"overallScore"`
	HookStrength      HookAnalysis      `json:"hookStrength"`
	Structure         StructureAnalysis `json:"structure"`
	EmotionalTriggers EmotionalAnalysis `json:"emotionalTriggers"`
	Improvements      []string          `json:"improvements"`
	Summary           string            `json:"summary"`
}

// ReadabilityReport holds Flesch-style prose statistics
type ReadabilityReport struct {
	FleschReadingEase    int      `json:"fleschReadingEase"`
	GradeLevel           string   `json:"gradeLevel"`
	AvgSentenceLength    float64  `json:"avgSentenceLength"`
	AvgWordLength        float64  `json:"avgWordLength"`
	SentenceCount        int      `json:"sentenceCount"`
	WordCount            int      `json:"wordCount"`
	ParagraphCount       int      `json:"paragraphCount"`
	LongSentences        int      `json:"longSentences"`
	PassiveVoiceEstimate int      `json:"passiveVoiceEstimate"`
	ReadingTimeSeconds   int      `json:"readingTimeSeconds"`
	Suggestions          []string `json:"suggestions"`
}

// Scale is a labelled 0-100 measurement
type Scale struct {
	Level string `json:"level"`
	Score int    `json:"score"`
}

// ToneReport describes formality, confidence and voice
type ToneReport struct {
	Formality   Scale    `json:"formality"`
	Confidence  Scale    `json:"confidence"`
	Voice       string   `json:"voice"`
	Personality []string `json:"personality"`
	Suggestions []string `json:"suggestions"`
}

// HeuristicProvider names the built-in rule-based engine in reports
const HeuristicProvider = "heuristic"

// Report is the full response for one analysed text
type Report struct {
	ID string `json:"id,omitempty"`
	SmartAnalysisResult
	Readability  ReadabilityReport `json:"readability"`
	Tone         ToneReport        `json:"tone"`
	Provider     string            `json:"provider"`
	Heuristic    bool              `json:"heuristic"`
	DetectedType ContentType       `json:"detectedType"`
	CharCount    int               `json:"charCount"`
}

// ScoreDelta is A minus B for every compared dimension
type ScoreDelta struct {
	Overall   int `json:"overall"`
	Hook      int `json:"hook"`
	Structure int `json:"structure"`
	Emotion   int `json:"emotion"`
	Flesch    int `json:"flesch"`
}

// Comparison pits two versions of a text against each other
type Comparison struct {
	A      *Report    `json:"a"`
	B      *Report    `json:"b"`
	Delta  ScoreDelta `json:"delta"`
	Winner string     `json:"winner"` // "A", "B" or "tie"
}

// HookRewrite is one alternative opening line
type HookRewrite struct {
	Style string `json:"style"`
	Hook  string `json:"hook"`
	Why   string `json:"why"`
}

// RewriteResult wraps the generated hook rewrites
type RewriteResult struct {
	Rewrites  []HookRewrite `json:"rewrites"`
	Provider  string        `json:"provider"`
	Heuristic bool          `json:"heuristic"`
}

// Processing stages of a persisted analysis
const (
	StageEnriching = "enriching"
	StageCompleted = "completed"
)

// Analysis is a persisted history record
type Analysis struct {
	ID              string      `json:"id"`
	Content         string      `json:"content,omitempty"`
	ContentPreview  string      `json:"content_preview"`
	ContentType     ContentType `json:"content_type"`
	OverallScore    int         `json:"overall_score"`
	Provider        string      `json:"provider,omitempty"`
	Report          *Report     `json:"report,omitempty"`
	ProcessingStage string      `json:"processing_stage,omitempty"`
	LastError       string      `json:"last_error,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// HistoryPage is one page of the analysis history
type HistoryPage struct {
	Analyses   []*Analysis `json:"analyses"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
}

// ExtractedContent is the article text pulled from a web page
type ExtractedContent struct {
	Content   string `json:"content"`
	Title     string `json:"title"`
	Source    string `json:"source"`
	CharCount int    `json:"charCount"`
}

package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/zombar/contentlens/internal/models"
)

// Bounds applied to provider output so it matches the heuristic contract
const (
	minScore        = 15
	maxScore        = 98
	maxImprovements = 5
	maxTriggers     = 6
	maxRewrites     = 3
)

// ErrMalformedResponse is returned when a model answer holds no usable JSON
var ErrMalformedResponse = errors.New("malformed provider response")

var codeFencePattern = regexp.MustCompile("```(?:json)?\\n?")

// stripFences removes markdown code fences models add despite instructions
func stripFences(raw string) string {
	return strings.TrimSpace(codeFencePattern.ReplaceAllString(raw, ""))
}

// extractJSON returns the outermost span delimited by open and close
func extractJSON(raw string, open, close byte) (string, bool) {
	start := strings.IndexByte(raw, open)
	end := strings.LastIndexByte(raw, close)
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// ParseAnalysis decodes a model answer into a SmartAnalysisResult and
// normalizes it: scores clamped, lists truncated, nulls made empty.
func ParseAnalysis(raw string) (*models.SmartAnalysisResult, error) {
	body, ok := extractJSON(stripFences(raw), '{', '}')
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var result models.SmartAnalysisResult
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if result.Summary == "" && result.OverallScore == 0 {
		return nil, fmt.Errorf("%w: empty analysis", ErrMalformedResponse)
	}

	normalize(&result)
	return &result, nil
}

func normalize(r *models.SmartAnalysisResult) {
	r.OverallScore = clampScore(r.OverallScore)
	r.HookStrength.Score = clampScore(r.HookStrength.Score)
	r.Structure.Score = clampScore(r.Structure.Score)
	r.EmotionalTriggers.Score = clampScore(r.EmotionalTriggers.Score)

	if r.HookStrength.Techniques == nil {
		r.HookStrength.Techniques = []string{}
	}
	if r.EmotionalTriggers.Triggers == nil {
		r.EmotionalTriggers.Triggers = []string{}
	}
	if len(r.EmotionalTriggers.Triggers) > maxTriggers {
		r.EmotionalTriggers.Triggers = r.EmotionalTriggers.Triggers[:maxTriggers]
	}
	if r.Improvements == nil {
		r.Improvements = []string{}
	}
	if len(r.Improvements) > maxImprovements {
		r.Improvements = r.Improvements[:maxImprovements]
	}
}

func clampScore(s int) int {
	return max(minScore, min(maxScore, s))
}

// ParseRewrites accepts either {"rewrites": [...]} or a bare array,
// whichever opens first in the answer
func ParseRewrites(raw string) ([]models.HookRewrite, error) {
	cleaned := stripFences(raw)
	objectAt := strings.IndexByte(cleaned, '{')
	arrayAt := strings.IndexByte(cleaned, '[')

	var rewrites []models.HookRewrite
	switch {
	case arrayAt >= 0 && (objectAt < 0 || arrayAt < objectAt):
		body, ok := extractJSON(cleaned, '[', ']')
		if !ok {
			return nil, fmt.Errorf("%w: unterminated array", ErrMalformedResponse)
		}
		if err := json.Unmarshal([]byte(body), &rewrites); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	case objectAt >= 0:
		body, ok := extractJSON(cleaned, '{', '}')
		if !ok {
			return nil, fmt.Errorf("%w: unterminated object", ErrMalformedResponse)
		}
		var wrapper struct {
			Rewrites []models.HookRewrite `json:"rewrites"`
		}
		if err := json.Unmarshal([]byte(body), &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		rewrites = wrapper.Rewrites
	default:
		return nil, fmt.Errorf("%w: no JSON found", ErrMalformedResponse)
	}

	valid := rewrites[:0]
	for _, r := range rewrites {
		if strings.TrimSpace(r.Hook) != "" {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: no rewrites", ErrMalformedResponse)
	}
	if len(valid) > maxRewrites {
		valid = valid[:maxRewrites]
	}
	return valid, nil
}

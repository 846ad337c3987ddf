package analyzer

import (
	"reflect"
	"strings"
	"testing"
)

func TestAnalyzeEmotions(t *testing.T) {
	tests := []struct {
		name             string
		text             string
		expectedScore    int
		expectedTriggers []string
		feedbackPrefix   string
	}{
		{
			name:             "empty text",
			text:             "",
			expectedScore:    40,
			expectedTriggers: []string{},
			feedbackPrefix:   "No strong emotional triggers detected.",
		},
		{
			name:             "single trigger",
			text:             "The weather is nice today. It is sunny.",
			expectedScore:    45,
			expectedTriggers: []string{"Urgency"},
			feedbackPrefix:   "Limited emotional range — only tapping Urgency.",
		},
		{
			name:             "three triggers",
			text:             "You should discover the secret today",
			expectedScore:    58,
			expectedTriggers: []string{"Curiosity", "Direct Address", "Urgency"},
			feedbackPrefix:   "Solid emotional foundation with Curiosity, Direct Address, Urgency.",
		},
		{
			name:             "repeated matches count once",
			text:             "secret secret secret",
			expectedScore:    48,
			expectedTriggers: []string{"Curiosity"},
			feedbackPrefix:   "Limited emotional range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnalyzeEmotions(tt.text)
			if result.Score != tt.expectedScore {
				t.Errorf("Expected score %d, got %d", tt.expectedScore, result.Score)
			}
			if !reflect.DeepEqual(result.Triggers, tt.expectedTriggers) {
				t.Errorf("Expected triggers %v, got %v", tt.expectedTriggers, result.Triggers)
			}
			if !strings.HasPrefix(result.Feedback, tt.feedbackPrefix) {
				t.Errorf("Expected feedback to start with %q, got %q", tt.feedbackPrefix, result.Feedback)
			}
		})
	}
}

func TestAnalyzeEmotionsRichLandscape(t *testing.T) {
	text := "I admit my biggest mistake: you can discover the secret to success today. " +
		"Most people fail because the research is wrong."

	result := AnalyzeEmotions(text)

	// Ten triggers fire; the feedback counts all of them, the list keeps six.
	if result.Score != scoreCeiling {
		t.Errorf("Expected score %d, got %d", scoreCeiling, result.Score)
	}
	wantFeedback := "Rich emotional landscape — you're hitting 10 psychological triggers. This content has high engagement potential."
	if result.Feedback != wantFeedback {
		t.Errorf("Expected feedback %q, got %q", wantFeedback, result.Feedback)
	}
	wantTriggers := []string{
		"Curiosity",
		"Personal Connection",
		"Direct Address",
		"Authority",
		"Social Proof",
		"Contrarian",
	}
	if !reflect.DeepEqual(result.Triggers, wantTriggers) {
		t.Errorf("Expected triggers %v, got %v", wantTriggers, result.Triggers)
	}
}

func TestAnalyzeEmotionsCaseInsensitive(t *testing.T) {
	lower := AnalyzeEmotions("discover the secret")
	upper := AnalyzeEmotions("DISCOVER THE SECRET")
	if !reflect.DeepEqual(lower, upper) {
		t.Errorf("Expected case-insensitive match, got %+v and %+v", lower, upper)
	}
}

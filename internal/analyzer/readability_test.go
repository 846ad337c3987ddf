package analyzer

import (
	"reflect"
	"slices"
	"strings"
	"testing"
)

func TestCountSyllables(t *testing.T) {
	tests := []struct {
		word     string
		expected int
	}{
		{"a", 1},
		{"the", 1},
		{"cake", 1},
		{"table", 1},
		{"rhythm", 1},
		{"reading", 2},
		{"beautiful", 3},
		{"Writing!", 2},
		{"", 1},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := countSyllables(tt.word); got != tt.expected {
				t.Errorf("countSyllables(%q) = %d, expected %d", tt.word, got, tt.expected)
			}
		})
	}
}

func TestAnalyzeReadabilitySimpleSentence(t *testing.T) {
	result := AnalyzeReadability("The cat sat on the mat.")

	if result.FleschReadingEase != 100 {
		t.Errorf("Expected Flesch 100, got %d", result.FleschReadingEase)
	}
	if result.GradeLevel != "5th Grade — Very Easy" {
		t.Errorf("Expected grade level '5th Grade — Very Easy', got %q", result.GradeLevel)
	}
	if result.SentenceCount != 1 || result.WordCount != 6 || result.ParagraphCount != 1 {
		t.Errorf("Expected 1 sentence, 6 words, 1 paragraph, got %d, %d, %d",
			result.SentenceCount, result.WordCount, result.ParagraphCount)
	}
	if result.AvgSentenceLength != 6.0 {
		t.Errorf("Expected avg sentence length 6.0, got %v", result.AvgSentenceLength)
	}
	if result.AvgWordLength != 2.8 {
		t.Errorf("Expected avg word length 2.8, got %v", result.AvgWordLength)
	}
	if result.LongSentences != 0 || result.PassiveVoiceEstimate != 0 {
		t.Errorf("Expected no long sentences or passive voice, got %d and %d", result.LongSentences, result.PassiveVoiceEstimate)
	}
	if result.ReadingTimeSeconds != 2 {
		t.Errorf("Expected reading time 2s, got %d", result.ReadingTimeSeconds)
	}

	expected := []string{
		"Very short and punchy — great for social. Make sure every word earns its place.",
	}
	if !reflect.DeepEqual(result.Suggestions, expected) {
		t.Errorf("Expected suggestions %v, got %v", expected, result.Suggestions)
	}
}

func TestAnalyzeReadabilityPassiveVoice(t *testing.T) {
	result := AnalyzeReadability("The ball was kicked. The cake was eaten.")

	if result.SentenceCount != 2 {
		t.Errorf("Expected 2 sentences, got %d", result.SentenceCount)
	}
	if result.PassiveVoiceEstimate != 100 {
		t.Errorf("Expected passive estimate 100, got %d", result.PassiveVoiceEstimate)
	}
	want := "~100% passive voice detected. Use active voice for punchier writing."
	if !slices.Contains(result.Suggestions, want) {
		t.Errorf("Expected suggestion %q, got %v", want, result.Suggestions)
	}
}

func TestAnalyzeReadabilityLongSentence(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 30)) + "."
	result := AnalyzeReadability(text)

	if result.LongSentences != 1 {
		t.Errorf("Expected 1 long sentence, got %d", result.LongSentences)
	}
	if result.AvgSentenceLength != 30.0 {
		t.Errorf("Expected avg sentence length 30.0, got %v", result.AvgSentenceLength)
	}
	if result.FleschReadingEase != 92 {
		t.Errorf("Expected Flesch 92, got %d", result.FleschReadingEase)
	}

	expected := []string{
		"Average sentence length is 30 words. Aim for 15-20 for online content.",
		"1 sentence over 25 words. Break these up for better flow.",
	}
	if !reflect.DeepEqual(result.Suggestions, expected) {
		t.Errorf("Expected suggestions %v, got %v", expected, result.Suggestions)
	}
}

func TestAnalyzeReadabilityLongParagraph(t *testing.T) {
	text := strings.Repeat("word word word word word word word word word word. ", 12)
	result := AnalyzeReadability(text)

	if result.WordCount != 120 || result.SentenceCount != 12 {
		t.Errorf("Expected 120 words in 12 sentences, got %d in %d", result.WordCount, result.SentenceCount)
	}
	want := "Paragraphs are long. Online readers prefer 2-3 sentence paragraphs max."
	if !slices.Contains(result.Suggestions, want) {
		t.Errorf("Expected suggestion %q, got %v", want, result.Suggestions)
	}
}

func TestAnalyzeReadabilityEmptyFloorsCounts(t *testing.T) {
	result := AnalyzeReadability("")

	if result.SentenceCount != 1 || result.WordCount != 1 || result.ParagraphCount != 1 {
		t.Errorf("Expected counts floored at 1, got %d sentences, %d words, %d paragraphs",
			result.SentenceCount, result.WordCount, result.ParagraphCount)
	}
	if result.FleschReadingEase < 0 || result.FleschReadingEase > 100 {
		t.Errorf("Expected Flesch in [0, 100], got %d", result.FleschReadingEase)
	}
}

func TestGradeLevel(t *testing.T) {
	tests := []struct {
		flesch   int
		expected string
	}{
		{100, "5th Grade — Very Easy"},
		{90, "5th Grade — Very Easy"},
		{85, "6th Grade — Easy"},
		{72, "7th Grade — Fairly Easy"},
		{65, "8th-9th Grade — Standard"},
		{55, "10th-12th Grade — Fairly Hard"},
		{30, "College — Hard"},
		{29, "Graduate — Very Hard"},
		{0, "Graduate — Very Hard"},
	}

	for _, tt := range tests {
		if got := gradeLevel(tt.flesch); got != tt.expected {
			t.Errorf("gradeLevel(%d) = %q, expected %q", tt.flesch, got, tt.expected)
		}
	}
}

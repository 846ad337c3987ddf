package analyzer

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	paragraphBreakPattern = regexp.MustCompile(`\n\s*\n`)
	sentenceEndPattern    = regexp.MustCompile(`[.!?]+`)
	nonLetterPattern      = regexp.MustCompile(`[^a-z]`)
	nonWordCharPattern    = regexp.MustCompile(`[^a-zA-Z'-]`)
	vowelGroupPattern     = regexp.MustCompile(`[aeiouy]+`)
	whitespacePattern     = regexp.MustCompile(`\s+`)
)

// splitLines splits on newlines without dropping blank lines
func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

// nonBlankLines returns the lines that contain something other than whitespace
func nonBlankLines(text string) []string {
	var lines []string
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// firstNonBlankLine returns the hook of a text, or "" when there is none
func firstNonBlankLine(text string) string {
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

// lastNonBlankLine returns the closing line of a text
func lastNonBlankLine(text string) string {
	lines := nonBlankLines(text)
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

// splitParagraphs splits on blank-line boundaries and drops empty chunks
func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, p := range paragraphBreakPattern.Split(text, -1) {
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// rawParagraphCount counts blank-line separated chunks, empty ones included
func rawParagraphCount(text string) int {
	return len(paragraphBreakPattern.Split(text, -1))
}

// splitWords splits on runs of whitespace
func splitWords(text string) []string {
	return strings.Fields(text)
}

// whitespaceTokenCount splits on whitespace runs without dropping the empty
// tokens a leading or trailing run leaves behind
func whitespaceTokenCount(s string) int {
	return len(whitespacePattern.Split(s, -1))
}

// splitSentences splits on terminal punctuation and keeps non-empty trimmed pieces
func splitSentences(text string) []string {
	var sentences []string
	for _, s := range sentenceEndPattern.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// letterWords returns whitespace-delimited tokens reduced to letters,
// apostrophes and hyphens, skipping tokens that end up empty
func letterWords(text string) []string {
	var words []string
	for _, w := range strings.Fields(text) {
		if w = nonWordCharPattern.ReplaceAllString(w, ""); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// countSyllables estimates syllables in a single word
func countSyllables(word string) int {
	word = nonLetterPattern.ReplaceAllString(strings.ToLower(word), "")
	if len(word) <= 2 {
		return 1
	}
	word = strings.TrimSuffix(word, "e")
	groups := len(vowelGroupPattern.FindAllStringIndex(word, -1))
	if groups < 1 {
		return 1
	}
	return groups
}

// countMatches counts non-overlapping matches of re in text
func countMatches(re *regexp.Regexp, text string) int {
	return len(re.FindAllStringIndex(text, -1))
}

// truncateRunes cuts s to at most n characters
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// lastRunes returns the final n characters of s
func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// excerpt quotes up to n characters of s, marking truncation with "..."
func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) > n {
		return truncateRunes(s, n) + "..."
	}
	return s
}

// clamp bounds v to [lo, hi]
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundHalfUp rounds to the nearest integer with halves going up
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// roundTenths rounds to one decimal place
func roundTenths(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}

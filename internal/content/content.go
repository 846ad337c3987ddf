// Package content holds the boundary utilities applied to raw user input
// before it reaches the analyzer: sanitizing, content-type detection and
// history previews.
package content

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/zombar/contentlens/internal/models"
)

// DefaultPreviewLength is the preview size used for history records
const DefaultPreviewLength = 120

// AutoDetect is the declared type that asks for detection
const AutoDetect = "auto"

var (
	controlCharPattern = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	excessNewlines     = regexp.MustCompile(`\n{3,}`)
	threadLinePattern  = regexp.MustCompile(`^(\d+[./)]|•|-)\s`)
)

// Sanitize strips control characters (keeping tabs and newlines),
// normalizes line endings, collapses runs of blank lines and trims.
func Sanitize(raw string) string {
	s := controlCharPattern.ReplaceAllString(raw, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// DetectContentType guesses whether text is a social post or an article.
// Three or more numbered or bulleted lines mark a thread, which keeps a
// mid-length post out of the short-form shortcut.
func DetectContentType(text string) models.ContentType {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	charCount := utf8.RuneCountInString(text)
	wordCount := len(strings.Fields(text))

	threadLines := 0
	for _, l := range lines {
		if threadLinePattern.MatchString(strings.TrimSpace(l)) {
			threadLines++
		}
	}
	isThread := threadLines >= 3

	if charCount <= 280 {
		return models.ShortForm
	}
	if charCount <= 600 && !isThread && len(lines) <= 5 {
		return models.ShortForm
	}

	if wordCount > 200 {
		return models.LongForm
	}
	if len(lines) > 10 {
		return models.LongForm
	}

	if charCount > 500 {
		return models.LongForm
	}
	return models.ShortForm
}

// ResolveContentType maps a declared type onto a ContentType, detecting
// it from the text when the caller asked for "auto".
func ResolveContentType(declared, text string) models.ContentType {
	if strings.EqualFold(strings.TrimSpace(declared), AutoDetect) {
		return DetectContentType(text)
	}
	return models.ParseContentType(declared)
}

// Preview returns the first line of text, cut to maxLen characters
func Preview(text string, maxLen int) string {
	if maxLen <= 3 {
		maxLen = DefaultPreviewLength
	}
	firstLine, _, _ := strings.Cut(text, "\n")
	if utf8.RuneCountInString(firstLine) <= maxLen {
		return firstLine
	}
	return string([]rune(firstLine)[:maxLen-3]) + "..."
}

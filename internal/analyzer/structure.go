package analyzer

import (
	"fmt"
	"strings"

	"github.com/zombar/contentlens/internal/models"
)

const structureFallback = "Structure is adequate but could be improved with clearer sections and formatting."

// AnalyzeStructure scores formatting and flow. Short-form and long-form
// content are judged by different rules.
func AnalyzeStructure(text string, contentType models.ContentType) models.StructureAnalysis {
	words := splitWords(text)

	var (
		score int
		notes []string
	)
	switch normalizeType(contentType) {
	case models.ShortForm:
		score, notes = shortFormStructure(text, len(words))
	case models.LongForm:
		score, notes = longFormStructure(text, len(words))
	}

	feedback := strings.Join(notes, " ")
	if feedback == "" {
		feedback = structureFallback
	}

	return models.StructureAnalysis{
		Score:    clamp(score, scoreFloor, scoreCeiling),
		Feedback: feedback,
	}
}

func shortFormStructure(text string, wordCount int) (int, []string) {
	score := structureBase
	var notes []string

	if len(nonBlankLines(text)) > 1 {
		score += 10
		notes = append(notes, "Good use of line breaks for scannability.")
	}

	if wordCount <= 50 {
		score += 5
		notes = append(notes, "Concise and punchy.")
	} else if wordCount > 100 {
		score -= 5
		notes = append(notes, "Consider trimming — shorter posts tend to get more engagement.")
	}

	if shortFormCTAPattern.MatchString(lastNonBlankLine(text)) {
		score += 8
		notes = append(notes, "Strong CTA at the end drives engagement.")
	} else {
		notes = append(notes, "Add a CTA at the end — a question or invitation to respond boosts replies.")
	}

	return score, notes
}

func longFormStructure(text string, wordCount int) (int, []string) {
	score := structureBase
	var notes []string

	headings, bullets := 0, 0
	for _, line := range splitLines(text) {
		if headingPattern.MatchString(strings.TrimSpace(line)) {
			headings++
		}
		if bulletPattern.MatchString(line) {
			bullets++
		}
	}

	paragraphs := splitParagraphs(text)
	paragraphWords := 0
	for _, p := range paragraphs {
		paragraphWords += len(splitWords(p))
	}
	avgParagraphLength := float64(paragraphWords) / float64(max(len(paragraphs), 1))

	if headings >= 2 {
		score += 10
		notes = append(notes, fmt.Sprintf("%d subheadings provide clear structure.", headings))
	} else if wordCount > 200 {
		score -= 8
		notes = append(notes, "Add subheadings — readers scan before they commit. Break content into clear sections.")
	}

	if bullets >= 2 {
		score += 5
		notes = append(notes, "Bullet points aid scannability.")
	}

	// 41-60 words per paragraph is neutral
	if avgParagraphLength > 60 {
		score -= 8
		notes = append(notes, "Paragraphs are too dense. Aim for 2-4 sentences per paragraph for online reading.")
	} else if avgParagraphLength <= 40 {
		score += 5
		notes = append(notes, "Good paragraph length for online reading.")
	}

	lastParagraph := ""
	if len(paragraphs) > 0 {
		lastParagraph = paragraphs[len(paragraphs)-1]
	}
	if engagementPattern.MatchString(lastParagraph) {
		score += 5
		notes = append(notes, "Ending with engagement prompt is smart.")
	}

	return score, notes
}

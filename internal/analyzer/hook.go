package analyzer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zombar/contentlens/internal/models"
)

// AnalyzeHook scores the first non-blank line of text for attention-grabbing
// technique. It never fails; empty text scores the base value.
func AnalyzeHook(text string, contentType models.ContentType) models.HookAnalysis {
	hook := firstNonBlankLine(text)
	hookWords := strings.Fields(strings.ToLower(hook))

	score := hookBase
	techniques := []string{}
	var notes []string

	for _, t := range hookTechniques {
		if t.pattern.MatchString(hook) {
			techniques = append(techniques, t.label)
			score += techniqueBonus
		}
	}

	powerHits := 0
	for _, w := range hookWords {
		if powerWords[nonLetterPattern.ReplaceAllString(w, "")] {
			powerHits++
		}
	}
	if powerHits > 0 {
		techniques = append(techniques, "Power Words")
		score += powerHits * powerWordBonus
	}

	// A question opens a loop the reader wants closed
	if strings.Contains(hook, "?") {
		score += questionBonus
		if !slices.Contains(techniques, "Question Hook") {
			techniques = append(techniques, "Open Loop")
		}
	}

	hookLength := whitespaceTokenCount(hook)
	switch normalizeType(contentType) {
	case models.ShortForm:
		if hookLength >= 5 && hookLength <= 15 {
			score += hookLengthBonus
		} else if hookLength > 25 {
			score -= hookLengthPenalty
			notes = append(notes, "Your hook is long — consider cutting to under 15 words for maximum scroll-stop power.")
		}
	case models.LongForm:
		if hookLength >= 5 && hookLength <= 20 {
			score += hookLengthBonus
		} else if hookLength > 30 {
			score -= hookLengthPenalty
			notes = append(notes, "Long headlines lose attention. Aim for 6-12 words that promise a specific transformation.")
		}
	}

	if numericLeadPattern.MatchString(hook) {
		techniques = append(techniques, "Numeric Lead")
		score += numericLeadBonus
	}

	if subtitlePattern.MatchString(hook) {
		techniques = append(techniques, "Subtitle Pattern")
		score += subtitleBonus
	}

	if emojiPattern.MatchString(hook) && normalizeType(contentType) == models.ShortForm {
		techniques = append(techniques, "Emoji Hook")
		score += emojiBonus
	}

	// Length notes lead; the technique verdict follows.
	switch {
	case len(techniques) == 0:
		notes = append(notes, fmt.Sprintf("Your opening \"%s\" is straightforward but doesn't use any proven hook techniques. Try leading with a question, a bold number, or a contrarian claim.", excerpt(hook, 60)))
	case len(techniques) >= 3:
		notes = append(notes, fmt.Sprintf("Strong hook using %s. \"%s\" hits multiple psychological triggers that stop the scroll.", strings.Join(techniques[:3], ", "), excerpt(hook, 50)))
	default:
		notes = append(notes, fmt.Sprintf("Your hook uses %s — solid technique. To strengthen it, try adding a specific number or contrarian angle.", strings.Join(techniques, " + ")))
	}

	return models.HookAnalysis{
		Score:      clamp(score, scoreFloor, scoreCeiling),
		Feedback:   strings.Join(notes, " "),
		Techniques: techniques,
	}
}

package analyzer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zombar/contentlens/internal/models"
)

// AnalyzeEmotions scans the whole text for psychological triggers. Each
// trigger contributes its weight once, however often it matches.
func AnalyzeEmotions(text string) models.EmotionalAnalysis {
	score := emotionBase
	triggers := []string{}

	for _, t := range emotionTriggers {
		if !t.pattern.MatchString(text) {
			continue
		}
		if !slices.Contains(triggers, t.label) {
			triggers = append(triggers, t.label)
		}
		score += t.weight
	}

	var feedback string
	switch n := len(triggers); {
	case n >= 5:
		feedback = fmt.Sprintf("Rich emotional landscape — you're hitting %d psychological triggers. This content has high engagement potential.", n)
	case n >= 3:
		feedback = fmt.Sprintf("Solid emotional foundation with %s. Consider adding vulnerability or a contrarian angle to deepen impact.", strings.Join(triggers, ", "))
	case n >= 1:
		feedback = fmt.Sprintf("Limited emotional range — only tapping %s. High-performing content typically leverages 3-5 triggers.", strings.Join(triggers, ", "))
	default:
		feedback = "No strong emotional triggers detected. This reads as informational rather than engaging. Add personal stories, pain points, or aspirational language."
	}

	if len(triggers) > maxTriggers {
		triggers = triggers[:maxTriggers]
	}

	return models.EmotionalAnalysis{
		Score:    clamp(score, scoreFloor, scoreCeiling),
		Feedback: feedback,
		Triggers: triggers,
	}
}

package analyzer

import (
	"slices"
	"strings"

	"github.com/zombar/contentlens/internal/models"
)

// Improvement suggestions in check order
const (
	improveHook       = "Strengthen your hook — try opening with a specific number, bold question, or contrarian claim to stop the scroll."
	improveQuestion   = "Add at least one question — questions create open loops that keep readers engaged."
	improveTriggers   = "Layer in more emotional triggers — combine curiosity with vulnerability or authority with aspiration."
	improveParagraphs = "Break your content into more paragraphs — dense blocks of text lose online readers fast."
	improveCTA        = "End with a clear CTA — ask a question or invite disagreement to drive replies."
	improveNumbers    = "Add specific numbers or data — '3x more engagement' hits harder than 'much more engagement'."
	improvePersonal   = "Add a personal angle — 'I struggled with this too' makes content relatable and shareable."
)

// RunSmartAnalysis combines hook, structure and emotion scoring into an
// overall score with ranked improvements and a narrative summary.
func RunSmartAnalysis(text string, contentType models.ContentType) models.SmartAnalysisResult {
	contentType = normalizeType(contentType)

	hook := AnalyzeHook(text, contentType)
	structure := AnalyzeStructure(text, contentType)
	emotions := AnalyzeEmotions(text)

	overall := roundHalfUp(float64(hook.Score)*hookWeight +
		float64(structure.Score)*structureWeight +
		float64(emotions.Score)*emotionWeight)

	improvements := []string{}
	if len(hook.Techniques) < 2 {
		improvements = append(improvements, improveHook)
	}
	if !strings.Contains(text, "?") {
		improvements = append(improvements, improveQuestion)
	}
	if len(emotions.Triggers) < 3 {
		improvements = append(improvements, improveTriggers)
	}
	switch contentType {
	case models.LongForm:
		if rawParagraphCount(text) < 4 {
			improvements = append(improvements, improveParagraphs)
		}
	case models.ShortForm:
		if !closingSignalPattern.MatchString(lastRunes(text, 100)) {
			improvements = append(improvements, improveCTA)
		}
	}
	if !digitPattern.MatchString(text) {
		improvements = append(improvements, improveNumbers)
	}
	if !slices.Contains(emotions.Triggers, "Personal Connection") && !slices.Contains(emotions.Triggers, "Vulnerability") {
		improvements = append(improvements, improvePersonal)
	}

	var strengths, weaknesses []string
	if hook.Score >= strengthThreshold {
		strengths = append(strengths, "strong hook")
	}
	if structure.Score >= strengthThreshold {
		strengths = append(strengths, "clean structure")
	}
	if emotions.Score >= strengthThreshold {
		strengths = append(strengths, "emotional depth")
	}
	if hook.Score < weaknessThreshold {
		weaknesses = append(weaknesses, "weak opening")
	}
	if structure.Score < weaknessThreshold {
		weaknesses = append(weaknesses, "structural issues")
	}
	if emotions.Score < weaknessThreshold {
		weaknesses = append(weaknesses, "flat emotional tone")
	}

	if len(improvements) > maxImprovements {
		improvements = improvements[:maxImprovements]
	}

	return models.SmartAnalysisResult{
		OverallScore:      clamp(overall, scoreFloor, scoreCeiling),
		HookStrength:      hook,
		Structure:         structure,
		EmotionalTriggers: emotions,
		Improvements:      improvements,
		Summary:           summarize(overall, strengths, weaknesses, improvements),
	}
}

// summarize writes the three-tier narrative verdict
func summarize(overall int, strengths, weaknesses, improvements []string) string {
	var b strings.Builder

	switch {
	case overall >= 75:
		b.WriteString("Strong content overall")
		if len(strengths) > 0 {
			b.WriteString(" with " + strings.Join(strengths, " and "))
		}
		b.WriteString(". ")
		if len(weaknesses) > 0 {
			b.WriteString("Main area to improve: " + weaknesses[0] + ".")
		} else {
			b.WriteString("Fine-tune the details and this is ready to perform.")
		}
		if len(improvements) > 0 {
			b.WriteString(" " + improvements[0])
		}
	case overall >= 50:
		b.WriteString("Decent foundation but needs work. ")
		if len(strengths) > 0 {
			b.WriteString("You've got " + strings.Join(strengths, " and ") + ", but ")
		}
		if len(weaknesses) > 0 {
			b.WriteString(strings.Join(weaknesses, " and ") + " are holding this back.")
		} else {
			b.WriteString("several areas need refinement.")
		}
		b.WriteString(" Focus on the top improvement first.")
	default:
		b.WriteString("This needs significant revision. ")
		b.WriteString(strings.Join(weaknesses, ", "))
		b.WriteString(" are the core issues. Start by rewriting the hook — if you don't stop the scroll, nothing else matters.")
	}

	return b.String()
}

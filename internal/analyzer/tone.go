package analyzer

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/zombar/contentlens/internal/models"
)

// AnalyzeTone measures formality and confidence and labels the writer's voice
func AnalyzeTone(text string) models.ToneReport {
	words := splitWords(text)
	if len(words) == 0 {
		return models.ToneReport{
			Formality:   models.Scale{Level: "conversational", Score: 50},
			Confidence:  models.Scale{Level: "balanced", Score: 50},
			Voice:       "Unknown",
			Personality: []string{},
			Suggestions: []string{"Add some content to analyze your tone."},
		}
	}

	formality := measureFormality(text, len(words))

	hedges := countMatches(hedgePattern, text)
	assertions := countMatches(assertivePattern, text)
	confidence := measureConfidence(text, hedges, assertions)

	traits := []string{}
	for _, t := range personalityTraits {
		if t.pattern.MatchString(text) && !slices.Contains(traits, t.label) {
			traits = append(traits, t.label)
		}
	}

	suggestions := []string{}
	if confidence.Level == "tentative" {
		suggestions = append(suggestions, "Cut hedging language ('maybe', 'I think', 'sort of') — strong opinions attract followers.")
	}
	if formality.Level == "academic" {
		suggestions = append(suggestions, "Loosen up. Replace formal words with conversational ones — 'furthermore' → 'and here's the thing'.")
	}
	if len(traits) < 2 {
		suggestions = append(suggestions, "Your voice lacks distinctiveness. Try mixing personality traits — add stories to data, or humor to frameworks.")
	}
	if !slices.Contains(traits, "authentic") && !slices.Contains(traits, "storyteller") {
		suggestions = append(suggestions, "Add a personal element. Audiences connect with people, not textbooks.")
	}
	if hedges >= 3 && assertions < 2 {
		suggestions = append(suggestions, "You're hedging too much. Pick a side and commit. 'This might help' → 'This will change how you write.'")
	}
	if formality.Level == "casual" && slices.Contains(traits, "data-driven") {
		suggestions = append(suggestions, "Great combo — casual tone + data gives you authority without stiffness. Lean into it.")
	}

	personality := traits
	if len(personality) > maxPersonality {
		personality = personality[:maxPersonality]
	}
	if len(suggestions) > maxToneSuggestions {
		suggestions = suggestions[:maxToneSuggestions]
	}

	return models.ToneReport{
		Formality:   formality,
		Confidence:  confidence,
		Voice:       voiceFor(traits),
		Personality: personality,
		Suggestions: suggestions,
	}
}

func measureFormality(text string, wordCount int) models.Scale {
	score := 50
	score -= countMatches(casualPattern, text) * 6
	score += countMatches(formalPattern, text) * 8
	score -= countMatches(conversationalPattern, text) * 3

	// Fragments of five characters or fewer are not counted as sentences
	sentences := 0
	for _, s := range sentenceEndPattern.Split(text, -1) {
		if utf8.RuneCountInString(strings.TrimSpace(s)) > 5 {
			sentences++
		}
	}
	avgSentenceLength := 10.0
	if sentences > 0 {
		avgSentenceLength = float64(wordCount) / float64(sentences)
	}
	if avgSentenceLength > 25 {
		score += 10
	}
	if avgSentenceLength < 10 {
		score -= 8
	}

	score -= countMatches(contractionPattern, text) * 2
	score = clamp(score, 0, 100)

	var level string
	switch {
	case score < 25:
		level = "casual"
	case score < 50:
		level = "conversational"
	case score < 75:
		level = "professional"
	default:
		level = "academic"
	}
	return models.Scale{Level: level, Score: score}
}

func measureConfidence(text string, hedges, assertions int) models.Scale {
	score := 50
	score -= hedges * 5
	score += assertions * 6
	score += min(strings.Count(text, "!")*2, 10)
	score -= strings.Count(text, "?")
	score = clamp(score, 0, 100)

	var level string
	switch {
	case score < 30:
		level = "tentative"
	case score < 55:
		level = "balanced"
	case score < 80:
		level = "assertive"
	default:
		level = "authoritative"
	}
	return models.Scale{Level: level, Score: score}
}

// voiceFor picks the archetype covering the most detected traits. A single
// trait gets its own label; none at all yields "Balanced Writer".
func voiceFor(traits []string) string {
	if len(traits) == 1 {
		if voice, ok := singleTraitVoices[traits[0]]; ok {
			return voice
		}
	}

	voice, best := "Balanced Writer", 0
	for _, a := range voiceArchetypes {
		hits := 0
		for _, t := range a.traits {
			if slices.Contains(traits, t) {
				hits++
			}
		}
		if hits > best {
			best, voice = hits, a.voice
		}
	}
	return voice
}

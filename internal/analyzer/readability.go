package analyzer

import (
	"fmt"

	"github.com/zombar/contentlens/internal/models"
)

// gradeBand maps a minimum Flesch score onto a grade label
type gradeBand struct {
	min   int
	label string
}

var gradeBands = []gradeBand{
	{90, "5th Grade — Very Easy"},
	{80, "6th Grade — Easy"},
	{70, "7th Grade — Fairly Easy"},
	{60, "8th-9th Grade — Standard"},
	{50, "10th-12th Grade — Fairly Hard"},
	{30, "College — Hard"},
}

const hardestGrade = "Graduate — Very Hard"

// AnalyzeReadability computes Flesch Reading Ease and related prose
// statistics. All counts are floored at 1.
func AnalyzeReadability(text string) models.ReadabilityReport {
	sentences := splitSentences(text)
	words := letterWords(text)

	sentenceCount := max(1, len(sentences))
	wordCount := max(1, len(words))
	paragraphCount := max(1, len(splitParagraphs(text)))

	syllables, letters := 0, 0
	for _, w := range words {
		syllables += countSyllables(w)
		letters += len(w)
	}

	avgSentenceLength := float64(wordCount) / float64(sentenceCount)
	avgSyllablesPerWord := float64(syllables) / float64(wordCount)
	avgWordLength := float64(letters) / float64(wordCount)

	flesch := clamp(roundHalfUp(206.835-1.015*avgSentenceLength-84.6*avgSyllablesPerWord), 0, 100)

	longSentences := 0
	for _, s := range sentences {
		if len(letterWords(s)) > longSentenceWords {
			longSentences++
		}
	}

	passive := 0
	for _, p := range passivePatterns {
		passive += countMatches(p, text)
	}
	passivePercent := roundHalfUp(float64(passive) / float64(sentenceCount) * 100)

	suggestions := []string{}
	if flesch < 50 {
		suggestions = append(suggestions, "Your writing is quite dense. Try shorter sentences and simpler words for better engagement.")
	}
	if avgSentenceLength > 20 {
		suggestions = append(suggestions, fmt.Sprintf("Average sentence length is %d words. Aim for 15-20 for online content.", roundHalfUp(avgSentenceLength)))
	}
	if longSentences > 0 {
		plural := ""
		if longSentences > 1 {
			plural = "s"
		}
		suggestions = append(suggestions, fmt.Sprintf("%d sentence%s over 25 words. Break these up for better flow.", longSentences, plural))
	}
	if passivePercent > 20 {
		suggestions = append(suggestions, fmt.Sprintf("~%d%% passive voice detected. Use active voice for punchier writing.", passivePercent))
	}
	if float64(wordCount)/float64(paragraphCount) > 100 {
		suggestions = append(suggestions, "Paragraphs are long. Online readers prefer 2-3 sentence paragraphs max.")
	}
	if wordCount < 50 && avgSentenceLength < 8 {
		suggestions = append(suggestions, "Very short and punchy — great for social. Make sure every word earns its place.")
	}

	return models.ReadabilityReport{
		FleschReadingEase:    flesch,
		GradeLevel:           gradeLevel(flesch),
		AvgSentenceLength:    roundTenths(avgSentenceLength),
		AvgWordLength:        roundTenths(avgWordLength),
		SentenceCount:        sentenceCount,
		WordCount:            wordCount,
		ParagraphCount:       paragraphCount,
		LongSentences:        longSentences,
		PassiveVoiceEstimate: passivePercent,
		ReadingTimeSeconds:   roundHalfUp(float64(wordCount) / wordsPerMinute * 60),
		Suggestions:          suggestions,
	}
}

// gradeLevel looks up the grade label for a Flesch score
func gradeLevel(flesch int) string {
	for _, band := range gradeBands {
		if flesch >= band.min {
			return band.label
		}
	}
	return hardestGrade
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/zombar/contentlens/internal/models"
)

// Score bands
const (
	strongScore = 75
	fairScore   = 50
)

// styles holds the lipgloss styles for text output. When disabled every
// style renders its input unchanged.
type styles struct {
	header lipgloss.Style
	label  lipgloss.Style
	muted  lipgloss.Style
	strong lipgloss.Style
	fair   lipgloss.Style
	weak   lipgloss.Style
}

func newStyles(enabled bool) *styles {
	if !enabled {
		plain := lipgloss.NewStyle()
		return &styles{header: plain, label: plain, muted: plain, strong: plain, fair: plain, weak: plain}
	}
	return &styles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")), // White bold
		label:  lipgloss.NewStyle().Bold(true),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),  // Gray
		strong: lipgloss.NewStyle().Foreground(lipgloss.Color("10")), // Green
		fair:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")), // Yellow
		weak:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),  // Red
	}
}

// score picks the band colour for a 0-100 score
func (s *styles) score(v int) lipgloss.Style {
	switch {
	case v >= strongScore:
		return s.strong
	case v >= fairScore:
		return s.fair
	default:
		return s.weak
	}
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// textRenderer draws one result in the human-readable format
type textRenderer func(b *strings.Builder, s *styles)

// writeOutput encodes v in the selected format. Text output goes through
// the renderer, coloured only when w is a terminal.
func writeOutput(w io.Writer, format string, v any, render textRenderer) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		return writeYAML(w, v)
	default:
		var b strings.Builder
		render(&b, newStyles(isTerminal(w)))
		_, err := io.WriteString(w, b.String())
		return err
	}
}

// writeYAML goes through JSON first so the YAML keys match the API field
// names and order.
func writeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle clears the flow style the JSON source leaves on every node
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}

func heading(b *strings.Builder, s *styles, title string) {
	b.WriteString(s.header.Render(title))
	b.WriteString("\n")
}

func scoreLine(b *strings.Builder, s *styles, label string, score int) {
	fmt.Fprintf(b, "  %s %s\n", s.label.Render(fmt.Sprintf("%-20s", label)), s.score(score).Render(fmt.Sprintf("%3d/100", score)))
}

func field(b *strings.Builder, s *styles, label string, value any) {
	fmt.Fprintf(b, "  %s %v\n", s.label.Render(fmt.Sprintf("%-20s", label)), value)
}

func list(b *strings.Builder, s *styles, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", s.label.Render(title))
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

func reportText(r *models.Report) textRenderer {
	return func(b *strings.Builder, s *styles) {
		heading(b, s, "Content analysis")
		b.WriteString(s.muted.Render(fmt.Sprintf("%s, %d characters, scored by %s", r.DetectedType, r.CharCount, r.Provider)))
		b.WriteString("\n\n")

		scoreLine(b, s, "Overall", r.OverallScore)
		scoreLine(b, s, "Hook", r.HookStrength.Score)
		scoreLine(b, s, "Structure", r.Structure.Score)
		scoreLine(b, s, "Emotion", r.EmotionalTriggers.Score)

		if r.Summary != "" {
			fmt.Fprintf(b, "\n%s\n", r.Summary)
		}

		fmt.Fprintf(b, "\n%s\n", s.label.Render("Feedback"))
		fmt.Fprintf(b, "  Hook: %s\n", r.HookStrength.Feedback)
		fmt.Fprintf(b, "  Structure: %s\n", r.Structure.Feedback)
		fmt.Fprintf(b, "  Emotion: %s\n", r.EmotionalTriggers.Feedback)

		list(b, s, "Hook techniques", r.HookStrength.Techniques)
		list(b, s, "Emotional triggers", r.EmotionalTriggers.Triggers)
		list(b, s, "Improvements", r.Improvements)

		b.WriteString("\n")
		readabilityText(r.Readability)(b, s)
		b.WriteString("\n")
		toneText(r.Tone)(b, s)
	}
}

func readabilityText(r models.ReadabilityReport) textRenderer {
	return func(b *strings.Builder, s *styles) {
		heading(b, s, "Readability")
		scoreLine(b, s, "Flesch reading ease", r.FleschReadingEase)
		field(b, s, "Grade level", r.GradeLevel)
		field(b, s, "Words", r.WordCount)
		field(b, s, "Sentences", r.SentenceCount)
		field(b, s, "Paragraphs", r.ParagraphCount)
		field(b, s, "Avg sentence", fmt.Sprintf("%.1f words", r.AvgSentenceLength))
		field(b, s, "Avg word", fmt.Sprintf("%.1f letters", r.AvgWordLength))
		field(b, s, "Long sentences", r.LongSentences)
		field(b, s, "Passive voice", r.PassiveVoiceEstimate)
		field(b, s, "Reading time", fmt.Sprintf("%ds", r.ReadingTimeSeconds))
		list(b, s, "Suggestions", r.Suggestions)
	}
}

func toneText(t models.ToneReport) textRenderer {
	return func(b *strings.Builder, s *styles) {
		heading(b, s, "Tone")
		field(b, s, "Formality", fmt.Sprintf("%s (%d)", t.Formality.Level, t.Formality.Score))
		field(b, s, "Confidence", fmt.Sprintf("%s (%d)", t.Confidence.Level, t.Confidence.Score))
		field(b, s, "Voice", t.Voice)
		if len(t.Personality) > 0 {
			field(b, s, "Personality", strings.Join(t.Personality, ", "))
		}
		list(b, s, "Suggestions", t.Suggestions)
	}
}

func comparisonText(c *models.Comparison) textRenderer {
	return func(b *strings.Builder, s *styles) {
		heading(b, s, "Comparison")
		fmt.Fprintf(b, "  %-20s %7s %7s %7s\n", "", "A", "B", "A-B")
		row := func(label string, a, bv, d int) {
			fmt.Fprintf(b, "  %-20s %s %s %+7d\n", label,
				s.score(a).Render(fmt.Sprintf("%7d", a)),
				s.score(bv).Render(fmt.Sprintf("%7d", bv)),
				d)
		}
		row("Overall", c.A.OverallScore, c.B.OverallScore, c.Delta.Overall)
		row("Hook", c.A.HookStrength.Score, c.B.HookStrength.Score, c.Delta.Hook)
		row("Structure", c.A.Structure.Score, c.B.Structure.Score, c.Delta.Structure)
		row("Emotion", c.A.EmotionalTriggers.Score, c.B.EmotionalTriggers.Score, c.Delta.Emotion)
		row("Flesch", c.A.Readability.FleschReadingEase, c.B.Readability.FleschReadingEase, c.Delta.Flesch)

		b.WriteString("\n")
		if c.Winner == "tie" {
			b.WriteString(s.label.Render("Result: tie"))
		} else {
			b.WriteString(s.strong.Render("Winner: version " + c.Winner))
		}
		b.WriteString("\n")
	}
}

func rewriteText(r *models.RewriteResult) textRenderer {
	return func(b *strings.Builder, s *styles) {
		heading(b, s, "Hook rewrites")
		for i, rw := range r.Rewrites {
			fmt.Fprintf(b, "\n%d. %s\n", i+1, s.label.Render(rw.Style))
			fmt.Fprintf(b, "   %s\n", rw.Hook)
			if rw.Why != "" {
				fmt.Fprintf(b, "   %s\n", s.muted.Render(rw.Why))
			}
		}
		fmt.Fprintf(b, "\n%s\n", s.muted.Render("Generated by "+r.Provider))
	}
}

func extractedText(e *models.ExtractedContent) textRenderer {
	return func(b *strings.Builder, s *styles) {
		if e.Title != "" {
			heading(b, s, e.Title)
		}
		b.WriteString(s.muted.Render(fmt.Sprintf("%s, %d characters", e.Source, e.CharCount)))
		b.WriteString("\n\n")
		b.WriteString(e.Content)
		b.WriteString("\n")
	}
}

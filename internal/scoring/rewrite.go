package scoring

import (
	"regexp"
	"strings"

	"github.com/zombar/contentlens/internal/models"
)

var firstClausePattern = regexp.MustCompile(`[.\n]`)

// FallbackRewrites builds the deterministic hook rewrites used when no
// provider is available. They are seeded from the first sentence or line.
func FallbackRewrites(text string) []models.HookRewrite {
	subject := strings.ToLower(firstClause(text))

	return []models.HookRewrite{
		{
			Style: "Curiosity Gap",
			Hook:  "Most people get this wrong about " + prefix(subject, 30) + "... and it's costing them everything.",
			Why:   "Opens a knowledge gap the reader can't resist closing.",
		},
		{
			Style: "Bold Contrarian",
			Hook:  "Unpopular opinion: everything you've been told about " + prefix(subject, 25) + " is backwards.",
			Why:   "Contrarian takes trigger disagreement, which drives engagement.",
		},
		{
			Style: "Story Hook",
			Hook:  "Last week I almost gave up. Then I discovered something about " + prefix(subject, 25) + " that changed everything.",
			Why:   "Personal vulnerability + transformation arc creates emotional investment.",
		},
	}
}

// firstClause returns the text before the first period or newline,
// or the first 50 characters when that is blank.
func firstClause(text string) string {
	if clause := strings.TrimSpace(firstClausePattern.Split(text, 2)[0]); clause != "" {
		return clause
	}
	return prefix(text, 50)
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

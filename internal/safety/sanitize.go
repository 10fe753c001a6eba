package safety

import (
	"regexp"

	"github.com/jask/aura/internal/health"
)

// RedactionMarker replaces every clinically risky phrase.
const RedactionMarker = "[Clinical Boundary Reached]"

// clinicalPatterns cover dosage instructions, diagnostic claims, treatment
// directives and prescriptive language. None of them matches RedactionMarker,
// which keeps SanitizeText idempotent.
//
// This is a textual filter. Paraphrases, other languages and advice phrased
// without these keywords pass through.
var clinicalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btake\s+\d+(?:\.\d+)?\s*mg\b`),
	regexp.MustCompile(`(?i)diagnose`),
	regexp.MustCompile(`(?i)treat\s+with`),
	regexp.MustCompile(`(?i)prescribe`),
}

// SanitizeText redacts every match of the clinical patterns.
func SanitizeText(s string) string {
	for _, p := range clinicalPatterns {
		s = p.ReplaceAllLiteralString(s, RedactionMarker)
	}
	return s
}

// Sanitize returns a copy of insight with its description redacted. Other
// fields pass through unchanged.
func Sanitize(insight health.Insight) health.Insight {
	insight.Description = SanitizeText(insight.Description)
	return insight
}

// SanitizeBriefing redacts the narrative summary of a weekly briefing.
func SanitizeBriefing(b health.WeeklyBriefing) health.WeeklyBriefing {
	b.NarrativeSummary = SanitizeText(b.NarrativeSummary)
	return b
}

// SanitizeMemory redacts the summary and key patterns of a memory node.
func SanitizeMemory(n health.AIMemoryNode) health.AIMemoryNode {
	n.Summary = SanitizeText(n.Summary)
	if len(n.KeyPatterns) > 0 {
		patterns := make([]string, len(n.KeyPatterns))
		for i, p := range n.KeyPatterns {
			patterns[i] = SanitizeText(p)
		}
		n.KeyPatterns = patterns
	}
	return n
}

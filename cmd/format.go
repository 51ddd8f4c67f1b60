package cmd

import (
	"fmt"
	"strings"

	"github.com/latticehq/rootcause/internal/analysis"
)

// maxEvidenceChars truncates long evidence turns in terminal output
const maxEvidenceChars = 120

// formatExplanation renders an explanation for the terminal
func formatExplanation(e *analysis.Explanation) string {
	var b strings.Builder

	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "❓ %s\n", e.Query)
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	fmt.Fprintf(&b, "Outcome: %s\n\n", e.Outcome)

	if e.PrimaryCause != "" {
		fmt.Fprintf(&b, "💡 %s\n", e.PrimaryCause)
	} else {
		b.WriteString("💡 No recognizable cause in the retrieved transcripts\n")
	}

	if len(e.SupportingFactors) > 0 {
		b.WriteString("\nSupporting factors:\n")
		for i, f := range e.SupportingFactors {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, f)
		}
	}

	if len(e.Evidence) > 0 {
		b.WriteString("\nEvidence:\n")
		for _, ev := range e.Evidence {
			fmt.Fprintf(&b, "  [%s] %s\n", ev.Speaker, truncate(ev.Text, maxEvidenceChars))
		}
	}

	fmt.Fprintf(&b, "\nConfidence: %.0f%%\n", e.Confidence*100)
	fmt.Fprintf(&b, "Sources: %s\n", strings.Join(e.SourceTranscriptIDs, ", "))

	return b.String()
}

// truncate shortens s to n display characters, never splitting a rune
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

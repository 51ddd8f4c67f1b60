package analysis

import (
	"strings"
)

// Readability caps: at most 3 fragments joined into the primary cause,
// at most 6 supporting factors.
const (
	maxPrimaryFragments  = 3
	maxSupportingFactors = 6
)

// outcomePrefixes introduce the primary cause per outcome
var outcomePrefixes = map[Outcome]string{
	OutcomeEscalation:            "Customer escalated due to",
	OutcomeFraudResolved:         "Fraud detected",
	OutcomeDeliveryInvestigation: "Delivery issue",
	OutcomeGeneralInquiry:        "Inquiry regarding",
}

// Compose merges matches into a primary cause string and supporting factors.
// Matches must already be in composition order (weight desc, position asc).
// Primary cause is empty only when no pattern matched at all.
func Compose(outcome Outcome, matches []Match) (string, []string) {
	if len(matches) == 0 {
		return "", nil
	}

	// Primary cause: top-weighted distinct fragments
	var fragments []string
	seen := make(map[string]bool)
	for _, m := range matches {
		if seen[m.Fragment] {
			continue
		}
		seen[m.Fragment] = true
		fragments = append(fragments, m.Fragment)
		if len(fragments) == maxPrimaryFragments {
			break
		}
	}
	primary := outcomePrefixes[outcome] + ": " + strings.Join(fragments, "; ")

	// Supporting factors: the designated supporting pattern subset,
	// labeled by category and deduplicated by rendered text.
	var factors []string
	seenFactor := make(map[string]bool)
	for _, m := range matches {
		if !m.Supporting {
			continue
		}
		factor := titleCategory(m.Category) + ": " + m.Fragment
		if seenFactor[factor] {
			continue
		}
		seenFactor[factor] = true
		factors = append(factors, factor)
		if len(factors) == maxSupportingFactors {
			break
		}
	}

	return primary, factors
}

// titleCategory capitalizes a category name for factor labels
func titleCategory(c Category) string {
	s := string(c)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package analysis

import (
	"sort"
	"strings"

	"github.com/latticehq/rootcause/internal/corpus"
)

// maxEvidenceTurns caps how many turns can back a single explanation
const maxEvidenceTurns = 5

// Evidence is one conversation turn selected as textual justification
type Evidence struct {
	TurnID  int            `json:"turn_id"`
	Speaker corpus.Speaker `json:"speaker"`
	Text    string         `json:"text"`
}

// categoryIndicators maps pattern categories to the terms that make a turn
// worth quoting when that category matched.
var categoryIndicators = map[Category][]string{
	CategoryTemporal:     {"week", "day", "month", "yesterday", "morning", "waiting"},
	CategoryEmotional:    {"frustrated", "upset", "angry", "unacceptable"},
	CategoryTechnical:    {"error", "crash", "login", "access", "alert"},
	CategoryFinancial:    {"$", "charge", "refund", "payment", "transaction"},
	CategoryRepetition:   {"again", "multiple", "times", "repeated"},
	CategoryTracking:     {"delivered", "tracking", "package"},
	CategoryVerification: {"checked", "verified", "camera", "neighbor"},
	CategoryResolution:   {"supervisor", "manager", "replacement", "refund", "expedited", "investigation"},
	CategoryDenial:       {"did not", "didn't", "never", "unauthorized"},
	CategoryLocation:     {"location", "address", "visited"},
}

// SelectEvidence picks the turns that best justify the matched causes.
// Per turn: +1 per query token present, +1 per causal indicator present,
// +0.5 if the speaker is a customer with at least one base hit. Turns
// scoring zero are never selected, even below the cap.
func SelectEvidence(queryTokens map[string]bool, transcripts []*corpus.Transcript, matches []Match) []Evidence {
	indicators := indicatorTerms(matches)

	type scoredTurn struct {
		evidence Evidence
		score    float64
		order    int // transcript position, for stable cross-transcript ties
	}

	var scored []scoredTurn
	for ti, t := range transcripts {
		for _, turn := range t.Turns {
			lower := strings.ToLower(turn.Text)

			score := 0.0
			for tok := range queryTokens {
				if strings.Contains(lower, tok) {
					score += 1.0
				}
			}
			for _, term := range indicators {
				if strings.Contains(lower, term) {
					score += 1.0
				}
			}
			if score == 0 {
				continue
			}
			// Customer turns are empirically more informative
			if turn.Speaker == corpus.SpeakerCustomer {
				score += 0.5
			}

			scored = append(scored, scoredTurn{
				evidence: Evidence{TurnID: turn.TurnID, Speaker: turn.Speaker, Text: turn.Text},
				score:    score,
				order:    ti,
			})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		if scored[i].evidence.TurnID != scored[j].evidence.TurnID {
			return scored[i].evidence.TurnID < scored[j].evidence.TurnID
		}
		return scored[i].order < scored[j].order
	})

	if len(scored) > maxEvidenceTurns {
		scored = scored[:maxEvidenceTurns]
	}

	out := make([]Evidence, len(scored))
	for i, s := range scored {
		out[i] = s.evidence
	}
	return out
}

// indicatorTerms collects the indicator vocabulary of the matched categories
func indicatorTerms(matches []Match) []string {
	seen := make(map[Category]bool)
	var terms []string
	for _, m := range matches {
		if seen[m.Category] {
			continue
		}
		seen[m.Category] = true
		terms = append(terms, categoryIndicators[m.Category]...)
	}
	return terms
}

package analysis

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/latticehq/rootcause/internal/corpus"
	"github.com/latticehq/rootcause/internal/textnorm"
)

// ErrNoTranscripts is returned when analysis is requested with zero transcripts.
var ErrNoTranscripts = errors.New("no transcripts to analyze")

// Explanation is the structured causal explanation for a query.
// Immutable once returned.
type Explanation struct {
	ID                  string     `json:"id"`
	Query               string     `json:"query"`
	Outcome             Outcome    `json:"outcome"`
	PrimaryCause        string     `json:"primary_cause"`
	SupportingFactors   []string   `json:"supporting_factors"`
	Evidence            []Evidence `json:"evidence"`
	Confidence          float64    `json:"confidence"`
	SourceTranscriptIDs []string   `json:"source_transcript_ids"`
	GeneratedAt         time.Time  `json:"generated_at"`
}

// Analyzer sequences outcome classification, pattern matching, explanation
// composition, evidence selection and confidence calibration.
type Analyzer struct {
	patterns *PatternSet
}

// NewAnalyzer creates an analyzer over an explicit pattern set
func NewAnalyzer(patterns *PatternSet) *Analyzer {
	return &Analyzer{patterns: patterns}
}

// NewDefaultAnalyzer creates an analyzer with the embedded pattern vocabulary
func NewDefaultAnalyzer() (*Analyzer, error) {
	patterns, err := DefaultPatterns()
	if err != nil {
		return nil, err
	}
	return NewAnalyzer(patterns), nil
}

// Analyze produces a causal explanation for the given transcripts.
// All sub-steps are total, so failure is all-or-nothing at the entry check.
// An empty PrimaryCause means no pattern recognized a cause; that is a
// valid result, not an error.
func (a *Analyzer) Analyze(query string, transcripts []*corpus.Transcript) (*Explanation, error) {
	if len(transcripts) == 0 {
		return nil, ErrNoTranscripts
	}

	// The top-ranked transcript determines the outcome category
	outcome := ClassifyOutcome(transcripts[0])

	var matches []Match
	for _, t := range transcripts {
		matches = append(matches, a.patterns.Match(t, outcome)...)
	}
	sortMatches(matches)

	primary, factors := Compose(outcome, matches)

	queryTokens := textnorm.TokenSet(query)
	evidence := SelectEvidence(queryTokens, transcripts, matches)

	confidence := ConfidenceScore(len(transcripts), len(factors), hasStructuredMetadata(transcripts[0]))

	ids := make([]string, len(transcripts))
	for i, t := range transcripts {
		ids[i] = t.ID
	}

	return &Explanation{
		ID:                  uuid.NewString(),
		Query:               query,
		Outcome:             outcome,
		PrimaryCause:        primary,
		SupportingFactors:   factors,
		Evidence:            evidence,
		Confidence:          confidence,
		SourceTranscriptIDs: ids,
		GeneratedAt:         time.Now(),
	}, nil
}

// hasStructuredMetadata reports whether the transcript carries the
// structured fields that make classification more reliable
func hasStructuredMetadata(t *corpus.Transcript) bool {
	return t.ReasonForCall() != "" || t.Intent() != ""
}

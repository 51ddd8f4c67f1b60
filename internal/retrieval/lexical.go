// Package retrieval ranks transcripts against a natural-language query
// using lexical keyword overlap, semantic embedding similarity, or both.
package retrieval

import (
	"strings"

	"github.com/latticehq/rootcause/internal/corpus"
	"github.com/latticehq/rootcause/internal/textnorm"
)

// boostRule adds a fixed increment when the query signals a domain concern
// and the transcript contains corroborating vocabulary.
type boostRule struct {
	trigger   string   // substring matched against query tokens
	terms     []string // substrings matched against transcript content
	increment float64
}

// defaultBoostRules covers the domains the corpus actually contains.
// Increments are cumulative across rules; the final score is clamped to [0,1].
var defaultBoostRules = []boostRule{
	{trigger: "escalat", terms: []string{"escalat", "supervisor", "manager", "frustrated"}, increment: 0.15},
	{trigger: "fraud", terms: []string{"fraud", "unauthorized", "blocked"}, increment: 0.15},
	{trigger: "unauthorized", terms: []string{"fraud", "unauthorized", "transaction"}, increment: 0.15},
	{trigger: "delivery", terms: []string{"delivery", "delivered", "package", "tracking"}, increment: 0.15},
	{trigger: "package", terms: []string{"delivery", "delivered", "package"}, increment: 0.15},
	{trigger: "error", terms: []string{"error"}, increment: 0.10},
	{trigger: "refund", terms: []string{"refund", "reimburse", "credited"}, increment: 0.10},
}

// LexicalScorer computes keyword-overlap scores with domain boosting
type LexicalScorer struct {
	rules []boostRule
}

// NewLexicalScorer creates a lexical scorer with the default boost rules
func NewLexicalScorer() *LexicalScorer {
	return &LexicalScorer{rules: defaultBoostRules}
}

// Score returns a relevance score in [0,1] for the transcript against the
// normalized query tokens. Empty query tokens score 0.0 by definition.
func (s *LexicalScorer) Score(queryTokens map[string]bool, t *corpus.Transcript) float64 {
	if len(queryTokens) == 0 {
		return 0.0
	}

	// Searchable content: turn text plus the recorded call reason
	content := strings.ToLower(t.FullText() + " " + t.ReasonForCall())
	contentTokens := textnorm.TokenSet(content)

	matched := 0
	for tok := range queryTokens {
		if contentTokens[tok] {
			matched++
		}
	}
	score := float64(matched) / float64(len(queryTokens))

	// Domain boosts: each rule fires at most once
	for _, rule := range s.rules {
		if !tokensContain(queryTokens, rule.trigger) {
			continue
		}
		for _, term := range rule.terms {
			if strings.Contains(content, term) {
				score += rule.increment
				break
			}
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score
}

// tokensContain reports whether any query token contains the trigger substring,
// so "escalate" and "escalation" both fire the "escalat" rule without stemming.
func tokensContain(tokens map[string]bool, trigger string) bool {
	for tok := range tokens {
		if strings.Contains(tok, trigger) {
			return true
		}
	}
	return false
}

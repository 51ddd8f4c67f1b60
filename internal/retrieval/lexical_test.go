package retrieval

import (
	"testing"

	"github.com/latticehq/rootcause/internal/corpus"
	"github.com/latticehq/rootcause/internal/textnorm"
)

func transcriptWith(id, reason string, texts ...string) *corpus.Transcript {
	t := &corpus.Transcript{
		ID:       id,
		Metadata: map[string]string{"reason_for_call": reason},
	}
	for i, text := range texts {
		t.Turns = append(t.Turns, corpus.Turn{TurnID: i, Text: text})
	}
	return t
}

func TestLexicalScorer_Overlap(t *testing.T) {
	scorer := NewLexicalScorer()

	tr := transcriptWith("t1", "", "the customer wants a refund for the broken blender")

	tests := []struct {
		name  string
		query string
		want  float64
	}{
		{"full_overlap", "broken blender", 1.0},
		{"half_overlap", "blender warranty", 0.5},
		{"no_overlap", "password reset", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(textnorm.TokenSet(tt.query), tr)
			if got != tt.want {
				t.Errorf("Score(%q) = %f, want %f", tt.query, got, tt.want)
			}
		})
	}
}

func TestLexicalScorer_EmptyQueryTokens(t *testing.T) {
	scorer := NewLexicalScorer()
	tr := transcriptWith("t1", "", "anything at all")

	if got := scorer.Score(map[string]bool{}, tr); got != 0.0 {
		t.Errorf("empty query tokens must score 0.0, got %f", got)
	}
}

func TestLexicalScorer_DomainBoost(t *testing.T) {
	scorer := NewLexicalScorer()

	boosted := transcriptWith("t1", "", "I demand to escalate this to a supervisor immediately")
	plain := transcriptWith("t2", "", "I would like to escalate my request please")

	query := textnorm.TokenSet("why did the customer escalate")

	sBoosted := scorer.Score(query, boosted)
	sPlain := scorer.Score(query, plain)

	// Both contain "escalate"; the boost fires for both, but the supervisor
	// transcript cannot score lower than the plain one.
	if sBoosted < sPlain {
		t.Errorf("boosted %f < plain %f", sBoosted, sPlain)
	}
	if sPlain <= 0 {
		t.Errorf("expected boost on top of overlap, got %f", sPlain)
	}
}

func TestLexicalScorer_BoostTriggersOnTokenSubstring(t *testing.T) {
	scorer := NewLexicalScorer()
	tr := transcriptWith("t1", "", "the transaction was flagged as fraud and the card was blocked")

	// "escalation" contains the "escalat" trigger; "fraudulent" contains "fraud"
	withBoost := scorer.Score(textnorm.TokenSet("fraudulent charge"), tr)
	noBoost := scorer.Score(textnorm.TokenSet("strange charge"), tr)

	if withBoost <= noBoost {
		t.Errorf("fraud trigger should boost: %f <= %f", withBoost, noBoost)
	}
}

func TestLexicalScorer_ClampedToOne(t *testing.T) {
	scorer := NewLexicalScorer()
	tr := transcriptWith("t1", "fraud complaint",
		"fraud fraud unauthorized transaction escalate supervisor package delivery error refund")

	// Full overlap plus several boosts must still clamp at 1.0
	got := scorer.Score(textnorm.TokenSet("fraud unauthorized escalate package error refund"), tr)
	if got != 1.0 {
		t.Errorf("Score() = %f, want clamp at 1.0", got)
	}
}

func TestLexicalScorer_SearchesReasonForCall(t *testing.T) {
	scorer := NewLexicalScorer()

	// Query term appears only in the recorded call reason
	tr := transcriptWith("t1", "warranty claim for appliance", "hello how can I help")

	got := scorer.Score(textnorm.TokenSet("warranty"), tr)
	if got <= 0 {
		t.Errorf("reason_for_call must be searchable, got %f", got)
	}
}

package analysis

import (
	"testing"

	"github.com/latticehq/rootcause/internal/corpus"
	"github.com/latticehq/rootcause/internal/textnorm"
)

func TestSelectEvidence_ZeroScoreExcluded(t *testing.T) {
	transcripts := []*corpus.Transcript{
		textTranscript("",
			"Thank you for calling.",                  // no signal
			"My refund has been pending for a week."), // query hit
	}

	evidence := SelectEvidence(textnorm.TokenSet("refund pending"), transcripts, nil)

	if len(evidence) != 1 {
		t.Fatalf("len(evidence) = %d, want 1", len(evidence))
	}
	if evidence[0].TurnID != 1 {
		t.Errorf("selected turn %d, want 1", evidence[0].TurnID)
	}
}

func TestSelectEvidence_CustomerBonusOrdersTies(t *testing.T) {
	// Same lexical hit; the customer turn wins on the speaker bonus
	transcripts := []*corpus.Transcript{
		{
			ID: "t1",
			Turns: []corpus.Turn{
				{TurnID: 0, Speaker: corpus.SpeakerAgent, Text: "I see the refund request here."},
				{TurnID: 1, Speaker: corpus.SpeakerCustomer, Text: "Where is my refund request?"},
			},
		},
	}

	evidence := SelectEvidence(textnorm.TokenSet("refund request"), transcripts, nil)

	if len(evidence) != 2 {
		t.Fatalf("len(evidence) = %d, want 2", len(evidence))
	}
	if evidence[0].Speaker != corpus.SpeakerCustomer {
		t.Errorf("first evidence speaker = %s, want Customer (bonus)", evidence[0].Speaker)
	}
}

func TestSelectEvidence_IndicatorTerms(t *testing.T) {
	// The turn shares no query token but contains an indicator of the
	// matched category, so it still scores.
	transcripts := []*corpus.Transcript{
		textTranscript("", "I already spoke with a manager about this."),
	}
	matches := []Match{{Category: CategoryResolution, Weight: 0.9}}

	evidence := SelectEvidence(textnorm.TokenSet("billing outcome"), transcripts, matches)

	if len(evidence) != 1 {
		t.Fatalf("len(evidence) = %d, want 1 via indicator terms", len(evidence))
	}
}

func TestSelectEvidence_Cap(t *testing.T) {
	tr := &corpus.Transcript{ID: "t1"}
	for i := 0; i < 12; i++ {
		tr.Turns = append(tr.Turns, corpus.Turn{
			TurnID:  i,
			Speaker: corpus.SpeakerCustomer,
			Text:    "still waiting on my refund",
		})
	}

	evidence := SelectEvidence(textnorm.TokenSet("refund"), []*corpus.Transcript{tr}, nil)

	if len(evidence) != maxEvidenceTurns {
		t.Errorf("len(evidence) = %d, want cap %d", len(evidence), maxEvidenceTurns)
	}
	// Ties broken by turn ID ascending
	for i := 1; i < len(evidence); i++ {
		if evidence[i].TurnID <= evidence[i-1].TurnID {
			t.Errorf("evidence not ordered by turn ID: %d then %d", evidence[i-1].TurnID, evidence[i].TurnID)
		}
	}
}

func TestSelectEvidence_ScoreOrdering(t *testing.T) {
	transcripts := []*corpus.Transcript{
		{
			ID: "t1",
			Turns: []corpus.Turn{
				{TurnID: 0, Speaker: corpus.SpeakerCustomer, Text: "refund"},
				{TurnID: 1, Speaker: corpus.SpeakerCustomer, Text: "refund delayed payment missing"},
			},
		},
	}

	evidence := SelectEvidence(textnorm.TokenSet("refund delayed payment"), transcripts, nil)

	if len(evidence) != 2 {
		t.Fatalf("len(evidence) = %d, want 2", len(evidence))
	}
	if evidence[0].TurnID != 1 {
		t.Errorf("highest-scoring turn should come first, got turn %d", evidence[0].TurnID)
	}
}

func TestSelectEvidence_NoSignal(t *testing.T) {
	transcripts := []*corpus.Transcript{
		textTranscript("", "Hello.", "Goodbye."),
	}

	evidence := SelectEvidence(textnorm.TokenSet("refund"), transcripts, nil)
	if len(evidence) != 0 {
		t.Errorf("expected no evidence, got %+v", evidence)
	}
}

// Package corpus provides the transcript store for rootcause.
// Transcripts are immutable after import; engines receive read-only references.
package corpus

import (
	"errors"
	"strings"
)

// ErrTranscriptNotFound is returned by Get for an unknown transcript ID.
var ErrTranscriptNotFound = errors.New("transcript not found")

// Speaker identifies who produced a conversation turn
type Speaker string

const (
	SpeakerAgent    Speaker = "Agent"
	SpeakerCustomer Speaker = "Customer"
)

// Turn is a single utterance in a conversation. TurnID is order-significant.
type Turn struct {
	TurnID    int     `json:"turn_id"`
	Speaker   Speaker `json:"speaker"`
	Text      string  `json:"text"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// Transcript is a complete customer-service conversation
type Transcript struct {
	ID       string            `json:"transcript_id"`
	Domain   string            `json:"domain"`
	Outcome  string            `json:"outcome,omitempty"` // unset until classified
	Turns    []Turn            `json:"turns"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// FullText returns the concatenated text of all turns, order preserved
func (t *Transcript) FullText() string {
	parts := make([]string, 0, len(t.Turns))
	for _, turn := range t.Turns {
		parts = append(parts, turn.Text)
	}
	return strings.Join(parts, " ")
}

// Intent returns the recorded intent from metadata, if any
func (t *Transcript) Intent() string {
	if t.Metadata == nil {
		return ""
	}
	return t.Metadata["intent"]
}

// ReasonForCall returns the recorded reason_for_call from metadata, if any
func (t *Transcript) ReasonForCall() string {
	if t.Metadata == nil {
		return ""
	}
	return t.Metadata["reason_for_call"]
}

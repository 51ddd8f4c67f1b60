// Package importer loads customer-service transcripts from JSON exports.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/latticehq/rootcause/internal/corpus"
)

// rawTranscript mirrors the persisted transcript format. Several field
// aliases are accepted because exports from different tooling disagree on
// key names (turns vs conversation, text vs utterance).
type rawTranscript struct {
	TranscriptID      string            `json:"transcript_id"`
	Domain            string            `json:"domain"`
	Intent            string            `json:"intent"`
	ReasonForCall     string            `json:"reason_for_call"`
	TimeOfInteraction string            `json:"time_of_interaction"`
	Turns             []json.RawMessage `json:"turns"`
	Conversation      []json.RawMessage `json:"conversation"`
	Metadata          map[string]string `json:"metadata"`
}

type rawTurn struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Utterance string `json:"utterance"`
	Timestamp string `json:"timestamp"`
}

// envelope covers the corpus file shapes seen in the wild: a bare array,
// an object keyed by "transcripts" or "conversations", or a single object.
type envelope struct {
	Transcripts   []rawTranscript `json:"transcripts"`
	Conversations []rawTranscript `json:"conversations"`
}

// ImportResult tracks import statistics
type ImportResult struct {
	TranscriptsProcessed int
	TranscriptsImported  int
	Errors               []string
	Duration             time.Duration
}

// TranscriptImporter imports conversation transcripts into the corpus store
type TranscriptImporter struct {
	store *corpus.Store
}

// NewTranscriptImporter creates a transcript importer
func NewTranscriptImporter(store *corpus.Store) *TranscriptImporter {
	return &TranscriptImporter{store: store}
}

// ImportFromFile imports transcripts from a JSON corpus file
func (i *TranscriptImporter) ImportFromFile(ctx context.Context, filePath string) (*ImportResult, error) {
	start := time.Now()
	result := &ImportResult{}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	raws, err := extractTranscripts(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(filePath), err)
	}

	var batch []corpus.Transcript
	for idx, raw := range raws {
		result.TranscriptsProcessed++
		t, err := parseTranscript(raw, idx)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("transcript %d: %v", idx, err))
			continue
		}
		batch = append(batch, t)
	}

	if len(batch) > 0 {
		if err := i.store.AddBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("failed to store transcripts: %w", err)
		}
		result.TranscriptsImported = len(batch)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// ImportFromDirectory imports every .json file in a directory
func (i *TranscriptImporter) ImportFromDirectory(ctx context.Context, dirPath string) (*ImportResult, error) {
	start := time.Now()
	total := &ImportResult{}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		result, err := i.ImportFromFile(ctx, filepath.Join(dirPath, entry.Name()))
		if err != nil {
			total.Errors = append(total.Errors, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		total.TranscriptsProcessed += result.TranscriptsProcessed
		total.TranscriptsImported += result.TranscriptsImported
		total.Errors = append(total.Errors, result.Errors...)
	}

	total.Duration = time.Since(start)
	return total, nil
}

// extractTranscripts handles the accepted corpus file shapes
func extractTranscripts(data []byte) ([]rawTranscript, error) {
	// Bare array
	var list []rawTranscript
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	// Object envelope
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil {
		if len(env.Transcripts) > 0 {
			return env.Transcripts, nil
		}
		if len(env.Conversations) > 0 {
			return env.Conversations, nil
		}
	}

	// Single transcript object
	var single rawTranscript
	if err := json.Unmarshal(data, &single); err == nil {
		if single.TranscriptID != "" || len(single.Turns) > 0 || len(single.Conversation) > 0 {
			return []rawTranscript{single}, nil
		}
	}

	return nil, fmt.Errorf("unrecognized corpus format")
}

// parseTranscript converts a raw transcript into the corpus form
func parseTranscript(raw rawTranscript, idx int) (corpus.Transcript, error) {
	rawTurns := raw.Turns
	if len(rawTurns) == 0 {
		rawTurns = raw.Conversation
	}
	if len(rawTurns) == 0 {
		return corpus.Transcript{}, fmt.Errorf("no turns")
	}

	turns := make([]corpus.Turn, 0, len(rawTurns))
	for i, rt := range rawTurns {
		turn, ok := parseTurn(rt, i)
		if !ok {
			continue
		}
		turns = append(turns, turn)
	}
	if len(turns) == 0 {
		return corpus.Transcript{}, fmt.Errorf("no parseable turns")
	}

	id := raw.TranscriptID
	if id == "" {
		id = fmt.Sprintf("conv_%d", idx)
	}

	metadata := map[string]string{}
	for k, v := range raw.Metadata {
		metadata[k] = v
	}
	if raw.Intent != "" {
		metadata["intent"] = raw.Intent
	}
	if raw.ReasonForCall != "" {
		metadata["reason_for_call"] = raw.ReasonForCall
	}
	if raw.TimeOfInteraction != "" {
		metadata["time_of_interaction"] = raw.TimeOfInteraction
	}

	return corpus.Transcript{
		ID:       id,
		Domain:   raw.Domain,
		Turns:    turns,
		Metadata: metadata,
	}, nil
}

// parseTurn accepts either a turn object or a bare string utterance
func parseTurn(data json.RawMessage, idx int) (corpus.Turn, bool) {
	var obj rawTurn
	if err := json.Unmarshal(data, &obj); err == nil && (obj.Text != "" || obj.Utterance != "") {
		text := obj.Text
		if text == "" {
			text = obj.Utterance
		}
		return corpus.Turn{
			TurnID:    idx,
			Speaker:   normalizeSpeaker(obj.Speaker, idx),
			Text:      text,
			Timestamp: obj.Timestamp,
		}, true
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil && s != "" {
		return corpus.Turn{
			TurnID:  idx,
			Speaker: normalizeSpeaker("", idx),
			Text:    s,
		}, true
	}

	return corpus.Turn{}, false
}

// normalizeSpeaker maps free-form speaker labels onto the Agent/Customer enum.
// Unlabeled turns alternate starting with the agent greeting.
func normalizeSpeaker(s string, idx int) corpus.Speaker {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "agent", "representative", "rep", "support", "assistant":
		return corpus.SpeakerAgent
	case "customer", "caller", "client", "user":
		return corpus.SpeakerCustomer
	}
	if idx%2 == 0 {
		return corpus.SpeakerAgent
	}
	return corpus.SpeakerCustomer
}

package retrieval

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/latticehq/rootcause/internal/corpus"
)

// setupTestStore creates a temporary corpus store for engine tests
func setupTestStore(t *testing.T) (*corpus.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "rootcause-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	originalDataDir := os.Getenv("ROOTCAUSE_DATA_DIR")
	os.Setenv("ROOTCAUSE_DATA_DIR", tmpDir)
	os.Setenv("ROOTCAUSE_EMBEDDINGS", "local")

	store, err := corpus.NewStore()
	if err != nil {
		os.RemoveAll(tmpDir)
		os.Setenv("ROOTCAUSE_DATA_DIR", originalDataDir)
		t.Fatalf("failed to create store: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
		os.Setenv("ROOTCAUSE_DATA_DIR", originalDataDir)
		os.Unsetenv("ROOTCAUSE_EMBEDDINGS")
	}

	return store, cleanup
}

func seedCorpus(t *testing.T, store *corpus.Store) {
	t.Helper()
	batch := []corpus.Transcript{
		{
			ID:       "conv_delivery",
			Metadata: map[string]string{"reason_for_call": "missing delivery"},
			Turns: []corpus.Turn{
				{TurnID: 0, Speaker: corpus.SpeakerAgent, Text: "How can I help you today?"},
				{TurnID: 1, Speaker: corpus.SpeakerCustomer, Text: "My package shows delivered but it never arrived."},
			},
		},
		{
			ID:       "conv_escalation",
			Metadata: map[string]string{"reason_for_call": "escalation request"},
			Turns: []corpus.Turn{
				{TurnID: 0, Speaker: corpus.SpeakerAgent, Text: "Thanks for calling."},
				{TurnID: 1, Speaker: corpus.SpeakerCustomer, Text: "This is unacceptable, I want to speak with a supervisor."},
			},
		},
		{
			ID:       "conv_fraud",
			Metadata: map[string]string{"reason_for_call": "unauthorized transaction"},
			Turns: []corpus.Turn{
				{TurnID: 0, Speaker: corpus.SpeakerAgent, Text: "I see a fraud alert on your account."},
				{TurnID: 1, Speaker: corpus.SpeakerCustomer, Text: "I did not make this purchase, it was $450.00."},
			},
		},
	}
	if err := store.AddBatch(context.Background(), batch); err != nil {
		t.Fatalf("failed to seed corpus: %v", err)
	}
}

func TestRetrieve_EmptyCorpus(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	engine := NewEngine(store, Options{})
	_, err := engine.Retrieve(context.Background(), "anything", 3)
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("Retrieve() error = %v, want ErrEmptyCorpus", err)
	}
}

func TestRetrieve_InvalidQuery(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedCorpus(t, store)

	// Lexical-only: a query that normalizes to zero tokens is rejected
	engine := NewEngine(store, Options{DisableSemantic: true})
	_, err := engine.Retrieve(context.Background(), "why did the", 3)
	if !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("Retrieve() error = %v, want ErrInvalidQuery", err)
	}
}

func TestRetrieve_EmptyQueryWithSemantic(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedCorpus(t, store)

	// With semantic capability the same query is answerable
	engine := NewEngine(store, Options{})
	results, err := engine.Retrieve(context.Background(), "why did the", 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results from semantic-only scoring")
	}
	if results[0].Method != MethodSemantic {
		t.Errorf("method = %s, want semantic for token-free query", results[0].Method)
	}
}

func TestRetrieve_InvalidK(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	engine := NewEngine(store, Options{})
	if _, err := engine.Retrieve(context.Background(), "query", 0); err == nil {
		t.Error("expected error for k < 1")
	}
}

func TestRetrieve_LexicalRanking(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedCorpus(t, store)

	engine := NewEngine(store, Options{DisableSemantic: true})
	results, err := engine.Retrieve(context.Background(), "package delivered tracking", 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if results[0].TranscriptID != "conv_delivery" {
		t.Errorf("top result = %s, want conv_delivery", results[0].TranscriptID)
	}
	for _, r := range results {
		if r.Method != MethodLexical {
			t.Errorf("method = %s, want lexical", r.Method)
		}
	}
}

func TestRetrieve_HybridMethod(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedCorpus(t, store)

	engine := NewEngine(store, Options{})
	if !engine.SemanticAvailable() {
		t.Fatal("expected semantic capability with local embedder")
	}

	results, err := engine.Retrieve(context.Background(), "unauthorized transaction fraud", 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if results[0].TranscriptID != "conv_fraud" {
		t.Errorf("top result = %s, want conv_fraud", results[0].TranscriptID)
	}
	for _, r := range results {
		if r.Method != MethodHybrid {
			t.Errorf("method = %s, want hybrid", r.Method)
		}
	}
}

func TestRetrieve_TopKLimiting(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedCorpus(t, store)

	engine := NewEngine(store, Options{DisableSemantic: true})

	results, err := engine.Retrieve(context.Background(), "customer call", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(results))
	}

	// k larger than the corpus returns the whole corpus
	results, err = engine.Retrieve(context.Background(), "customer call", 50)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) != 3 {
		t.Errorf("len(results) = %d, want 3", len(results))
	}
}

func TestRetrieve_DeterministicTieBreak(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	// Identical content forces equal scores; order must fall back to ID asc
	for _, id := range []string{"conv_c", "conv_a", "conv_b"} {
		err := store.Add(context.Background(), corpus.Transcript{
			ID: id,
			Turns: []corpus.Turn{
				{TurnID: 0, Speaker: corpus.SpeakerCustomer, Text: "my refund is late"},
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	engine := NewEngine(store, Options{DisableSemantic: true})

	for i := 0; i < 5; i++ {
		results, err := engine.Retrieve(context.Background(), "late refund", 3)
		if err != nil {
			t.Fatalf("Retrieve() error = %v", err)
		}
		for j, want := range []string{"conv_a", "conv_b", "conv_c"} {
			if results[j].TranscriptID != want {
				t.Fatalf("run %d: results[%d] = %s, want %s", i, j, results[j].TranscriptID, want)
			}
		}
	}
}

func TestRescaleSimilarity(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.8, 0.8},
		{0.0, 0.0},
		{-1.0, 0.0},
		{-0.5, 0.0},
		{-0.1, 0.0},
		{1.2, 1.0},
	}

	for _, tt := range tests {
		if got := rescaleSimilarity(tt.in); got != tt.want {
			t.Errorf("rescaleSimilarity(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

func TestRescaleSimilarity_Monotonic(t *testing.T) {
	// Rescaling must preserve the raw cosine ordering: a transcript with a
	// negative raw similarity can never outrank one with a positive similarity.
	inputs := []float64{-1.0, -0.5, -0.1, 0.0, 0.2, 0.7, 1.0}

	prev := rescaleSimilarity(inputs[0])
	for _, in := range inputs[1:] {
		got := rescaleSimilarity(in)
		if got < prev {
			t.Fatalf("ranking inverted: rescale(%f)=%f below rescale of a smaller cosine (%f)", in, got, prev)
		}
		prev = got
	}

	if neg, pos := rescaleSimilarity(-0.1), rescaleSimilarity(0.2); neg > pos {
		t.Errorf("ranking inverted: rescale(-0.1)=%f outranks rescale(0.2)=%f", neg, pos)
	}
}

package embed

import (
	"math"
	"testing"
)

func TestLocalEmbedder_Embed(t *testing.T) {
	embedder := NewLocalEmbedder()

	tests := []struct {
		name string
		text string
	}{
		{"simple", "hello world"},
		{"conversation", "I want to speak with a supervisor right now"},
		{"question", "where is my package?"},
		{"empty", ""},
		{"long", "The customer called about an unauthorized transaction on their card. The agent verified the charge came from a different state and opened a fraud investigation."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedding, err := embedder.Embed(tt.text)
			if err != nil {
				t.Fatalf("Embed() error = %v", err)
			}

			if len(embedding) != embedder.Dimensions() {
				t.Errorf("Embed() returned %d dimensions, want %d", len(embedding), embedder.Dimensions())
			}

			// Check normalization (should be unit vector or zero)
			var norm float32
			for _, v := range embedding {
				norm += v * v
			}
			norm = float32(math.Sqrt(float64(norm)))

			if tt.text != "" && (norm < 0.99 || norm > 1.01) {
				t.Errorf("Embed() not normalized, norm = %f", norm)
			}
		})
	}
}

func TestLocalEmbedder_Deterministic(t *testing.T) {
	embedder := NewLocalEmbedder()

	text := "my package shows delivered but never arrived"
	a, _ := embedder.Embed(text)
	b, _ := embedder.Embed(text)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding not deterministic at dim %d: %f != %f", i, a[i], b[i])
		}
	}
}

func TestLocalEmbedder_Similarity(t *testing.T) {
	embedder := NewLocalEmbedder()

	tests := []struct {
		name  string
		text1 string
		text2 string
		text3 string // should be less similar to text1 than text2
	}{
		{
			name:  "delivery_vs_fraud",
			text1: "my package never arrived even though tracking shows delivered",
			text2: "the delivery is missing and the tracking says delivered",
			text3: "there is an unauthorized charge on my credit card",
		},
		{
			name:  "escalation_vs_billing",
			text1: "I want to speak to a supervisor this is unacceptable",
			text2: "let me talk to your manager I am very frustrated",
			text3: "what is my current account balance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e1, _ := embedder.Embed(tt.text1)
			e2, _ := embedder.Embed(tt.text2)
			e3, _ := embedder.Embed(tt.text3)

			simNear := dot(e1, e2)
			simFar := dot(e1, e3)

			if simNear <= simFar {
				t.Errorf("similar texts scored %.4f, dissimilar %.4f; expected similar > dissimilar", simNear, simFar)
			}
		})
	}
}

func TestLocalEmbedder_EmbedBatch(t *testing.T) {
	embedder := NewLocalEmbedder()

	texts := []string{"first conversation", "second conversation", ""}
	embeddings, err := embedder.EmbedBatch(texts)
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if len(embeddings) != len(texts) {
		t.Fatalf("EmbedBatch() returned %d embeddings, want %d", len(embeddings), len(texts))
	}
	for i, e := range embeddings {
		if len(e) != embedder.Dimensions() {
			t.Errorf("embedding %d has %d dims, want %d", i, len(e), embedder.Dimensions())
		}
	}
}

// dot is the cosine similarity of unit vectors
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i] * b[i])
	}
	return sum
}

package embed

import (
	"math"
	"strings"
)

// LocalEmbedder produces on-device embeddings for offline operation.
// Not a trained model: combines hashed n-gram features, character trigrams,
// conversation-domain category signals and structural features into a
// unit-normalized vector. Deterministic for identical input.
type LocalEmbedder struct {
	dimensions int
	ngramSizes []int
	stopwords  map[string]bool
}

// NewLocalEmbedder creates a local embedder
func NewLocalEmbedder() *LocalEmbedder {
	return &LocalEmbedder{
		dimensions: 384,
		ngramSizes: []int{1, 2, 3},
		stopwords:  buildStopwords(),
	}
}

// buildStopwords returns common English stopwords
func buildStopwords() map[string]bool {
	words := []string{
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
		"of", "with", "by", "from", "as", "is", "was", "are", "were", "been",
		"be", "have", "has", "had", "do", "does", "did", "will", "would", "could",
		"should", "may", "might", "must", "shall", "can", "need", "dare", "ought",
		"used", "it", "its", "this", "that", "these", "those", "i", "you", "he",
		"she", "we", "they", "what", "which", "who", "whom", "whose", "where",
		"when", "why", "how", "all", "each", "every", "both", "few", "more",
		"most", "other", "some", "such", "no", "nor", "not", "only", "own",
		"same", "so", "than", "too", "very", "just", "also", "now", "here",
	}
	m := make(map[string]bool)
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Conversation-domain categories for boosting related terms. These are the
// signals that separate customer-service transcripts from each other.
var semanticCategories = map[string][]string{
	"escalation": {"supervisor", "manager", "escalate", "escalated", "escalation", "complaint", "unacceptable"},
	"fraud":      {"fraud", "unauthorized", "stolen", "suspicious", "blocked", "dispute", "charge", "transaction"},
	"delivery":   {"delivery", "delivered", "package", "shipping", "tracking", "courier", "address", "missing"},
	"emotion":    {"frustrated", "upset", "angry", "annoyed", "disappointed", "furious", "sorry", "apologize"},
	"time":       {"today", "yesterday", "week", "weeks", "days", "month", "morning", "hours", "waiting"},
	"money":      {"refund", "charge", "payment", "billing", "invoice", "fee", "amount", "account", "balance"},
	"resolution": {"resolved", "replacement", "refunded", "expedited", "investigation", "fixed", "credited"},
}

var semanticCategoryOrder = []string{"escalation", "fraud", "delivery", "emotion", "time", "money", "resolution"}

// Embed generates a local embedding
func (e *LocalEmbedder) Embed(text string) ([]float32, error) {
	return e.generateEmbedding(text), nil
}

// EmbedBatch generates embeddings for multiple texts
func (e *LocalEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = e.generateEmbedding(text)
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension size
func (e *LocalEmbedder) Dimensions() int {
	return e.dimensions
}

// generateEmbedding creates a multi-feature embedding
func (e *LocalEmbedder) generateEmbedding(text string) []float32 {
	embedding := make([]float32, e.dimensions)

	text = strings.ToLower(text)
	words := splitWords(text)

	if len(words) == 0 {
		return embedding
	}

	// N-gram features (60% of dimensions)
	ngramDims := int(float64(e.dimensions) * 0.6)
	e.addNgramFeatures(embedding[:ngramDims], words)

	// Character-level features (20%)
	charStart := ngramDims
	charDims := int(float64(e.dimensions) * 0.2)
	e.addCharFeatures(embedding[charStart:charStart+charDims], text)

	// Domain category features (10%)
	semStart := charStart + charDims
	semDims := int(float64(e.dimensions) * 0.1)
	e.addCategoryFeatures(embedding[semStart:semStart+semDims], words)

	// Structural features (10%)
	structStart := semStart + semDims
	e.addStructuralFeatures(embedding[structStart:], text, words)

	normalize(embedding)

	return embedding
}

// splitWords splits text into words, handling punctuation
func splitWords(text string) []string {
	for _, p := range []string{".", ",", "!", "?", ";", ":", "'", "\"", "(", ")", "[", "]", "{", "}", "\n", "\t"} {
		text = strings.ReplaceAll(text, p, " ")
	}

	words := strings.Fields(text)
	result := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.TrimSpace(word)
		if len(word) > 1 {
			result = append(result, word)
		}
	}

	return result
}

// addNgramFeatures adds hashed n-gram features
func (e *LocalEmbedder) addNgramFeatures(embedding []float32, words []string) {
	dims := len(embedding)

	for _, n := range e.ngramSizes {
		weight := 1.0 / float32(n) // smaller n-grams get more weight

		for i := 0; i <= len(words)-n; i++ {
			ngram := strings.Join(words[i:i+n], " ")

			// Skip lone stopwords
			if n == 1 && e.stopwords[words[i]] {
				continue
			}

			// Hash to two positions (feature hashing)
			h1 := hashString(ngram)
			h2 := hashString(ngram + "_2")

			idx1 := h1 % dims
			idx2 := h2 % dims

			// Words at start/end of a conversation matter more
			posWeight := float32(1.0)
			if i < 3 || i >= len(words)-3 {
				posWeight = 1.5
			}

			tfWeight := float32(1.0 + math.Log(float64(1+countOccurrences(words, ngram, n))))

			embedding[idx1] += weight * posWeight * tfWeight
			embedding[idx2] -= weight * posWeight * tfWeight * 0.5 // negative for diversity
		}
	}
}

// countOccurrences counts how many times an n-gram appears
func countOccurrences(words []string, ngram string, n int) int {
	count := 0
	for i := 0; i <= len(words)-n; i++ {
		if strings.Join(words[i:i+n], " ") == ngram {
			count++
		}
	}
	return count
}

// addCharFeatures adds character-level features (handles typos, variations)
func (e *LocalEmbedder) addCharFeatures(embedding []float32, text string) {
	dims := len(embedding)

	for i := 0; i < len(text)-2; i++ {
		trigram := text[i : i+3]
		h := hashString("char_" + trigram)
		idx := h % dims
		embedding[idx] += 0.1
	}

	vowels := 0
	consonants := 0
	digits := 0
	special := 0

	for _, c := range text {
		switch {
		case strings.ContainsRune("aeiou", c):
			vowels++
		case c >= 'a' && c <= 'z':
			consonants++
		case c >= '0' && c <= '9':
			digits++
		case c != ' ':
			special++
		}
	}

	total := float32(len(text))
	if total > 0 && dims >= 4 {
		embedding[0] = float32(vowels) / total
		embedding[1] = float32(consonants) / total
		embedding[2] = float32(digits) / total
		embedding[3] = float32(special) / total
	}
}

// addCategoryFeatures adds conversation-domain category features
func (e *LocalEmbedder) addCategoryFeatures(embedding []float32, words []string) {
	dims := len(embedding)
	if dims == 0 {
		return
	}

	categoryScores := make(map[string]float32)

	for _, word := range words {
		for category, keywords := range semanticCategories {
			for _, kw := range keywords {
				if word == kw || strings.Contains(word, kw) {
					categoryScores[category] += 1.0
				}
			}
		}
	}

	for i, cat := range semanticCategoryOrder {
		if i < dims {
			embedding[i] = categoryScores[cat] / float32(len(words)+1)
		}
	}
}

// addStructuralFeatures adds text structure features
func (e *LocalEmbedder) addStructuralFeatures(embedding []float32, text string, words []string) {
	dims := len(embedding)
	if dims < 6 {
		return
	}

	embedding[0] = float32(math.Log(float64(len(text) + 1)))
	embedding[1] = float32(math.Log(float64(len(words) + 1)))

	totalLen := 0
	for _, w := range words {
		totalLen += len(w)
	}
	if len(words) > 0 {
		embedding[2] = float32(totalLen) / float32(len(words))
	}

	sentences := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	embedding[3] = float32(math.Log(float64(sentences + 1)))

	if strings.Contains(text, "?") {
		embedding[4] = 1.0
	}

	// Currency amounts are a strong signal in billing/fraud conversations
	if strings.Contains(text, "$") {
		embedding[5] = 1.0
	}
}

// normalize normalizes a vector to unit length
func normalize(v []float32) {
	var norm float32
	for _, x := range v {
		norm += x * x
	}
	if norm > 0 {
		norm = float32(math.Sqrt(float64(norm)))
		for i := range v {
			v[i] /= norm
		}
	}
}

func hashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}

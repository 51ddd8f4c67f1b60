package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/latticehq/rootcause/internal/corpus"
	"github.com/latticehq/rootcause/internal/textnorm"
)

// Retrieval errors. Both are fatal to the call, never to the process.
var (
	// ErrEmptyCorpus is returned when retrieval is requested against a store
	// with zero transcripts.
	ErrEmptyCorpus = errors.New("corpus contains no transcripts")
	// ErrInvalidQuery is returned when the query normalizes to zero tokens
	// and no semantic capability is available to match on.
	ErrInvalidQuery = errors.New("query has no usable tokens")
)

// Method records which scoring strategy produced a result
type Method string

const (
	MethodSemantic Method = "semantic"
	MethodLexical  Method = "lexical"
	MethodHybrid   Method = "hybrid"
)

// Result is one ranked transcript
type Result struct {
	TranscriptID string  `json:"transcript_id"`
	Score        float64 `json:"score"`
	Method       Method  `json:"method"`
}

// Options configures the engine. Weights apply in hybrid mode only.
type Options struct {
	SemanticWeight  float64 // default 0.7
	LexicalWeight   float64 // default 0.3
	DisableSemantic bool    // run lexical-only even when an embedder exists
}

// Engine ranks transcripts against queries. Strategy selection: semantic
// primary when available, hybrid when the query also has lexical signal,
// lexical alone otherwise.
type Engine struct {
	store          *corpus.Store
	lexical        *LexicalScorer
	semantic       *SemanticScorer // nil when the capability is absent
	semanticWeight float64
	lexicalWeight  float64
}

// NewEngine creates a retrieval engine. Semantic capability is decided here,
// once, and never re-checked per call.
func NewEngine(store *corpus.Store, opts Options) *Engine {
	e := &Engine{
		store:          store,
		lexical:        NewLexicalScorer(),
		semanticWeight: opts.SemanticWeight,
		lexicalWeight:  opts.LexicalWeight,
	}
	if e.semanticWeight <= 0 && e.lexicalWeight <= 0 {
		e.semanticWeight = 0.7
		e.lexicalWeight = 0.3
	}
	if !opts.DisableSemantic {
		e.semantic = NewSemanticScorer(store)
	}
	return e
}

// SemanticAvailable reports whether the semantic scorer is configured
func (e *Engine) SemanticAvailable() bool {
	return e.semantic != nil
}

// Retrieve returns the top-k transcripts for the query, ordered by score
// descending with ties broken by transcript ID ascending. Fewer than k
// results are returned only when the corpus itself is smaller than k.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) ([]Result, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}

	transcripts, err := e.store.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(transcripts) == 0 {
		return nil, ErrEmptyCorpus
	}

	queryTokens := textnorm.TokenSet(query)
	if len(queryTokens) == 0 && e.semantic == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidQuery, query)
	}

	var semScores map[string]float64
	if e.semantic != nil {
		semScores, err = e.semantic.Similarities(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	results := make([]Result, 0, len(transcripts))
	for _, t := range transcripts {
		var r Result
		r.TranscriptID = t.ID

		switch {
		case e.semantic != nil && len(queryTokens) > 0:
			lex := e.lexical.Score(queryTokens, t)
			r.Score = e.semanticWeight*semScores[t.ID] + e.lexicalWeight*lex
			r.Method = MethodHybrid
		case e.semantic != nil:
			r.Score = semScores[t.ID]
			r.Method = MethodSemantic
		default:
			r.Score = e.lexical.Score(queryTokens, t)
			r.Method = MethodLexical
		}

		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].TranscriptID < results[j].TranscriptID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

package retrieval

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/latticehq/rootcause/internal/corpus"
	"github.com/latticehq/rootcause/internal/embed"
)

// SemanticScorer scores transcripts by embedding cosine similarity.
// Corpus embeddings are computed once at import and cached in the store;
// query embeddings are memoized here for repeated interactive queries.
type SemanticScorer struct {
	embedder   embed.Embedder
	store      *corpus.Store
	queryCache *gocache.Cache
}

// NewSemanticScorer creates a semantic scorer over the store's embedder
func NewSemanticScorer(store *corpus.Store) *SemanticScorer {
	return &SemanticScorer{
		embedder:   store.Embedder(),
		store:      store,
		queryCache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// Similarities returns a score in [0,1] per transcript ID for the query.
func (s *SemanticScorer) Similarities(ctx context.Context, query string) (map[string]float64, error) {
	queryEmbedding, err := s.queryEmbedding(query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	cosines, err := s.store.CosineSimilarities(ctx, queryEmbedding)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(cosines))
	for id, cos := range cosines {
		scores[id] = rescaleSimilarity(cos)
	}
	return scores, nil
}

// queryEmbedding embeds the query, memoized for 5 minutes
func (s *SemanticScorer) queryEmbedding(query string) ([]float32, error) {
	if cached, ok := s.queryCache.Get(query); ok {
		return cached.([]float32), nil
	}
	emb, err := s.embedder.Embed(query)
	if err != nil {
		return nil, err
	}
	s.queryCache.Set(query, emb, gocache.DefaultExpiration)
	return emb, nil
}

// rescaleSimilarity maps raw cosine similarity onto [0,1] monotonically.
// Negative similarities carry no relevance signal and floor at zero, so a
// negative raw cosine can never outrank a positive one.
func rescaleSimilarity(cos float64) float64 {
	if cos < 0 {
		return 0
	}
	if cos > 1.0 {
		return 1.0
	}
	return cos
}

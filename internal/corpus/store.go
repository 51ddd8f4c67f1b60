package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/latticehq/rootcause/internal/embed"
	_ "github.com/mattn/go-sqlite3"
)

// Store provides transcript storage using SQLite. Writes happen only at
// import time; the query path is read-only.
type Store struct {
	db       *sql.DB
	dataDir  string
	embedder embed.Embedder

	// Vector index for fast KNN scoring (nil ops if sqlite-vec unavailable)
	vecIdx *vecIndex
}

// NewStore opens the transcript store under ROOTCAUSE_DATA_DIR (default ~/.rootcause)
func NewStore() (*Store, error) {
	dataDir := os.Getenv("ROOTCAUSE_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".rootcause")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "corpus.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:       db,
		dataDir:  dataDir,
		embedder: embed.GetEmbedder(),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	store.vecIdx = newVecIndex(db, store.embedder.Dimensions())
	if store.vecIdx.available {
		if n, err := store.vecIdx.Backfill(db); err == nil && n > 0 {
			fmt.Fprintf(os.Stderr, "🔍 Backfilled %d transcripts into vec index\n", n)
		}
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id TEXT PRIMARY KEY,
		domain TEXT,
		turns TEXT NOT NULL,
		metadata TEXT,
		embedding TEXT,
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_transcripts_domain ON transcripts(domain);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Add stores a single transcript, embedding its full text
func (s *Store) Add(ctx context.Context, t Transcript) error {
	return s.AddBatch(ctx, []Transcript{t})
}

// AddBatch stores transcripts, embedding their full text in one batch call.
// Re-importing an existing ID replaces the stored transcript.
func (s *Store) AddBatch(ctx context.Context, transcripts []Transcript) error {
	if len(transcripts) == 0 {
		return nil
	}

	texts := make([]string, len(transcripts))
	for i := range transcripts {
		texts[i] = transcripts[i].FullText()
	}

	embeddings, err := s.embedder.EmbedBatch(texts)
	if err != nil {
		// Transcripts are still usable for lexical retrieval without embeddings
		fmt.Fprintf(os.Stderr, "⚠️  Embedding failed: %v\n", err)
		embeddings = make([][]float32, len(transcripts))
	}

	for i, t := range transcripts {
		if t.ID == "" {
			return fmt.Errorf("transcript at index %d has empty id", i)
		}

		turnsJSON, err := json.Marshal(t.Turns)
		if err != nil {
			return fmt.Errorf("failed to marshal turns for %s: %w", t.ID, err)
		}
		metaJSON, _ := json.Marshal(t.Metadata)
		embJSON, _ := json.Marshal(embeddings[i])

		_, err = s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO transcripts (id, domain, turns, metadata, embedding, imported_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, t.ID, t.Domain, string(turnsJSON), string(metaJSON), string(embJSON), time.Now())
		if err != nil {
			return fmt.Errorf("failed to insert transcript %s: %w", t.ID, err)
		}

		if s.vecIdx != nil {
			s.vecIdx.Insert(t.ID, embeddings[i])
		}
	}

	return nil
}

// Get returns a transcript by ID, or ErrTranscriptNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Transcript, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, domain, turns, metadata FROM transcripts WHERE id = ?
	`, id)

	t, err := scanTranscript(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrTranscriptNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// All returns every stored transcript, ordered by ID for determinism
func (s *Store) All(ctx context.Context) ([]*Transcript, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, domain, turns, metadata FROM transcripts ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer rows.Close()

	var out []*Transcript
	for rows.Next() {
		t, err := scanTranscript(rows.Scan)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Skipping corrupt transcript row: %v\n", err)
			continue
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Delete removes a transcript and its vector index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transcripts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transcript %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrTranscriptNotFound, id)
	}
	if s.vecIdx != nil {
		s.vecIdx.Delete(id)
	}
	return nil
}

// Count returns the number of stored transcripts
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transcripts`).Scan(&count)
	return count, err
}

// CosineSimilarities returns raw cosine similarity between the query embedding
// and every stored transcript embedding. Uses the vec index when available,
// otherwise a linear scan over cached embeddings.
func (s *Store) CosineSimilarities(ctx context.Context, queryEmbedding []float32) (map[string]float64, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return map[string]float64{}, nil
	}

	if s.vecIdx != nil && s.vecIdx.available {
		results, err := s.vecIdx.Search(queryEmbedding, count)
		if err == nil && len(results) > 0 {
			sims := make(map[string]float64, len(results))
			for _, r := range results {
				// vec0 reports cosine distance; similarity = 1 - distance
				sims[r.TranscriptID] = 1.0 - r.Distance
			}
			return sims, nil
		}
		// Fall through to linear scan on error or empty results
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding FROM transcripts`)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	sims := make(map[string]float64)
	for rows.Next() {
		var id, embJSON string
		if err := rows.Scan(&id, &embJSON); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Skipping unreadable embedding row: %v\n", err)
			continue
		}
		var emb []float32
		if err := json.Unmarshal([]byte(embJSON), &emb); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Skipping corrupt embedding for %s: %v\n", id, err)
			continue
		}
		sims[id] = cosineSimilarity(queryEmbedding, emb)
	}
	return sims, rows.Err()
}

// Embedder returns the configured embedding backend
func (s *Store) Embedder() embed.Embedder {
	return s.embedder
}

// VecIndexAvailable reports whether the sqlite-vec extension loaded
func (s *Store) VecIndexAvailable() bool {
	return s.vecIdx != nil && s.vecIdx.available
}

// Size returns the human-readable database size
func (s *Store) Size() (string, error) {
	dbPath := filepath.Join(s.dataDir, "corpus.db")
	info, err := os.Stat(dbPath)
	if err != nil {
		return "", err
	}
	size := float64(info.Size())
	units := []string{"B", "KB", "MB", "GB"}
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", size, units[i]), nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// scanTranscript builds a Transcript from a row scan function
func scanTranscript(scan func(dest ...interface{}) error) (*Transcript, error) {
	var t Transcript
	var turnsJSON string
	var domainNull, metaNull sql.NullString

	if err := scan(&t.ID, &domainNull, &turnsJSON, &metaNull); err != nil {
		return nil, err
	}

	if domainNull.Valid {
		t.Domain = domainNull.String
	}
	if err := json.Unmarshal([]byte(turnsJSON), &t.Turns); err != nil {
		return nil, fmt.Errorf("corrupt turns for transcript %s: %w", t.ID, err)
	}
	if metaNull.Valid && metaNull.String != "" {
		json.Unmarshal([]byte(metaNull.String), &t.Metadata)
	}

	return &t, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

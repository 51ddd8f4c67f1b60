// Package embed provides vector embedding backends for semantic retrieval.
package embed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Embedder generates vector embeddings for text
type Embedder interface {
	Embed(text string) ([]float32, error)
	EmbedBatch(texts []string) ([][]float32, error)
	Dimensions() int
}

// FallbackEmbedder wraps a primary embedder and falls back to local on errors (e.g. expired API keys)
type FallbackEmbedder struct {
	primary  Embedder
	fallback Embedder
	failed   bool // sticky: once primary fails, stay on fallback for the session
}

func NewFallbackEmbedder(primary Embedder) *FallbackEmbedder {
	return &FallbackEmbedder{
		primary:  primary,
		fallback: NewLocalEmbedder(),
	}
}

func (f *FallbackEmbedder) Embed(text string) ([]float32, error) {
	if f.failed {
		return f.fallback.Embed(text)
	}
	result, err := f.primary.Embed(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Primary embedder failed (%v), falling back to local\n", err)
		f.failed = true
		return f.fallback.Embed(text)
	}
	return result, nil
}

func (f *FallbackEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	if f.failed {
		return f.fallback.EmbedBatch(texts)
	}
	result, err := f.primary.EmbedBatch(texts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Primary embedder failed (%v), falling back to local\n", err)
		f.failed = true
		return f.fallback.EmbedBatch(texts)
	}
	return result, nil
}

func (f *FallbackEmbedder) Dimensions() int {
	if f.failed {
		return f.fallback.Dimensions()
	}
	return f.primary.Dimensions()
}

// OpenAIEmbedder uses OpenAI's embedding API
type OpenAIEmbedder struct {
	apiKey     string
	model      string
	dimensions int
	client     *http.Client
}

// NewOpenAIEmbedder creates an embedder using OpenAI's API
func NewOpenAIEmbedder() (*OpenAIEmbedder, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	return &OpenAIEmbedder{
		apiKey:     apiKey,
		model:      "text-embedding-3-small",
		dimensions: 1536,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Embed generates an embedding for a single text
func (e *OpenAIEmbedder) Embed(text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch([]string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts
func (e *OpenAIEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	return callEmbeddingAPI(e.client, "https://api.openai.com/v1/embeddings", e.apiKey, e.model, texts)
}

// Dimensions returns the embedding dimension size
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// GeminiEmbedder uses Google's Gemini embedding API
type GeminiEmbedder struct {
	apiKey     string
	model      string
	dimensions int
	client     *http.Client
}

// NewGeminiEmbedder creates an embedder using Gemini's API
func NewGeminiEmbedder() (*GeminiEmbedder, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	return &GeminiEmbedder{
		apiKey:     apiKey,
		model:      "text-embedding-004",
		dimensions: 768,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Embed generates an embedding via Gemini
func (e *GeminiEmbedder) Embed(text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch([]string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings via Gemini (one request per text; the API has no batch endpoint)
func (e *GeminiEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:embedContent?key=%s", e.model, e.apiKey)

	embeddings := make([][]float32, len(texts))

	for i, text := range texts {
		reqBody := map[string]interface{}{
			"content": map[string]interface{}{
				"parts": []map[string]string{
					{"text": text},
				},
			},
		}

		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		req, err := http.NewRequest("POST", url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("Gemini API error %d: %s", resp.StatusCode, string(body))
		}

		var result struct {
			Embedding struct {
				Values []float32 `json:"values"`
			} `json:"embedding"`
		}

		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}

		embeddings[i] = result.Embedding.Values
	}

	return embeddings, nil
}

// Dimensions returns the embedding dimension size
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// callEmbeddingAPI is shared logic for calling OpenAI-compatible embedding APIs
func callEmbeddingAPI(client *http.Client, url, apiKey, model string, texts []string) ([][]float32, error) {
	reqBody := map[string]interface{}{
		"model": model,
		"input": texts,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Sort by index to maintain order
	embeddings := make([][]float32, len(texts))
	for _, d := range result.Data {
		if d.Index < len(embeddings) {
			embeddings[d.Index] = d.Embedding
		}
	}

	return embeddings, nil
}

// GetEmbedder returns the embedding backend selected by environment.
//
// ROOTCAUSE_AIR_GAPPED=1           local only, no API calls
// ROOTCAUSE_EMBEDDINGS=openai|gemini|local  explicit override
// default                          local (free, deterministic, offline)
//
// API-backed embedders are wrapped with a sticky fallback to local so a dead
// key degrades the session instead of failing it.
func GetEmbedder() Embedder {
	embedder := getEmbedderInner()
	if _, isLocal := embedder.(*LocalEmbedder); !isLocal {
		return NewFallbackEmbedder(embedder)
	}
	return embedder
}

func getEmbedderInner() Embedder {
	if os.Getenv("ROOTCAUSE_AIR_GAPPED") == "1" || os.Getenv("ROOTCAUSE_AIR_GAPPED") == "true" {
		return NewLocalEmbedder()
	}

	switch os.Getenv("ROOTCAUSE_EMBEDDINGS") {
	case "openai":
		embedder, err := NewOpenAIEmbedder()
		if err == nil {
			fmt.Fprintln(os.Stderr, "🧠 Using OpenAI embeddings")
			return embedder
		}
		fmt.Fprintf(os.Stderr, "⚠️  OpenAI embedder unavailable: %v, falling back to local\n", err)
	case "gemini":
		embedder, err := NewGeminiEmbedder()
		if err == nil {
			fmt.Fprintln(os.Stderr, "🧠 Using Gemini embeddings")
			return embedder
		}
		fmt.Fprintf(os.Stderr, "⚠️  Gemini embedder unavailable: %v, falling back to local\n", err)
	case "local":
		return NewLocalEmbedder()
	}

	return NewLocalEmbedder()
}

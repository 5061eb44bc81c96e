// Package tei provides a cross-encoder adapter for Text Embeddings
// Inference style re-ranking servers (TEI, Jina, or compatible), which
// expose a POST /rerank endpoint scoring a query against passages.
package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
)

// Ensure CrossEncoder implements the interface.
var _ driven.CrossEncoder = (*CrossEncoder)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultModel   = "BAAI/bge-reranker-base"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the TEI cross-encoder.
type Config struct {
	// BaseURL is the re-ranking server base URL (default: http://localhost:8080).
	BaseURL string

	// Model is the cross-encoder model name, for reporting only; the
	// server decides what it runs.
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// CrossEncoder scores (query, passage) pairs against a TEI re-ranking
// server.
type CrossEncoder struct {
	client  *http.Client
	baseURL string
	model   string
}

// rerankRequest is the TEI /rerank request format.
type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
}

// rerankResult is one entry of the TEI /rerank response.
type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewCrossEncoder creates a new TEI cross-encoder adapter.
func NewCrossEncoder(cfg Config) *CrossEncoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &CrossEncoder{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Score returns a relevance score for one (query, passage) pair.
func (c *CrossEncoder) Score(ctx context.Context, query, passage string) (float64, error) {
	scores, err := c.ScoreBatch(ctx, query, []string{passage})
	if err != nil {
		return 0, err
	}
	if len(scores) != 1 {
		return 0, fmt.Errorf("rerank: got %d scores for 1 passage", len(scores))
	}
	return scores[0], nil
}

// ScoreBatch scores the query against multiple passages in one request.
// The result is index-aligned with passages and normalised to [0, 1].
func (c *CrossEncoder) ScoreBatch(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	reqBody := rerankRequest{
		Query:     query,
		Texts:     passages,
		RawScores: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/rerank",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRerankerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rerank error (status %d): %s", resp.StatusCode, string(body))
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// The server returns results ordered by score; realign by index.
	// A partial response would leave unseen passages at zero, silently
	// demoting them, so treat it as a scoring failure.
	if len(results) != len(passages) {
		return nil, fmt.Errorf("rerank: got %d scores for %d passages", len(results), len(passages))
	}

	scores := make([]float64, len(passages))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(passages) {
			return nil, fmt.Errorf("rerank: result index %d out of range", r.Index)
		}
		scores[r.Index] = normalise(r.Score)
	}

	return scores, nil
}

// ModelName returns the cross-encoder model name.
func (c *CrossEncoder) ModelName() string {
	return c.model
}

// Ping validates the service is reachable via its health endpoint.
func (c *CrossEncoder) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("rerank: failed to create ping request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("rerank: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rerank: server returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (c *CrossEncoder) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// normalise maps a score to [0, 1]. Servers configured for raw logits
// get squashed through a sigmoid; already-normalised scores pass
// through.
func normalise(score float64) float64 {
	if score >= 0 && score <= 1 {
		return score
	}
	return 1 / (1 + math.Exp(-score))
}

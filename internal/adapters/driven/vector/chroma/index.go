// Package chroma provides a vector index adapter backed by a ChromaDB
// server.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:8000"
	DefaultCollection = "vaultscout"
	DefaultTimeout    = 30 * time.Second
)

// Config holds configuration for the Chroma vector index.
type Config struct {
	// BaseURL is the Chroma API base URL (default: http://localhost:8000).
	BaseURL string

	// Collection is the collection name (default: vaultscout).
	Collection string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// VectorIndex stores and searches embeddings in a Chroma collection
// configured for cosine distance. The collection is created lazily on
// first use.
type VectorIndex struct {
	client     *http.Client
	baseURL    string
	collection string

	// mu guards collectionID: callers share one index across goroutines.
	mu           sync.Mutex
	collectionID string
}

type createCollectionRequest struct {
	Name        string         `json:"name"`
	GetOrCreate bool           `json:"get_or_create"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type createCollectionResponse struct {
	ID string `json:"id"`
}

type upsertRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Metadatas  []map[string]any `json:"metadatas,omitempty"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

type queryRequest struct {
	QueryEmbeddings [][]float32    `json:"query_embeddings"`
	NResults        int            `json:"n_results"`
	Where           map[string]any `json:"where,omitempty"`
}

type queryResponse struct {
	IDs       [][]string  `json:"ids"`
	Distances [][]float64 `json:"distances"`
}

// NewVectorIndex creates a new Chroma vector index.
func NewVectorIndex(cfg Config) *VectorIndex {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &VectorIndex{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		collection: cfg.Collection,
	}
}

// Upsert inserts or replaces the vector and metadata for a chunk.
func (v *VectorIndex) Upsert(ctx context.Context, chunkID string, embedding []float32, metadata map[string]any) error {
	if chunkID == "" || len(embedding) == 0 {
		return domain.ErrInvalidInput
	}

	id, err := v.ensureCollection(ctx)
	if err != nil {
		return err
	}

	req := upsertRequest{
		IDs:        []string{chunkID},
		Embeddings: [][]float32{embedding},
	}
	if metadata != nil {
		req.Metadatas = []map[string]any{metadata}
	}

	return v.post(ctx, fmt.Sprintf("/api/v1/collections/%s/upsert", id), req, nil)
}

// Delete removes a vector from the index. Deleting an unknown chunk is
// not an error.
func (v *VectorIndex) Delete(ctx context.Context, chunkID string) error {
	id, err := v.ensureCollection(ctx)
	if err != nil {
		return err
	}
	return v.post(ctx, fmt.Sprintf("/api/v1/collections/%s/delete", id), deleteRequest{IDs: []string{chunkID}}, nil)
}

// Search finds the k nearest neighbours, restricted by the filter. The
// filter is translated to a Chroma where clause so filtering happens
// server-side.
func (v *VectorIndex) Search(ctx context.Context, query []float32, k int, filter *domain.Filter) ([]driven.VectorHit, error) {
	if len(query) == 0 || k <= 0 {
		return nil, domain.ErrInvalidInput
	}

	id, err := v.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}

	req := queryRequest{
		QueryEmbeddings: [][]float32{query},
		NResults:        k,
		Where:           whereClause(filter),
	}

	var resp queryResponse
	if err := v.post(ctx, fmt.Sprintf("/api/v1/collections/%s/query", id), req, &resp); err != nil {
		return nil, err
	}

	if len(resp.IDs) == 0 {
		return []driven.VectorHit{}, nil
	}

	ids := resp.IDs[0]
	var distances []float64
	if len(resp.Distances) > 0 {
		distances = resp.Distances[0]
	}

	hits := make([]driven.VectorHit, 0, len(ids))
	for i, chunkID := range ids {
		hit := driven.VectorHit{ChunkID: chunkID}
		if i < len(distances) {
			// Cosine distance to cosine similarity
			hit.Similarity = 1 - distances[i]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Count returns the number of indexed vectors.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	id, err := v.ensureCollection(ctx)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		v.baseURL+fmt.Sprintf("/api/v1/collections/%s/count", id), http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("chroma: %w", domain.ErrVectorIndexUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("chroma error (status %d): %s", resp.StatusCode, string(body))
	}

	var count int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return count, nil
}

// Close releases resources.
func (v *VectorIndex) Close() error {
	return nil
}

// ensureCollection resolves the collection ID, creating the collection
// with cosine distance on first use.
func (v *VectorIndex) ensureCollection(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.collectionID != "" {
		return v.collectionID, nil
	}

	req := createCollectionRequest{
		Name:        v.collection,
		GetOrCreate: true,
		Metadata:    map[string]any{"hnsw:space": "cosine"},
	}

	var resp createCollectionResponse
	if err := v.post(ctx, "/api/v1/collections", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("chroma: collection %q has no ID", v.collection)
	}

	v.collectionID = resp.ID
	return v.collectionID, nil
}

// post sends a JSON request and decodes the response into out when out
// is non-nil.
func (v *VectorIndex) post(ctx context.Context, path string, payload, out any) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("chroma: %w", domain.ErrVectorIndexUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chroma error (status %d): %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// whereClause translates a metadata filter to Chroma's where syntax.
// Unsupported shapes return nil, falling back to unfiltered search;
// the service still filters at hydration.
func whereClause(f *domain.Filter) map[string]any {
	if f == nil {
		return nil
	}

	switch f.Op {
	case domain.OpEq:
		return map[string]any{f.Key: map[string]any{"$eq": f.Value}}
	case domain.OpNe:
		return map[string]any{f.Key: map[string]any{"$ne": f.Value}}
	case domain.OpGt:
		return map[string]any{f.Key: map[string]any{"$gt": f.Value}}
	case domain.OpGte:
		return map[string]any{f.Key: map[string]any{"$gte": f.Value}}
	case domain.OpLt:
		return map[string]any{f.Key: map[string]any{"$lt": f.Value}}
	case domain.OpLte:
		return map[string]any{f.Key: map[string]any{"$lte": f.Value}}
	case domain.OpIn:
		return map[string]any{f.Key: map[string]any{"$in": f.Value}}
	case domain.OpAnd:
		if len(f.Filters) == 0 {
			return nil
		}
		if len(f.Filters) == 1 {
			return whereClause(f.Filters[0])
		}
		clauses := make([]map[string]any, 0, len(f.Filters))
		for _, sub := range f.Filters {
			if clause := whereClause(sub); clause != nil {
				clauses = append(clauses, clause)
			}
		}
		if len(clauses) == 0 {
			return nil
		}
		return map[string]any{"$and": clauses}
	default:
		return nil
	}
}

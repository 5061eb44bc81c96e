// Package memory provides an exact, brute-force in-process vector
// index. Fine for vaults up to a few tens of thousands of chunks; the
// chroma adapter covers anything bigger.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// record is one stored vector with its metadata and precomputed norm.
type record struct {
	embedding []float32
	norm      float64
	metadata  map[string]any
}

// VectorIndex stores embeddings in memory and searches by exact cosine
// similarity.
type VectorIndex struct {
	mu         sync.RWMutex
	dimensions int
	records    map[string]record
}

// NewVectorIndex creates an empty index. Dimensions are fixed by the
// first upsert when zero.
func NewVectorIndex(dimensions int) *VectorIndex {
	return &VectorIndex{
		dimensions: dimensions,
		records:    make(map[string]record),
	}
}

// Upsert inserts or replaces the vector and metadata for a chunk.
func (v *VectorIndex) Upsert(_ context.Context, chunkID string, embedding []float32, metadata map[string]any) error {
	if chunkID == "" || len(embedding) == 0 {
		return domain.ErrInvalidInput
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.dimensions == 0 {
		v.dimensions = len(embedding)
	}
	if len(embedding) != v.dimensions {
		return fmt.Errorf("%w: got %d, index has %d",
			domain.ErrDimensionMismatch, len(embedding), v.dimensions)
	}

	stored := make([]float32, len(embedding))
	copy(stored, embedding)

	v.records[chunkID] = record{
		embedding: stored,
		norm:      norm(stored),
		metadata:  metadata,
	}
	return nil
}

// Delete removes a vector. Unknown chunks are a no-op.
func (v *VectorIndex) Delete(_ context.Context, chunkID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.records, chunkID)
	return nil
}

// Search returns the k nearest neighbours by cosine similarity,
// restricted to records whose metadata satisfies the filter. Ties break
// by chunk ID so results are deterministic.
func (v *VectorIndex) Search(_ context.Context, query []float32, k int, filter *domain.Filter) ([]driven.VectorHit, error) {
	if len(query) == 0 || k <= 0 {
		return nil, domain.ErrInvalidInput
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.dimensions != 0 && len(query) != v.dimensions {
		return nil, fmt.Errorf("%w: query has %d, index has %d",
			domain.ErrDimensionMismatch, len(query), v.dimensions)
	}

	queryNorm := norm(query)
	if queryNorm == 0 {
		return []driven.VectorHit{}, nil
	}

	hits := make([]driven.VectorHit, 0, len(v.records))
	for id, rec := range v.records {
		if !filter.Matches(rec.metadata) {
			continue
		}
		if rec.norm == 0 {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    id,
			Similarity: dot(query, rec.embedding) / (queryNorm * rec.norm),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of indexed vectors.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.records), nil
}

// Close releases resources. Nothing to release in memory.
func (v *VectorIndex) Close() error {
	return nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

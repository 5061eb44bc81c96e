package driven

import (
	"context"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

// VectorIndex provides semantic similarity search operations.
// All vectors in an index share one dimensionality and the cosine metric.
type VectorIndex interface {
	// Upsert inserts or replaces the vector and metadata for a chunk.
	Upsert(ctx context.Context, chunkID string, embedding []float32, metadata map[string]any) error

	// Delete removes a vector from the index. Deleting an unknown chunk
	// is not an error.
	Delete(ctx context.Context, chunkID string) error

	// Search finds the k nearest neighbours to the query vector,
	// restricted to chunks whose metadata satisfies the filter.
	Search(ctx context.Context, query []float32, k int, filter *domain.Filter) ([]VectorHit, error)

	// Count returns the number of indexed vectors.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (-1 to 1).
	Similarity float64
}

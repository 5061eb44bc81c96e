package driven

import (
	"context"
	"time"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

// EmbeddingCache stores query embeddings under a TTL so repeated queries
// skip the embedding provider.
//
// The cache is best-effort: implementations must never return errors or
// block the caller. A failed read is a miss; a failed write is dropped.
type EmbeddingCache interface {
	// Get returns the cached vector for a query, or ok=false on a miss.
	// Expired entries are misses. A hit refreshes LRU recency.
	Get(ctx context.Context, query string) ([]float32, bool)

	// Put stores a vector for a query, evicting the least-recently-used
	// entry when capacity is exceeded. A non-positive ttl uses the
	// cache's default.
	Put(ctx context.Context, query string, vector []float32, ttl time.Duration)

	// Clear empties the cache.
	Clear(ctx context.Context)

	// Len returns the number of live entries.
	Len() int
}

// ResultCache stores hydrated search result lists keyed by normalised
// query and options. Entries are invalidated wholesale when the index
// changes, so staleness is bounded by the TTL between syncs.
//
// Best-effort, like EmbeddingCache.
type ResultCache interface {
	// Get returns cached results for a key, or ok=false on a miss.
	Get(ctx context.Context, key string) ([]domain.SearchResult, bool)

	// Put stores results under a key.
	Put(ctx context.Context, key string, results []domain.SearchResult, ttl time.Duration)

	// Clear empties the cache. Called whenever the index mutates.
	Clear(ctx context.Context)

	// Len returns the number of live entries.
	Len() int
}

package driving

import (
	"context"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

// SearchService performs search queries across indexed notes.
type SearchService interface {
	// Search executes a search with the given options.
	// An empty query returns an empty result set with no error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}

// QueryExpander rewrites queries before retrieval.
type QueryExpander interface {
	// Expand analyses and rewrites a query using the given strategy.
	// ExpandNone returns the query unchanged with full confidence.
	Expand(ctx context.Context, query string, strategy domain.ExpansionStrategy) (*domain.QueryAnalysis, error)
}

// CacheStats reports cache occupancy for the cache admin surface.
type CacheStats struct {
	// EmbeddingEntries is the live query-embedding entry count.
	EmbeddingEntries int

	// ResultEntries is the live result-list entry count.
	ResultEntries int
}

// CacheAdmin exposes cache maintenance to external actors.
// Used by the CLI cache command and by benchmarks to force regeneration.
type CacheAdmin interface {
	// Stats returns current cache occupancy.
	Stats() CacheStats

	// Clear empties both caches.
	Clear(ctx context.Context)
}

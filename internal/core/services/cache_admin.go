package services

import (
	"context"

	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
	"github.com/vaultscout/vaultscout/internal/core/ports/driving"
)

// Ensure CacheAdminService implements the interface.
var _ driving.CacheAdmin = (*CacheAdminService)(nil)

// CacheAdminService exposes cache occupancy and maintenance to the CLI
// and to benchmarks that need to force regeneration.
type CacheAdminService struct {
	embedCache  driven.EmbeddingCache
	resultCache driven.ResultCache
}

// NewCacheAdminService creates a cache admin. Either cache may be nil.
func NewCacheAdminService(embedCache driven.EmbeddingCache, resultCache driven.ResultCache) *CacheAdminService {
	return &CacheAdminService{
		embedCache:  embedCache,
		resultCache: resultCache,
	}
}

// Stats returns current cache occupancy.
func (s *CacheAdminService) Stats() driving.CacheStats {
	var stats driving.CacheStats
	if s.embedCache != nil {
		stats.EmbeddingEntries = s.embedCache.Len()
	}
	if s.resultCache != nil {
		stats.ResultEntries = s.resultCache.Len()
	}
	return stats
}

// Clear empties both caches.
func (s *CacheAdminService) Clear(ctx context.Context) {
	if s.embedCache != nil {
		s.embedCache.Clear(ctx)
	}
	if s.resultCache != nil {
		s.resultCache.Clear(ctx)
	}
}

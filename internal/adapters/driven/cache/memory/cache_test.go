package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

func TestEmbeddingCache_PutGet(t *testing.T) {
	cache := NewEmbeddingCache(10, time.Hour)
	ctx := context.Background()

	vec := []float32{0.1, 0.2, 0.3}
	cache.Put(ctx, "machine learning", vec, 0)

	got, ok := cache.Get(ctx, "machine learning")
	require.True(t, ok)
	assert.Equal(t, vec, got)

	_, ok = cache.Get(ctx, "unknown query")
	assert.False(t, ok)
}

func TestEmbeddingCache_TTLExpiry(t *testing.T) {
	cache := NewEmbeddingCache(10, time.Hour)
	ctx := context.Background()

	base := time.Now()
	now := base
	cache.setClock(func() time.Time { return now })

	cache.Put(ctx, "q", []float32{1}, time.Minute)

	_, ok := cache.Get(ctx, "q")
	assert.True(t, ok)

	// Entry expires after the TTL, not before
	now = base.Add(59 * time.Second)
	_, ok = cache.Get(ctx, "q")
	assert.True(t, ok)

	now = base.Add(61 * time.Second)
	_, ok = cache.Get(ctx, "q")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestEmbeddingCache_LRUEviction(t *testing.T) {
	cache := NewEmbeddingCache(2, time.Hour)
	ctx := context.Background()

	cache.Put(ctx, "a", []float32{1}, 0)
	cache.Put(ctx, "b", []float32{2}, 0)

	// Touch "a" so "b" becomes least recently used
	_, ok := cache.Get(ctx, "a")
	require.True(t, ok)

	cache.Put(ctx, "c", []float32{3}, 0)

	_, ok = cache.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = cache.Get(ctx, "b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = cache.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, 2, cache.Len())
}

func TestEmbeddingCache_UpdateExisting(t *testing.T) {
	cache := NewEmbeddingCache(2, time.Hour)
	ctx := context.Background()

	cache.Put(ctx, "q", []float32{1}, 0)
	cache.Put(ctx, "q", []float32{2}, 0)

	got, ok := cache.Get(ctx, "q")
	require.True(t, ok)
	assert.Equal(t, []float32{2}, got)
	assert.Equal(t, 1, cache.Len())
}

func TestEmbeddingCache_Clear(t *testing.T) {
	cache := NewEmbeddingCache(10, time.Hour)
	ctx := context.Background()

	cache.Put(ctx, "a", []float32{1}, 0)
	cache.Put(ctx, "b", []float32{2}, 0)
	require.Equal(t, 2, cache.Len())

	cache.Clear(ctx)

	assert.Equal(t, 0, cache.Len())
	_, ok := cache.Get(ctx, "a")
	assert.False(t, ok)
}

func TestResultCache_RoundTrip(t *testing.T) {
	cache := NewResultCache(10, time.Minute)
	ctx := context.Background()

	results := []domain.SearchResult{
		{Similarity: 0.9, FinalScore: 0.9, Chunk: domain.Chunk{ID: "c1"}},
		{Similarity: 0.7, FinalScore: 0.7, Chunk: domain.Chunk{ID: "c2"}},
	}
	cache.Put(ctx, "key", results, 0)

	got, ok := cache.Get(ctx, "key")
	require.True(t, ok)
	assert.Equal(t, results, got)

	// Mutating the returned slice must not corrupt the cached copy
	got[0].FinalScore = 0
	again, ok := cache.Get(ctx, "key")
	require.True(t, ok)
	assert.Equal(t, 0.9, again[0].FinalScore)
}

func TestResultCache_Clear(t *testing.T) {
	cache := NewResultCache(10, time.Minute)
	ctx := context.Background()

	cache.Put(ctx, "key", []domain.SearchResult{{Similarity: 0.5}}, 0)
	cache.Clear(ctx)

	_, ok := cache.Get(ctx, "key")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

// Package redis provides a Redis-backed query embedding cache for
// deployments where several processes share one vault index.
package redis

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
	"github.com/vaultscout/vaultscout/internal/logger"
)

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// DefaultTTL is used when Put receives a non-positive TTL.
const DefaultTTL = time.Hour

// keyPrefix namespaces cache keys in a shared Redis.
const keyPrefix = "vaultscout:embed:"

// EmbeddingCache stores query embeddings in Redis with native TTL
// expiry. Redis handles eviction (maxmemory-policy allkeys-lru covers
// the LRU half), so this adapter only encodes and namespaces.
//
// Like every cache in this system it is best-effort: a Redis failure is
// a miss or a dropped write, never an error for the caller.
type EmbeddingCache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewEmbeddingCache creates a Redis embedding cache.
func NewEmbeddingCache(addr string, defaultTTL time.Duration) *EmbeddingCache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	return &EmbeddingCache{
		client:     redis.NewClient(&redis.Options{Addr: addr}),
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached vector for a query, or ok=false on a miss.
func (c *EmbeddingCache) Get(ctx context.Context, query string) ([]float32, bool) {
	data, err := c.client.Get(ctx, keyPrefix+query).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Redis cache read failed: %v (treating as miss)", err)
		}
		return nil, false
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, false
	}
	return decodeVector(data), true
}

// Put stores a vector for a query under the TTL.
func (c *EmbeddingCache) Put(ctx context.Context, query string, vector []float32, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, keyPrefix+query, encodeVector(vector), ttl).Err(); err != nil {
		logger.Warn("Redis cache write failed: %v (dropping entry)", err)
	}
}

// Clear removes all vaultscout embedding keys.
func (c *EmbeddingCache) Clear(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Redis cache delete failed: %v", err)
		}
	}
	if err := iter.Err(); err != nil {
		logger.Warn("Redis cache scan failed: %v", err)
	}
}

// Len returns the number of live entries.
func (c *EmbeddingCache) Len() int {
	ctx := context.Background()
	count := 0
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count
}

// Close releases the Redis connection.
func (c *EmbeddingCache) Close() error {
	return c.client.Close()
}

// Ping validates the Redis connection.
func (c *EmbeddingCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// encodeVector packs a []float32 as little-endian bytes.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, f := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks little-endian bytes into a []float32.
func decodeVector(data []byte) []float32 {
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vector
}

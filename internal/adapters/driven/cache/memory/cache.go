// Package memory provides in-process TTL+LRU caches for query
// embeddings and search result lists.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
)

// Ensure the caches implement their interfaces.
var (
	_ driven.EmbeddingCache = (*EmbeddingCache)(nil)
	_ driven.ResultCache    = (*ResultCache)(nil)
)

// Default cache sizing.
const (
	DefaultEmbeddingCapacity = 1000
	DefaultEmbeddingTTL      = time.Hour
	DefaultResultCapacity    = 256
	DefaultResultTTL         = 5 * time.Minute
)

// entry is one cached value with its expiry.
type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// lruCache is a TTL+LRU cache. Reads refresh recency; writes evict the
// least-recently-used entry once capacity is exceeded. Expired entries
// are treated as misses and dropped lazily on access.
type lruCache[V any] struct {
	mu         sync.Mutex
	capacity   int
	defaultTTL time.Duration
	order      *list.List
	index      map[string]*list.Element
	now        func() time.Time
}

func newLRUCache[V any](capacity int, defaultTTL time.Duration) *lruCache[V] {
	return &lruCache[V]{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		order:      list.New(),
		index:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.index[key]
	if !ok {
		return zero, false
	}

	e := elem.Value.(*entry[V])
	if c.now().After(e.expiresAt) {
		c.order.Remove(elem)
		delete(c.index, key)
		return zero, false
	}

	c.order.MoveToFront(elem)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		e := elem.Value.(*entry[V])
		e.value = value
		e.expiresAt = c.now().Add(ttl)
		c.order.MoveToFront(elem)
		return
	}

	c.index[key] = c.order.PushFront(&entry[V]{
		key:       key,
		value:     value,
		expiresAt: c.now().Add(ttl),
	})

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.index, oldest.Value.(*entry[V]).key)
		}
	}
}

func (c *lruCache[V]) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.index = make(map[string]*list.Element)
}

func (c *lruCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Count only unexpired entries so Len matches what Get would serve
	live := 0
	now := c.now()
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if !now.After(elem.Value.(*entry[V]).expiresAt) {
			live++
		}
	}
	return live
}

// EmbeddingCache caches query embeddings in process memory.
type EmbeddingCache struct {
	cache *lruCache[[]float32]
}

// NewEmbeddingCache creates an embedding cache. Non-positive capacity or
// TTL fall back to the defaults.
func NewEmbeddingCache(capacity int, defaultTTL time.Duration) *EmbeddingCache {
	if capacity <= 0 {
		capacity = DefaultEmbeddingCapacity
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultEmbeddingTTL
	}
	return &EmbeddingCache{cache: newLRUCache[[]float32](capacity, defaultTTL)}
}

// Get returns the cached vector for a query, or ok=false on a miss.
func (c *EmbeddingCache) Get(_ context.Context, query string) ([]float32, bool) {
	return c.cache.get(query)
}

// Put stores a vector for a query.
func (c *EmbeddingCache) Put(_ context.Context, query string, vector []float32, ttl time.Duration) {
	c.cache.put(query, vector, ttl)
}

// Clear empties the cache.
func (c *EmbeddingCache) Clear(_ context.Context) {
	c.cache.clear()
}

// Len returns the number of live entries.
func (c *EmbeddingCache) Len() int {
	return c.cache.len()
}

// setClock overrides the time source. Test hook.
func (c *EmbeddingCache) setClock(now func() time.Time) {
	c.cache.now = now
}

// ResultCache caches hydrated search result lists in process memory.
type ResultCache struct {
	cache *lruCache[[]domain.SearchResult]
}

// NewResultCache creates a result cache. Non-positive capacity or TTL
// fall back to the defaults.
func NewResultCache(capacity int, defaultTTL time.Duration) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultResultCapacity
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultResultTTL
	}
	return &ResultCache{cache: newLRUCache[[]domain.SearchResult](capacity, defaultTTL)}
}

// Get returns cached results for a key, or ok=false on a miss.
func (c *ResultCache) Get(_ context.Context, key string) ([]domain.SearchResult, bool) {
	results, ok := c.cache.get(key)
	if !ok {
		return nil, false
	}
	// Copy so callers cannot mutate the cached slice
	out := make([]domain.SearchResult, len(results))
	copy(out, results)
	return out, true
}

// Put stores results under a key.
func (c *ResultCache) Put(_ context.Context, key string, results []domain.SearchResult, ttl time.Duration) {
	stored := make([]domain.SearchResult, len(results))
	copy(stored, results)
	c.cache.put(key, stored, ttl)
}

// Clear empties the cache.
func (c *ResultCache) Clear(_ context.Context) {
	c.cache.clear()
}

// Len returns the number of live entries.
func (c *ResultCache) Len() int {
	return c.cache.len()
}

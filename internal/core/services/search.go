package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
	"github.com/vaultscout/vaultscout/internal/core/ports/driving"
	"github.com/vaultscout/vaultscout/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// DefaultLimit is the result limit when options leave it unset.
const DefaultLimit = 10

// scoredChunk holds intermediate search results before hydration.
type scoredChunk struct {
	chunkID string
	score   float64
	source  string // "keyword", "vector", "fuzzy", or "blended"
}

// SearchService provides search across the vault indexes.
// The reranker, expander, and caches are optional (can be nil); the
// service degrades to whatever is available.
type SearchService struct {
	docStore         driven.DocumentStore
	searchIndex      driven.SearchEngine
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	reranker         *RerankService
	expander         driving.QueryExpander
	embedCache       driven.EmbeddingCache
	resultCache      driven.ResultCache

	vectorWeight  float64
	keywordWeight float64
	fuzzyDistance int

	// flight coalesces concurrent embedding computations for the same
	// query so simultaneous cache misses share one provider call.
	flight singleflight.Group
}

// SearchConfig tunes the search service blend and fuzzy behaviour.
type SearchConfig struct {
	// HybridVectorWeight scales the cosine similarity in hybrid mode.
	HybridVectorWeight float64

	// HybridKeywordWeight scales the normalised keyword score in hybrid mode.
	HybridKeywordWeight float64

	// FuzzyDistance is the per-term edit distance for fuzzy mode.
	FuzzyDistance int
}

// NewSearchService creates a new search service. Only docStore is
// mandatory; every other collaborator may be nil.
func NewSearchService(
	docStore driven.DocumentStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	cfg SearchConfig,
) *SearchService {
	if cfg.HybridVectorWeight <= 0 && cfg.HybridKeywordWeight <= 0 {
		cfg.HybridVectorWeight = 0.7
		cfg.HybridKeywordWeight = 0.3
	}
	if cfg.FuzzyDistance <= 0 {
		cfg.FuzzyDistance = 2
	}

	return &SearchService{
		docStore:         docStore,
		searchIndex:      searchIndex,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		vectorWeight:     cfg.HybridVectorWeight,
		keywordWeight:    cfg.HybridKeywordWeight,
		fuzzyDistance:    cfg.FuzzyDistance,
	}
}

// SetReranker attaches the cross-encoder re-ranking stage.
func (s *SearchService) SetReranker(r *RerankService) {
	s.reranker = r
}

// SetExpander attaches the query expansion stage.
func (s *SearchService) SetExpander(e driving.QueryExpander) {
	s.expander = e
}

// SetEmbeddingCache attaches the query embedding cache.
func (s *SearchService) SetEmbeddingCache(c driven.EmbeddingCache) {
	s.embedCache = c
}

// SetResultCache attaches the search result cache.
func (s *SearchService) SetResultCache(c driven.ResultCache) {
	s.resultCache = c
}

// Search performs a search across all indexed notes.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	// Return empty for empty query
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	logger.Debug("Limit: %d, Offset: %d", limit, opts.Offset)

	// Check the result cache before doing any work
	cacheKey := s.resultCacheKey(query, opts, limit)
	if s.resultCache != nil {
		if cached, ok := s.resultCache.Get(ctx, cacheKey); ok {
			logger.Info("Result cache hit (%d results)", len(cached))
			return cached, nil
		}
	}

	// Expand the query before retrieval
	retrievalQuery := query
	var analysis *domain.QueryAnalysis
	if opts.Expand != domain.ExpandNone && s.expander != nil {
		a, err := s.expander.Expand(ctx, query, opts.Expand)
		if err != nil {
			logger.Warn("Query expansion failed: %v (using original query)", err)
		} else if a != nil {
			analysis = a
			retrievalQuery = a.Expanded
			logger.Info("Expanded query: %q (strategy=%s, confidence=%.2f)",
				a.Expanded, a.Strategy, a.Confidence)
		}
	}

	// Request more results internally: pagination, filtering at
	// hydration, and re-ranking all need headroom.
	internalLimit := (limit + opts.Offset) * 2
	if opts.Rerank && s.reranker != nil && s.reranker.Candidates() > internalLimit {
		internalLimit = s.reranker.Candidates()
	}
	logger.Debug("Internal limit: %d", internalLimit)

	mode := s.effectiveMode(opts)
	logger.Info("Effective search mode: %s", mode.Description())

	var chunks []scoredChunk
	var err error

	switch mode {
	case domain.SearchModeKeyword:
		chunks, err = s.keywordSearch(ctx, retrievalQuery, internalLimit)

	case domain.SearchModeSemantic:
		chunks, err = s.semanticSearch(ctx, retrievalQuery, internalLimit, opts)

	case domain.SearchModeHybrid:
		chunks, err = s.hybridSearch(ctx, retrievalQuery, internalLimit, opts)

	case domain.SearchModeFuzzy:
		chunks, err = s.fuzzySearch(ctx, retrievalQuery, internalLimit)

	default:
		chunks, err = s.keywordSearch(ctx, retrievalQuery, internalLimit)
	}

	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, fmt.Errorf("search: %w", err)
	}

	logger.Debug("Raw results: %d chunks", len(chunks))

	// Hydrate results with full document data, applying the metadata
	// filter for modes where the index could not.
	results, err := s.hydrateResults(ctx, chunks, query, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}
	logger.Debug("Hydrated results: %d", len(results))

	// Re-rank the top candidates when requested
	if opts.Rerank {
		results = s.applyRerank(ctx, query, results)
	}

	// Attach the query analysis for observability
	if analysis != nil {
		for i := range results {
			results[i].Analysis = analysis
		}
	}

	results = s.applyPagination(results, opts.Offset, limit)
	logger.Info("Final results: %d", len(results))

	if s.resultCache != nil {
		s.resultCache.Put(ctx, cacheKey, results, 0)
	}

	return results, nil
}

// effectiveMode determines the search mode based on options and available
// services. It gracefully degrades if required services are unavailable.
func (s *SearchService) effectiveMode(opts domain.SearchOptions) domain.SearchMode {
	canDoVector := s.vectorIndex != nil && s.embeddingService != nil
	canDoKeyword := s.searchIndex != nil

	switch opts.Mode {
	case domain.SearchModeSemantic:
		if canDoVector {
			return domain.SearchModeSemantic
		}
		return domain.SearchModeKeyword

	case domain.SearchModeHybrid:
		if canDoVector && canDoKeyword {
			return domain.SearchModeHybrid
		}
		if canDoVector {
			return domain.SearchModeSemantic
		}
		return domain.SearchModeKeyword

	case domain.SearchModeKeyword, domain.SearchModeFuzzy:
		return opts.Mode
	}

	// Best available mode when unspecified
	if canDoVector && canDoKeyword {
		return domain.SearchModeHybrid
	}
	if canDoVector {
		return domain.SearchModeSemantic
	}
	return domain.SearchModeKeyword
}

// keywordSearch performs full-text search, normalising BM25 scores to [0, 1].
func (s *SearchService) keywordSearch(ctx context.Context, query string, limit int) ([]scoredChunk, error) {
	if s.searchIndex == nil {
		logger.Warn("Keyword search unavailable: search engine is nil")
		return nil, domain.ErrSearchUnavailable
	}

	logger.Debug("Keyword search: query=%q, limit=%d", query, limit)

	hits, err := s.searchIndex.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	logger.Debug("Keyword search: %d hits", len(hits))

	return normaliseHits(hits, "keyword"), nil
}

// fuzzySearch performs edit-distance tolerant keyword search.
func (s *SearchService) fuzzySearch(ctx context.Context, query string, limit int) ([]scoredChunk, error) {
	if s.searchIndex == nil {
		logger.Warn("Fuzzy search unavailable: search engine is nil")
		return nil, domain.ErrSearchUnavailable
	}

	logger.Debug("Fuzzy search: query=%q, limit=%d, distance=%d", query, limit, s.fuzzyDistance)

	hits, err := s.searchIndex.SearchFuzzy(ctx, query, limit, s.fuzzyDistance)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search: %w", err)
	}
	logger.Debug("Fuzzy search: %d hits", len(hits))

	return normaliseHits(hits, "fuzzy"), nil
}

// semanticSearch performs vector similarity search with metadata filtering.
func (s *SearchService) semanticSearch(
	ctx context.Context, query string, limit int, opts domain.SearchOptions,
) ([]scoredChunk, error) {
	if s.vectorIndex == nil {
		logger.Warn("Semantic search unavailable: vector index is nil")
		return nil, domain.ErrVectorIndexUnavailable
	}
	if s.embeddingService == nil {
		logger.Warn("Semantic search unavailable: embedding service is nil")
		return nil, domain.ErrEmbeddingUnavailable
	}

	embedding, err := s.queryEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generate query embedding: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(embedding))

	hits, err := s.vectorIndex.Search(ctx, embedding, limit, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	results := make([]scoredChunk, 0, len(hits))
	for _, hit := range hits {
		// Similarity floor: trim rather than pad with noise
		if opts.MinSimilarity > 0 && hit.Similarity < opts.MinSimilarity {
			continue
		}
		results = append(results, scoredChunk{
			chunkID: hit.ChunkID,
			score:   hit.Similarity,
			source:  "vector",
		})
	}

	return results, nil
}

// hybridSearch blends semantic similarity with keyword-match boosting.
// Both searches run in parallel; a chunk's blended score is
// vectorWeight*similarity + keywordWeight*normalisedKeywordScore, with a
// missing component contributing zero.
func (s *SearchService) hybridSearch(
	ctx context.Context, query string, limit int, opts domain.SearchOptions,
) ([]scoredChunk, error) {
	logger.Debug("Hybrid search: running keyword and vector searches in parallel")

	var keywordResults, vectorResults []scoredChunk
	var keywordErr, vectorErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		keywordResults, keywordErr = s.keywordSearch(ctx, query, limit)
	}()

	go func() {
		defer wg.Done()
		vectorResults, vectorErr = s.semanticSearch(ctx, query, limit, opts)
	}()

	wg.Wait()

	// Handle errors gracefully - degrade if one search fails
	if keywordErr != nil && vectorErr != nil {
		logger.Warn("Hybrid search: both keyword and vector searches failed")
		return nil, fmt.Errorf("hybrid search: keyword=%w, vector=%w", keywordErr, vectorErr)
	}
	if keywordErr != nil {
		logger.Warn("Hybrid search: keyword search failed, using vector results only")
		return vectorResults, nil
	}
	if vectorErr != nil {
		logger.Warn("Hybrid search: vector search failed, using keyword results only")
		return keywordResults, nil
	}

	logger.Debug("Hybrid search: blending %d keyword + %d vector results (weights %.2f/%.2f)",
		len(keywordResults), len(vectorResults), s.vectorWeight, s.keywordWeight)
	blended := s.linearBlend(vectorResults, keywordResults)
	logger.Debug("Hybrid search: blended to %d results", len(blended))

	return blended, nil
}

// linearBlend merges vector and keyword result lists by a weighted score
// sum. Ordering is deterministic: ties break by the chunk's best rank in
// the input lists.
func (s *SearchService) linearBlend(vector, keyword []scoredChunk) []scoredChunk {
	type blend struct {
		score float64
		rank  int
	}

	merged := make(map[string]*blend)

	rankOf := func(m map[string]*blend, id string, rank int) *blend {
		b, ok := m[id]
		if !ok {
			b = &blend{rank: rank}
			m[id] = b
		} else if rank < b.rank {
			b.rank = rank
		}
		return b
	}

	for rank, c := range vector {
		b := rankOf(merged, c.chunkID, rank)
		b.score += s.vectorWeight * c.score
	}
	for rank, c := range keyword {
		b := rankOf(merged, c.chunkID, rank)
		b.score += s.keywordWeight * c.score
	}

	results := make([]scoredChunk, 0, len(merged))
	for id, b := range merged {
		results = append(results, scoredChunk{chunkID: id, score: b.score, source: "blended"})
	}

	ranks := make(map[string]int, len(merged))
	for id, b := range merged {
		ranks[id] = b.rank
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return ranks[results[i].chunkID] < ranks[results[j].chunkID]
	})

	return results
}

// queryEmbedding returns the embedding for a query, consulting the cache
// first and coalescing concurrent misses for the same normalised query
// into a single provider call.
func (s *SearchService) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	key := normaliseQuery(query)

	if s.embedCache != nil {
		if vec, ok := s.embedCache.Get(ctx, key); ok {
			logger.Debug("Embedding cache hit for %q", key)
			return vec, nil
		}
	}

	logger.Debug("Embedding cache miss, generating query embedding...")
	v, err, shared := s.flight.Do(key, func() (any, error) {
		return s.embeddingService.Embed(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("Embedding computation shared with concurrent request")
	}

	vec := v.([]float32)
	if s.embedCache != nil {
		s.embedCache.Put(ctx, key, vec, 0)
	}

	return vec, nil
}

// applyRerank runs the cross-encoder stage, degrading to similarity
// order when no reranker is configured.
func (s *SearchService) applyRerank(ctx context.Context, query string, results []domain.SearchResult) []domain.SearchResult {
	if s.reranker == nil {
		logger.Warn("Re-ranking requested but no cross-encoder configured")
		return results
	}
	return s.reranker.Rerank(ctx, query, results)
}

// hydrateResults converts chunk IDs to full SearchResult objects. Chunks
// failing the metadata filter are dropped here when the retrieval path
// could not filter natively.
func (s *SearchService) hydrateResults(
	ctx context.Context, chunks []scoredChunk, query string, filter *domain.Filter,
) ([]domain.SearchResult, error) {
	if s.docStore == nil {
		return nil, errors.New("document store unavailable")
	}

	results := make([]domain.SearchResult, 0, len(chunks))

	for _, sc := range chunks {
		chunk, err := s.docStore.GetChunk(ctx, sc.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Chunk was superseded by a re-index, skip it
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", sc.chunkID, err)
		}

		if !filter.Matches(chunk.Metadata) {
			continue
		}

		doc, err := s.docStore.GetDocument(ctx, chunk.DocumentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get document %s: %w", chunk.DocumentID, err)
		}

		results = append(results, domain.SearchResult{
			Document:   *doc,
			Chunk:      *chunk,
			Similarity: sc.score,
			FinalScore: sc.score,
			Highlights: generateHighlights(chunk.Content, query),
		})
	}

	return results, nil
}

// applyPagination applies offset and limit to results.
func (s *SearchService) applyPagination(results []domain.SearchResult, offset, limit int) []domain.SearchResult {
	if offset >= len(results) {
		return []domain.SearchResult{}
	}

	end := offset + limit
	if end > len(results) {
		end = len(results)
	}

	return results[offset:end]
}

// resultCacheKey fingerprints the query and every option that affects
// the result set.
func (s *SearchService) resultCacheKey(query string, opts domain.SearchOptions, limit int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%d|%v|%.4f|%s|%v|%s",
		normaliseQuery(query), opts.Mode, limit, opts.Offset,
		opts.Rerank, opts.MinSimilarity, opts.Expand, opts.Filter == nil, filterFingerprint(opts.Filter))
	return hex.EncodeToString(h.Sum(nil))
}

// filterFingerprint renders a filter deterministically for cache keying.
func filterFingerprint(f *domain.Filter) string {
	if f == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "(%s %s %v", f.Op, f.Key, f.Value)
	for _, sub := range f.Filters {
		b.WriteString(filterFingerprint(sub))
	}
	b.WriteString(")")
	return b.String()
}

// normaliseQuery lowercases and collapses whitespace so cache keys are
// insensitive to formatting.
func normaliseQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// normaliseHits converts engine hits to scored chunks with scores scaled
// to [0, 1] by the best hit, keeping blend weights meaningful.
func normaliseHits(hits []driven.SearchHit, source string) []scoredChunk {
	var maxScore float64
	for _, hit := range hits {
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}

	results := make([]scoredChunk, len(hits))
	for i, hit := range hits {
		score := hit.Score
		if maxScore > 0 {
			score = hit.Score / maxScore
		}
		results[i] = scoredChunk{chunkID: hit.ChunkID, score: score, source: source}
	}
	return results
}

// generateHighlights creates text snippets with matched terms.
func generateHighlights(content, query string) []string {
	queryTerms := strings.Fields(strings.ToLower(query))
	if len(queryTerms) == 0 {
		return nil
	}

	sentences := splitSentences(content)

	var highlights []string
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		sentenceLower := strings.ToLower(sentence)
		for _, term := range queryTerms {
			if strings.Contains(sentenceLower, term) {
				highlight := sentence
				if len(highlight) > 200 {
					highlight = highlight[:200] + "..."
				}
				highlights = append(highlights, highlight)
				break
			}
		}

		if len(highlights) >= 3 {
			break // Limit to 3 highlights
		}
	}

	return highlights
}

// splitSentences splits content into sentences by common terminators.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

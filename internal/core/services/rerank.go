package services

import (
	"context"
	"sort"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
	"github.com/vaultscout/vaultscout/internal/logger"
)

// DefaultRerankCandidates is how many top candidates get cross-encoder
// scores when configuration leaves it unset.
const DefaultRerankCandidates = 20

// RerankService re-orders search results by scoring (query, passage)
// pairs with a cross-encoder and blending the result with the original
// retrieval similarity.
type RerankService struct {
	encoder    driven.CrossEncoder
	candidates int
	simWeight  float64
	rankWeight float64
}

// NewRerankService creates a re-ranking service. The encoder may be nil,
// in which case Rerank degrades to a pass-through.
func NewRerankService(encoder driven.CrossEncoder, cfg domain.RerankSettings) *RerankService {
	candidates := cfg.Candidates
	if candidates <= 0 {
		candidates = DefaultRerankCandidates
	}

	simWeight := cfg.SimilarityWeight
	rankWeight := cfg.RerankWeight
	if simWeight <= 0 && rankWeight <= 0 {
		simWeight = 0.3
		rankWeight = 0.7
	}

	return &RerankService{
		encoder:    encoder,
		candidates: candidates,
		simWeight:  simWeight,
		rankWeight: rankWeight,
	}
}

// Candidates returns the number of top candidates the service scores (K).
func (r *RerankService) Candidates() int {
	return r.candidates
}

// Rerank scores the top candidates and re-orders them by the blended
// final score. Candidates beyond K keep their similarity ordering and
// follow the re-ranked block. The sort is stable: ties preserve the
// original retrieval order.
//
// An empty candidate list returns an empty list. If the cross-encoder
// fails or is missing, the input order is returned unchanged - degraded
// but non-fatal.
func (r *RerankService) Rerank(
	ctx context.Context, query string, results []domain.SearchResult,
) []domain.SearchResult {
	if len(results) == 0 {
		return results
	}

	if r.encoder == nil {
		logger.Debug("No cross-encoder configured, keeping similarity order")
		return results
	}

	k := r.candidates
	if k > len(results) {
		k = len(results)
	}

	logger.Section("Re-Ranking")
	logger.Debug("Scoring %d of %d candidates with %s", k, len(results), r.encoder.ModelName())

	head := results[:k]
	passages := make([]string, k)
	for i := range head {
		passages[i] = head[i].Chunk.Content
	}

	scores, err := r.encoder.ScoreBatch(ctx, query, passages)
	if err != nil || len(scores) != k {
		logger.Warn("Cross-encoder scoring failed: %v (keeping similarity order)", err)
		return results
	}

	reranked := make([]domain.SearchResult, k)
	copy(reranked, head)
	for i := range reranked {
		score := clamp01(scores[i])
		reranked[i].RerankScore = score
		reranked[i].Reranked = true
		reranked[i].FinalScore = r.simWeight*reranked[i].Similarity + r.rankWeight*score
	}

	// Stable: equal final scores keep the original retrieval order
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].FinalScore > reranked[j].FinalScore
	})

	logger.Debug("Re-ranked %d candidates (weights sim=%.2f, rerank=%.2f)",
		k, r.simWeight, r.rankWeight)

	out := make([]domain.SearchResult, 0, len(results))
	out = append(out, reranked...)
	out = append(out, results[k:]...)
	return out
}

// clamp01 bounds a score to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

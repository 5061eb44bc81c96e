package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

func rerankFixture() []domain.SearchResult {
	return []domain.SearchResult{
		{Chunk: domain.Chunk{ID: "c1", Content: "first passage"}, Similarity: 0.9, FinalScore: 0.9},
		{Chunk: domain.Chunk{ID: "c2", Content: "second passage"}, Similarity: 0.6, FinalScore: 0.6},
		{Chunk: domain.Chunk{ID: "c3", Content: "third passage"}, Similarity: 0.3, FinalScore: 0.3},
	}
}

func TestRerank_EmptyInput(t *testing.T) {
	svc := NewRerankService(&mockCrossEncoder{}, domain.RerankSettings{})

	out := svc.Rerank(context.Background(), "query", nil)
	assert.Empty(t, out)
}

func TestRerank_NilEncoderPassesThrough(t *testing.T) {
	svc := NewRerankService(nil, domain.RerankSettings{})
	in := rerankFixture()

	out := svc.Rerank(context.Background(), "query", in)
	assert.Equal(t, in, out)
}

func TestRerank_BlendsAndReorders(t *testing.T) {
	encoder := &mockCrossEncoder{scores: map[string]float64{
		"first passage":  0.2,
		"second passage": 0.9,
		"third passage":  0.5,
	}}
	svc := NewRerankService(encoder, domain.RerankSettings{})

	out := svc.Rerank(context.Background(), "query", rerankFixture())
	require.Len(t, out, 3)

	// c2: 0.3*0.6 + 0.7*0.9 = 0.81
	// c3: 0.3*0.3 + 0.7*0.5 = 0.44
	// c1: 0.3*0.9 + 0.7*0.2 = 0.41
	assert.Equal(t, "c2", out[0].Chunk.ID)
	assert.InDelta(t, 0.81, out[0].FinalScore, 1e-9)
	assert.Equal(t, "c3", out[1].Chunk.ID)
	assert.InDelta(t, 0.44, out[1].FinalScore, 1e-9)
	assert.Equal(t, "c1", out[2].Chunk.ID)
	assert.InDelta(t, 0.41, out[2].FinalScore, 1e-9)

	for _, r := range out {
		assert.True(t, r.Reranked)
	}
}

func TestRerank_CandidateCapLeavesTailUntouched(t *testing.T) {
	encoder := &mockCrossEncoder{scores: map[string]float64{
		"first passage":  0.1,
		"second passage": 0.9,
	}}
	svc := NewRerankService(encoder, domain.RerankSettings{Candidates: 2})

	out := svc.Rerank(context.Background(), "query", rerankFixture())
	require.Len(t, out, 3)

	// Only the top 2 are scored; c3 keeps its slot and similarity score
	assert.Equal(t, "c2", out[0].Chunk.ID)
	assert.Equal(t, "c1", out[1].Chunk.ID)
	assert.Equal(t, "c3", out[2].Chunk.ID)
	assert.False(t, out[2].Reranked)
	assert.Equal(t, 0.3, out[2].FinalScore)
}

func TestRerank_EncoderFailureKeepsSimilarityOrder(t *testing.T) {
	encoder := &mockCrossEncoder{err: errors.New("timeout")}
	svc := NewRerankService(encoder, domain.RerankSettings{})
	in := rerankFixture()

	out := svc.Rerank(context.Background(), "query", in)
	assert.Equal(t, in, out)
}

func TestRerank_ClampsScores(t *testing.T) {
	encoder := &mockCrossEncoder{scores: map[string]float64{
		"first passage":  1.7,
		"second passage": -0.4,
		"third passage":  0.5,
	}}
	svc := NewRerankService(encoder, domain.RerankSettings{})

	out := svc.Rerank(context.Background(), "query", rerankFixture())
	require.Len(t, out, 3)

	scores := map[string]float64{}
	for _, r := range out {
		scores[r.Chunk.ID] = r.RerankScore
	}
	assert.Equal(t, 1.0, scores["c1"])
	assert.Equal(t, 0.0, scores["c2"])
	assert.Equal(t, 0.5, scores["c3"])
}

func TestRerank_StableOnTies(t *testing.T) {
	// Identical similarity and identical encoder scores: retrieval order
	// must survive the sort.
	in := []domain.SearchResult{
		{Chunk: domain.Chunk{ID: "a", Content: "same"}, Similarity: 0.5},
		{Chunk: domain.Chunk{ID: "b", Content: "same"}, Similarity: 0.5},
		{Chunk: domain.Chunk{ID: "c", Content: "same"}, Similarity: 0.5},
	}
	encoder := &mockCrossEncoder{scores: map[string]float64{"same": 0.7}}
	svc := NewRerankService(encoder, domain.RerankSettings{})

	out := svc.Rerank(context.Background(), "query", in)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Chunk.ID)
	assert.Equal(t, "b", out[1].Chunk.ID)
	assert.Equal(t, "c", out[2].Chunk.ID)
}

func TestRerank_DefaultSettings(t *testing.T) {
	svc := NewRerankService(nil, domain.RerankSettings{})
	assert.Equal(t, DefaultRerankCandidates, svc.Candidates())

	svc = NewRerankService(nil, domain.RerankSettings{Candidates: 50})
	assert.Equal(t, 50, svc.Candidates())
}

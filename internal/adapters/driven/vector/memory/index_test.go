package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

func TestVectorIndex_UpsertAndSearch(t *testing.T) {
	idx := NewVectorIndex(0)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "c1", []float32{1, 0}, nil))
	require.NoError(t, idx.Upsert(ctx, "c2", []float32{0, 1}, nil))
	require.NoError(t, idx.Upsert(ctx, "c3", []float32{0.7, 0.7}, nil))

	hits, err := idx.Search(ctx, []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, "c3", hits[1].ChunkID)
	assert.InDelta(t, 0.7071, hits[1].Similarity, 1e-3)
	assert.Equal(t, "c2", hits[2].ChunkID)
	assert.InDelta(t, 0.0, hits[2].Similarity, 1e-6)
}

func TestVectorIndex_TopKTruncation(t *testing.T) {
	idx := NewVectorIndex(2)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "c1", []float32{1, 0}, nil))
	require.NoError(t, idx.Upsert(ctx, "c2", []float32{0.9, 0.1}, nil))
	require.NoError(t, idx.Upsert(ctx, "c3", []float32{0, 1}, nil))

	hits, err := idx.Search(ctx, []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.Equal(t, "c2", hits[1].ChunkID)
}

func TestVectorIndex_FilterRestrictsCandidates(t *testing.T) {
	idx := NewVectorIndex(2)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "c1", []float32{1, 0}, map[string]any{"topic": "ml"}))
	require.NoError(t, idx.Upsert(ctx, "c2", []float32{0.99, 0.01}, map[string]any{"topic": "cooking"}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 10, domain.Eq("topic", "cooking"))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].ChunkID)
}

func TestVectorIndex_UpsertReplaces(t *testing.T) {
	idx := NewVectorIndex(2)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "c1", []float32{1, 0}, nil))
	require.NoError(t, idx.Upsert(ctx, "c1", []float32{0, 1}, nil))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	hits, err := idx.Search(ctx, []float32{0, 1}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
}

func TestVectorIndex_DimensionMismatch(t *testing.T) {
	idx := NewVectorIndex(2)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "c1", []float32{1, 0}, nil))

	err := idx.Upsert(ctx, "c2", []float32{1, 0, 0}, nil)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = idx.Search(ctx, []float32{1}, 1, nil)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorIndex_DeleteUnknownIsNoop(t *testing.T) {
	idx := NewVectorIndex(2)
	ctx := context.Background()

	assert.NoError(t, idx.Delete(ctx, "missing"))

	require.NoError(t, idx.Upsert(ctx, "c1", []float32{1, 0}, nil))
	require.NoError(t, idx.Delete(ctx, "c1"))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestVectorIndex_StoredVectorIsCopied(t *testing.T) {
	idx := NewVectorIndex(2)
	ctx := context.Background()

	vec := []float32{1, 0}
	require.NoError(t, idx.Upsert(ctx, "c1", vec, nil))

	// Caller mutation must not corrupt the index
	vec[0] = 0
	vec[1] = 1

	hits, err := idx.Search(ctx, []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
}

func TestVectorIndex_InvalidInput(t *testing.T) {
	idx := NewVectorIndex(2)
	ctx := context.Background()

	assert.ErrorIs(t, idx.Upsert(ctx, "", []float32{1}, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, idx.Upsert(ctx, "c1", nil, nil), domain.ErrInvalidInput)

	_, err := idx.Search(ctx, nil, 1, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = idx.Search(ctx, []float32{1, 0}, 0, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

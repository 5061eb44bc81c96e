package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDocument() *domain.Document {
	return &domain.Document{
		ID:      "d1",
		Path:    "notes/ml.md",
		Title:   "Machine Learning",
		Content: "# Machine Learning\n\nGradient descent tunes weights.",
		Tags:    []string{"ml", "math"},
		Aliases: []string{"ML Notes"},
		Metadata: map[string]any{
			"status": "draft",
		},
		ModifiedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		CreatedAt:  time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_SaveAndGetDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDocument()
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "d1")
	require.NoError(t, err)

	assert.Equal(t, doc.Path, got.Path)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.Tags, got.Tags)
	assert.Equal(t, doc.Aliases, got.Aliases)
	assert.Equal(t, "draft", got.Metadata["status"])
	assert.True(t, doc.ModifiedAt.Equal(got.ModifiedAt))
}

func TestStore_GetDocumentByPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument()))

	got, err := store.GetDocumentByPath(ctx, "notes/ml.md")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID)

	_, err = store.GetDocumentByPath(ctx, "notes/missing.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SaveDocumentUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDocument()
	require.NoError(t, store.SaveDocument(ctx, doc))

	doc.Title = "Machine Learning, revised"
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Machine Learning, revised", got.Title)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestStore_ChunkRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument()))

	chunks := []domain.Chunk{
		{
			ID:         "c1",
			DocumentID: "d1",
			Content:    "Gradient descent tunes weights.",
			Heading:    "Optimisation",
			Position:   0,
			WordCount:  4,
			Embedding:  []float32{0.25, -0.5, 1.0},
			Metadata:   map[string]any{"topic": "ml"},
		},
		{
			ID:         "c2",
			DocumentID: "d1",
			Content:    "Backpropagation computes gradients.",
			Position:   1,
			WordCount:  3,
		},
	}
	require.NoError(t, store.SaveChunks(ctx, chunks))

	got, err := store.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "Optimisation", got[0].Heading)
	assert.Equal(t, []float32{0.25, -0.5, 1.0}, got[0].Embedding)
	assert.Equal(t, "ml", got[0].Metadata["topic"])
	assert.Equal(t, "c2", got[1].ID)
	assert.Nil(t, got[1].Embedding)

	chunk, err := store.GetChunk(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "Backpropagation computes gradients.", chunk.Content)

	_, err = store.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteChunksReturnsIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument()))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Content: "one"},
		{ID: "c2", DocumentID: "d1", Content: "two"},
	}))

	ids, err := store.DeleteChunks(ctx, "d1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c1", "c2"}, ids)

	chunks, err := store.GetChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	// Deleting again is a no-op
	ids, err = store.DeleteChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_DeleteDocumentCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument()))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Content: "one"},
	}))

	require.NoError(t, store.DeleteDocument(ctx, "d1"))

	_, err := store.GetDocument(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := store.GetChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestStore_ListDocumentsOrderedByPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "d2", Path: "notes/zebra.md"}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "d1", Path: "notes/alpha.md"}))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "notes/alpha.md", docs[0].Path)
	assert.Equal(t, "notes/zebra.md", docs[1].Path)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveDocument(ctx, testDocument()))
	require.NoError(t, store.Close())

	// Reopen: migrations must be idempotent and data must survive
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Machine Learning", got.Title)
}

func TestStore_SaveDocumentInvalidInput(t *testing.T) {
	store := newTestStore(t)

	assert.ErrorIs(t, store.SaveDocument(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.SaveDocument(context.Background(), &domain.Document{}), domain.ErrInvalidInput)
}

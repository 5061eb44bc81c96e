package obsidian

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
)

func writeNote(t *testing.T, root, path, content string) {
	t.Helper()
	full := filepath.Join(root, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newTestVault(t *testing.T) (*Source, string) {
	t.Helper()
	root := t.TempDir()
	source, err := NewSource(root)
	require.NoError(t, err)
	t.Cleanup(func() { source.Close() })
	return source, root
}

func TestNewSourceMissingDir(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrVaultNotFound))

	_, err = NewSource("")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestScanParsesFrontmatter(t *testing.T) {
	source, root := newTestVault(t)

	writeNote(t, root, "ml/gradient.md", `---
title: Gradient Descent
tags:
  - ml
  - optimisation
aliases:
  - GD
status: draft
---
Gradient descent minimises the loss function.
`)

	docs, err := source.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "ml/gradient.md", doc.Path)
	assert.Equal(t, "Gradient Descent", doc.Title)
	assert.Equal(t, []string{"ml", "optimisation"}, doc.Tags)
	assert.Equal(t, []string{"GD"}, doc.Aliases)
	assert.Equal(t, "draft", doc.Metadata["status"])
	assert.Equal(t, "Gradient descent minimises the loss function.\n", doc.Content)
	assert.NotContains(t, doc.Content, "---")
	assert.False(t, doc.ModifiedAt.IsZero())
}

func TestScanSkipsHiddenAndNonMarkdown(t *testing.T) {
	source, root := newTestVault(t)

	writeNote(t, root, "note.md", "# Note\n")
	writeNote(t, root, ".obsidian/workspace.md", "internal\n")
	writeNote(t, root, ".trash/deleted.md", "gone\n")
	writeNote(t, root, "image.png", "not markdown\n")

	docs, err := source.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "note.md", docs[0].Path)
}

func TestScanOrderedByPath(t *testing.T) {
	source, root := newTestVault(t)

	writeNote(t, root, "zebra.md", "z\n")
	writeNote(t, root, "alpha.md", "a\n")
	writeNote(t, root, "sub/beta.md", "b\n")

	docs, err := source.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "alpha.md", docs[0].Path)
	assert.Equal(t, "sub/beta.md", docs[1].Path)
	assert.Equal(t, "zebra.md", docs[2].Path)
}

func TestLoadScalarTags(t *testing.T) {
	source, root := newTestVault(t)

	writeNote(t, root, "note.md", `---
tags: ml, deep-learning
---
Body.
`)

	doc, err := source.Load(context.Background(), "note.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"ml", "deep-learning"}, doc.Tags)
}

func TestLoadMergesInlineTags(t *testing.T) {
	source, root := newTestVault(t)

	writeNote(t, root, "note.md", `---
tags: [ml]
---
Notes on #ml and #backprop/basics today.
`)

	doc, err := source.Load(context.Background(), "note.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"ml", "backprop/basics"}, doc.Tags)
}

func TestLoadTitleFallbacks(t *testing.T) {
	source, root := newTestVault(t)

	writeNote(t, root, "heading.md", "# From Heading\n\nBody.\n")
	writeNote(t, root, "weekly-review_notes.md", "No heading here.\n")

	doc, err := source.Load(context.Background(), "heading.md")
	require.NoError(t, err)
	assert.Equal(t, "From Heading", doc.Title)

	doc, err = source.Load(context.Background(), "weekly-review_notes.md")
	require.NoError(t, err)
	assert.Equal(t, "weekly review notes", doc.Title)
}

func TestLoadMalformedFrontmatterKeptAsContent(t *testing.T) {
	source, root := newTestVault(t)

	raw := "---\n: [not yaml\n---\nBody.\n"
	writeNote(t, root, "broken.md", raw)

	doc, err := source.Load(context.Background(), "broken.md")
	require.NoError(t, err)
	assert.Equal(t, raw, doc.Content)
	assert.Empty(t, doc.Metadata)
}

func TestLoadNotFound(t *testing.T) {
	source, _ := newTestVault(t)

	_, err := source.Load(context.Background(), "missing.md")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = source.Load(context.Background(), "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestNoteIDStable(t *testing.T) {
	assert.Equal(t, NoteID("ml/gradient.md"), NoteID("ml/gradient.md"))
	assert.NotEqual(t, NoteID("ml/gradient.md"), NoteID("ml/backprop.md"))
	// Path separators normalise to the same ID.
	assert.Equal(t, NoteID("ml/gradient.md"), NoteID(filepath.Join("ml", "gradient.md")))
}

func waitForEvent(t *testing.T, events <-chan driven.VaultEvent, path string, op driven.VaultEventOp) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "event channel closed before %s %s", op, path)
			if ev.Path == path && ev.Op == op {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s %s", op, path)
		}
	}
}

func TestWatchWriteAndRemove(t *testing.T) {
	source, root := newTestVault(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := source.Watch(ctx)
	require.NoError(t, err)

	writeNote(t, root, "new.md", "# New\n")
	waitForEvent(t, events, "new.md", driven.VaultOpWrite)

	require.NoError(t, os.Remove(filepath.Join(root, "new.md")))
	waitForEvent(t, events, "new.md", driven.VaultOpRemove)
}

func TestWatchIgnoresNonMarkdown(t *testing.T) {
	source, root := newTestVault(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := source.Watch(ctx)
	require.NoError(t, err)

	writeNote(t, root, "sidecar.txt", "not a note\n")
	writeNote(t, root, "note.md", "# Note\n")

	// Only the markdown write arrives.
	waitForEvent(t, events, "note.md", driven.VaultOpWrite)
}

package driving

import (
	"context"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

// IndexStats summarises an indexing run.
type IndexStats struct {
	// Scanned is the number of notes seen in the vault.
	Scanned int

	// Indexed is the number of notes (re-)indexed.
	Indexed int

	// Skipped is the number of unchanged notes left alone.
	Skipped int

	// Removed is the number of stale documents deleted.
	Removed int

	// Chunks is the total number of chunks written.
	Chunks int
}

// IndexOrchestrator ingests vault notes into the search indexes.
type IndexOrchestrator interface {
	// SyncVault scans the vault and indexes new or modified notes,
	// removing documents whose files are gone. Incremental by mtime
	// unless force is set.
	SyncVault(ctx context.Context, force bool) (IndexStats, error)

	// IndexDocument chunks, embeds, and indexes a single document,
	// superseding any previous chunks for it.
	IndexDocument(ctx context.Context, doc *domain.Document) (int, error)

	// RemoveDocument deletes a document and its chunks from all indexes
	// by vault-relative path.
	RemoveDocument(ctx context.Context, path string) error

	// Watch blocks, re-indexing notes as the vault changes, until the
	// context is cancelled.
	Watch(ctx context.Context) error
}

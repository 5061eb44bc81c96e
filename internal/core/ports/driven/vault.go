package driven

import (
	"context"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

// VaultEventOp classifies a vault file change.
type VaultEventOp string

// Vault change operations.
const (
	VaultOpWrite  VaultEventOp = "write"
	VaultOpRemove VaultEventOp = "remove"
)

// VaultEvent reports a change to a note file.
type VaultEvent struct {
	// Path is the note's vault-relative path.
	Path string

	// Op is the kind of change.
	Op VaultEventOp
}

// VaultSource reads Markdown notes from a vault directory.
type VaultSource interface {
	// Scan walks the vault and returns all notes as documents, with
	// frontmatter parsed into metadata.
	Scan(ctx context.Context) ([]domain.Document, error)

	// Load reads a single note by vault-relative path.
	Load(ctx context.Context, path string) (*domain.Document, error)

	// Watch emits events for note changes until the context is cancelled.
	Watch(ctx context.Context) (<-chan VaultEvent, error)

	// Close releases the watcher.
	Close() error
}

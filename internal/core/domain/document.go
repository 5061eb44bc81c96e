package domain

import "time"

// Document represents an indexed vault note with metadata.
// It is the canonical representation after frontmatter extraction.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Path is the note's location relative to the vault root.
	Path string

	// Title is the human-readable title (frontmatter title or filename).
	Title string

	// Content is the full note text after frontmatter stripping.
	Content string

	// Tags are the note's tags from frontmatter and inline #tags.
	Tags []string

	// Aliases are alternative names from frontmatter.
	Aliases []string

	// Metadata contains arbitrary frontmatter-derived key-value pairs.
	Metadata map[string]any

	// ModifiedAt is the source file's modification time.
	ModifiedAt time.Time

	// CreatedAt is when the document was first indexed.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-indexed.
	UpdatedAt time.Time
}

// Chunk represents a searchable unit within a document.
// Documents are split into chunks for granular retrieval. Chunks are
// immutable: re-indexing a document replaces its chunks wholesale.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Heading is the nearest section heading above this chunk, if any.
	Heading string

	// Position is the ordinal position within the document.
	Position int

	// WordCount is the number of whitespace-separated tokens in Content.
	WordCount int

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs. It inherits the
	// parent document's path and tags so metadata filters can be applied
	// at the chunk level.
	Metadata map[string]any
}

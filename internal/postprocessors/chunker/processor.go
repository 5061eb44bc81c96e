// Package chunker provides a heading-aware Markdown chunking processor.
package chunker

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

// DefaultChunkSize is the default number of words per chunk.
const DefaultChunkSize = 300

// DefaultChunkOverlap is the default number of overlapping words.
const DefaultChunkOverlap = 50

// Processor splits note content into chunks along Markdown section
// boundaries. Sections longer than the chunk size are split into
// overlapping word windows; the nearest heading is carried onto every
// chunk it covers.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in words.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in words.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// section is a run of content under one heading.
type section struct {
	heading string
	content string
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if strings.TrimSpace(doc.Content) == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	var chunks []domain.Chunk
	position := 0

	for _, sec := range splitSections(doc.Content) {
		words := strings.Fields(sec.content)
		if len(words) == 0 {
			continue
		}

		for _, window := range p.windows(words) {
			chunk := domain.Chunk{
				ID:         uuid.New().String(),
				DocumentID: doc.ID,
				Content:    window,
				Heading:    sec.heading,
				Position:   position,
				WordCount:  len(strings.Fields(window)),
				Metadata:   chunkMetadata(doc, sec.heading),
			}
			chunks = append(chunks, chunk)
			position++
		}
	}

	return chunks, nil
}

// windows splits words into overlapping runs of at most chunkSize.
func (p *Processor) windows(words []string) []string {
	if len(words) <= p.chunkSize {
		return []string{strings.Join(words, " ")}
	}

	step := p.chunkSize - p.overlap
	estimated := (len(words) / step) + 1
	out := make([]string, 0, estimated)

	for start := 0; start < len(words); start += step {
		end := start + p.chunkSize
		if end > len(words) {
			end = len(words)
		}

		out = append(out, strings.Join(words[start:end], " "))

		if end == len(words) {
			break
		}
	}

	return out
}

// splitSections divides Markdown content at heading lines. Content
// before the first heading forms a section with no heading. Headings
// inside fenced code blocks are ignored.
func splitSections(content string) []section {
	var sections []section
	var current section
	var buf strings.Builder
	inFence := false

	flush := func() {
		current.content = buf.String()
		if strings.TrimSpace(current.content) != "" {
			sections = append(sections, current)
		}
		buf.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}

		if !inFence {
			if heading, ok := parseHeading(trimmed); ok {
				flush()
				current = section{heading: heading}
				continue
			}
		}

		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	flush()

	return sections
}

// parseHeading extracts the text of an ATX heading line.
func parseHeading(line string) (string, bool) {
	if !strings.HasPrefix(line, "#") {
		return "", false
	}

	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level > 6 || level == len(line) || line[level] != ' ' {
		return "", false
	}

	return strings.TrimSpace(line[level:]), true
}

// chunkMetadata builds chunk metadata inheriting the parent document's
// path and tags, so metadata filters apply at the chunk level.
func chunkMetadata(doc *domain.Document, heading string) map[string]any {
	metadata := make(map[string]any, len(doc.Metadata)+3)
	for k, v := range doc.Metadata {
		metadata[k] = v
	}

	metadata["path"] = doc.Path
	if len(doc.Tags) > 0 {
		metadata["tags"] = strings.Join(doc.Tags, ",")
	}
	if heading != "" {
		metadata["heading"] = heading
	}

	return metadata
}

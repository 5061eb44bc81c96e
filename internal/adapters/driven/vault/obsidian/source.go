// Package obsidian reads Markdown notes from an Obsidian-style vault
// directory, parsing YAML frontmatter and inline tags.
package obsidian

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
	"github.com/vaultscout/vaultscout/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.VaultSource = (*Source)(nil)

// noteNamespace is the UUID namespace for path-derived document IDs.
// Using a stable namespace keeps IDs identical across rescans, so
// re-ingestion supersedes rather than duplicates.
var noteNamespace = uuid.MustParse("2f1c9a4e-8b3d-4f6a-9c0e-5d7b1a2e3f4c")

// inlineTagPattern matches Obsidian inline tags (#tag, #nested/tag).
// A leading boundary keeps heading markers and URL fragments out.
var inlineTagPattern = regexp.MustCompile(`(?:^|\s)#([A-Za-z][\w/-]*)`)

// frontmatterDelimiter separates YAML frontmatter from note content.
const frontmatterDelimiter = "---"

// Source reads notes from a vault directory on the local filesystem.
type Source struct {
	root    string
	watcher *fsnotify.Watcher
}

// NewSource creates a vault source rooted at the given directory.
func NewSource(root string) (*Source, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: vault path is required", domain.ErrInvalidInput)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrVaultNotFound, root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrVaultNotFound, root)
	}

	return &Source{root: root}, nil
}

// Scan walks the vault and returns all Markdown notes as documents.
// Hidden directories (.obsidian, .git, .trash) are skipped.
func (s *Source) Scan(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}

		if !isNote(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}

		doc, err := s.load(rel)
		if err != nil {
			logger.Warn("vault: skipping %s: %v", rel, err)
			return nil
		}

		docs = append(docs, *doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan vault: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// Load reads a single note by vault-relative path.
func (s *Source) Load(ctx context.Context, path string) (*domain.Document, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.load(path)
}

// load reads and parses one note. path is vault-relative.
func (s *Source) load(path string) (*domain.Document, error) {
	full := filepath.Join(s.root, path)

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat note: %w", err)
	}

	raw, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read note: %w", err)
	}

	frontmatter, content := splitFrontmatter(string(raw))

	doc := domain.Document{
		ID:         NoteID(path),
		Path:       filepath.ToSlash(path),
		Content:    content,
		Metadata:   make(map[string]any),
		ModifiedAt: info.ModTime(),
	}

	applyFrontmatter(&doc, frontmatter)

	doc.Tags = mergeTags(doc.Tags, extractInlineTags(content))

	if doc.Title == "" {
		doc.Title = deriveTitle(content, path)
	}

	return &doc, nil
}

// Watch emits events for note changes until the context is cancelled.
// Subdirectories created after the watch starts are picked up as well.
func (s *Source) Watch(ctx context.Context) (<-chan driven.VaultEvent, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	s.watcher = watcher

	// Watch the root and every non-hidden subdirectory.
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != s.root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch vault: %w", err)
	}

	events := make(chan driven.VaultEvent)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				s.handleEvent(ctx, ev, events)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("vault: watch error: %v", err)
			}
		}
	}()

	return events, nil
}

// handleEvent translates one fsnotify event into at most one vault event.
func (s *Source) handleEvent(ctx context.Context, ev fsnotify.Event, events chan<- driven.VaultEvent) {
	// New directories need their own watch.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(filepath.Base(ev.Name), ".") {
				if err := s.watcher.Add(ev.Name); err != nil {
					logger.Warn("vault: failed to watch %s: %v", ev.Name, err)
				}
			}
			return
		}
	}

	if !isNote(ev.Name) {
		return
	}

	rel, err := filepath.Rel(s.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	var op driven.VaultEventOp
	switch {
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		op = driven.VaultOpWrite
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		op = driven.VaultOpRemove
	default:
		return
	}

	select {
	case events <- driven.VaultEvent{Path: rel, Op: op}:
	case <-ctx.Done():
	}
}

// Close releases the watcher.
func (s *Source) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// NoteID derives a stable document ID from a vault-relative path.
func NoteID(path string) string {
	return uuid.NewSHA1(noteNamespace, []byte(filepath.ToSlash(path))).String()
}

// splitFrontmatter separates a leading YAML frontmatter block from the
// note body. Notes without frontmatter return an empty map.
func splitFrontmatter(raw string) (map[string]any, string) {
	if !strings.HasPrefix(raw, frontmatterDelimiter+"\n") &&
		raw != frontmatterDelimiter &&
		!strings.HasPrefix(raw, frontmatterDelimiter+"\r\n") {
		return nil, raw
	}

	rest := raw[len(frontmatterDelimiter):]
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")

	idx := strings.Index(rest, "\n"+frontmatterDelimiter)
	if idx < 0 {
		return nil, raw
	}

	block := rest[:idx]
	body := rest[idx+1+len(frontmatterDelimiter):]

	// Skip the delimiter's own line ending.
	if i := strings.Index(body, "\n"); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal([]byte(block), &frontmatter); err != nil {
		// Malformed frontmatter is kept as content rather than lost.
		return nil, raw
	}

	return frontmatter, body
}

// applyFrontmatter maps well-known frontmatter keys onto the document
// and keeps the rest as metadata.
func applyFrontmatter(doc *domain.Document, frontmatter map[string]any) {
	for key, value := range frontmatter {
		switch strings.ToLower(key) {
		case "title":
			if s, ok := value.(string); ok {
				doc.Title = s
			}
		case "tags", "tag":
			doc.Tags = mergeTags(doc.Tags, toStringSlice(value))
		case "aliases", "alias":
			doc.Aliases = append(doc.Aliases, toStringSlice(value)...)
		default:
			doc.Metadata[key] = value
		}
	}
}

// toStringSlice coerces a frontmatter value to a string slice.
// Obsidian accepts both scalar and list forms for tags and aliases.
func toStringSlice(value any) []string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		// Scalar form may be comma-separated.
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// extractInlineTags finds #tags in the note body.
func extractInlineTags(content string) []string {
	matches := inlineTagPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// mergeTags appends new tags, deduplicated case-insensitively while
// preserving first-seen casing and order.
func mergeTags(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing)+len(extra))
	merged := make([]string, 0, len(existing)+len(extra))
	for _, t := range append(existing, extra...) {
		t = strings.TrimPrefix(t, "#")
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, t)
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// deriveTitle falls back to the first H1 heading, then the filename.
func deriveTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}

	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}

// isNote reports whether a filename is a Markdown note.
func isNote(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md")
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
	"github.com/vaultscout/vaultscout/internal/core/ports/driving"
	"github.com/vaultscout/vaultscout/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexOrchestrator = (*IndexService)(nil)

// DefaultIndexWorkers bounds the embedding worker pool during sync.
const DefaultIndexWorkers = 4

// IndexService ingests vault notes: chunking, batch embedding through a
// bounded worker pool, and writes to the document store, keyword index,
// and vector index. Re-indexing a note supersedes its previous chunks.
type IndexService struct {
	vault       driven.VaultSource
	docStore    driven.DocumentStore
	searchIndex driven.SearchEngine
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
	pipeline    []driven.PostProcessor
	resultCache driven.ResultCache
	workers     int

	mu      sync.Mutex
	syncing bool
}

// NewIndexService creates an indexing service. The searchIndex,
// vectorIndex, embedder, and resultCache are optional (can be nil).
func NewIndexService(
	vault driven.VaultSource,
	docStore driven.DocumentStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
	pipeline []driven.PostProcessor,
	workers int,
) *IndexService {
	if workers <= 0 {
		workers = DefaultIndexWorkers
	}

	return &IndexService{
		vault:       vault,
		docStore:    docStore,
		searchIndex: searchIndex,
		vectorIndex: vectorIndex,
		embedder:    embedder,
		pipeline:    pipeline,
		workers:     workers,
	}
}

// SetResultCache attaches the result cache so index writes invalidate it.
func (s *IndexService) SetResultCache(c driven.ResultCache) {
	s.resultCache = c
}

// SyncVault scans the vault and indexes new or modified notes.
func (s *IndexService) SyncVault(ctx context.Context, force bool) (driving.IndexStats, error) {
	s.mu.Lock()
	if s.syncing {
		s.mu.Unlock()
		return driving.IndexStats{}, domain.ErrSyncInProgress
	}
	s.syncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.syncing = false
		s.mu.Unlock()
	}()

	logger.Section("Vault Sync")

	docs, err := s.vault.Scan(ctx)
	if err != nil {
		return driving.IndexStats{}, fmt.Errorf("scan vault: %w", err)
	}
	logger.Info("Scanned %d notes", len(docs))

	existing, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return driving.IndexStats{}, fmt.Errorf("list documents: %w", err)
	}
	byPath := make(map[string]domain.Document, len(existing))
	for _, doc := range existing {
		byPath[doc.Path] = doc
	}

	stats := driving.IndexStats{Scanned: len(docs)}

	// Index changed notes through a bounded worker pool. Chunking and
	// embedding dominate, so the pool bounds provider concurrency.
	var statsMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	seen := make(map[string]bool, len(docs))
	for i := range docs {
		doc := docs[i]
		seen[doc.Path] = true

		prev, known := byPath[doc.Path]
		if known && !force && !doc.ModifiedAt.After(prev.ModifiedAt) {
			statsMu.Lock()
			stats.Skipped++
			statsMu.Unlock()
			continue
		}
		if known {
			// Keep the identity stable across re-indexing
			doc.ID = prev.ID
			doc.CreatedAt = prev.CreatedAt
		}

		g.Go(func() error {
			chunks, err := s.IndexDocument(gctx, &doc)
			if err != nil {
				return fmt.Errorf("index %s: %w", doc.Path, err)
			}
			statsMu.Lock()
			stats.Indexed++
			stats.Chunks += chunks
			statsMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}

	// Remove documents whose files are gone
	for path, doc := range byPath {
		if seen[path] {
			continue
		}
		if err := s.removeByID(ctx, doc.ID); err != nil {
			logger.Warn("Failed to remove stale document %s: %v", path, err)
			continue
		}
		stats.Removed++
	}

	s.invalidateResults(ctx)
	logger.Info("Sync complete: %d indexed, %d skipped, %d removed, %d chunks",
		stats.Indexed, stats.Skipped, stats.Removed, stats.Chunks)

	return stats, nil
}

// IndexDocument chunks, embeds, and indexes a single document.
func (s *IndexService) IndexDocument(ctx context.Context, doc *domain.Document) (int, error) {
	if doc == nil || doc.Path == "" {
		return 0, domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	chunks, err := s.runPipeline(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("process document: %w", err)
	}
	logger.Debug("Document %s: %d chunks", doc.Path, len(chunks))

	if s.embedder != nil && len(chunks) > 0 {
		if err := s.embedChunks(ctx, chunks); err != nil {
			// Embedding failure degrades to keyword-only retrieval for
			// this note rather than failing the sync.
			logger.Warn("Embedding failed for %s: %v (keyword index only)", doc.Path, err)
		}
	}

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return 0, fmt.Errorf("save document: %w", err)
	}

	// Supersede prior chunks before writing the new generation
	oldIDs, err := s.docStore.DeleteChunks(ctx, doc.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return 0, fmt.Errorf("delete superseded chunks: %w", err)
	}
	s.removeFromIndexes(ctx, oldIDs)

	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("save chunks: %w", err)
	}

	for i := range chunks {
		if s.searchIndex != nil {
			if err := s.searchIndex.Index(ctx, chunks[i]); err != nil {
				return 0, fmt.Errorf("keyword index chunk: %w", err)
			}
		}
		if s.vectorIndex != nil && len(chunks[i].Embedding) > 0 {
			if err := s.vectorIndex.Upsert(ctx, chunks[i].ID, chunks[i].Embedding, chunks[i].Metadata); err != nil {
				return 0, fmt.Errorf("vector index chunk: %w", err)
			}
		}
	}

	s.invalidateResults(ctx)
	return len(chunks), nil
}

// RemoveDocument deletes a document and its chunks by vault path.
func (s *IndexService) RemoveDocument(ctx context.Context, path string) error {
	doc, err := s.docStore.GetDocumentByPath(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup document: %w", err)
	}

	if err := s.removeByID(ctx, doc.ID); err != nil {
		return err
	}

	s.invalidateResults(ctx)
	return nil
}

// Watch re-indexes notes as the vault changes until ctx is cancelled.
func (s *IndexService) Watch(ctx context.Context) error {
	events, err := s.vault.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch vault: %w", err)
	}

	logger.Info("Watching vault for changes")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, event)
		}
	}
}

// handleEvent applies one vault change. Failures are logged, not fatal:
// the watcher must outlive transient provider errors.
func (s *IndexService) handleEvent(ctx context.Context, event driven.VaultEvent) {
	switch event.Op {
	case driven.VaultOpWrite:
		doc, err := s.vault.Load(ctx, event.Path)
		if err != nil {
			logger.Warn("Failed to load changed note %s: %v", event.Path, err)
			return
		}
		if prev, err := s.docStore.GetDocumentByPath(ctx, event.Path); err == nil {
			doc.ID = prev.ID
			doc.CreatedAt = prev.CreatedAt
		}
		if _, err := s.IndexDocument(ctx, doc); err != nil {
			logger.Warn("Failed to re-index %s: %v", event.Path, err)
			return
		}
		logger.Info("Re-indexed %s", event.Path)

	case driven.VaultOpRemove:
		if err := s.RemoveDocument(ctx, event.Path); err != nil {
			logger.Warn("Failed to remove %s: %v", event.Path, err)
			return
		}
		logger.Info("Removed %s", event.Path)
	}
}

// runPipeline feeds the document through the post-processor chain.
func (s *IndexService) runPipeline(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	var err error

	for _, proc := range s.pipeline {
		chunks, err = proc.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", proc.Name(), err)
		}
	}

	return chunks, nil
}

// embedChunks fills in chunk embeddings with one batch call.
func (s *IndexService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embed batch returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}
	return nil
}

// removeByID deletes a document and scrubs its chunks from all indexes.
func (s *IndexService) removeByID(ctx context.Context, documentID string) error {
	chunkIDs, err := s.docStore.DeleteChunks(ctx, documentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete chunks: %w", err)
	}
	s.removeFromIndexes(ctx, chunkIDs)

	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// removeFromIndexes best-effort deletes chunk IDs from both indexes.
func (s *IndexService) removeFromIndexes(ctx context.Context, chunkIDs []string) {
	for _, id := range chunkIDs {
		if s.searchIndex != nil {
			if err := s.searchIndex.Delete(ctx, id); err != nil {
				logger.Warn("Failed to delete chunk %s from keyword index: %v", id, err)
			}
		}
		if s.vectorIndex != nil {
			if err := s.vectorIndex.Delete(ctx, id); err != nil {
				logger.Warn("Failed to delete chunk %s from vector index: %v", id, err)
			}
		}
	}
}

// invalidateResults clears the result cache after any index mutation.
func (s *IndexService) invalidateResults(ctx context.Context) {
	if s.resultCache != nil {
		s.resultCache.Clear(ctx)
	}
}

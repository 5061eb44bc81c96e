package mcp

import (
	"context"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

// mockNoteStore is a mock implementation of driven.DocumentStore
// covering the read surface the MCP resources use.
type mockNoteStore struct {
	docs     []domain.Document
	document *domain.Document
	err      error
}

func (m *mockNoteStore) SaveDocument(_ context.Context, _ *domain.Document) error { return m.err }

func (m *mockNoteStore) SaveChunks(_ context.Context, _ []domain.Chunk) error { return m.err }

func (m *mockNoteStore) DeleteChunks(_ context.Context, _ string) ([]string, error) {
	return nil, m.err
}

func (m *mockNoteStore) GetDocument(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockNoteStore) GetDocumentByPath(_ context.Context, path string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.document != nil && m.document.Path == path {
		return m.document, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockNoteStore) GetChunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, m.err
}

func (m *mockNoteStore) GetChunk(_ context.Context, _ string) (*domain.Chunk, error) {
	return nil, m.err
}

func (m *mockNoteStore) DeleteDocument(_ context.Context, _ string) error { return m.err }

func (m *mockNoteStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

package cli

import (
	"context"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driving"
)

// mockSearchService returns canned results.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context, _ string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

// mockIndexOrchestrator returns canned stats.
type mockIndexOrchestrator struct {
	stats     driving.IndexStats
	err       error
	lastForce bool
}

func (m *mockIndexOrchestrator) SyncVault(_ context.Context, force bool) (driving.IndexStats, error) {
	m.lastForce = force
	return m.stats, m.err
}

func (m *mockIndexOrchestrator) IndexDocument(_ context.Context, _ *domain.Document) (int, error) {
	return 0, m.err
}

func (m *mockIndexOrchestrator) RemoveDocument(_ context.Context, _ string) error {
	return m.err
}

func (m *mockIndexOrchestrator) Watch(_ context.Context) error {
	return m.err
}

// mockExpander returns a canned analysis.
type mockExpander struct {
	analysis *domain.QueryAnalysis
	err      error
}

func (m *mockExpander) Expand(
	_ context.Context, query string, strategy domain.ExpansionStrategy,
) (*domain.QueryAnalysis, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.analysis != nil {
		return m.analysis, nil
	}
	return &domain.QueryAnalysis{
		Original:   query,
		Expanded:   query,
		Strategy:   strategy,
		Confidence: 1.0,
	}, nil
}

// mockCacheAdmin records clears.
type mockCacheAdmin struct {
	stats   driving.CacheStats
	cleared bool
}

func (m *mockCacheAdmin) Stats() driving.CacheStats { return m.stats }

func (m *mockCacheAdmin) Clear(_ context.Context) { m.cleared = true }

// setupTestServices injects mocks into the package-level service
// handles and returns a cleanup restoring the previous state.
func setupTestServices() func() {
	oldSearch := searchService
	oldIndex := indexOrchestrator
	oldExpander := queryExpander
	oldCacheAdmin := cacheAdmin

	searchService = &mockSearchService{
		results: []domain.SearchResult{
			{
				Document: domain.Document{
					ID:    "doc-1",
					Path:  "ml/gradient.md",
					Title: "Gradient Descent",
				},
				Chunk:      domain.Chunk{Content: "Gradient descent minimises the loss."},
				Similarity: 0.9,
				FinalScore: 0.9,
				Highlights: []string{"Gradient descent minimises the loss."},
			},
		},
	}
	indexOrchestrator = &mockIndexOrchestrator{
		stats: driving.IndexStats{Scanned: 3, Indexed: 2, Skipped: 1, Chunks: 5},
	}
	queryExpander = &mockExpander{}
	cacheAdmin = &mockCacheAdmin{}

	return func() {
		searchService = oldSearch
		indexOrchestrator = oldIndex
		queryExpander = oldExpander
		cacheAdmin = oldCacheAdmin
	}
}

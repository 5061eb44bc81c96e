// Package bleve provides a full-text search engine adapter backed by
// Bleve, giving BM25 keyword scoring and fuzzy matching over note
// chunks.
package bleve

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.SearchEngine = (*Engine)(nil)

// chunkDoc is the shape Bleve indexes for each chunk.
type chunkDoc struct {
	Content string `json:"content"`
	Heading string `json:"heading"`
}

// Engine is a Bleve-backed keyword search engine. An empty path opens
// an in-memory index, used by tests and ephemeral sessions.
type Engine struct {
	index bleve.Index
}

// NewEngine opens (or creates) a Bleve index at path.
func NewEngine(path string) (*Engine, error) {
	mapping := bleve.NewIndexMapping()
	mapping.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()
	content := bleve.NewTextFieldMapping()
	docMapping.AddFieldMappingsAt("content", content)
	heading := bleve.NewTextFieldMapping()
	docMapping.AddFieldMappingsAt("heading", heading)
	mapping.DefaultMapping = docMapping

	if path == "" {
		index, err := bleve.NewMemOnly(mapping)
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &Engine{index: index}, nil
	}

	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(path, mapping)
	}
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	return &Engine{index: index}, nil
}

// Index adds or updates a chunk in the search index.
func (e *Engine) Index(_ context.Context, chunk domain.Chunk) error {
	if chunk.ID == "" {
		return domain.ErrInvalidInput
	}

	doc := chunkDoc{
		Content: chunk.Content,
		Heading: chunk.Heading,
	}
	if err := e.index.Index(chunk.ID, doc); err != nil {
		return fmt.Errorf("index chunk %s: %w", chunk.ID, err)
	}
	return nil
}

// Delete removes a chunk from the search index.
func (e *Engine) Delete(_ context.Context, chunkID string) error {
	if err := e.index.Delete(chunkID); err != nil {
		return fmt.Errorf("delete chunk %s: %w", chunkID, err)
	}
	return nil
}

// Search performs a keyword search and returns matching chunk IDs with
// BM25 scores.
func (e *Engine) Search(ctx context.Context, queryText string, limit int) ([]driven.SearchHit, error) {
	q := bleve.NewMatchQuery(queryText)
	q.SetField("content")
	return e.run(ctx, q, limit)
}

// SearchFuzzy performs an edit-distance tolerant keyword search. Each
// term becomes a fuzzy query with the given maximum edit distance,
// combined disjunctively.
func (e *Engine) SearchFuzzy(ctx context.Context, queryText string, limit, fuzziness int) ([]driven.SearchHit, error) {
	terms := strings.Fields(strings.ToLower(queryText))
	if len(terms) == 0 {
		return []driven.SearchHit{}, nil
	}

	queries := make([]query.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetField("content")
		fq.SetFuzziness(fuzziness)
		queries = append(queries, fq)
	}

	return e.run(ctx, bleve.NewDisjunctionQuery(queries...), limit)
}

// Close releases the index.
func (e *Engine) Close() error {
	return e.index.Close()
}

// run executes a query and converts the result to search hits.
func (e *Engine) run(ctx context.Context, q query.Query, limit int) ([]driven.SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit

	result, err := e.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchUnavailable, err)
	}

	hits := make([]driven.SearchHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, driven.SearchHit{
			ChunkID: hit.ID,
			Score:   hit.Score,
		})
	}
	return hits, nil
}

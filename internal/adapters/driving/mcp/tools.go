package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to find notes"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	Mode  string `json:"mode,omitempty" jsonschema:"search mode: semantic, keyword, hybrid, or fuzzy (default: best available)"`
	Tag   string `json:"tag,omitempty" jsonschema:"restrict results to notes carrying this tag"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	Path       string   `json:"path"`
	Title      string   `json:"title"`
	Heading    string   `json:"heading,omitempty"`
	Score      float64  `json:"score"`
	Highlights []string `json:"highlights,omitempty"`
	Content    string   `json:"content,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search across all indexed vault notes",
	}, s.handleSearch)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 5
	}

	opts := domain.SearchOptions{
		Limit: limit,
		Mode:  domain.SearchMode(input.Mode),
	}

	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	if input.Tag != "" {
		results = filterByTag(results, input.Tag)
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			Path:       results[i].Document.Path,
			Title:      results[i].Document.Title,
			Heading:    results[i].Chunk.Heading,
			Score:      results[i].FinalScore,
			Highlights: results[i].Highlights,
			Content:    results[i].Chunk.Content,
		}
	}

	return nil, output, nil
}

// filterByTag keeps results whose note carries the tag.
func filterByTag(results []domain.SearchResult, tag string) []domain.SearchResult {
	kept := results[:0]
	for _, res := range results {
		for _, t := range res.Document.Tags {
			if strings.EqualFold(t, tag) {
				kept = append(kept, res)
				break
			}
		}
	}
	return kept
}

package domain

// SearchMode selects the retrieval strategy.
type SearchMode string

// Available search modes.
const (
	// SearchModeKeyword uses BM25 full-text matching only.
	SearchModeKeyword SearchMode = "keyword"

	// SearchModeSemantic uses vector similarity only.
	SearchModeSemantic SearchMode = "semantic"

	// SearchModeHybrid blends vector similarity with keyword-match boosting.
	SearchModeHybrid SearchMode = "hybrid"

	// SearchModeFuzzy uses edit-distance tolerant keyword matching,
	// for queries that may contain typos.
	SearchModeFuzzy SearchMode = "fuzzy"
)

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeKeyword:
		return "keyword (BM25)"
	case SearchModeSemantic:
		return "semantic (vector similarity)"
	case SearchModeHybrid:
		return "hybrid (vector + keyword blend)"
	case SearchModeFuzzy:
		return "fuzzy (typo-tolerant keyword)"
	default:
		return string(m)
	}
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results (n_results).
	Limit int

	// Offset is the number of results to skip.
	Offset int

	// Mode selects the retrieval strategy. Empty selects the best
	// available mode for the configured services.
	Mode SearchMode

	// Filter restricts results by chunk metadata. Nil means no filter.
	Filter *Filter

	// MinSimilarity drops semantic results below this cosine similarity.
	// Zero disables the floor.
	MinSimilarity float64

	// Expand selects the query expansion strategy applied before retrieval.
	Expand ExpansionStrategy

	// Rerank enables cross-encoder re-ranking of the top candidates.
	Rerank bool
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// Document is the matched document.
	Document Document

	// Chunk is the specific chunk that matched.
	Chunk Chunk

	// Similarity is the retrieval score. For semantic and hybrid modes
	// this is in the cosine range [-1, 1]; for keyword mode it is the
	// BM25 score normalised to [0, 1].
	Similarity float64

	// RerankScore is the cross-encoder relevance score, set only when
	// re-ranking ran. Bounded to [0, 1].
	RerankScore float64

	// FinalScore is the blended ranking score. Without re-ranking it
	// equals Similarity.
	FinalScore float64

	// Reranked reports whether the cross-encoder scored this result.
	Reranked bool

	// Highlights contains snippets with matched terms.
	Highlights []string

	// Analysis records how the query was expanded, for observability.
	// Shared across all results of one search.
	Analysis *QueryAnalysis
}

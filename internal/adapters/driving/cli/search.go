package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

var (
	searchLimit   int
	searchOffset  int
	searchMode    string
	searchJSON    bool
	searchFilters []string
	searchRerank  bool
	searchExpand  string
	searchMinSim  float64
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed notes",
	Long: `Searches the indexed vault. Hybrid mode blends semantic (vector)
similarity with keyword (BM25) matching; semantic, keyword, and fuzzy
modes are also available. Results can be filtered by chunk metadata,
expanded before retrieval, and re-ranked with a cross-encoder.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of results")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "number of results to skip")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "",
		"search mode: semantic, keyword, hybrid, fuzzy (default: best available)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringArrayVarP(&searchFilters, "filter", "f", nil,
		"metadata filter, e.g. topic=ml or words>=100 (repeatable, ANDed)")
	searchCmd.Flags().BoolVarP(&searchRerank, "rerank", "r", false,
		"re-rank top candidates with the cross-encoder")
	searchCmd.Flags().StringVarP(&searchExpand, "expand", "e", "",
		"query expansion strategy: rules, llm, hybrid")
	searchCmd.Flags().Float64Var(&searchMinSim, "min-similarity", 0,
		"drop semantic results below this cosine similarity")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if err := initServices(); err != nil {
		return err
	}

	filter, err := parseFilters(searchFilters)
	if err != nil {
		return err
	}

	opts := domain.SearchOptions{
		Limit:         searchLimit,
		Offset:        searchOffset,
		Mode:          domain.SearchMode(searchMode),
		Filter:        filter,
		MinSimilarity: searchMinSim,
		Expand:        domain.ExpansionStrategy(searchExpand),
		Rerank:        searchRerank,
	}

	results, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchStyled(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// Result rendering styles.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	headingStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("12"))
	snippetStyle = lipgloss.NewStyle().PaddingLeft(6)
)

func outputSearchStyled(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	if analysis := results[0].Analysis; analysis != nil && analysis.Expanded != analysis.Original {
		cmd.Printf("Query expanded (%s, %.0f%%): %s\n\n",
			analysis.Strategy, analysis.Confidence*100, analysis.Expanded)
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		res := &results[i]

		title := res.Document.Title
		if title == "" {
			title = res.Document.Path
		}

		score := fmt.Sprintf("%.2f", res.FinalScore)
		if res.Reranked {
			score += fmt.Sprintf(" (sim %.2f, rerank %.2f)", res.Similarity, res.RerankScore)
		}

		cmd.Printf("  [%d] %s  %s\n", i+1, titleStyle.Render(title), scoreStyle.Render(score))
		cmd.Printf("      %s", pathStyle.Render(res.Document.Path))
		if res.Chunk.Heading != "" {
			cmd.Printf("  %s", headingStyle.Render("§ "+res.Chunk.Heading))
		}
		cmd.Println()

		if len(res.Highlights) > 0 {
			cmd.Println(snippetStyle.Render(res.Highlights[0]))
		}
		cmd.Println()
	}

	return nil
}

// filterOps in match order: two-character operators first so ">=" is
// not read as ">" with a value starting in "=".
var filterOps = []struct {
	token string
	op    domain.FilterOp
}{
	{">=", domain.OpGte},
	{"<=", domain.OpLte},
	{"!=", domain.OpNe},
	{">", domain.OpGt},
	{"<", domain.OpLt},
	{"=", domain.OpEq},
}

// parseFilters builds a metadata filter from key<op>value expressions.
// Multiple expressions are ANDed.
func parseFilters(exprs []string) (*domain.Filter, error) {
	if len(exprs) == 0 {
		return nil, nil
	}

	filters := make([]*domain.Filter, 0, len(exprs))
	for _, expr := range exprs {
		filter, err := parseFilterExpr(expr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, filter)
	}

	if len(filters) == 1 {
		return filters[0], nil
	}
	return domain.And(filters...), nil
}

func parseFilterExpr(expr string) (*domain.Filter, error) {
	for _, candidate := range filterOps {
		idx := strings.Index(expr, candidate.token)
		if idx <= 0 {
			continue
		}

		key := strings.TrimSpace(expr[:idx])
		raw := strings.TrimSpace(expr[idx+len(candidate.token):])
		if key == "" || raw == "" {
			break
		}

		return &domain.Filter{
			Op:    candidate.op,
			Key:   key,
			Value: coerceFilterValue(raw),
		}, nil
	}

	return nil, fmt.Errorf("%w: invalid filter %q (want key=value)", domain.ErrInvalidInput, expr)
}

// coerceFilterValue interprets numbers and booleans so range filters
// compare numerically.
func coerceFilterValue(raw string) any {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

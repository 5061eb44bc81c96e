package eval

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driving"
	"github.com/vaultscout/vaultscout/internal/logger"
)

// DefaultK is the ranking depth metrics are computed at.
const DefaultK = 5

// Case is one golden query with its relevant note paths.
type Case struct {
	// Query is the search query to run.
	Query string `yaml:"query"`

	// Relevant lists the vault-relative paths of notes that should be
	// retrieved for this query.
	Relevant []string `yaml:"relevant"`

	// Mode optionally overrides the search mode for this case.
	Mode domain.SearchMode `yaml:"mode,omitempty"`

	// Rerank enables cross-encoder re-ranking for this case.
	Rerank bool `yaml:"rerank,omitempty"`
}

// QueryReport holds per-query metric values.
type QueryReport struct {
	Query     string
	Precision float64
	Recall    float64
	RR        float64
	NDCG      float64
	Retrieved int
}

// Report aggregates metrics across a query set. Aggregate values are
// arithmetic means over the cases.
type Report struct {
	Cases     int
	K         int
	Precision float64
	Recall    float64
	MRR       float64
	NDCG      float64
	PerQuery  []QueryReport
}

// Runner executes a golden query set against a search service.
type Runner struct {
	search driving.SearchService
	k      int
}

// NewRunner creates a benchmark runner measuring at depth k.
// A non-positive k uses DefaultK.
func NewRunner(search driving.SearchService, k int) *Runner {
	if k <= 0 {
		k = DefaultK
	}
	return &Runner{search: search, k: k}
}

// Run executes every case and aggregates the metrics.
func (r *Runner) Run(ctx context.Context, cases []Case) (*Report, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("%w: no evaluation cases", domain.ErrInvalidInput)
	}

	report := &Report{
		Cases:    len(cases),
		K:        r.k,
		PerQuery: make([]QueryReport, 0, len(cases)),
	}

	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		results, err := r.search.Search(ctx, c.Query, domain.SearchOptions{
			Limit:  r.k,
			Mode:   c.Mode,
			Rerank: c.Rerank,
		})
		if err != nil {
			return nil, fmt.Errorf("evaluate %q: %w", c.Query, err)
		}

		ranked := rankedPaths(results)
		relevant := toSet(c.Relevant)

		qr := QueryReport{
			Query:     c.Query,
			Precision: PrecisionAtK(ranked, relevant, r.k),
			Recall:    RecallAtK(ranked, relevant, r.k),
			RR:        ReciprocalRank(ranked, relevant),
			NDCG:      NDCGAtK(ranked, relevant, r.k),
			Retrieved: len(results),
		}
		report.PerQuery = append(report.PerQuery, qr)

		report.Precision += qr.Precision
		report.Recall += qr.Recall
		report.MRR += qr.RR
		report.NDCG += qr.NDCG

		logger.Debug("eval: %q p@%d=%.2f rr=%.2f ndcg=%.2f",
			c.Query, r.k, qr.Precision, qr.RR, qr.NDCG)
	}

	n := float64(len(cases))
	report.Precision /= n
	report.Recall /= n
	report.MRR /= n
	report.NDCG /= n

	return report, nil
}

// rankedPaths reduces results to their note paths, deduplicated in rank
// order. Multiple chunks of the same note count once, at the best rank.
func rankedPaths(results []domain.SearchResult) []string {
	seen := make(map[string]bool, len(results))
	paths := make([]string, 0, len(results))
	for _, res := range results {
		path := res.Document.Path
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		paths = append(paths, path)
	}
	return paths
}

// LoadCases reads a golden query set from a YAML file.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query set: %w", err)
	}

	var cases []Case
	if err := yaml.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parse query set: %w", err)
	}

	for i, c := range cases {
		if c.Query == "" {
			return nil, fmt.Errorf("%w: case %d has no query", domain.ErrInvalidInput, i)
		}
	}

	return cases, nil
}

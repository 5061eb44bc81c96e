package driven

import "context"

// CrossEncoder scores (query, passage) pairs jointly. It is slower but
// more precise than independent embedding similarity and is used to
// re-rank the top retrieval candidates.
//
// This is an optional service - when nil or unreachable, search falls
// back to similarity-ordered results.
type CrossEncoder interface {
	// Score returns a relevance score for one (query, passage) pair,
	// normalised to [0, 1].
	Score(ctx context.Context, query, passage string) (float64, error)

	// ScoreBatch scores the query against multiple passages. The result
	// is index-aligned with passages.
	ScoreBatch(ctx context.Context, query string, passages []string) ([]float64, error)

	// ModelName returns the cross-encoder model name.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

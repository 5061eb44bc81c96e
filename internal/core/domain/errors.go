package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector/semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSearchUnavailable indicates the keyword search engine is not configured.
	ErrSearchUnavailable = errors.New("search engine unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	// Semantic similarity search is disabled.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Features requiring it (LLM query expansion) are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrRerankerUnavailable indicates the cross-encoder is not configured.
	// Search degrades to similarity-ordered results.
	ErrRerankerUnavailable = errors.New("cross-encoder unavailable")

	// ErrVaultNotFound indicates the configured vault directory does not exist.
	ErrVaultNotFound = errors.New("vault directory not found")

	// ErrSyncInProgress indicates a vault sync is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrDimensionMismatch indicates a vector's dimensionality does not
	// match the index configuration.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrRateLimited indicates a provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

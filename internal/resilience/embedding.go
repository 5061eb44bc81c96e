// Package resilience wraps embedding providers with retry and rate
// limiting so transient provider failures do not surface as search or
// indexing errors.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
	"github.com/vaultscout/vaultscout/internal/logger"
)

// Ensure Embedder implements the interface.
var _ driven.EmbeddingService = (*Embedder)(nil)

// Retry defaults, tuned for local inference servers that briefly refuse
// connections while loading a model.
const (
	DefaultAttempts = 3
	DefaultDelay    = 200 * time.Millisecond
)

// Config tunes the resilient wrapper.
type Config struct {
	// Attempts is the total number of tries per call.
	Attempts uint

	// Delay is the base backoff delay. Backoff doubles per attempt.
	Delay time.Duration

	// RequestsPerSecond caps the provider call rate. Zero disables the
	// limiter.
	RequestsPerSecond float64

	// Burst is the limiter burst size. Defaults to 1 when limiting.
	Burst int
}

// Embedder decorates an EmbeddingService with bounded retries and a
// client-side rate limit. Retries apply only to transient failures;
// invalid input and dimension mismatches fail immediately.
type Embedder struct {
	inner    driven.EmbeddingService
	attempts uint
	delay    time.Duration
	limiter  *rate.Limiter
}

// NewEmbedder wraps an embedding service.
func NewEmbedder(inner driven.EmbeddingService, cfg Config) *Embedder {
	if cfg.Attempts == 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Embedder{
		inner:    inner,
		attempts: cfg.Attempts,
		delay:    cfg.Delay,
		limiter:  limiter,
	}
}

// Embed generates an embedding, retrying transient failures.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := e.do(ctx, func() error {
		var err error
		vec, err = e.inner.Embed(ctx, text)
		return err
	})
	return vec, err
}

// EmbedBatch generates embeddings for multiple texts, retrying the whole
// batch on transient failures.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := e.do(ctx, func() error {
		var err error
		vecs, err = e.inner.EmbedBatch(ctx, texts)
		return err
	})
	return vecs, err
}

// Dimensions returns the wrapped service's embedding size.
func (e *Embedder) Dimensions() int { return e.inner.Dimensions() }

// ModelName returns the wrapped service's model name.
func (e *Embedder) ModelName() string { return e.inner.ModelName() }

// Ping checks the wrapped service once, without retries.
func (e *Embedder) Ping(ctx context.Context) error { return e.inner.Ping(ctx) }

// Close releases the wrapped service.
func (e *Embedder) Close() error { return e.inner.Close() }

// do runs fn through the limiter and retry policy.
func (e *Embedder) do(ctx context.Context, fn func() error) error {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(e.attempts),
		retry.Delay(e.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Embedding call failed (attempt %d/%d): %v", n+1, e.attempts, err)
		}),
	)
}

// retryable reports whether an error is worth another attempt.
// Permanent errors (bad input, wrong dimensions, cancelled context) are
// not.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrDimensionMismatch):
		return false
	}
	return true
}

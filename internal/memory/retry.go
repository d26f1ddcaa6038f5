package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	memexErrors "github.com/cadre-oss/memex/internal/errors"
)

// RetryConfig controls retry behavior.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFraction float64
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     20 * time.Second,
		JitterFraction: 0.2,
	}
}

// RetryService wraps a Service with automatic retry for transient errors.
type RetryService struct {
	inner  Service
	config RetryConfig
}

// NewRetryService creates a RetryService wrapping inner.
func NewRetryService(inner Service, cfg RetryConfig) *RetryService {
	return &RetryService{inner: inner, config: cfg}
}

func (r *RetryService) ListMemories(ctx context.Context, maxResults int) ([]MemorySummary, error) {
	return retry(ctx, r, func() ([]MemorySummary, error) {
		return r.inner.ListMemories(ctx, maxResults)
	})
}

func (r *RetryService) GetMemory(ctx context.Context, memoryID string) (*Memory, error) {
	return retry(ctx, r, func() (*Memory, error) {
		return r.inner.GetMemory(ctx, memoryID)
	})
}

func (r *RetryService) ListActors(ctx context.Context, memoryID string) ([]Actor, error) {
	return retry(ctx, r, func() ([]Actor, error) {
		return r.inner.ListActors(ctx, memoryID)
	})
}

func (r *RetryService) ListRecords(ctx context.Context, memoryID string, q ListQuery) ([]Record, error) {
	return retry(ctx, r, func() ([]Record, error) {
		return r.inner.ListRecords(ctx, memoryID, q)
	})
}

func (r *RetryService) SearchRecords(ctx context.Context, memoryID string, q SearchQuery) ([]Record, error) {
	return retry(ctx, r, func() ([]Record, error) {
		return r.inner.SearchRecords(ctx, memoryID, q)
	})
}

func retry[T any](ctx context.Context, r *RetryService, call func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		resp, err := call()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !r.isRetryable(err) {
			return zero, err
		}

		if attempt == r.config.MaxRetries {
			break
		}

		delay := r.backoff(attempt)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
	return zero, fmt.Errorf("max retries (%d) exceeded: %w", r.config.MaxRetries, lastErr)
}

// isRetryable determines whether an error should be retried.
func (r *RetryService) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are never retryable.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return memexErrors.Retryable(err)
}

// backoff calculates the delay for a given attempt using exponential backoff with jitter.
func (r *RetryService) backoff(attempt int) time.Duration {
	base := float64(r.config.InitialBackoff) * math.Pow(2, float64(attempt))
	if base > float64(r.config.MaxBackoff) {
		base = float64(r.config.MaxBackoff)
	}

	jitter := base * r.config.JitterFraction * (rand.Float64()*2 - 1) // ±jitter
	delay := time.Duration(base + jitter)
	if delay < 0 {
		delay = 0
	}
	return delay
}

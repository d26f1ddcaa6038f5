// Package memory is the client side of the managed memory service: the
// Service interface, an AgentCore-backed implementation, and decorators
// for retry, rate limiting and instrumentation.
package memory

import (
	"context"

	"github.com/cadre-oss/memex/internal/telemetry"
)

// Service is the remote memory service as seen by memex.
type Service interface {
	// ListMemories returns up to maxResults memory resources in the account.
	ListMemories(ctx context.Context, maxResults int) ([]MemorySummary, error)
	// GetMemory returns a memory resource with its strategies.
	GetMemory(ctx context.Context, memoryID string) (*Memory, error)
	// ListActors returns every actor known to a memory.
	ListActors(ctx context.Context, memoryID string) ([]Actor, error)
	// ListRecords returns records stored under a namespace prefix.
	ListRecords(ctx context.Context, memoryID string, q ListQuery) ([]Record, error)
	// SearchRecords runs a semantic search under a namespace prefix.
	SearchRecords(ctx context.Context, memoryID string, q SearchQuery) ([]Record, error)
}

// StackOptions configures the standard decorator stack.
type StackOptions struct {
	Retry             RetryConfig
	RequestsPerSecond float64
	Burst             int
	Metrics           *telemetry.Metrics
	Logger            *telemetry.Logger
}

// Stack wraps inner so that each call is retried on transient errors, each
// attempt waits for the rate limiter, and each attempt is instrumented.
func Stack(inner Service, opts StackOptions) Service {
	var svc Service = NewInstrumentedService(inner, opts.Metrics, opts.Logger)
	svc = NewRateLimitedService(svc, opts.RequestsPerSecond, opts.Burst)
	return NewRetryService(svc, opts.Retry)
}

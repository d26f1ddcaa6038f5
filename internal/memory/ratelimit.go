package memory

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedService holds every call until the token bucket allows it.
type RateLimitedService struct {
	inner   Service
	limiter *rate.Limiter
}

// NewRateLimitedService allows rps calls per second with the given burst.
// A non-positive rps disables limiting.
func NewRateLimitedService(inner Service, rps float64, burst int) *RateLimitedService {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedService{inner: inner, limiter: rate.NewLimiter(limit, burst)}
}

func (s *RateLimitedService) ListMemories(ctx context.Context, maxResults int) ([]MemorySummary, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.ListMemories(ctx, maxResults)
}

func (s *RateLimitedService) GetMemory(ctx context.Context, memoryID string) (*Memory, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.GetMemory(ctx, memoryID)
}

func (s *RateLimitedService) ListActors(ctx context.Context, memoryID string) ([]Actor, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.ListActors(ctx, memoryID)
}

func (s *RateLimitedService) ListRecords(ctx context.Context, memoryID string, q ListQuery) ([]Record, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.ListRecords(ctx, memoryID, q)
}

func (s *RateLimitedService) SearchRecords(ctx context.Context, memoryID string, q SearchQuery) ([]Record, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.SearchRecords(ctx, memoryID, q)
}

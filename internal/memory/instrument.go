package memory

import (
	"context"
	"time"

	memexErrors "github.com/cadre-oss/memex/internal/errors"
	"github.com/cadre-oss/memex/internal/telemetry"
)

// InstrumentedService counts and times every call into the inner Service.
type InstrumentedService struct {
	inner   Service
	metrics *telemetry.Metrics
	logger  *telemetry.Logger
}

// NewInstrumentedService wraps inner. Either metrics or logger may be nil.
func NewInstrumentedService(inner Service, metrics *telemetry.Metrics, logger *telemetry.Logger) *InstrumentedService {
	return &InstrumentedService{inner: inner, metrics: metrics, logger: logger}
}

func (s *InstrumentedService) observe(ctx context.Context, op string, start time.Time, err error, keyvals ...interface{}) {
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.IncAPIRequests()
		s.metrics.RecordAPILatency(elapsed)
		if err != nil {
			s.metrics.IncAPIErrors()
		}
	}
	if s.logger == nil {
		return
	}

	args := append([]interface{}{"op", op, "elapsed", elapsed}, keyvals...)
	logger := s.logger.WithTrace(ctx)
	if err != nil {
		args = append(args, "code", memexErrors.AsCode(err), "error", err)
		logger.Debug("memory service call failed", args...)
		return
	}
	logger.Debug("memory service call", args...)
}

func (s *InstrumentedService) ListMemories(ctx context.Context, maxResults int) ([]MemorySummary, error) {
	start := time.Now()
	out, err := s.inner.ListMemories(ctx, maxResults)
	s.observe(ctx, "ListMemories", start, err, "count", len(out))
	return out, err
}

func (s *InstrumentedService) GetMemory(ctx context.Context, memoryID string) (*Memory, error) {
	start := time.Now()
	out, err := s.inner.GetMemory(ctx, memoryID)
	s.observe(ctx, "GetMemory", start, err, "memory_id", memoryID)
	return out, err
}

func (s *InstrumentedService) ListActors(ctx context.Context, memoryID string) ([]Actor, error) {
	start := time.Now()
	out, err := s.inner.ListActors(ctx, memoryID)
	s.observe(ctx, "ListActors", start, err, "memory_id", memoryID, "count", len(out))
	return out, err
}

func (s *InstrumentedService) ListRecords(ctx context.Context, memoryID string, q ListQuery) ([]Record, error) {
	start := time.Now()
	out, err := s.inner.ListRecords(ctx, memoryID, q)
	s.observe(ctx, "ListMemoryRecords", start, err, "namespace", q.NamespacePrefix, "count", len(out))
	return out, err
}

func (s *InstrumentedService) SearchRecords(ctx context.Context, memoryID string, q SearchQuery) ([]Record, error) {
	start := time.Now()
	out, err := s.inner.SearchRecords(ctx, memoryID, q)
	s.observe(ctx, "RetrieveMemoryRecords", start, err, "namespace", q.NamespacePrefix, "query", q.Query, "count", len(out))
	return out, err
}

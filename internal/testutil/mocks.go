package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cadre-oss/memex/internal/config"
	memexErrors "github.com/cadre-oss/memex/internal/errors"
	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/telemetry"
)

// Call records one request made against a FakeService.
type Call struct {
	Op        string
	MemoryID  string
	Namespace string
	Query     string
}

// FakeService implements memory.Service for testing. Records and search
// results are keyed by namespace prefix; search results additionally by
// query.
type FakeService struct {
	mu sync.Mutex

	Memories      []memory.MemorySummary
	MemoryDetails map[string]*memory.Memory
	Actors        []memory.Actor
	Records       map[string][]memory.Record
	SearchResults map[string]map[string][]memory.Record

	ListMemoriesErr error
	GetMemoryErr    error
	ActorsErr       error
	NamespaceErrs   map[string]error // ListRecords failures by namespace
	SearchErrs      map[string]error // SearchRecords failures by namespace
	Delay           time.Duration

	Calls []Call
}

// NewFakeService returns an empty fake with all maps initialised.
func NewFakeService() *FakeService {
	return &FakeService{
		MemoryDetails: make(map[string]*memory.Memory),
		Records:       make(map[string][]memory.Record),
		SearchResults: make(map[string]map[string][]memory.Record),
		NamespaceErrs: make(map[string]error),
		SearchErrs:    make(map[string]error),
	}
}

// AddMemory registers a memory resource and lists it.
func (f *FakeService) AddMemory(m *memory.Memory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MemoryDetails[m.ID] = m
	f.Memories = append(f.Memories, memory.MemorySummary{
		ID:     m.ID,
		ARN:    m.ARN,
		Name:   m.Name,
		Status: m.Status,
	})
}

// AddSearchResult registers records returned for query under namespace.
func (f *FakeService) AddSearchResult(namespace, query string, records ...memory.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SearchResults[namespace] == nil {
		f.SearchResults[namespace] = make(map[string][]memory.Record)
	}
	f.SearchResults[namespace][query] = records
}

func (f *FakeService) record(ctx context.Context, c Call) error {
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	f.Calls = append(f.Calls, c)
	f.mu.Unlock()
	return ctx.Err()
}

func (f *FakeService) ListMemories(ctx context.Context, maxResults int) ([]memory.MemorySummary, error) {
	if err := f.record(ctx, Call{Op: "ListMemories"}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListMemoriesErr != nil {
		return nil, f.ListMemoriesErr
	}
	out := append([]memory.MemorySummary(nil), f.Memories...)
	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

func (f *FakeService) GetMemory(ctx context.Context, memoryID string) (*memory.Memory, error) {
	if err := f.record(ctx, Call{Op: "GetMemory", MemoryID: memoryID}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetMemoryErr != nil {
		return nil, f.GetMemoryErr
	}
	m, ok := f.MemoryDetails[memoryID]
	if !ok {
		return nil, memexErrors.New(memexErrors.CodeMemoryNotFound, "memory not found: "+memoryID)
	}
	cp := *m
	return &cp, nil
}

func (f *FakeService) ListActors(ctx context.Context, memoryID string) ([]memory.Actor, error) {
	if err := f.record(ctx, Call{Op: "ListActors", MemoryID: memoryID}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ActorsErr != nil {
		return nil, f.ActorsErr
	}
	return append([]memory.Actor(nil), f.Actors...), nil
}

func (f *FakeService) ListRecords(ctx context.Context, memoryID string, q memory.ListQuery) ([]memory.Record, error) {
	if err := f.record(ctx, Call{Op: "ListRecords", MemoryID: memoryID, Namespace: q.NamespacePrefix}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.NamespaceErrs[q.NamespacePrefix]; err != nil {
		return nil, err
	}
	out := append([]memory.Record(nil), f.Records[q.NamespacePrefix]...)
	if q.MaxResults > 0 && len(out) > q.MaxResults {
		out = out[:q.MaxResults]
	}
	return out, nil
}

func (f *FakeService) SearchRecords(ctx context.Context, memoryID string, q memory.SearchQuery) ([]memory.Record, error) {
	if err := f.record(ctx, Call{Op: "SearchRecords", MemoryID: memoryID, Namespace: q.NamespacePrefix, Query: q.Query}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.SearchErrs[q.NamespacePrefix]; err != nil {
		return nil, err
	}
	out := append([]memory.Record(nil), f.SearchResults[q.NamespacePrefix][q.Query]...)
	if q.TopK > 0 && len(out) > q.TopK {
		out = out[:q.TopK]
	}
	return out, nil
}

// CallsFor returns the recorded calls for op, in call order.
func (f *FakeService) CallsFor(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// QueriedNamespaces returns the sorted set of namespaces passed to ListRecords.
func (f *FakeService) QueriedNamespaces() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range f.CallsFor("ListRecords") {
		if !seen[c.Namespace] {
			seen[c.Namespace] = true
			out = append(out, c.Namespace)
		}
	}
	sort.Strings(out)
	return out
}

// CallCount returns the total number of calls made.
func (f *FakeService) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// TestLogger returns a logger suitable for tests (verbose, no output).
func TestLogger() *telemetry.Logger {
	return telemetry.Discard()
}

// TestConfig returns a minimal config for testing.
func TestConfig() *config.Config {
	cfg := config.Default()
	cfg.AWS.Region = "us-east-1"
	cfg.Defaults.MaxRetries = 1
	cfg.Defaults.RequestsPerSecond = 0
	cfg.Logging.Level = "debug"
	cfg.State.Driver = "memory"
	cfg.State.Path = ""
	return cfg
}

// Score returns a pointer to s for building search results.
func Score(s float64) *float64 {
	return &s
}

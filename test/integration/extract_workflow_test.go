//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cadre-oss/memex/internal/config"
	memexErrors "github.com/cadre-oss/memex/internal/errors"
	"github.com/cadre-oss/memex/internal/event"
	"github.com/cadre-oss/memex/internal/extract"
	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/testutil"
)

// flakyOnce fails the first ListRecords call of each namespace with a
// throttling error.
type flakyOnce struct {
	memory.Service

	mu   sync.Mutex
	seen map[string]bool
}

func (f *flakyOnce) ListRecords(ctx context.Context, memoryID string, q memory.ListQuery) ([]memory.Record, error) {
	f.mu.Lock()
	first := !f.seen[q.NamespacePrefix]
	f.seen[q.NamespacePrefix] = true
	f.mu.Unlock()

	if first {
		return nil, memexErrors.New(memexErrors.CodeThrottled, "rate exceeded")
	}
	return f.Service.ListRecords(ctx, memoryID, q)
}

func TestExtractThroughDecoratorStack(t *testing.T) {
	h := testutil.NewTestHarness(t)
	h.SeedSupportMemory("mem-1")
	h.Service.Records["/facts/cust-2/facts-1"] = []memory.Record{{ID: "r1", Content: "lives in Porto"}}

	retry := memory.DefaultRetryConfig()
	retry.InitialBackoff = 1
	retry.MaxBackoff = 1
	svc := memory.Stack(&flakyOnce{Service: h.Service, seen: map[string]bool{}}, memory.StackOptions{
		Retry:   retry,
		Metrics: h.Metrics,
		Logger:  h.Logger,
	})

	opts := extract.OptionsFromConfig(h.Config)
	opts.MemoryID = "mem-1"
	report, err := extract.New(svc, extract.WithMetrics(h.Metrics), extract.WithLogger(h.Logger)).Run(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}

	if len(report.FailedNamespaces()) != 0 {
		t.Errorf("expected throttled namespaces to succeed on retry, got %+v", report.FailedNamespaces())
	}
	if report.TotalRecords != 1 {
		t.Errorf("expected 1 record, got %d", report.TotalRecords)
	}

	summary := h.Metrics.GetSummary()
	if summary["api_errors"].(int64) != 6 {
		t.Errorf("expected one throttled attempt per namespace, got %v", summary["api_errors"])
	}
}

func TestExtractDeliversWebhookEvents(t *testing.T) {
	var (
		mu    sync.Mutex
		types []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev event.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err == nil {
			mu.Lock()
			types = append(types, string(ev.Type))
			mu.Unlock()
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := testutil.NewTestHarness(t)
	h.SeedSupportMemory("mem-1")

	bus, err := event.BuildBus(config.HooksConfig{
		Enabled: true,
		Hooks: []config.HookConfig{{
			Name:     "audit",
			Type:     "webhook",
			URL:      srv.URL,
			Events:   []string{string(event.ExtractStarted), string(event.ExtractCompleted)},
			Blocking: true,
		}},
	}, h.Logger)
	if err != nil {
		t.Fatal(err)
	}

	opts := extract.OptionsFromConfig(h.Config)
	opts.MemoryID = "mem-1"
	opts.Search = false
	if _, err := extract.New(h.Service, extract.WithEventBus(bus), extract.WithLogger(h.Logger)).Run(context.Background(), opts); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(types) != 2 || types[0] != string(event.ExtractStarted) || types[1] != string(event.ExtractCompleted) {
		t.Errorf("expected started then completed, got %v", types)
	}
}

func TestExtractUnknownMemory(t *testing.T) {
	h := testutil.NewTestHarness(t)

	opts := extract.OptionsFromConfig(h.Config)
	opts.MemoryID = "mem-missing"
	_, err := extract.New(h.Service).Run(context.Background(), opts)

	var me *memexErrors.MemexError
	if !errors.As(err, &me) || me.Code != memexErrors.CodeMemoryNotFound {
		t.Fatalf("expected MEMORY_NOT_FOUND, got %v", err)
	}
}

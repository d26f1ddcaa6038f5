package render

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadre-oss/memex/internal/extract"
	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/namespace"
	"github.com/cadre-oss/memex/internal/state"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "no limit", Truncate("no limit", 0))
	// Cuts on runes, not bytes.
	assert.Equal(t, "héé...", Truncate("hééllo", 3))
}

func TestPrinter_Memories(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 0)

	p.Memories(nil)
	assert.Contains(t, buf.String(), "No memories found.")

	buf.Reset()
	p.Memories([]memory.MemorySummary{
		{ID: "mem-1", Name: "support", Status: "ACTIVE"},
		{ID: "mem-2", Status: "CREATING"},
	})
	out := buf.String()
	assert.Contains(t, out, "mem-1")
	assert.Contains(t, out, "CREATING")
	assert.Contains(t, out, "STATUS")
}

func TestPrinter_RecordsTruncatesAndScores(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 10)

	score := 0.12345
	p.Records("SEARCH", []memory.Record{
		{ID: "r1", Content: "the customer prefers window seats", Score: &score},
		{ID: "r2", Content: "short"},
	})

	out := buf.String()
	assert.Contains(t, out, "SEARCH (2 records)")
	assert.Contains(t, out, "the custom...")
	assert.NotContains(t, out, "window seats")
	assert.Contains(t, out, "Score: 0.123")
	assert.Contains(t, out, "Content:      short\n")
}

func TestPrinter_RecordsEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, 0).Records("NAMESPACE /facts", nil)
	assert.Contains(t, buf.String(), "No memory records found.")
}

func sampleReport() *extract.Report {
	return &extract.Report{
		MemoryID: "mem-1",
		Memory: &memory.Memory{
			ID:     "mem-1",
			Name:   "support",
			Status: "ACTIVE",
			Strategies: []memory.Strategy{
				{StrategyID: "s1", Name: "facts", Type: "SEMANTIC", Status: "ACTIVE", Namespaces: []string{"/facts/{actorId}"}},
			},
		},
		Actors:    []memory.Actor{{ActorID: "cust-1"}},
		Templates: []string{"/facts/{actorId}", "{sessionId}"},
		Resolution: &namespace.Resolution{
			Namespaces: []string{"/facts/cust-1"},
			Templates: []namespace.TemplateResult{
				{Template: "/facts/{actorId}", Outcome: namespace.OutcomeSubstituted, Namespaces: []string{"/facts/cust-1"}},
				{Template: "{sessionId}", Outcome: namespace.OutcomeUnresolved},
			},
		},
		Namespaces: []extract.NamespaceResult{
			{Namespace: "/facts/cust-1", Source: extract.SourceList, Records: []memory.Record{{ID: "r1", Content: "likes tea"}}},
			{Namespace: "/facts/cust-2", Source: extract.SourceList, Error: "[THROTTLED] slow down"},
		},
		TotalRecords: 1,
		Tips:         []string{"Listing failed for 1 namespace(s): /facts/cust-2. Re-run with --verbose for details"},
	}
}

func TestPrinter_Report(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, 500).Report(sampleReport())
	out := buf.String()

	assert.Contains(t, out, "AGENTCORE MEMORY SUMMARY")
	assert.Contains(t, out, "cust-1")
	assert.Contains(t, out, "substituted")
	assert.Contains(t, out, "Templates that resolved to nothing:")
	assert.Contains(t, out, "NAMESPACE /facts/cust-1 (1 records)")
	assert.Contains(t, out, "Namespace /facts/cust-2: failed: [THROTTLED] slow down")
	assert.Contains(t, out, "Total Records Found:   1")
	assert.Contains(t, out, "Troubleshooting:")
}

func TestPrinter_ReportSuccess(t *testing.T) {
	r := sampleReport()
	r.Namespaces = r.Namespaces[:1]
	r.Tips = nil

	var buf bytes.Buffer
	NewPrinter(&buf, 0).Summary(r)
	assert.Contains(t, buf.String(), "Successfully extracted 1 memory records.")
}

func TestPrinter_Runs(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []*state.RunState{
		{
			ID: "run-1", MemoryID: "mem-1", Status: state.StatusCompleted,
			StartedAt: start, CompletedAt: start.Add(1500 * time.Millisecond),
			Namespaces: []state.NamespaceState{{Namespace: "/facts", Records: []memory.Record{{ID: "r1"}, {ID: "r2"}}}},
		},
		{ID: "run-2", MemoryID: "mem-1", Status: state.StatusRunning, StartedAt: start},
	}

	var buf bytes.Buffer
	p := NewPrinter(&buf, 0)
	p.Runs(runs)
	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "[ok] completed")
	assert.Contains(t, out, "1.5s")

	buf.Reset()
	p.Runs(nil)
	assert.Contains(t, buf.String(), "No runs found.")

	buf.Reset()
	p.Run(runs[0])
	assert.Contains(t, buf.String(), "duration: 1.5s")
	assert.Contains(t, buf.String(), "NAMESPACE /facts (2 records)")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleReport()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "mem-1", decoded["memory_id"])
	assert.EqualValues(t, 1, decoded["total_records"])
}

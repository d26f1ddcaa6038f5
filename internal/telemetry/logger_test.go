package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, false, "warn", "text")

	logger.Info("hidden")
	logger.Warn("shown", "namespace", "semantic")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "namespace=semantic")
}

func TestLogger_VerboseOverridesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, true, "error", "text")

	logger.Debug("debug line")
	assert.Contains(t, buf.String(), "debug line")
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, false, "info", "json")

	logger.Info("fetched", "records", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "fetched", entry["msg"])
	assert.Equal(t, float64(3), entry["records"])
}

func TestLogger_WithFileFansOut(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, false, "info", "text")

	path := filepath.Join(t.TempDir(), "logs", "memex.log")
	require.NoError(t, logger.WithFile(path))

	logger.Info("to both", "memory_id", "mem-1")
	require.NoError(t, logger.Close())

	assert.Contains(t, buf.String(), "to both")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "mem-1", entry["memory_id"])
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, false, "info", "text")

	logger.WithFields(map[string]interface{}{"run_id": "r1"}).Info("hello")
	assert.Contains(t, buf.String(), "run_id=r1")
}

func TestMetrics_Summary(t *testing.T) {
	m := NewMetrics()
	m.IncAPIRequests()
	m.IncAPIRequests()
	m.IncAPIErrors()
	m.IncNamespacesQueried()
	m.IncNamespacesFailed()
	m.AddRecordsFetched(7)
	m.AddSearchHits(2)
	m.RecordAPILatency(10 * time.Millisecond)
	m.RecordAPILatency(30 * time.Millisecond)

	s := m.GetSummary()
	assert.Equal(t, int64(2), s["api_requests"])
	assert.Equal(t, int64(1), s["api_errors"])
	assert.Equal(t, int64(1), s["namespaces_queried"])
	assert.Equal(t, int64(1), s["namespaces_failed"])
	assert.Equal(t, int64(7), s["records_fetched"])
	assert.Equal(t, int64(2), s["search_hits"])
	assert.Equal(t, int64(20), s["avg_api_latency_ms"])
	assert.Equal(t, int64(30), s["max_api_latency_ms"])

	m.Reset()
	s = m.GetSummary()
	assert.Equal(t, int64(0), s["api_requests"])
	_, ok := s["avg_api_latency_ms"]
	assert.False(t, ok)
}

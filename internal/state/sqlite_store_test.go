package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memexErrors "github.com/cadre-oss/memex/internal/errors"
	"github.com/cadre-oss/memex/internal/memory"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	score := 0.87
	run := NewRunState("run-1", "mem-1", "us-east-1")
	run.Namespaces = []NamespaceState{{
		Namespace: "/facts/a1",
		Source:    "search",
		Query:     "user",
		Records:   []memory.Record{{ID: "r1", Content: "prefers aisle", Score: &score}},
	}}
	run.Status = StatusCompleted
	run.CompletedAt = time.Now()
	require.NoError(t, store.SaveRun(run))

	got, err := store.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "mem-1", got.MemoryID)
	assert.Equal(t, StatusCompleted, got.Status)
	require.Len(t, got.Namespaces, 1)
	assert.Equal(t, "user", got.Namespaces[0].Query)
	require.NotNil(t, got.Namespaces[0].Records[0].Score)
	assert.InDelta(t, 0.87, *got.Namespaces[0].Records[0].Score, 1e-9)
}

func TestSQLiteStore_ListAndDelete(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer store.Close()

	base := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		run := NewRunState(id, "mem-1", "")
		run.StartedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.SaveRun(run))
	}

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "mid", runs[1].ID)

	all, err := store.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, store.DeleteRun("mid"))
	err = store.DeleteRun("mid")
	assert.Equal(t, memexErrors.CodeRunNotFound, memexErrors.AsCode(err))

	_, err = store.GetRun("mid")
	assert.Equal(t, memexErrors.CodeRunNotFound, memexErrors.AsCode(err))
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer store.Close()

	run := NewRunState("run-1", "mem-1", "")
	require.NoError(t, store.SaveRun(run))

	run.Status = StatusFailed
	run.Error = "boom"
	require.NoError(t, store.SaveRun(run))

	got, err := store.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadre-oss/memex/internal/config"
	memexErrors "github.com/cadre-oss/memex/internal/errors"
	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/testutil"
)

const testConfig = `aws:
  region: us-east-1
  secret_access_key: hunter2
  access_key_id: AKIDEXAMPLE
defaults:
  max_retries: 0
  content_limit: 40
logging:
  level: error
state:
  driver: sqlite
  path: %s
`

type result struct {
	out    string
	errOut string
	err    error
}

// execute runs the root command against svc with a fresh config file.
func execute(t *testing.T, svc memory.Service, args ...string) result {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)
	writeTestConfig(t, cfgPath, filepath.Join(dir, "state.db"))
	return executeWith(t, svc, cfgPath, args...)
}

func executeWith(t *testing.T, svc memory.Service, cfgPath string, args ...string) result {
	t.Helper()
	return executeStdin(t, svc, cfgPath, "", args...)
}

func executeStdin(t *testing.T, svc memory.Service, cfgPath, input string, args ...string) result {
	t.Helper()
	stdin := strings.NewReader(input)

	origService := newService
	newService = func(ctx context.Context, cfg *config.Config) (memory.Service, error) {
		return svc, nil
	}
	origCreds := checkCredentials
	checkCredentials = func(ctx context.Context, cfg *config.Config) (string, error) {
		return "StaticCredentials", nil
	}
	t.Cleanup(func() {
		newService = origService
		checkCredentials = origCreds
		resetFlags(rootCmd)
	})

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := rootCmd.Execute()
	if err != nil {
		printError(rootCmd, err)
	}
	resetFlags(rootCmd)
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func writeTestConfig(t *testing.T, path, statePath string) {
	t.Helper()
	content := fmt.Sprintf(testConfig, statePath)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// resetFlags restores every flag to its default so that runs do not leak
// into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func seeded(t *testing.T) *testutil.TestHarness {
	h := testutil.NewTestHarness(t)
	h.SeedSupportMemory("mem-1")
	return h
}

func TestMemoriesCommand(t *testing.T) {
	h := seeded(t)
	h.Service.AddMemory(&memory.Memory{ID: "mem-2", Status: "CREATING"})

	res := execute(t, h.Service, "memories")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "mem-1")
	assert.Contains(t, res.out, "mem-2")
	assert.Contains(t, res.out, "CREATING")
}

func TestShowCommand_DefaultsToFirstMemory(t *testing.T) {
	h := seeded(t)

	res := execute(t, h.Service, "show")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "AGENTCORE MEMORY SUMMARY")
	assert.Contains(t, res.out, "/users/{actorId}/preferences")
	h.AssertCalled("ListMemories")
}

func TestShowCommand_UnknownMemory(t *testing.T) {
	h := seeded(t)

	res := execute(t, h.Service, "show", "mem-missing")
	require.Error(t, res.err)
	assert.Equal(t, memexErrors.CodeMemoryNotFound, memexErrors.AsCode(res.err))
	assert.Contains(t, res.errOut, "Error:")
}

func TestActorsCommand_JSON(t *testing.T) {
	h := seeded(t)

	res := execute(t, h.Service, "actors", "mem-1", "-o", "json")
	require.NoError(t, res.err)

	var actors []memory.Actor
	require.NoError(t, json.Unmarshal([]byte(res.out), &actors))
	assert.Len(t, actors, 2)
}

func TestNamespacesCommand(t *testing.T) {
	h := seeded(t)

	res := execute(t, h.Service, "namespaces", "mem-1")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "/users/cust-2/preferences")
	assert.Contains(t, res.out, "/facts/cust-1/facts-1")
	assert.Contains(t, res.out, "substituted")
	h.AssertNotCalled("ListRecords")
}

func TestRecordsCommand(t *testing.T) {
	h := seeded(t)
	h.Service.Records["/users/cust-1/preferences"] = []memory.Record{
		{ID: "r1", Content: "prefers window seats on long-haul flights and vegetarian meals"},
	}

	res := execute(t, h.Service, "--memory-id", "mem-1", "records", "--namespace", "/users/cust-1/preferences")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "NAMESPACE /users/cust-1/preferences (1 records)")
	assert.Contains(t, res.out, "...")
	assert.NotContains(t, res.out, "vegetarian meals")
}

func TestRecordsCommand_MemoryIDArgument(t *testing.T) {
	h := seeded(t)
	h.SeedSupportMemory("mem-2")
	h.Service.Records["/facts"] = []memory.Record{{ID: "r1", Content: "likes tea"}}

	res := execute(t, h.Service, "records", "--namespace", "/facts", "mem-2")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "likes tea")

	calls := h.Service.CallsFor("ListRecords")
	require.Len(t, calls, 1)
	assert.Equal(t, "mem-2", calls[0].MemoryID)
}

func TestRecordsCommand_RequiresNamespace(t *testing.T) {
	h := seeded(t)

	res := execute(t, h.Service, "records")
	require.Error(t, res.err)
	h.AssertNotCalled("ListRecords")
}

func TestSearchCommand_AllResolvedNamespaces(t *testing.T) {
	h := seeded(t)
	h.Service.AddSearchResult("/facts/cust-2/facts-1", "dog", memory.Record{ID: "r9", Content: "has a dog", Score: testutil.Score(0.87)})

	res := execute(t, h.Service, "search", "dog", "--top-k", "2")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, `SEARCH "dog" IN /facts/cust-2/facts-1`)
	assert.Contains(t, res.out, "Score: 0.870")

	calls := h.Service.CallsFor("SearchRecords")
	assert.Len(t, calls, 6)
}

func TestSearchCommand_NoHits(t *testing.T) {
	h := seeded(t)

	res := execute(t, h.Service, "--memory-id", "mem-1", "search", "nothing", "--namespace", "/facts")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, `No results for "nothing" in 1 namespace(s).`)
}

func TestExtractCommand_JSON(t *testing.T) {
	h := seeded(t)
	h.Service.Records["/facts/cust-1/prefs-1"] = []memory.Record{{ID: "r1", Content: "likes tea"}}

	res := execute(t, h.Service, "extract", "mem-1", "-o", "json")
	require.NoError(t, res.err)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.out), &report))
	assert.Equal(t, "mem-1", report["memory_id"])
	assert.EqualValues(t, 1, report["total_records"])
	assert.Nil(t, report["run_id"])
}

func TestExtractCommand_NoSearch(t *testing.T) {
	h := seeded(t)

	res := execute(t, h.Service, "extract", "mem-1", "--no-search")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Total Records Found:   0")
	assert.Contains(t, res.out, "Troubleshooting:")
	h.AssertNotCalled("SearchRecords")
}

func TestExtractCommand_ExtraNamespace(t *testing.T) {
	h := seeded(t)

	res := execute(t, h.Service, "extract", "mem-1", "--no-search", "--namespace", "/support/tickets")
	require.NoError(t, res.err)
	assert.Contains(t, h.Service.QueriedNamespaces(), "/support/tickets")
}

func TestExtractThenHistory(t *testing.T) {
	h := seeded(t)
	h.Service.Records["/users/cust-2/preferences"] = []memory.Record{{ID: "r1", Content: "email only"}}

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)
	writeTestConfig(t, cfgPath, filepath.Join(dir, "state.db"))

	res := executeWith(t, h.Service, cfgPath, "extract", "mem-1", "--save", "-o", "json")
	require.NoError(t, res.err)

	var report struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.out), &report))
	require.NotEmpty(t, report.RunID)

	res = executeWith(t, h.Service, cfgPath, "history")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, report.RunID)
	assert.Contains(t, res.out, "[ok] completed")

	res = executeWith(t, h.Service, cfgPath, "history", report.RunID)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "NAMESPACE /users/cust-2/preferences (1 records)")

	exportDir := filepath.Join(dir, "exports")
	res = executeWith(t, h.Service, cfgPath, "history", "export", report.RunID, "--dir", exportDir)
	require.NoError(t, res.err)
	assert.FileExists(t, filepath.Join(exportDir, report.RunID+".json"))

	res = executeWith(t, h.Service, cfgPath, "history", "delete", report.RunID)
	require.NoError(t, res.err)

	res = executeWith(t, h.Service, cfgPath, "history", report.RunID)
	require.Error(t, res.err)
	assert.Equal(t, memexErrors.CodeRunNotFound, memexErrors.AsCode(res.err))
	assert.Contains(t, res.errOut, "memex history")
}

func TestConfigShow_MasksSecrets(t *testing.T) {
	res := execute(t, testutil.NewFakeService(), "config", "show")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "region: us-east-1")
	assert.Contains(t, res.out, "****")
	assert.NotContains(t, res.out, "hunter2")
}

func TestConfigValidate_Invalid(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte("namespaces:\n  session_policy: sometimes\n"), 0644))

	res := executeWith(t, testutil.NewFakeService(), cfgPath, "config", "validate")
	require.Error(t, res.err)
	assert.Equal(t, memexErrors.CodeConfigInvalid, memexErrors.AsCode(res.err))
	assert.Contains(t, res.out, "invalid")
	assert.Contains(t, res.errOut, "memex config validate")
}

func TestConfigSet(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)
	writeTestConfig(t, cfgPath, filepath.Join(dir, "state.db"))

	res := executeWith(t, testutil.NewFakeService(), cfgPath, "config", "set", "defaults.top_k", "7")
	require.NoError(t, res.err)

	cfg, err := config.LoadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Defaults.TopK)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
}

func TestConfigSet_RejectsInvalidValue(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)
	writeTestConfig(t, cfgPath, filepath.Join(dir, "state.db"))
	before, err := os.ReadFile(cfgPath)
	require.NoError(t, err)

	res := executeWith(t, testutil.NewFakeService(), cfgPath, "config", "set", "logging.level", "loud")
	require.Error(t, res.err)

	after, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "project")

	res := execute(t, testutil.NewFakeService(), "init", target, "--sample", "support")
	require.NoError(t, res.err)
	assert.FileExists(t, filepath.Join(target, config.FileName))
	assert.Contains(t, res.out, "support sample")

	res = execute(t, testutil.NewFakeService(), "init", target)
	require.Error(t, res.err)
	assert.Contains(t, res.errOut, "--force")
}

func TestDoctorCommand(t *testing.T) {
	h := seeded(t)

	res := execute(t, h.Service, "doctor")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "StaticCredentials")
	assert.Contains(t, res.out, "1 memories visible")
	assert.Contains(t, res.out, "All checks passed!")
}

func TestVersionCommand(t *testing.T) {
	res := execute(t, testutil.NewFakeService(), "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "memex dev")
}

func TestMCPServerCommand(t *testing.T) {
	h := seeded(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)
	writeTestConfig(t, cfgPath, filepath.Join(dir, "state.db"))

	input := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"memex_list_memories","arguments":{}}}` + "\n"
	res := executeStdin(t, h.Service, cfgPath, input, "mcp-server")
	require.NoError(t, res.err)

	var resp struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.out), &resp))
	require.Len(t, resp.Result.Content, 1)
	assert.Contains(t, resp.Result.Content[0].Text, "mem-1")
}

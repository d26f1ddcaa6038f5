package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	memexErrors "github.com/cadre-oss/memex/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"MEMEX_REGION", "AWS_REGION", "AWS_DEFAULT_REGION", "MEMEX_PROFILE", "MEMEX_MEMORY_ID"} {
		t.Setenv(name, "")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	clearEnv(t)
	dir := writeConfig(t, `
aws:
  region: eu-west-1
  profile: support
memory:
  id: mem-123
defaults:
  timeout: 10m
  max_results: 25
  max_retries: 5
namespaces:
  session_policy: wildcard
  extra:
    - support/facts
logging:
  level: debug
  format: json
state:
  driver: memory
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AWS.Region != "eu-west-1" {
		t.Errorf("expected region eu-west-1, got %s", cfg.AWS.Region)
	}
	if cfg.AWS.Profile != "support" {
		t.Errorf("expected profile support, got %s", cfg.AWS.Profile)
	}
	if cfg.Memory.ID != "mem-123" {
		t.Errorf("expected memory id mem-123, got %s", cfg.Memory.ID)
	}
	if cfg.Defaults.Timeout != "10m" {
		t.Errorf("expected timeout 10m, got %s", cfg.Defaults.Timeout)
	}
	if cfg.Defaults.MaxResults != 25 {
		t.Errorf("expected max_results 25, got %d", cfg.Defaults.MaxResults)
	}
	if cfg.Defaults.MaxRetries != 5 {
		t.Errorf("expected max_retries 5, got %d", cfg.Defaults.MaxRetries)
	}
	if cfg.Namespaces.SessionPolicy != "wildcard" {
		t.Errorf("expected session_policy wildcard, got %s", cfg.Namespaces.SessionPolicy)
	}
	if !reflect.DeepEqual(cfg.Namespaces.Extra, []string{"support/facts"}) {
		t.Errorf("unexpected extra namespaces: %v", cfg.Namespaces.Extra)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %s", cfg.Logging.Level)
	}
	if cfg.State.Driver != "memory" {
		t.Errorf("expected driver memory, got %s", cfg.State.Driver)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	// Should return default config, not error
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Defaults.Timeout != "5m" {
		t.Errorf("expected default timeout, got %s", cfg.Defaults.Timeout)
	}
	if !reflect.DeepEqual(cfg.Namespaces.Fallback, DefaultFallbackNamespaces) {
		t.Errorf("expected default fallback namespaces, got %v", cfg.Namespaces.Fallback)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := writeConfig(t, `{{{invalid yaml content`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if memexErrors.AsCode(err) != memexErrors.CodeConfigInvalid {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestLoad_ApplyDefaults(t *testing.T) {
	clearEnv(t)
	dir := writeConfig(t, `
memory:
  id: minimal
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Defaults.Timeout != "5m" {
		t.Errorf("expected default timeout 5m, got %s", cfg.Defaults.Timeout)
	}
	if cfg.Defaults.MaxResults != 50 {
		t.Errorf("expected default max_results 50, got %d", cfg.Defaults.MaxResults)
	}
	if cfg.Defaults.TopK != 3 {
		t.Errorf("expected default top_k 3, got %d", cfg.Defaults.TopK)
	}
	if cfg.Defaults.ContentLimit != 500 {
		t.Errorf("expected default content_limit 500, got %d", cfg.Defaults.ContentLimit)
	}
	if cfg.Defaults.Concurrency != 4 {
		t.Errorf("expected default concurrency 4, got %d", cfg.Defaults.Concurrency)
	}
	if cfg.Namespaces.SessionPolicy != "strip" {
		t.Errorf("expected default session_policy strip, got %s", cfg.Namespaces.SessionPolicy)
	}
	if !reflect.DeepEqual(cfg.Search.Queries, DefaultSearchQueries) {
		t.Errorf("expected default queries, got %v", cfg.Search.Queries)
	}
	if !cfg.Search.SearchEnabled() {
		t.Error("search should default to enabled")
	}
	if cfg.State.Path != ".memex/state.db" {
		t.Errorf("expected default state path, got %s", cfg.State.Path)
	}
}

func TestLoad_SearchDisabled(t *testing.T) {
	dir := writeConfig(t, `
search:
  enabled: false
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Search.SearchEnabled() {
		t.Error("expected search to be disabled")
	}
}

func TestLoad_EnvInterpolation(t *testing.T) {
	dir := writeConfig(t, `
aws:
  region: ${TEST_MEMEX_REGION}
memory:
  id: ${env.TEST_MEMEX_MEMORY}
namespaces:
  extra:
    - /facts/{actorId}
`)

	t.Setenv("TEST_MEMEX_REGION", "ap-southeast-2")
	t.Setenv("TEST_MEMEX_MEMORY", "mem-env")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AWS.Region != "ap-southeast-2" {
		t.Errorf("expected ap-southeast-2, got %s", cfg.AWS.Region)
	}
	if cfg.Memory.ID != "mem-env" {
		t.Errorf("expected mem-env, got %s", cfg.Memory.ID)
	}
	// Namespace templates are not environment references.
	if cfg.Namespaces.Extra[0] != "/facts/{actorId}" {
		t.Errorf("template was rewritten: %s", cfg.Namespaces.Extra[0])
	}
}

func TestLoad_EnvInterpolation_Unset(t *testing.T) {
	dir := writeConfig(t, `
memory:
  id: ${UNSET_MEMEX_VAR}
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should keep original if not found
	if cfg.Memory.ID != "${UNSET_MEMEX_VAR}" {
		t.Errorf("expected uninterpolated value, got %s", cfg.Memory.ID)
	}
}

func TestLoad_EnvFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("AWS_REGION", "us-west-2")
	t.Setenv("MEMEX_MEMORY_ID", "mem-from-env")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AWS.Region != "us-west-2" {
		t.Errorf("expected region from AWS_REGION, got %s", cfg.AWS.Region)
	}
	if cfg.Memory.ID != "mem-from-env" {
		t.Errorf("expected memory id from env, got %s", cfg.Memory.ID)
	}

	// MEMEX_REGION wins over AWS_REGION; the file wins over both.
	t.Setenv("MEMEX_REGION", "eu-central-1")
	cfg, _ = Load(t.TempDir())
	if cfg.AWS.Region != "eu-central-1" {
		t.Errorf("expected MEMEX_REGION to win, got %s", cfg.AWS.Region)
	}

	dir := writeConfig(t, "aws:\n  region: sa-east-1\n")
	cfg, _ = Load(dir)
	if cfg.AWS.Region != "sa-east-1" {
		t.Errorf("expected file region to win, got %s", cfg.AWS.Region)
	}
}

func TestParsedTimeout(t *testing.T) {
	d := DefaultsConfig{}
	if got, _ := d.ParsedTimeout(); got.Minutes() != 5 {
		t.Errorf("expected 5m default, got %s", got)
	}
	d.Timeout = "90s"
	if got, _ := d.ParsedTimeout(); got.Seconds() != 90 {
		t.Errorf("expected 90s, got %s", got)
	}
	d.Timeout = "soon"
	if _, err := d.ParsedTimeout(); err == nil {
		t.Error("expected parse error")
	}
}

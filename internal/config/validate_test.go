package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	memexErrors "github.com/cadre-oss/memex/internal/errors"
	"github.com/cadre-oss/memex/internal/namespace"
)

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(defaultConfig()); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad timeout",
			mutate:  func(c *Config) { c.Defaults.Timeout = "forever" },
			wantErr: "invalid timeout format",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Defaults.Timeout = "-1m" },
			wantErr: "timeout must be positive",
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *Config) { c.Defaults.Concurrency = -1 },
			wantErr: "concurrency must be non-negative",
		},
		{
			name:    "max_results above page limit",
			mutate:  func(c *Config) { c.Defaults.MaxResults = 500 },
			wantErr: "max_results cannot exceed 100",
		},
		{
			name:    "session policy",
			mutate:  func(c *Config) { c.Namespaces.SessionPolicy = "keep" },
			wantErr: "invalid session_policy",
		},
		{
			name:    "blank namespace",
			mutate:  func(c *Config) { c.Namespaces.Extra = []string{" "} },
			wantErr: "namespaces cannot be blank",
		},
		{
			name:    "log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid logging format",
		},
		{
			name:    "state driver",
			mutate:  func(c *Config) { c.State.Driver = "postgres" },
			wantErr: "invalid state driver",
		},
		{
			name: "shell hook without command",
			mutate: func(c *Config) {
				c.Hooks.Hooks = []HookConfig{{Name: "notify", Type: "shell"}}
			},
			wantErr: "shell hook requires a command",
		},
		{
			name: "unknown hook type",
			mutate: func(c *Config) {
				c.Hooks.Hooks = []HookConfig{{Name: "gate", Type: "pause"}}
			},
			wantErr: "invalid type",
		},
		{
			name:    "half static credentials",
			mutate:  func(c *Config) { c.AWS.AccessKeyID = "AKIA" },
			wantErr: "must be set together",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
			if memexErrors.AsCode(err) != memexErrors.CodeConfigInvalid {
				t.Errorf("expected CONFIG_INVALID, got %s", memexErrors.AsCode(err))
			}
			if memexErrors.Suggestion(err) == "" {
				t.Error("expected a suggestion")
			}
		})
	}
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Logging.Level = "loud"
	cfg.State.Driver = "redis"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid logging level") || !strings.Contains(err.Error(), "invalid state driver") {
		t.Errorf("expected both problems reported, got: %v", err)
	}
}

func TestNamespaceConfig_Policy(t *testing.T) {
	n := NamespaceConfig{SessionPolicy: "strip"}
	if p := n.Policy(); p.Session != namespace.SessionStrip || p.PreferAlternateStrategyID {
		t.Errorf("unexpected policy %+v", p)
	}

	n = NamespaceConfig{SessionPolicy: "wildcard", PreferAlternateStrategyID: true}
	if p := n.Policy(); p.Session != namespace.SessionKeep || !p.PreferAlternateStrategyID {
		t.Errorf("unexpected policy %+v", p)
	}
}

func TestSamples_LoadAndValidate(t *testing.T) {
	for _, name := range SampleNames() {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path, err := WriteSample(dir, name, false)
			if err != nil {
				t.Fatalf("write: %v", err)
			}
			if path != filepath.Join(dir, FileName) {
				t.Errorf("unexpected path %s", path)
			}

			cfg, err := Load(dir)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if err := Validate(cfg); err != nil {
				t.Errorf("sample %s is invalid: %v", name, err)
			}
		})
	}
}

func TestWriteSample_KeepsExisting(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("memory:\n  id: mine\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := WriteSample(dir, "default", false); err == nil {
		t.Fatal("expected error for existing file")
	}
	if _, err := WriteSample(dir, "default", true); err != nil {
		t.Fatalf("force should overwrite: %v", err)
	}
	if _, err := WriteSample(dir, "nope", true); err == nil {
		t.Fatal("expected error for unknown sample")
	}
}

func TestMarshal_MasksSecrets(t *testing.T) {
	cfg := defaultConfig()
	cfg.AWS.AccessKeyID = "AKIAEXAMPLE"
	cfg.AWS.SecretAccessKey = "super-secret"

	out, err := Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "super-secret") {
		t.Error("secret leaked into output")
	}
	if !strings.Contains(string(out), "AKIAEXAMPLE") {
		t.Error("access key id should be shown")
	}
	if cfg.AWS.SecretAccessKey != "super-secret" {
		t.Error("Marshal must not modify its argument")
	}
}

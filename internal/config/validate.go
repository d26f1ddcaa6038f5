package config

import (
	"fmt"
	"strings"
	"time"

	memexErrors "github.com/cadre-oss/memex/internal/errors"
	"github.com/cadre-oss/memex/internal/namespace"
)

// Validate checks a loaded configuration and reports every problem at once.
func Validate(cfg *Config) error {
	var errors []string

	if cfg.Defaults.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Defaults.Timeout); err != nil {
			errors = append(errors, fmt.Sprintf("invalid timeout format %q: %s", cfg.Defaults.Timeout, err))
		} else if d <= 0 {
			errors = append(errors, "timeout must be positive")
		}
	}

	counts := []struct {
		name  string
		value int
	}{
		{"max_memories", cfg.Defaults.MaxMemories},
		{"max_results", cfg.Defaults.MaxResults},
		{"top_k", cfg.Defaults.TopK},
		{"content_limit", cfg.Defaults.ContentLimit},
		{"concurrency", cfg.Defaults.Concurrency},
	}
	for _, c := range counts {
		if c.value < 0 {
			errors = append(errors, fmt.Sprintf("%s must be non-negative", c.name))
		}
	}
	if cfg.Defaults.MaxResults > 100 {
		errors = append(errors, "max_results cannot exceed 100")
	}
	if cfg.Defaults.MaxRetries < 0 {
		errors = append(errors, "max_retries must be non-negative")
	}
	if cfg.Defaults.RequestsPerSecond < 0 {
		errors = append(errors, "requests_per_second must be non-negative")
	}

	validPolicies := map[string]bool{
		"strip":    true,
		"wildcard": true,
		"":         true, // defaults to strip
	}
	if !validPolicies[cfg.Namespaces.SessionPolicy] {
		errors = append(errors, fmt.Sprintf("invalid session_policy: %s (must be strip or wildcard)", cfg.Namespaces.SessionPolicy))
	}
	for _, ns := range append(append([]string(nil), cfg.Namespaces.Extra...), cfg.Namespaces.Fallback...) {
		if strings.TrimSpace(ns) == "" {
			errors = append(errors, "namespaces cannot be blank")
			break
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errors = append(errors, fmt.Sprintf("invalid logging level: %s", cfg.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true, "": true}
	if !validFormats[cfg.Logging.Format] {
		errors = append(errors, fmt.Sprintf("invalid logging format: %s", cfg.Logging.Format))
	}

	validDrivers := map[string]bool{"sqlite": true, "memory": true, "": true}
	if !validDrivers[cfg.State.Driver] {
		errors = append(errors, fmt.Sprintf("invalid state driver: %s (must be sqlite or memory)", cfg.State.Driver))
	}
	if cfg.State.Driver == "sqlite" && cfg.State.Path == "" {
		errors = append(errors, "sqlite state driver requires a path")
	}

	validHooks := map[string]bool{"shell": true, "webhook": true, "log": true}
	for i, h := range cfg.Hooks.Hooks {
		label := h.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			errors = append(errors, fmt.Sprintf("hook %s: name is required", label))
		}
		if !validHooks[h.Type] {
			errors = append(errors, fmt.Sprintf("hook %s: invalid type %q (must be shell, webhook, or log)", label, h.Type))
		}
		if h.Type == "shell" && h.Command == "" {
			errors = append(errors, fmt.Sprintf("hook %s: shell hook requires a command", label))
		}
		if h.Type == "webhook" && h.URL == "" {
			errors = append(errors, fmt.Sprintf("hook %s: webhook hook requires a url", label))
		}
	}

	if (cfg.AWS.AccessKeyID == "") != (cfg.AWS.SecretAccessKey == "") {
		errors = append(errors, "access_key_id and secret_access_key must be set together")
	}

	if len(errors) > 0 {
		return memexErrors.New(memexErrors.CodeConfigInvalid, "config validation failed: "+strings.Join(errors, "; ")).
			WithSuggestion("Fix the listed fields in " + FileName + " and run 'memex config validate'")
	}
	return nil
}

// Policy maps the configured policy name to the resolver setting.
func (n *NamespaceConfig) Policy() namespace.Policy {
	policy := namespace.DefaultPolicy()
	if n.SessionPolicy == "wildcard" {
		policy.Session = namespace.SessionKeep
	}
	policy.PreferAlternateStrategyID = n.PreferAlternateStrategyID
	return policy
}

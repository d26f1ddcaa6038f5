package config

import "time"

// Config represents the memex configuration (memex.yaml)
type Config struct {
	AWS        AWSConfig       `yaml:"aws" json:"aws"`
	Memory     MemoryConfig    `yaml:"memory" json:"memory"`
	Defaults   DefaultsConfig  `yaml:"defaults" json:"defaults"`
	Namespaces NamespaceConfig `yaml:"namespaces" json:"namespaces"`
	Search     SearchConfig    `yaml:"search" json:"search"`
	Logging    LoggingConfig   `yaml:"logging" json:"logging"`
	State      StateConfig     `yaml:"state" json:"state"`
	Telemetry  TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Hooks      HooksConfig     `yaml:"hooks" json:"hooks"`
}

// HooksConfig configures lifecycle event hooks.
type HooksConfig struct {
	Enabled bool         `yaml:"enabled" json:"enabled"`
	Hooks   []HookConfig `yaml:"hooks" json:"hooks"`
}

// HookConfig defines a single hook.
type HookConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"`     // shell, webhook, log
	Events   []string `yaml:"events" json:"events"` // event types to match, empty = all
	Blocking bool     `yaml:"blocking" json:"blocking"`
	Command  string   `yaml:"command,omitempty" json:"command,omitempty"` // for shell hooks
	URL      string   `yaml:"url,omitempty" json:"url,omitempty"`         // for webhook hooks
	Level    string   `yaml:"level,omitempty" json:"level,omitempty"`     // for log hooks (debug, info, warn)
}

// AWSConfig configures the connection to AgentCore
type AWSConfig struct {
	Region          string `yaml:"region" json:"region"`
	Profile         string `yaml:"profile,omitempty" json:"profile,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`                 // data plane override
	ControlEndpoint string `yaml:"control_endpoint,omitempty" json:"control_endpoint,omitempty"` // control plane override
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"-"`
	SessionToken    string `yaml:"session_token,omitempty" json:"-"`
}

// MemoryConfig selects the default memory resource
type MemoryConfig struct {
	ID string `yaml:"id,omitempty" json:"id,omitempty"` // empty = first memory in the account
}

// DefaultsConfig provides default values
type DefaultsConfig struct {
	Timeout           string  `yaml:"timeout" json:"timeout"` // e.g., "5m"
	MaxMemories       int     `yaml:"max_memories" json:"max_memories"`
	MaxResults        int     `yaml:"max_results" json:"max_results"`
	TopK              int     `yaml:"top_k" json:"top_k"`
	ContentLimit      int     `yaml:"content_limit" json:"content_limit"` // characters shown per record
	Concurrency       int     `yaml:"concurrency" json:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	MaxRetries        int     `yaml:"max_retries" json:"max_retries"`
}

// NamespaceConfig configures template resolution
type NamespaceConfig struct {
	Extra                     []string `yaml:"extra,omitempty" json:"extra,omitempty"`       // always queried
	Fallback                  []string `yaml:"fallback,omitempty" json:"fallback,omitempty"` // used when no strategy declares namespaces
	SessionPolicy             string   `yaml:"session_policy" json:"session_policy"`         // strip, wildcard
	PreferAlternateStrategyID bool     `yaml:"prefer_alternate_strategy_id,omitempty" json:"prefer_alternate_strategy_id,omitempty"`
}

// SearchConfig configures the semantic search fallback
type SearchConfig struct {
	Enabled *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Queries []string `yaml:"queries,omitempty" json:"queries,omitempty"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text, json
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// StateConfig configures the snapshot store
type StateConfig struct {
	Driver string `yaml:"driver" json:"driver"` // sqlite, memory
	Path   string `yaml:"path" json:"path"`
}

// TelemetryConfig configures metrics export
type TelemetryConfig struct {
	MetricsFile string `yaml:"metrics_file,omitempty" json:"metrics_file,omitempty"`
}

// ParsedTimeout converts a timeout string to time.Duration
func (d *DefaultsConfig) ParsedTimeout() (time.Duration, error) {
	if d.Timeout == "" {
		return 5 * time.Minute, nil // default
	}
	return time.ParseDuration(d.Timeout)
}

// SearchEnabled reports whether the search fallback is on. It defaults to true.
func (s *SearchConfig) SearchEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	memexErrors "github.com/cadre-oss/memex/internal/errors"
)

// FileName is the configuration file looked up in the project directory.
const FileName = "memex.yaml"

// DefaultFallbackNamespaces are queried when no strategy declares a namespace.
var DefaultFallbackNamespaces = []string{
	"support/facts",
	"support/customer",
	"semantic",
	"preferences",
	"facts",
	"custom",
}

// DefaultSearchQueries are tried in order by the search fallback.
var DefaultSearchQueries = []string{
	"user",
	"customer",
	"conversation",
	"interaction",
	"support",
	"travel",
	"booking",
}

// Load loads the main project configuration
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile loads configuration from an explicit path. A missing file yields
// the default configuration.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, memexErrors.Wrap(memexErrors.CodeConfigInvalid, "failed to read config file", err)
	}

	// Interpolate environment variables
	content = []byte(interpolateEnv(string(content)))

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, memexErrors.Wrap(memexErrors.CodeConfigInvalid, fmt.Sprintf("failed to parse %s", path), err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	return &cfg, nil
}

var (
	envRefPattern = regexp.MustCompile(`\$\{env\.([^}]+)\}`)
	varRefPattern = regexp.MustCompile(`\$\{([^}]+)\}`)
)

// interpolateEnv replaces ${env.VAR} and ${VAR} with environment values.
// Namespace templates such as {actorId} are left alone.
func interpolateEnv(content string) string {
	content = envRefPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := envRefPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // keep original if not found
	})

	content = varRefPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := varRefPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return content
}

// Default returns the built-in configuration without consulting the
// environment.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Timeout:           "5m",
			MaxMemories:       100,
			MaxResults:        50,
			TopK:              3,
			ContentLimit:      500,
			Concurrency:       4,
			RequestsPerSecond: 10,
			MaxRetries:        3,
		},
		Namespaces: NamespaceConfig{
			Fallback:      append([]string(nil), DefaultFallbackNamespaces...),
			SessionPolicy: "strip",
		},
		Search: SearchConfig{
			Queries: append([]string(nil), DefaultSearchQueries...),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		State: StateConfig{
			Driver: "sqlite",
			Path:   ".memex/state.db",
		},
	}
}

func applyDefaults(cfg *Config) {
	def := defaultConfig()

	if cfg.Defaults.Timeout == "" {
		cfg.Defaults.Timeout = def.Defaults.Timeout
	}
	if cfg.Defaults.MaxMemories == 0 {
		cfg.Defaults.MaxMemories = def.Defaults.MaxMemories
	}
	if cfg.Defaults.MaxResults == 0 {
		cfg.Defaults.MaxResults = def.Defaults.MaxResults
	}
	if cfg.Defaults.TopK == 0 {
		cfg.Defaults.TopK = def.Defaults.TopK
	}
	if cfg.Defaults.ContentLimit == 0 {
		cfg.Defaults.ContentLimit = def.Defaults.ContentLimit
	}
	if cfg.Defaults.Concurrency == 0 {
		cfg.Defaults.Concurrency = def.Defaults.Concurrency
	}
	if cfg.Defaults.RequestsPerSecond == 0 {
		cfg.Defaults.RequestsPerSecond = def.Defaults.RequestsPerSecond
	}
	if cfg.Defaults.MaxRetries == 0 {
		cfg.Defaults.MaxRetries = def.Defaults.MaxRetries
	}
	if len(cfg.Namespaces.Fallback) == 0 {
		cfg.Namespaces.Fallback = def.Namespaces.Fallback
	}
	if cfg.Namespaces.SessionPolicy == "" {
		cfg.Namespaces.SessionPolicy = def.Namespaces.SessionPolicy
	}
	if len(cfg.Search.Queries) == 0 {
		cfg.Search.Queries = def.Search.Queries
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.State.Driver == "" {
		cfg.State.Driver = def.State.Driver
	}
	if cfg.State.Path == "" {
		cfg.State.Path = def.State.Path
	}
}

// applyEnv fills settings left empty by the file from the environment.
func applyEnv(cfg *Config) {
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = firstEnv("MEMEX_REGION", "AWS_REGION", "AWS_DEFAULT_REGION")
	}
	if cfg.AWS.Profile == "" {
		cfg.AWS.Profile = os.Getenv("MEMEX_PROFILE")
	}
	if cfg.Memory.ID == "" {
		cfg.Memory.ID = os.Getenv("MEMEX_MEMORY_ID")
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return ""
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	memexErrors "github.com/cadre-oss/memex/internal/errors"
)

// Samples are the starter configurations written by `memex init`.
var samples = map[string]string{
	"default": `# memex.yaml - AgentCore memory extractor configuration
aws:
  # region: us-east-1      # falls back to MEMEX_REGION / AWS_REGION
  # profile: default

memory:
  # id: my-memory-abc123   # empty = first memory in the account

defaults:
  timeout: 5m
  max_results: 50
  top_k: 3
  content_limit: 500
  concurrency: 4
  requests_per_second: 10
  max_retries: 3

namespaces:
  session_policy: strip   # strip | wildcard
  # extra:
  #   - support/facts

search:
  enabled: true

logging:
  level: info
  format: text  # text | json
  # file: .memex/logs/memex.jsonl

state:
  driver: sqlite
  path: .memex/state.db
`,
	"support": `# memex.yaml - customer support agent memory
aws:
  # profile: ${env.SUPPORT_AWS_PROFILE}

namespaces:
  session_policy: strip
  extra:
    - support/facts
    - support/customer
  fallback:
    - support/facts
    - support/customer

search:
  enabled: true
  queries:
    - customer
    - support
    - booking

logging:
  level: info
  format: text

state:
  driver: sqlite
  path: .memex/state.db
`,
	"local": `# memex.yaml - local endpoint, no persisted history
aws:
  region: us-east-1
  endpoint: http://localhost:4566
  control_endpoint: http://localhost:4566
  access_key_id: test
  secret_access_key: test

defaults:
  requests_per_second: 100

logging:
  level: debug
  format: text

state:
  driver: memory
`,
}

// SampleNames lists the available starter configurations.
func SampleNames() []string {
	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sample returns the named starter configuration.
func Sample(name string) (string, error) {
	content, ok := samples[name]
	if !ok {
		return "", memexErrors.New(memexErrors.CodeConfigInvalid, fmt.Sprintf("unknown sample %q", name)).
			WithSuggestion("Available samples: " + strings.Join(SampleNames(), ", "))
	}
	return content, nil
}

// WriteSample writes the named starter configuration into dir. An existing
// memex.yaml is kept unless force is set.
func WriteSample(dir, name string, force bool) (string, error) {
	content, err := Sample(name)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return "", memexErrors.New(memexErrors.CodeConfigInvalid, path+" already exists").
			WithSuggestion("Use --force to overwrite it")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Marshal renders a configuration as YAML with secrets masked.
func Marshal(cfg *Config) ([]byte, error) {
	masked := *cfg
	if masked.AWS.SecretAccessKey != "" {
		masked.AWS.SecretAccessKey = "****"
	}
	if masked.AWS.SessionToken != "" {
		masked.AWS.SessionToken = "****"
	}
	return yaml.Marshal(&masked)
}

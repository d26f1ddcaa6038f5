package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cadre-oss/memex/internal/config"
	"github.com/cadre-oss/memex/internal/render"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and modifying memex.yaml.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a value in memex.yaml. Nested keys use dot notation.

Examples:
  memex config set aws.region eu-west-1
  memex config set defaults.top_k 5`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputJSON() {
		masked, err := config.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		var m map[string]interface{}
		if err := yaml.Unmarshal(masked, &m); err != nil {
			return fmt.Errorf("failed to convert config: %w", err)
		}
		return render.JSON(out, m)
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "----------------------")
	fmt.Fprintln(out, string(data))

	if path := configPath(); path != "" {
		fmt.Fprintf(out, "Config file: %s\n", path)
	} else {
		fmt.Fprintln(out, "Config file: none (defaults and environment)")
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	configFile := configPath()
	if configFile == "" {
		configFile = config.FileName
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if doc == nil {
		doc = make(map[string]interface{})
	}

	if err := setNestedValue(doc, key, parseScalar(value)); err != nil {
		return err
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The edited file must still load and validate.
	if err := validateYAML(out); err != nil {
		return err
	}

	if err := os.WriteFile(configFile, out, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	name := configPath()
	if name == "" {
		name = config.FileName + " (not found, defaults)"
	}

	if _, err := loadConfig(); err != nil {
		fmt.Fprintf(out, "%s: invalid\n", name)
		return err
	}

	fmt.Fprintf(out, "%s: OK\n", name)
	return nil
}

func validateYAML(data []byte) error {
	tmp, err := os.CreateTemp("", "memex-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to stage config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to stage config: %w", err)
	}
	tmp.Close()

	cfg, err := config.LoadFile(tmp.Name())
	if err != nil {
		return err
	}
	return config.Validate(cfg)
}

func setNestedValue(m map[string]interface{}, key string, value interface{}) error {
	parts := strings.Split(key, ".")
	current := m
	for i, part := range parts {
		if part == "" {
			return fmt.Errorf("invalid key %q", key)
		}
		if i == len(parts)-1 {
			current[part] = value
			return nil
		}
		next, ok := current[part]
		if !ok || next == nil {
			child := make(map[string]interface{})
			current[part] = child
			current = child
			continue
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("cannot set %s: %s is not a section", key, strings.Join(parts[:i+1], "."))
		}
		current = child
	}
	return nil
}

// parseScalar keeps numbers and booleans typed so that the edited file still
// decodes into Config.
func parseScalar(s string) interface{} {
	var v interface{}
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	switch v.(type) {
	case int, float64, bool:
		return v
	default:
		return s
	}
}

package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	memexErrors "github.com/cadre-oss/memex/internal/errors"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "memex",
	Short: "Extract long-term memory records from AgentCore Memory",
	Long: `memex - see what your agents remember.

A CLI for inspecting Amazon Bedrock AgentCore Memory resources. It expands
the namespace templates declared by each memory strategy into concrete
namespaces, lists the records stored under them, and falls back to semantic
search when listing finds nothing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and prints any error with its suggestion.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(rootCmd, err)
	}
	return err
}

func printError(cmd *cobra.Command, err error) {
	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "Error: %v\n", err)
	if s := memexErrors.Suggestion(err); s != "" {
		fmt.Fprintf(w, "  -> %s\n", s)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./memex.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.String("region", "", "AWS region (overrides aws.region)")
	flags.String("profile", "", "AWS shared config profile (overrides aws.profile)")
	flags.String("memory-id", "", "memory ID (default is the first memory listed)")
	flags.StringP("output", "o", "text", "output format: text or json")

	_ = viper.BindPFlag("region", flags.Lookup("region"))
	_ = viper.BindPFlag("profile", flags.Lookup("profile"))
	_ = viper.BindPFlag("memory_id", flags.Lookup("memory-id"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(memoriesCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(actorsCmd)
	rootCmd.AddCommand(namespacesCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpServerCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

func initConfig() {
	// A missing .env is the common case.
	_ = godotenv.Load()

	viper.SetEnvPrefix("MEMEX")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("memex")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

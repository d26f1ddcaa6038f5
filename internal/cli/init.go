package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/memex/internal/config"
)

var (
	initSample string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a starter memex.yaml",
	Long: `Write a starter memex.yaml into dir (default is the current directory).

Available samples:
  default - AWS credential chain, strategy-declared namespaces
  support - Customer support memory with extra namespaces and search queries
  local   - Local endpoint with static test credentials`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initSample, "sample", "s", "default", "starter configuration ("+strings.Join(config.SampleNames(), ", ")+")")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing memex.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	path, err := config.WriteSample(dir, initSample, initForce)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s (%s sample)\n", path, initSample)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Set aws.region and memory.id in memex.yaml")
	fmt.Fprintln(out, "  2. Run 'memex doctor' to check credentials")
	fmt.Fprintln(out, "  3. Run 'memex extract'")
	return nil
}

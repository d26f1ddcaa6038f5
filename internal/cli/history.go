package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/memex/internal/render"
)

var (
	historyLimit     int
	historyExportDir string
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show saved extraction runs",
	Long: `Show runs saved with 'memex extract --save'.

Examples:
  memex history              # Recent runs
  memex history abc123       # One run with its records
  memex history delete abc123
  memex history export abc123 --dir ./exports`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a saved run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Write a saved run to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryExport,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "number of runs to show (0 for all)")
	historyExportCmd.Flags().StringVarP(&historyExportDir, "dir", "d", ".", "directory to write the export into")

	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyExportCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	return withApp(cmd, appOptions{state: true}, func(ctx context.Context, a *app) error {
		if len(args) == 1 {
			run, err := a.stateMgr.GetRun(args[0])
			if err != nil {
				return err
			}
			if outputJSON() {
				return render.JSON(a.out, run)
			}
			a.printer().Run(run)
			return nil
		}

		runs, err := a.stateMgr.ListRuns(historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if outputJSON() {
			return render.JSON(a.out, runs)
		}
		a.printer().Runs(runs)
		return nil
	})
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	return withApp(cmd, appOptions{state: true}, func(ctx context.Context, a *app) error {
		if err := a.stateMgr.DeleteRun(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted run %s\n", args[0])
		return nil
	})
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	return withApp(cmd, appOptions{state: true}, func(ctx context.Context, a *app) error {
		path, err := a.stateMgr.ExportRun(args[0], historyExportDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Exported run %s to %s\n", args[0], path)
		return nil
	})
}

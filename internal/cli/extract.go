package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/memex/internal/extract"
	"github.com/cadre-oss/memex/internal/render"
)

var (
	extractSave       bool
	extractNoSearch   bool
	extractNamespaces []string
)

var extractCmd = &cobra.Command{
	Use:   "extract [memory-id]",
	Short: "Extract every long-term record of a memory",
	Long: `Walk a memory end to end: read its strategies and actors, resolve the
namespace templates into concrete namespaces, list the records under each,
and fall back to semantic search when listing finds nothing.

Examples:
  memex extract                         # First memory listed
  memex extract mem-abc123 --save       # Keep a snapshot for 'memex history'
  memex extract --no-search -o json
  memex extract --namespace /support/tickets`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "save the run to the state store")
	extractCmd.Flags().BoolVar(&extractNoSearch, "no-search", false, "skip the semantic search fallback")
	extractCmd.Flags().StringSliceVar(&extractNamespaces, "namespace", nil, "extra namespace template to query (repeatable)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	return withApp(cmd, appOptions{service: true, state: extractSave, hooks: true}, func(ctx context.Context, a *app) error {
		opts := extract.OptionsFromConfig(a.cfg)
		if len(args) > 0 {
			opts.MemoryID = args[0]
		}
		opts.ExtraNamespaces = append(append([]string(nil), opts.ExtraNamespaces...), extractNamespaces...)
		opts.Save = extractSave
		if extractNoSearch {
			opts.Search = false
		}

		report, err := a.extractor().Run(ctx, opts)
		if err != nil {
			return err
		}

		if outputJSON() {
			return render.JSON(a.out, report)
		}
		a.printer().Report(report)
		return nil
	})
}

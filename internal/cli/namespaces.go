package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/memex/internal/extract"
	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/namespace"
	"github.com/cadre-oss/memex/internal/render"
)

var namespacesCmd = &cobra.Command{
	Use:   "namespaces [memory-id]",
	Short: "Resolve namespace templates without fetching records",
	Long: `Expand the namespace templates of a memory into the concrete namespaces
that extract would list, and show what each template resolved to.

Examples:
  memex namespaces
  memex namespaces mem-abc123 -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNamespaces,
}

type namespacePlan struct {
	MemoryID               string                `json:"memory_id"`
	Templates              []string              `json:"templates"`
	UsedFallbackNamespaces bool                  `json:"used_fallback_namespaces,omitempty"`
	Actors                 []memory.Actor        `json:"actors"`
	ActorsError            string                `json:"actors_error,omitempty"`
	Resolution             *namespace.Resolution `json:"resolution"`
}

func runNamespaces(cmd *cobra.Command, args []string) error {
	return withApp(cmd, appOptions{service: true}, func(ctx context.Context, a *app) error {
		opts := extract.OptionsFromConfig(a.cfg)
		if len(args) > 0 {
			opts.MemoryID = args[0]
		}

		report, err := a.extractor().Plan(ctx, opts)
		if err != nil {
			return err
		}

		if outputJSON() {
			return render.JSON(a.out, namespacePlan{
				MemoryID:               report.MemoryID,
				Templates:              report.Templates,
				UsedFallbackNamespaces: report.UsedFallbackNamespaces,
				Actors:                 report.Actors,
				ActorsError:            report.ActorsError,
				Resolution:             report.Resolution,
			})
		}

		p := a.printer()
		if report.ActorsError != "" {
			cmd.PrintErrf("Actors could not be listed: %s\n", report.ActorsError)
		} else {
			p.Actors(report.Actors)
		}
		p.Resolution(report.Resolution)
		return nil
	})
}

package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	memexErrors "github.com/cadre-oss/memex/internal/errors"
	"github.com/cadre-oss/memex/internal/extract"
	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/render"
)

var (
	recordsNamespace  string
	recordsStrategyID string
	recordsMaxResults int

	searchNamespace  string
	searchStrategyID string
	searchTopK       int
)

var recordsCmd = &cobra.Command{
	Use:   "records [memory-id]",
	Short: "List the records under one namespace",
	Long: `List the long-term memory records stored under a namespace prefix.

Examples:
  memex records --namespace /users/cust-1/preferences
  memex records -n /facts --strategy-id facts-1 --max-results 10 mem-1234`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecords,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantic search over memory records",
	Long: `Run a semantic search for query. With --namespace the search is limited
to that prefix; otherwise every resolved namespace of the memory is searched.

Examples:
  memex search "seat preference" --namespace /users/cust-1/preferences
  memex search "refund" --top-k 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	recordsCmd.Flags().StringVarP(&recordsNamespace, "namespace", "n", "", "namespace prefix to list (required)")
	recordsCmd.Flags().StringVar(&recordsStrategyID, "strategy-id", "", "only records written by this strategy")
	recordsCmd.Flags().IntVar(&recordsMaxResults, "max-results", 0, "maximum records to return (default is defaults.max_results)")
	_ = recordsCmd.MarkFlagRequired("namespace")

	searchCmd.Flags().StringVarP(&searchNamespace, "namespace", "n", "", "namespace prefix to search (default is every resolved namespace)")
	searchCmd.Flags().StringVar(&searchStrategyID, "strategy-id", "", "only records written by this strategy")
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 0, "results per namespace (default is defaults.top_k)")
}

func runRecords(cmd *cobra.Command, args []string) error {
	return withApp(cmd, appOptions{service: true}, func(ctx context.Context, a *app) error {
		id, err := memoryIDFromArgs(ctx, a, args)
		if err != nil {
			return err
		}

		limit := recordsMaxResults
		if limit <= 0 {
			limit = a.cfg.Defaults.MaxResults
		}
		records, err := a.svc.ListRecords(ctx, id, memory.ListQuery{
			NamespacePrefix: recordsNamespace,
			StrategyID:      recordsStrategyID,
			MaxResults:      limit,
		})
		if err != nil {
			return err
		}

		if outputJSON() {
			return render.JSON(a.out, extract.NamespaceResult{
				Namespace: recordsNamespace,
				Source:    extract.SourceList,
				Records:   records,
			})
		}
		a.printer().Records("NAMESPACE "+recordsNamespace, records)
		return nil
	})
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	if query == "" {
		return memexErrors.New(memexErrors.CodeValidation, "search query must not be empty")
	}

	return withApp(cmd, appOptions{service: true}, func(ctx context.Context, a *app) error {
		opts := extract.OptionsFromConfig(a.cfg)

		var (
			id         string
			namespaces []string
		)
		if searchNamespace != "" {
			resolved, err := a.memoryID(ctx)
			if err != nil {
				return err
			}
			id = resolved
			namespaces = []string{searchNamespace}
		} else {
			report, err := a.extractor().Plan(ctx, opts)
			if err != nil {
				return err
			}
			id = report.MemoryID
			namespaces = append(namespaces, report.Resolution.Namespaces...)
			sort.Strings(namespaces)
		}

		topK := searchTopK
		if topK <= 0 {
			topK = a.cfg.Defaults.TopK
		}

		var results []extract.NamespaceResult
		for _, ns := range namespaces {
			records, err := a.svc.SearchRecords(ctx, id, memory.SearchQuery{
				Query:           query,
				NamespacePrefix: ns,
				StrategyID:      searchStrategyID,
				TopK:            topK,
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Warn("Search failed", "namespace", ns, "error", err)
				results = append(results, extract.NamespaceResult{Namespace: ns, Source: extract.SourceSearch, Query: query, Error: err.Error()})
				continue
			}
			a.metrics.AddSearchHits(len(records))
			results = append(results, extract.NamespaceResult{Namespace: ns, Source: extract.SourceSearch, Query: query, Records: records})
		}

		if outputJSON() {
			return render.JSON(a.out, results)
		}

		p := a.printer()
		hits := 0
		for _, r := range results {
			switch {
			case r.Failed():
				fmt.Fprintf(a.out, "\nNamespace %s: failed: %s\n", r.Namespace, r.Error)
			case len(r.Records) > 0:
				hits += len(r.Records)
				p.Records(fmt.Sprintf("SEARCH %q IN %s", query, r.Namespace), r.Records)
			}
		}
		if hits == 0 {
			fmt.Fprintf(a.out, "No results for %q in %d namespace(s).\n", query, len(namespaces))
		}
		return nil
	})
}

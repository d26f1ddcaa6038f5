package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/memex/internal/render"
)

var memoriesCmd = &cobra.Command{
	Use:   "memories",
	Short: "List memory resources in the account",
	Long: `List the AgentCore memory resources visible in the configured region.

Examples:
  memex memories
  memex memories --region eu-west-1
  memex memories -o json`,
	Args: cobra.NoArgs,
	RunE: runMemories,
}

var showCmd = &cobra.Command{
	Use:   "show [memory-id]",
	Short: "Show a memory and its strategies",
	Long: `Show a memory resource with its long-term strategies and the namespace
templates each strategy writes into.

Examples:
  memex show                 # First memory listed
  memex show mem-abc123`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

var actorsCmd = &cobra.Command{
	Use:   "actors [memory-id]",
	Short: "List the actors of a memory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runActors,
}

func runMemories(cmd *cobra.Command, args []string) error {
	return withApp(cmd, appOptions{service: true}, func(ctx context.Context, a *app) error {
		memories, err := a.svc.ListMemories(ctx, a.cfg.Defaults.MaxMemories)
		if err != nil {
			return err
		}
		if outputJSON() {
			return render.JSON(a.out, memories)
		}
		a.printer().Memories(memories)
		return nil
	})
}

func runShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd, appOptions{service: true}, func(ctx context.Context, a *app) error {
		id, err := memoryIDFromArgs(ctx, a, args)
		if err != nil {
			return err
		}
		mem, err := a.svc.GetMemory(ctx, id)
		if err != nil {
			return err
		}
		if outputJSON() {
			return render.JSON(a.out, mem)
		}
		a.printer().Memory(mem)
		return nil
	})
}

func runActors(cmd *cobra.Command, args []string) error {
	return withApp(cmd, appOptions{service: true}, func(ctx context.Context, a *app) error {
		id, err := memoryIDFromArgs(ctx, a, args)
		if err != nil {
			return err
		}
		actors, err := a.svc.ListActors(ctx, id)
		if err != nil {
			return err
		}
		if outputJSON() {
			return render.JSON(a.out, actors)
		}
		a.printer().Actors(actors)
		return nil
	})
}

func memoryIDFromArgs(ctx context.Context, a *app, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	return a.memoryID(ctx)
}

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/memex/internal/extract"
	"github.com/cadre-oss/memex/internal/mcp"
)

var mcpServerCmd = &cobra.Command{
	Use:   "mcp-server",
	Short: "Serve memex tools over MCP on stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout so that an agent
can list memories, resolve namespaces, read records and run extractions.

Logs go to stderr. Register it with an MCP client as:
  {"command": "memex", "args": ["mcp-server"]}`,
	Args: cobra.NoArgs,
	RunE: runMCPServer,
}

func runMCPServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, appOptions{service: true})
	if err != nil {
		return err
	}
	defer a.Close()

	opts := extract.OptionsFromConfig(a.cfg)
	handler := mcp.NewToolHandler(a.svc, a.extractor(), opts)

	a.logger.Info("MCP server ready", "memory_id", opts.MemoryID)
	return mcp.NewServer(handler, Version, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
}

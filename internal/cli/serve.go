package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/memex/internal/server"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the memex HTTP API",
	Long: `Start a JSON API over the configured memory service. Extraction events
are streamed to clients at /api/events as server-sent events.

Examples:
  memex serve
  memex serve --host 0.0.0.0 --port 9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "port to listen on")
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "host to bind to")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, appOptions{service: true, state: true, hooks: true})
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a.cfg, a.svc, a.stateMgr, a.bus, a.logger, a.metrics)

	addr := fmt.Sprintf("%s:%d", serveHost, servePort)
	fmt.Fprintf(a.out, "memex API listening on http://%s\n", addr)
	return srv.Start(ctx, addr)
}

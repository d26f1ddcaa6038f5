package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cadre-oss/memex/internal/config"
	memexErrors "github.com/cadre-oss/memex/internal/errors"
	"github.com/cadre-oss/memex/internal/event"
	"github.com/cadre-oss/memex/internal/extract"
	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/render"
	"github.com/cadre-oss/memex/internal/state"
	"github.com/cadre-oss/memex/internal/telemetry"
)

// newService builds the remote memory service. Tests replace it.
var newService = func(ctx context.Context, cfg *config.Config) (memory.Service, error) {
	return memory.NewAgentCoreService(ctx, clientConfig(cfg))
}

func clientConfig(cfg *config.Config) memory.ClientConfig {
	return memory.ClientConfig{
		Region:          cfg.AWS.Region,
		Profile:         cfg.AWS.Profile,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		SessionToken:    cfg.AWS.SessionToken,
		Endpoint:        cfg.AWS.Endpoint,
		ControlEndpoint: cfg.AWS.ControlEndpoint,
	}
}

// loadConfig reads the config file, applies flag and MEMEX_* overrides and
// validates the result.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := configPath(); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, err
	}

	if v := viper.GetString("region"); v != "" {
		cfg.AWS.Region = v
	}
	if v := viper.GetString("profile"); v != "" {
		cfg.AWS.Profile = v
	}
	if v := viper.GetString("memory_id"); v != "" {
		cfg.Memory.ID = v
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return viper.ConfigFileUsed()
}

func outputJSON() bool {
	return strings.EqualFold(viper.GetString("output"), "json")
}

// app holds what a command needs to talk to the memory service.
type app struct {
	cfg      *config.Config
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
	exporter *telemetry.JSONFileExporter
	svc      memory.Service
	stateMgr *state.Manager
	bus      *event.Bus
	out      io.Writer
}

type appOptions struct {
	service bool
	state   bool
	hooks   bool
}

func newApp(ctx context.Context, cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  telemetry.NewLoggerTo(cmd.ErrOrStderr(), verbose, cfg.Logging.Level, cfg.Logging.Format),
		metrics: telemetry.NewMetrics(),
		out:     cmd.OutOrStdout(),
	}

	if cfg.Logging.File != "" {
		if err := a.logger.WithFile(cfg.Logging.File); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
	}

	if cfg.Telemetry.MetricsFile != "" {
		exp, err := telemetry.NewJSONFileExporter(cfg.Telemetry.MetricsFile)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open metrics file: %w", err)
		}
		a.exporter = exp
		a.metrics.SetExporter(exp)
	}

	if opts.service {
		inner, err := newService(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		retry := memory.DefaultRetryConfig()
		retry.MaxRetries = cfg.Defaults.MaxRetries
		a.svc = memory.Stack(inner, memory.StackOptions{
			Retry:             retry,
			RequestsPerSecond: cfg.Defaults.RequestsPerSecond,
			Burst:             cfg.Defaults.Concurrency,
			Metrics:           a.metrics,
			Logger:            a.logger,
		})
	}

	if opts.state {
		mgr, err := state.NewManager(cfg.State.Driver, cfg.State.Path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize state: %w", err)
		}
		a.stateMgr = mgr
	}

	if opts.hooks {
		bus, err := event.BuildBus(cfg.Hooks, a.logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.bus = bus
	}

	return a, nil
}

// Close releases the state store, the metrics exporter and the log file.
func (a *app) Close() {
	if a.stateMgr != nil {
		a.stateMgr.Close()
	}
	if a.exporter != nil {
		a.exporter.Close()
	}
	a.logger.Close()
}

func (a *app) printer() *render.Printer {
	return render.NewPrinter(a.out, a.cfg.Defaults.ContentLimit)
}

func (a *app) extractor() *extract.Extractor {
	return extract.New(a.svc,
		extract.WithLogger(a.logger),
		extract.WithMetrics(a.metrics),
		extract.WithState(a.stateMgr),
		extract.WithEventBus(a.bus),
		extract.WithRegion(a.cfg.AWS.Region),
	)
}

// memoryID returns the configured memory ID or the first memory listed.
func (a *app) memoryID(ctx context.Context) (string, error) {
	return a.extractor().ResolveMemoryID(ctx, extract.OptionsFromConfig(a.cfg))
}

// commandContext bounds a command by defaults.timeout and cancels it on
// SIGINT or SIGTERM.
func commandContext(parent context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	timeout, err := cfg.Defaults.ParsedTimeout()
	if err != nil || timeout <= 0 {
		return ctx, stop
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	return tctx, func() {
		cancel()
		stop()
	}
}

// withApp loads an app, runs fn under a bounded context and closes the app.
func withApp(cmd *cobra.Command, opts appOptions, fn func(ctx context.Context, a *app) error) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}

	a, err := newApp(parent, cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(parent, a.cfg)
	defer cancel()

	err = fn(ctx, a)
	if ctx.Err() == context.DeadlineExceeded && err != nil && memexErrors.AsCode(err) == "" {
		return memexErrors.Wrap(memexErrors.CodeTimeout, "command timed out", err).
			WithSuggestion("Raise defaults.timeout in memex.yaml")
	}
	return err
}

package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/memex/internal/config"
	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/state"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check environment and credentials",
	Long:  "Validate the configuration, AWS region and credentials, memory access and the state store.",
	RunE:  runDoctor,
}

// checkCredentials is replaced in tests.
var checkCredentials = func(ctx context.Context, cfg *config.Config) (string, error) {
	awsCfg, err := memory.LoadAWSConfig(ctx, clientConfig(cfg))
	if err != nil {
		return "", err
	}
	creds, err := memory.CheckCredentials(ctx, awsCfg)
	if err != nil {
		return "", err
	}
	return creds.Source, nil
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "memex doctor - checking your environment")
	fmt.Fprintln(out)
	allOK := true

	ok := func(label, detail string) {
		fmt.Fprintf(out, "  %-12s %s [ok]\n", label+":", detail)
	}
	fail := func(label, detail, hint string) {
		fmt.Fprintf(out, "  %-12s %s [x]\n", label+":", detail)
		if hint != "" {
			fmt.Fprintf(out, "    -> %s\n", hint)
		}
		allOK = false
	}

	ok("Go version", runtime.Version())
	ok("Platform", runtime.GOOS+"/"+runtime.GOARCH)

	cfg, err := loadConfig()
	if err != nil {
		fail("Config", err.Error(), "Run 'memex init' or fix memex.yaml")
		finishDoctor(out, allOK)
		return nil
	}
	if path := configPath(); path != "" {
		ok("Config", path)
	} else {
		ok("Config", "defaults (no memex.yaml)")
	}

	if cfg.AWS.Region != "" {
		ok("Region", cfg.AWS.Region)
	} else {
		fail("Region", "NOT SET", "Set aws.region, --region or AWS_REGION")
	}

	ctx, cancel := commandContext(cmd.Context(), cfg)
	defer cancel()

	if source, err := checkCredentials(ctx, cfg); err != nil {
		fail("Credentials", err.Error(), "Run 'aws configure' or set AWS_PROFILE")
	} else {
		ok("Credentials", source)
	}

	if allOK {
		if svc, err := newService(ctx, cfg); err != nil {
			fail("Memory API", err.Error(), "")
		} else if memories, err := svc.ListMemories(ctx, cfg.Defaults.MaxMemories); err != nil {
			fail("Memory API", err.Error(), "Check bedrock-agentcore permissions for this region")
		} else {
			ok("Memory API", fmt.Sprintf("%d memories visible", len(memories)))
		}
	}

	mgr, err := state.NewManager(cfg.State.Driver, cfg.State.Path)
	if err != nil {
		fail("State DB", err.Error(), "")
	} else {
		mgr.Close()
		detail := cfg.State.Driver
		if cfg.State.Path != "" {
			detail += " (" + cfg.State.Path + ")"
		}
		ok("State DB", detail)
	}

	finishDoctor(out, allOK)
	return nil
}

func finishDoctor(out io.Writer, allOK bool) {
	fmt.Fprintln(out)
	if allOK {
		fmt.Fprintln(out, "All checks passed!")
	} else {
		fmt.Fprintln(out, "Some checks failed. See above for details.")
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wimforge/wimforge/internal/buildconfig"
	"github.com/wimforge/wimforge/internal/checks"
	"github.com/wimforge/wimforge/internal/logger"
	"github.com/wimforge/wimforge/internal/model"
	"github.com/wimforge/wimforge/internal/preflight"
	"github.com/wimforge/wimforge/internal/tui"
)

type checkOptions struct {
	Name        string
	ConfigPath  string
	BuildPath   string
	VHDSizeGB   float64
	NoRemediate bool
	Verbose     bool
}

var checkCmdRunner = runCheck

func newCheckCmd(root *rootFlags) *cobra.Command {
	opts := checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <name>",
		Short: "Run a single preflight check",
		Long: `Check runs one preflight check in isolation. Without a build
configuration every feature gate is treated as enabled, so gated checks
probe instead of skipping. Available checks:

  ` + strings.Join(checks.RunOrder, "\n  "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: checks.RunOrder,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Name = args[0]
			opts.Verbose = root.verbose

			return checkCmdRunner(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to the build configuration file (optional)")
	cmd.Flags().StringVar(&opts.BuildPath, "build-path", "", "Build working directory to probe")
	cmd.Flags().Float64Var(&opts.VHDSizeGB, "vhd-size", 0, "VHD size in GB to size disk requirements against")
	cmd.Flags().BoolVar(&opts.NoRemediate, "no-remediate", false, "Detect problems without attempting repairs")

	return cmd
}

func runCheck(opts checkOptions) error {
	runOpts := preflight.Options{
		// With no config every gate is open so the named check probes.
		Features: buildconfig.Features{
			CaptureMedia:        true,
			DeploymentMedia:     true,
			VMCreation:          true,
			InstallApplications: true,
			InjectDrivers:       true,
			InjectUpdates:       true,
		},
		ConfigPath:         opts.ConfigPath,
		BuildPath:          opts.BuildPath,
		VHDSizeGB:          opts.VHDSizeGB,
		AttemptRemediation: !opts.NoRemediate,
	}

	if opts.ConfigPath != "" {
		cfg, err := buildconfig.Parse(opts.ConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading build configuration: %v\n", err)
			os.Exit(exitConfig)
		}
		runOpts.Features = cfg.Features
		runOpts.BuildPath = cfg.BuildPath
		runOpts.VHDSizeGB = cfg.VHDSizeGB
		runOpts.TargetArch = cfg.Arch
	}
	if opts.BuildPath != "" {
		runOpts.BuildPath = opts.BuildPath
	}
	if opts.VHDSizeGB > 0 {
		runOpts.VHDSizeGB = opts.VHDSizeGB
	}
	if runOpts.BuildPath == "" {
		if wd, err := os.Getwd(); err == nil {
			runOpts.BuildPath = wd
		}
	}

	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(exitInternal)
	}

	runner := preflight.New(log)
	tier, result, err := runner.RunCheck(context.Background(), opts.Name, runOpts)
	if err != nil {
		return err
	}

	printCheckResult(os.Stdout, tier, result)

	if result.Status == model.StatusFailed {
		os.Exit(exitNotReady)
	}
	os.Exit(exitOK)
	return nil
}

func printCheckResult(w io.Writer, tier model.Tier, result model.CheckResult) {
	fmt.Fprintf(w, "%s %s [%s, %s] %s\n",
		tui.StatusIcon(result.Status),
		result.CheckName,
		tierLabels[tier],
		result.Status,
		result.Message,
	)
	for _, detail := range result.Details {
		fmt.Fprintf(w, "    %s: %v\n", detail.Key, detail.Value)
	}
	if result.Remediation != "" {
		fmt.Fprintln(w, "\nSuggested remediation:")
		fmt.Fprintln(w, indent(result.Remediation, "  "))
	}
}

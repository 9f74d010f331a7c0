package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wimforge/wimforge/internal/buildconfig"
	"github.com/wimforge/wimforge/internal/checks"
	"github.com/wimforge/wimforge/internal/logger"
	"github.com/wimforge/wimforge/internal/model"
	"github.com/wimforge/wimforge/internal/preflight"
	"github.com/wimforge/wimforge/internal/tui"
)

type preflightOptions struct {
	ConfigPath  string
	BuildPath   string
	VHDSizeGB   float64
	Arch        string
	SkipCleanup bool
	NoRemediate bool
	JSON        bool

	Verbose        bool
	NonInteractive bool
}

var preflightCmdRunner = runPreflight

func newPreflightCmd(root *rootFlags) *cobra.Command {
	opts := preflightOptions{}

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Validate the host before starting an image build",
		Long: `Preflight runs the tiered host validation pass: critical environment
checks, feature-gated checks derived from the build configuration, advisory
hygiene checks and best-effort maintenance. Exit code 0 means the host is
ready, 1 means a blocking problem was found, 2 means the build configuration
could not be loaded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = root.verbose
			opts.NonInteractive = !term.IsTerminal(int(os.Stdout.Fd()))

			return preflightCmdRunner(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to the build configuration file")
	cmd.MarkFlagRequired("config") //nolint:errcheck
	cmd.Flags().StringVar(&opts.BuildPath, "build-path", "", "Override the build working directory from the config")
	cmd.Flags().Float64Var(&opts.VHDSizeGB, "vhd-size", 0, "Override the VHD size in GB from the config")
	cmd.Flags().StringVar(&opts.Arch, "arch", "", "Override the target architecture (x64 or arm64)")
	cmd.Flags().BoolVar(&opts.SkipCleanup, "skip-cleanup", false, "Skip the stale artifact maintenance pass")
	cmd.Flags().BoolVar(&opts.NoRemediate, "no-remediate", false, "Detect problems without attempting repairs")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output the report in JSON format")

	return cmd
}

func runPreflight(opts preflightOptions) error {
	cfg, err := buildconfig.Parse(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading build configuration: %v\n", err)
		os.Exit(exitConfig)
	}
	applyOverrides(cfg, &opts)
	if err := buildconfig.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid build configuration: %v\n", err)
		os.Exit(exitConfig)
	}

	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: !opts.JSON})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(exitInternal)
	}

	runner := preflight.New(log)
	runOpts := preflight.Options{
		Features:           cfg.Features,
		ConfigPath:         opts.ConfigPath,
		BuildPath:          cfg.BuildPath,
		VHDSizeGB:          cfg.VHDSizeGB,
		TargetArch:         cfg.Arch,
		SkipCleanup:        opts.SkipCleanup,
		AttemptRemediation: !opts.NoRemediate,
	}

	interactive := !opts.NonInteractive && !opts.JSON
	modelState := tui.NewModel("preflight", checks.RunOrder, !interactive)

	var program *tea.Program
	var programErr error
	done := make(chan struct{})

	if interactive {
		program = tea.NewProgram(modelState)
		go func() {
			_, programErr = program.Run()
			close(done)
		}()
	}

	runner.Progress = func(tier model.Tier, result model.CheckResult) {
		dispatchTuiMessage(interactive, program, &modelState, tui.CheckCompleteMsg{Tier: tier, Result: result})
	}

	report := runner.Run(context.Background(), runOpts)
	dispatchTuiMessage(interactive, program, &modelState, tui.ReportMsg{Report: report})

	if interactive {
		program.Send(tea.QuitMsg{})
		<-done
		if programErr != nil {
			fmt.Fprintf(os.Stderr, "Error rendering progress: %v\n", programErr)
		}
	}

	if opts.JSON {
		printJSONReport(os.Stdout, report, opts.ConfigPath)
	} else {
		printReport(os.Stdout, report)
	}

	if !report.IsValid {
		os.Exit(exitNotReady)
	}
	os.Exit(exitOK)
	return nil
}

// applyOverrides lets command-line flags shadow individual config fields,
// so an operator can probe "what if the VHD were bigger" without editing
// the config.
func applyOverrides(cfg *buildconfig.BuildConfig, opts *preflightOptions) {
	if opts.BuildPath != "" {
		cfg.BuildPath = opts.BuildPath
	}
	if opts.VHDSizeGB > 0 {
		cfg.VHDSizeGB = opts.VHDSizeGB
	}
	if opts.Arch != "" {
		cfg.Arch = opts.Arch
	}
}

func dispatchTuiMessage(interactive bool, program *tea.Program, state *tui.Model, msg tea.Msg) {
	if interactive {
		if program != nil {
			program.Send(msg)
		}
		return
	}

	updated, _ := state.Update(msg)
	if m, ok := updated.(tui.Model); ok {
		*state = m
	}
}

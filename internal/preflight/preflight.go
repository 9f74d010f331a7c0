// Package preflight runs the tiered validation pass that decides whether a
// host is fit to start an image build. Tier 1 holds the critical environment
// checks, Tier 2 the feature-gated ones, Tier 3 advisory hygiene and Tier 4
// best-effort maintenance. Only Tier 1 and Tier 2 failures make the report
// invalid; the caller aborts on an invalid report and merely surfaces
// warnings otherwise.
package preflight

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/wimforge/wimforge/internal/buildconfig"
	"github.com/wimforge/wimforge/internal/checks"
	"github.com/wimforge/wimforge/internal/hostprobe"
	"github.com/wimforge/wimforge/internal/logger"
	"github.com/wimforge/wimforge/internal/model"
	"github.com/wimforge/wimforge/internal/wimmount"
)

// Options carries the caller-supplied build parameters for one preflight run.
type Options struct {
	Features   buildconfig.Features
	ConfigPath string
	BuildPath  string
	VHDSizeGB  float64
	TargetArch string

	SkipCleanup bool
	// AttemptRemediation lets the filter-driver diagnostic repair the host.
	// Defaults to true at the CLI; detection-only keeps the run fast.
	AttemptRemediation bool
}

// FilterDiagnostic is the filter-driver subsystem as the orchestrator sees it.
type FilterDiagnostic interface {
	Run(ctx context.Context, attemptRemediation bool) model.CheckResult
}

// ProgressFunc observes each completed check; the interactive UI renders it.
type ProgressFunc func(tier model.Tier, result model.CheckResult)

// Runner owns the providers the individual checks probe the host through.
// Every field has a production default from New; tests replace them.
type Runner struct {
	Log        *logger.Logger
	Host       hostprobe.Runner
	Elevation  checks.ElevationProvider
	FreeSpace  checks.FreeSpaceProvider
	LookPath   hostprobe.LookPathFunc
	Dial       checks.DialFunc
	Diagnostic FilterDiagnostic
	Progress   ProgressFunc
}

// New wires a production runner.
func New(log *logger.Logger) *Runner {
	host := hostprobe.ExecRunner{}
	return &Runner{
		Log:        log,
		Host:       host,
		Elevation:  checks.DefaultElevationProvider,
		FreeSpace:  checks.DefaultFreeSpaceProvider,
		LookPath:   exec.LookPath,
		Diagnostic: wimmount.NewDiagnostic(host, log),
	}
}

// Run executes the tiers strictly in order. Within a tier the checks have no
// dependency on each other; across tiers the ordering is part of the
// contract. Tier 1 never exits early: the operator sees the full picture
// even when the first check already failed.
func (r *Runner) Run(ctx context.Context, opts Options) *model.PreflightReport {
	report := model.NewReportBuilder()

	r.Log.WithFields(map[string]any{
		"arch":     opts.TargetArch,
		"features": opts.Features.Enabled(),
	}).Info("starting preflight")

	for _, name := range checks.RunOrder {
		run, tier := r.lookup(ctx, name, opts)
		r.record(report, tier, name, run)
	}

	result := report.Finalize()
	r.Log.WithFields(map[string]any{
		"valid":    result.IsValid,
		"errors":   len(result.Errors),
		"warnings": len(result.Warnings),
		"duration": result.Duration.String(),
	}).Info("preflight complete")
	return result
}

// RunCheck executes a single named check with the same gating and wiring the
// full pass uses. It backs `wimforge check <name>`.
func (r *Runner) RunCheck(ctx context.Context, name string, opts Options) (model.Tier, model.CheckResult, error) {
	run, tier := r.lookup(ctx, name, opts)
	if run == nil {
		return 0, model.CheckResult{}, fmt.Errorf("unknown check %q", name)
	}
	return tier, r.invoke(tier, name, run), nil
}

// lookup binds a check name to its tier and a ready-to-run closure over the
// runner's providers. Tier 3 and 4 checks come back wrapped in demote.
func (r *Runner) lookup(ctx context.Context, name string, opts Options) (func() model.CheckResult, model.Tier) {
	switch name {
	case checks.NameAdministrator:
		return func() model.CheckResult { return checks.Administrator(r.Elevation) }, model.Tier1
	case checks.NamePowerShell:
		return func() model.CheckResult { return checks.PowerShellVersion(ctx, r.Host) }, model.Tier1
	case checks.NameHypervisor:
		return func() model.CheckResult { return checks.Hypervisor(ctx, r.Host) }, model.Tier1
	case checks.NameImageTooling:
		return func() model.CheckResult { return checks.ImageTooling(ctx, r.Host, r.LookPath) }, model.Tier2
	case checks.NameDiskSpace:
		return func() model.CheckResult {
			return checks.DiskSpace(r.FreeSpace, opts.Features, opts.VHDSizeGB, opts.BuildPath)
		}, model.Tier2
	case checks.NameNetwork:
		return func() model.CheckResult { return checks.Network(ctx, r.Dial, opts.Features) }, model.Tier2
	case checks.NameConfigFile:
		return func() model.CheckResult { return checks.ConfigFile(opts.ConfigPath) }, model.Tier2
	case checks.NameWimMount:
		return func() model.CheckResult {
			if !opts.Features.NeedsImageMount() {
				return model.NewResult(checks.NameWimMount).Skip("no requested feature mounts an offline image")
			}
			return r.Diagnostic.Run(ctx, opts.AttemptRemediation)
		}, model.Tier2
	case checks.NameAntivirus:
		return func() model.CheckResult {
			return demote(checks.AntivirusExclusions(ctx, r.Host, opts.BuildPath))
		}, model.Tier3
	case checks.NameCleanup:
		return func() model.CheckResult {
			return demote(checks.Cleanup(ctx, r.Host, opts.BuildPath, opts.SkipCleanup))
		}, model.Tier4
	default:
		return nil, 0
	}
}

// record runs one check with panic isolation and folds the outcome into the
// report. No check failure, however violent, escapes the engine.
func (r *Runner) record(report *model.ReportBuilder, tier model.Tier, name string, run func() model.CheckResult) {
	result := r.invoke(tier, name, run)

	log := r.Log.WithCheck(result.CheckName)
	switch result.Status {
	case model.StatusFailed:
		log.Warn(result.Message)
	case model.StatusWarning:
		log.Warn(result.Message)
	default:
		log.Debug(result.Message)
	}

	report.Add(tier, result)
	if r.Progress != nil {
		r.Progress(tier, result)
	}
}

func (r *Runner) invoke(tier model.Tier, name string, run func() model.CheckResult) (result model.CheckResult) {
	defer func() {
		if rec := recover(); rec != nil {
			builder := model.NewResult(name)
			builder.Detail("Panic", fmt.Sprint(rec))
			message := fmt.Sprintf("check aborted: %v", rec)
			if tier == model.Tier1 || tier == model.Tier2 {
				result = builder.Fail(message, "1. Re-run the preflight.\n2. Report the panic if it persists.")
				return
			}
			result = builder.Warn(message, "1. Re-run the preflight.")
		}
	}()
	return run()
}

// demote caps a result at Warning. Tier 3 and Tier 4 are not allowed to
// produce a blocking failure regardless of what the check returned.
func demote(result model.CheckResult) model.CheckResult {
	if result.Status == model.StatusFailed {
		result.Status = model.StatusWarning
	}
	return result
}

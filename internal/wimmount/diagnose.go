package wimmount

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wimforge/wimforge/internal/hostprobe"
	"github.com/wimforge/wimforge/internal/logger"
	"github.com/wimforge/wimforge/internal/model"
)

// Latency budgets for the whole diagnostic. Detection is pure observation;
// remediation adds mutating actions plus settle delays.
const (
	DetectTimeout    = 2 * time.Second
	RemediateTimeout = 10 * time.Second
)

// CheckName is the stable report key for this diagnostic.
const CheckName = "wimmount"

const notLoadedRemediation = `1. Run: reg.exe add ` + altitudeKey + ` /v Altitude /t REG_SZ /d ` + ExpectedAltitude + ` /f
2. Run: fltmc.exe load ` + ServiceName + `
3. Run: sc.exe start ` + ServiceName + `
4. If the filter still does not load, reinstall the Windows ADK Deployment Tools.
5. No action is required to continue: the build will fall back to native DISM mounting.`

// Diagnostic fuses the evidence into a verdict and optionally repairs.
//
// The verdict is deliberately never a failure: a compatible, driver-free
// DISM mounting path exists, so a missing filter downgrades the build
// instead of blocking it. Downstream consumers read the UsingNativeDISM
// detail to pick the fallback.
type Diagnostic struct {
	Collector  *Collector
	Remediator *Remediator
	Log        *logger.Logger
}

// NewDiagnostic wires a production diagnostic over the given runner.
func NewDiagnostic(runner hostprobe.Runner, log *logger.Logger) *Diagnostic {
	return &Diagnostic{
		Collector:  NewCollector(runner),
		Remediator: NewRemediator(runner, log),
		Log:        log,
	}
}

// Run gathers evidence, classifies it, and - when the filter is missing and
// the caller opted in - attempts one remediation pass before re-reading the
// primary signal. The result is Passed or Warning, never Failed.
func (d *Diagnostic) Run(ctx context.Context, attemptRemediation bool) model.CheckResult {
	budget := DetectTimeout
	if attemptRemediation {
		budget = RemediateTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	builder := model.NewResult(CheckName)
	ev := d.Collector.Gather(ctx)

	if ev.FilterLoaded {
		d.recordEvidence(builder, ev)
		builder.Detail("UsingNativeDISM", false)
		builder.Detail("RemediationAttempted", false)
		return builder.Pass(fmt.Sprintf("%s filter is loaded at altitude %s", FilterName, ev.FilterAltitude))
	}

	outcome := Outcome{}
	repaired := false
	if attemptRemediation && d.Remediator != nil {
		outcome = d.Remediator.Remediate(ctx, ev)
		if outcome.Attempted {
			loaded, err := d.Collector.RecheckFilterLoaded(ctx)
			if err != nil {
				ev.recordProbeError("filter-list-recheck", err)
			}
			repaired = loaded
		}
	}

	d.recordEvidence(builder, ev)
	builder.Detail("UsingNativeDISM", !repaired)
	builder.Detail("RemediationAttempted", outcome.Attempted)
	if outcome.Attempted {
		builder.Detail("RemediationActions", outcome.ActionsTaken)
		builder.Detail("RemediationSucceeded", repaired)
	} else if outcome.Reason != "" {
		builder.Detail("RemediationSkippedReason", outcome.Reason)
	}

	if repaired {
		return builder.Pass(fmt.Sprintf("%s filter was not loaded; remediation restored it", FilterName))
	}

	return builder.Warn(
		fmt.Sprintf("%s filter is not loaded; %s", FilterName, d.explain(ev)),
		notLoadedRemediation)
}

// recordEvidence writes the full observation set in a fixed order so the
// same host state always renders the same report.
func (d *Diagnostic) recordEvidence(builder *model.ResultBuilder, ev Evidence) {
	builder.Detail("FilterLoaded", ev.FilterLoaded)
	if ev.FilterLoaded {
		builder.Detail("FilterAltitude", ev.FilterAltitude)
	}
	builder.Detail("RegistryAltitude", ev.RegistryAltitude)
	builder.Detail("RegistryAltitudeOK", ev.RegistryAltitudeOK)
	if len(ev.AltitudeConflicts) > 0 {
		conflicts := make([]string, 0, len(ev.AltitudeConflicts))
		for _, filter := range ev.AltitudeConflicts {
			conflicts = append(conflicts, fmt.Sprintf("%s@%s", filter.Name, filter.Altitude))
		}
		builder.Detail("AltitudeConflicts", conflicts)
	}
	builder.Detail("ServiceExists", ev.Service.Exists)
	builder.Detail("ServiceState", ev.Service.State)
	builder.Detail("ServiceQuerySource", ev.Service.Source)
	builder.Detail("DriverFileExists", ev.DriverFile.Exists)
	builder.Detail("DriverFileSize", ev.DriverFile.Size)
	builder.Detail("DriverSizeSuspect", ev.DriverSizeSuspect)
	builder.Detail("DriverHashKnown", ev.DriverHashKnown)
	builder.Detail("DriverHashVerified", ev.DriverHashVerified)
	builder.Detail("OSBuild", ev.OSBuild)
	if len(ev.SecurityAgents) > 0 {
		builder.Detail("SecurityAgents", ev.SecurityAgents)
	}
	if len(ev.ProbeErrors) > 0 {
		builder.Detail("ProbeErrors", ev.ProbeErrors)
	}
}

// explain names the most concrete secondary finding for the message line.
func (d *Diagnostic) explain(ev Evidence) string {
	switch {
	case len(ev.AltitudeConflicts) > 0:
		return fmt.Sprintf("another filter occupies altitude %s (%s)",
			ExpectedAltitude, ev.AltitudeConflicts[0].Name)
	case ev.RegistryAltitude != "" && !ev.RegistryAltitudeOK:
		return fmt.Sprintf("its configured altitude is %s, expected %s",
			ev.RegistryAltitude, ExpectedAltitude)
	case !ev.DriverFile.Exists && ev.DriverFile.Path != "":
		return "the driver file is missing from disk"
	case ev.DriverSizeSuspect:
		return fmt.Sprintf("the driver file looks truncated (%d bytes)", ev.DriverFile.Size)
	case !ev.Service.Exists && ev.Service.Source != "":
		return "its backing service is not registered"
	case len(ev.SecurityAgents) > 0:
		return fmt.Sprintf("security software may be interfering (%s)",
			strings.Join(ev.SecurityAgents, ", "))
	default:
		return "the native DISM fallback will be used"
	}
}

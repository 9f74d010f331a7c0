package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/wimforge/wimforge/internal/hostprobe"
	"github.com/wimforge/wimforge/internal/model"
	"github.com/wimforge/wimforge/internal/wimmount"
)

const antivirusRemediation = `1. Add the build path to the antivirus exclusion list. For Defender: Add-MpPreference -ExclusionPath <build-path>
2. If a third-party agent is installed, exclude the build path in its console as well.
3. Re-run the preflight.`

// AntivirusExclusions is an advisory Tier 3 check: real-time scanning of the
// build workspace slows image servicing badly and is a known source of
// filter driver interference. It never fails the preflight.
func AntivirusExclusions(ctx context.Context, runner hostprobe.Runner, buildPath string) model.CheckResult {
	builder := model.NewResult(NameAntivirus)
	builder.Detail("BuildPath", buildPath)

	exclusions, exclErr := defenderExclusions(ctx, runner)
	covered := false
	if exclErr == nil {
		covered = pathCovered(buildPath, exclusions)
		builder.Detail("DefenderExclusionCovers", covered)
	} else {
		builder.Detail("DefenderQueryError", exclErr.Error())
	}

	agents := thirdPartyAgents(ctx, runner)
	builder.Detail("ThirdPartyAgents", agents)

	switch {
	case exclErr != nil:
		return builder.Warn(
			fmt.Sprintf("could not verify antivirus exclusions: %v", exclErr),
			antivirusRemediation)
	case !covered && len(agents) > 0:
		return builder.Warn(
			fmt.Sprintf("build path is not excluded from scanning and %s is present", strings.Join(agents, ", ")),
			antivirusRemediation)
	case !covered:
		return builder.Warn("build path is not in the Defender exclusion list", antivirusRemediation)
	case len(agents) > 0:
		return builder.Warn(
			fmt.Sprintf("third-party security software detected: %s", strings.Join(agents, ", ")),
			antivirusRemediation)
	default:
		return builder.Pass("build path is excluded from real-time scanning")
	}
}

func defenderExclusions(ctx context.Context, runner hostprobe.Runner) ([]string, error) {
	output, err := hostprobe.PowerShell(ctx, runner, "(Get-MpPreference).ExclusionPath -join ';'")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, p := range strings.Split(output, ";") {
		p = strings.TrimSpace(p)
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

func thirdPartyAgents(ctx context.Context, runner hostprobe.Runner) []string {
	output, err := hostprobe.PowerShell(ctx, runner, "(Get-Service).Name -join ';'")
	if err != nil {
		// Advisory heuristic only; a failed service enumeration is not
		// worth its own warning.
		return nil
	}
	return wimmount.MatchSecurityAgents(strings.Split(output, ";"))
}

func pathCovered(path string, exclusions []string) bool {
	normalized := normalizePath(path)
	for _, exclusion := range exclusions {
		e := normalizePath(exclusion)
		if normalized == e || strings.HasPrefix(normalized, e+`\`) {
			return true
		}
	}
	return false
}

func normalizePath(path string) string {
	path = strings.ReplaceAll(path, "/", `\`)
	path = strings.TrimRight(path, `\`)
	return strings.ToLower(path)
}

package checks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/wimforge/wimforge/internal/hostprobe"
	"github.com/wimforge/wimforge/internal/model"
)

// Minimum host PowerShell version. Evidence gathering and image servicing
// both shell out to powershell.exe, so an ancient host runtime breaks the
// structured queries long before the build starts.
const (
	minPowerShellMajor = 5
	minPowerShellMinor = 1
)

const powershellRemediation = `1. Install Windows Management Framework 5.1 or later.
2. Open a new elevated terminal so the updated runtime is picked up.
3. Re-run the preflight.`

// PowerShellVersion verifies the host PowerShell runtime meets the minimum.
func PowerShellVersion(ctx context.Context, runner hostprobe.Runner) model.CheckResult {
	builder := model.NewResult(NamePowerShell)

	output, err := hostprobe.PowerShell(ctx, runner, "$PSVersionTable.PSVersion.ToString()")
	if err != nil {
		builder.Detail("ProbeError", err.Error())
		return builder.Fail(
			fmt.Sprintf("could not determine PowerShell version: %v", err),
			powershellRemediation)
	}

	version := strings.TrimSpace(output)
	builder.Detail("Version", version)

	major, minor, ok := parseMajorMinor(version)
	if !ok {
		return builder.Fail(
			fmt.Sprintf("unrecognized PowerShell version %q", version),
			powershellRemediation)
	}

	if major < minPowerShellMajor || (major == minPowerShellMajor && minor < minPowerShellMinor) {
		return builder.Fail(
			fmt.Sprintf("PowerShell %s is below the required %d.%d", version, minPowerShellMajor, minPowerShellMinor),
			powershellRemediation)
	}

	return builder.Pass(fmt.Sprintf("PowerShell %s meets the %d.%d minimum", version, minPowerShellMajor, minPowerShellMinor))
}

func parseMajorMinor(version string) (int, int, bool) {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

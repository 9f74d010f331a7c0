package checks

import (
	"fmt"
	"strings"

	"github.com/wimforge/wimforge/internal/buildconfig"
	"github.com/wimforge/wimforge/internal/model"
	"github.com/wimforge/wimforge/internal/requirements"
)

// FreeSpaceProvider returns the free bytes of the volume holding path.
type FreeSpaceProvider func(path string) (uint64, error)

const bytesPerGB = 1024 * 1024 * 1024

// DiskSpace verifies the staging volume can hold the requested build.
// The requirement is derived from the feature set: every enabled feature
// adds its own cost band on top of the VHD plus scratch overhead.
func DiskSpace(provider FreeSpaceProvider, features buildconfig.Features, vhdSizeGB float64, buildPath string) model.CheckResult {
	builder := model.NewResult(NameDiskSpace)
	if provider == nil {
		provider = DefaultFreeSpaceProvider
	}

	req := requirements.Calculate(features, vhdSizeGB)
	builder.Detail("BuildPath", buildPath)
	builder.Detail("RequiredGB", req.RequiredDiskSpaceGB)

	freeBytes, err := provider(buildPath)
	if err != nil {
		builder.Detail("ProbeError", err.Error())
		return builder.Warn(
			fmt.Sprintf("could not determine free space for %s: %v", buildPath, err),
			fmt.Sprintf("1. Verify %s exists and is writable.\n2. Re-run the preflight.", buildPath))
	}

	freeGB := float64(freeBytes) / bytesPerGB
	builder.Detail("FreeGB", roundGB(freeGB))

	if freeGB < req.RequiredDiskSpaceGB {
		remediation := fmt.Sprintf(
			"1. Free at least %.0f GB on the volume holding %s (currently %.1f GB free).\n"+
				"2. Or move the build to a larger volume with --build-path.\n"+
				"3. Or disable optional features (%s) to shrink the requirement.",
			req.RequiredDiskSpaceGB-freeGB+1, buildPath, freeGB,
			strings.Join(features.Enabled(), ", "))
		return builder.Fail(
			fmt.Sprintf("%.1f GB free, %.0f GB required for the requested build", freeGB, req.RequiredDiskSpaceGB),
			remediation)
	}

	return builder.Pass(fmt.Sprintf("%.1f GB free, %.0f GB required", freeGB, req.RequiredDiskSpaceGB))
}

func roundGB(gb float64) float64 {
	return float64(int(gb*10+0.5)) / 10
}

package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/wimforge/wimforge/internal/hostprobe"
	"github.com/wimforge/wimforge/internal/model"
)

const hypervisorQuery = "(Get-CimInstance -ClassName Win32_ComputerSystem).HypervisorPresent"

const hypervisorRemediation = `1. Enable hardware virtualization (Intel VT-x / AMD-V) in firmware if it is disabled.
2. Run: Enable-WindowsOptionalFeature -Online -FeatureName Microsoft-Hyper-V -All
3. Reboot and re-run the preflight.`

// Hypervisor verifies a hypervisor is present on the host. The build
// pipeline provisions a worker VM for every image, so this runs in Tier 1
// regardless of which features were requested.
func Hypervisor(ctx context.Context, runner hostprobe.Runner) model.CheckResult {
	builder := model.NewResult(NameHypervisor)

	output, err := hostprobe.PowerShell(ctx, runner, hypervisorQuery)
	if err != nil {
		builder.Detail("ProbeError", err.Error())
		return builder.Warn(
			fmt.Sprintf("could not determine hypervisor state: %v", err),
			hypervisorRemediation)
	}

	present := strings.EqualFold(strings.TrimSpace(output), "true")
	builder.Detail("HypervisorPresent", present)
	if !present {
		return builder.Fail("no hypervisor is running on this host", hypervisorRemediation)
	}
	return builder.Pass("hypervisor is present")
}

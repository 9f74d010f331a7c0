package checks

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/wimforge/wimforge/internal/hostprobe"
	"github.com/wimforge/wimforge/internal/model"
)

const toolingRemediation = `1. Verify %WINDIR%\System32\Dism.exe exists; repair the OS with "sfc /scannow" if it is missing.
2. If a Windows ADK copy of DISM is required, install the ADK Deployment Tools and reopen the terminal.
3. Re-run the preflight.`

// ImageTooling verifies dism.exe resolves on PATH and responds. DISM drives
// every servicing operation in the build, with or without the filter driver.
func ImageTooling(ctx context.Context, runner hostprobe.Runner, lookPath hostprobe.LookPathFunc) model.CheckResult {
	builder := model.NewResult(NameImageTooling)
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	path, err := lookPath("dism.exe")
	if err != nil {
		builder.Detail("Resolved", false)
		return builder.Fail("dism.exe was not found on PATH", toolingRemediation)
	}
	builder.Detail("Resolved", true)
	builder.Detail("Path", path)

	// A bare /? exercises the binary without touching any image.
	if _, err := runner.Run(ctx, path, "/English", "/?"); err != nil {
		builder.Detail("Responsive", false)
		return builder.Fail(fmt.Sprintf("dism.exe did not respond: %v", err), toolingRemediation)
	}
	builder.Detail("Responsive", true)

	return builder.Pass("image servicing tooling is available")
}

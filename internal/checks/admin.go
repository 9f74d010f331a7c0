package checks

import (
	"fmt"

	"github.com/wimforge/wimforge/internal/model"
)

// ElevationProvider reports whether the current process holds administrative
// privileges. The default is platform-specific; tests inject their own.
type ElevationProvider func() (bool, error)

const adminRemediation = `1. Close this session.
2. Right-click the wimforge shortcut and choose "Run as administrator", or start it from an elevated terminal.
3. Re-run the preflight.`

// Administrator verifies the process is elevated. Image servicing, filter
// driver queries and VHD creation all require an administrative token.
func Administrator(provider ElevationProvider) model.CheckResult {
	builder := model.NewResult(NameAdministrator)
	if provider == nil {
		provider = DefaultElevationProvider
	}

	elevated, err := provider()
	if err != nil {
		builder.Detail("ProbeError", err.Error())
		return builder.Fail(
			fmt.Sprintf("could not determine elevation state: %v", err),
			adminRemediation)
	}

	builder.Detail("Elevated", elevated)
	if !elevated {
		return builder.Fail("process is not running with administrative privileges", adminRemediation)
	}
	return builder.Pass("running with administrative privileges")
}

// Package checks contains the individual preflight probes. Every check is
// side-effect free (Tier 4 cleanup excepted), takes its OS access through a
// small injectable provider, and returns exactly one model.CheckResult. A
// probe failure is folded into the result at the point of origin; no check
// ever returns an error to its caller.
package checks

// Stable check names. Unique within their tier; used as report keys and as
// subcommand names for `wimforge check <name>`.
const (
	NameAdministrator = "administrator"
	NamePowerShell    = "powershell-version"
	NameHypervisor    = "hypervisor"
	NameImageTooling  = "image-tooling"
	NameDiskSpace     = "disk-space"
	NameNetwork       = "network"
	NameConfigFile    = "config-file"
	NameWimMount      = "wimmount"
	NameAntivirus     = "antivirus-exclusions"
	NameCleanup       = "stale-artifacts"
)

// RunOrder lists every check in the order the engine executes them. The
// interactive progress view seeds its rows from this.
var RunOrder = []string{
	NameAdministrator,
	NamePowerShell,
	NameHypervisor,
	NameImageTooling,
	NameDiskSpace,
	NameNetwork,
	NameConfigFile,
	NameWimMount,
	NameAntivirus,
	NameCleanup,
}

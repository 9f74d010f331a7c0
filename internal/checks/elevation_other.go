//go:build !windows

package checks

import (
	"os"
)

// DefaultElevationProvider treats uid 0 as elevated. Non-Windows hosts only
// ever run detection-style checks (development and CI); the build itself is
// Windows-only.
var DefaultElevationProvider ElevationProvider = func() (bool, error) {
	return os.Geteuid() == 0, nil
}

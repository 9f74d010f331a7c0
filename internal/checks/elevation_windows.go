//go:build windows

package checks

import (
	"golang.org/x/sys/windows"
)

// DefaultElevationProvider queries the process token for elevation.
var DefaultElevationProvider ElevationProvider = func() (bool, error) {
	var token windows.Token
	process := windows.CurrentProcess()
	if err := windows.OpenProcessToken(process, windows.TOKEN_QUERY, &token); err != nil {
		return false, err
	}
	defer token.Close()
	return token.IsElevated(), nil
}

//go:build windows

package checks

import (
	"golang.org/x/sys/windows"
)

// DefaultFreeSpaceProvider queries the volume with GetDiskFreeSpaceEx.
var DefaultFreeSpaceProvider FreeSpaceProvider = func(path string) (uint64, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	if err := windows.GetDiskFreeSpaceEx(pathPtr, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return 0, err
	}
	return freeBytesAvailable, nil
}

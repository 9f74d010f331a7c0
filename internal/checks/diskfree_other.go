//go:build !windows

package checks

import (
	"golang.org/x/sys/unix"
)

// DefaultFreeSpaceProvider queries the volume with statfs.
var DefaultFreeSpaceProvider FreeSpaceProvider = func(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

package checks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wimforge/wimforge/internal/hostprobe"
	"github.com/wimforge/wimforge/internal/model"
)

// Scratch directories older than this are considered abandoned by a
// previous run.
const staleScratchAge = 7 * 24 * time.Hour

// Prefixes of directories the build pipeline creates under the build path.
var scratchPrefixes = []string{"scratch-", "mount-", "staging-"}

const cleanupRemediation = `1. Run: dism.exe /Cleanup-Mountpoints
2. Delete any leftover scratch-*, mount-* or staging-* directories under the build path manually.`

// Cleanup is the Tier 4 maintenance check: it removes artifacts abandoned by
// previous runs (stale DISM mount points, old scratch directories). It is
// best-effort and informational; the result never blocks the build.
func Cleanup(ctx context.Context, runner hostprobe.Runner, buildPath string, skip bool) model.CheckResult {
	builder := model.NewResult(NameCleanup)

	if skip {
		return builder.Skip("cleanup skipped by request")
	}

	var problems []string

	staleMounts, err := staleMountPoints(ctx, runner)
	if err != nil {
		builder.Detail("MountQueryError", err.Error())
	} else {
		builder.Detail("StaleMountPoints", staleMounts)
		if staleMounts > 0 {
			if _, err := runner.Run(ctx, "dism.exe", "/English", "/Cleanup-Mountpoints"); err != nil {
				problems = append(problems, fmt.Sprintf("mount point cleanup failed: %v", err))
			}
		}
	}

	removed, failed := removeStaleScratch(buildPath)
	builder.Detail("ScratchDirsRemoved", removed)
	if len(failed) > 0 {
		builder.Detail("ScratchDirsFailed", failed)
		problems = append(problems, fmt.Sprintf("%d scratch directories could not be removed", len(failed)))
	}

	if len(problems) > 0 {
		return builder.Warn(strings.Join(problems, "; "), cleanupRemediation)
	}
	return builder.Pass(fmt.Sprintf("no stale artifacts remain (%d scratch directories removed)", removed))
}

// staleMountPoints counts mounted images whose status is no longer Ok.
func staleMountPoints(ctx context.Context, runner hostprobe.Runner) (int, error) {
	output, err := runner.Run(ctx, "dism.exe", "/English", "/Get-MountedImageInfo")
	if err != nil {
		return 0, err
	}

	stale := 0
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Status :") {
			continue
		}
		status := strings.TrimSpace(strings.TrimPrefix(line, "Status :"))
		if !strings.EqualFold(status, "Ok") {
			stale++
		}
	}
	return stale, nil
}

func removeStaleScratch(buildPath string) (int, []string) {
	entries, err := os.ReadDir(buildPath)
	if err != nil {
		return 0, nil
	}

	cutoff := time.Now().Add(-staleScratchAge)
	removed := 0
	var failed []string

	for _, entry := range entries {
		if !entry.IsDir() || !hasScratchPrefix(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		full := filepath.Join(buildPath, entry.Name())
		if err := os.RemoveAll(full); err != nil {
			failed = append(failed, entry.Name())
			continue
		}
		removed++
	}
	return removed, failed
}

func hasScratchPrefix(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range scratchPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

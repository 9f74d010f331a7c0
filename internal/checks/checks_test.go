package checks

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wimforge/wimforge/internal/buildconfig"
	"github.com/wimforge/wimforge/internal/model"
)

// fakeRunner answers canned output keyed by executable name.
type fakeRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s %v", name, args))
	if err, ok := f.errs[name]; ok {
		return f.outputs[name], err
	}
	return f.outputs[name], nil
}

func TestAdministrator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider ElevationProvider
		want     model.Status
	}{
		{"elevated", func() (bool, error) { return true, nil }, model.StatusPassed},
		{"not elevated", func() (bool, error) { return false, nil }, model.StatusFailed},
		{"probe error", func() (bool, error) { return false, errors.New("token query failed") }, model.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := Administrator(tt.provider)
			assert.Equal(t, tt.want, result.Status)
			assert.Equal(t, NameAdministrator, result.CheckName)
			if tt.want != model.StatusPassed {
				assert.NotEmpty(t, result.Remediation)
			}
		})
	}
}

func TestPowerShellVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		output  string
		err     error
		want    model.Status
		message string
	}{
		{name: "modern host", output: "5.1.22621.2506", want: model.StatusPassed},
		{name: "powershell seven", output: "7.4.1", want: model.StatusPassed},
		{name: "too old", output: "4.0", want: model.StatusFailed},
		{name: "garbage output", output: "not a version", want: model.StatusFailed},
		{name: "probe failure", err: errors.New("not found"), want: model.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := &fakeRunner{outputs: map[string]string{"powershell.exe": tt.output}}
			if tt.err != nil {
				runner.errs = map[string]error{"powershell.exe": tt.err}
			}

			result := PowerShellVersion(context.Background(), runner)
			assert.Equal(t, tt.want, result.Status)
		})
	}
}

func TestPowerShellVersionIdempotent(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{outputs: map[string]string{"powershell.exe": "5.1.19041.1"}}
	first := PowerShellVersion(context.Background(), runner)
	second := PowerShellVersion(context.Background(), runner)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Details, second.Details)
}

func TestHypervisor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
		err    error
		want   model.Status
	}{
		{name: "present", output: "True", want: model.StatusPassed},
		{name: "absent", output: "False", want: model.StatusFailed},
		{name: "query fails", err: errors.New("wmi unavailable"), want: model.StatusWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := &fakeRunner{outputs: map[string]string{"powershell.exe": tt.output}}
			if tt.err != nil {
				runner.errs = map[string]error{"powershell.exe": tt.err}
			}

			result := Hypervisor(context.Background(), runner)
			assert.Equal(t, tt.want, result.Status)
		})
	}
}

func TestImageTooling(t *testing.T) {
	t.Parallel()

	t.Run("resolves and responds", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{outputs: map[string]string{`C:\Windows\System32\dism.exe`: "Deployment Image Servicing and Management tool"}}
		lookPath := func(string) (string, error) { return `C:\Windows\System32\dism.exe`, nil }

		result := ImageTooling(context.Background(), runner, lookPath)
		assert.Equal(t, model.StatusPassed, result.Status)
		assert.True(t, result.Details.Bool("Responsive"))
	})

	t.Run("not on path", func(t *testing.T) {
		t.Parallel()

		result := ImageTooling(context.Background(), &fakeRunner{}, func(string) (string, error) {
			return "", errors.New("not found")
		})
		assert.Equal(t, model.StatusFailed, result.Status)
		assert.NotEmpty(t, result.Remediation)
	})

	t.Run("unresponsive binary", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{errs: map[string]error{`C:\dism.exe`: errors.New("exit status 87")}}
		result := ImageTooling(context.Background(), runner, func(string) (string, error) { return `C:\dism.exe`, nil })
		assert.Equal(t, model.StatusFailed, result.Status)
	})
}

func TestDiskSpace(t *testing.T) {
	t.Parallel()

	features := buildconfig.Features{CaptureMedia: true}

	t.Run("enough space", func(t *testing.T) {
		t.Parallel()

		provider := func(string) (uint64, error) { return 200 * bytesPerGB, nil }
		result := DiskSpace(provider, features, 80, `C:\ImageBuild`)
		assert.Equal(t, model.StatusPassed, result.Status)
	})

	t.Run("unrealistically large build fails with remediation", func(t *testing.T) {
		t.Parallel()

		provider := func(string) (uint64, error) { return 50 * bytesPerGB, nil }
		result := DiskSpace(provider, features, 2000, `C:\ImageBuild`)
		require.Equal(t, model.StatusFailed, result.Status)
		assert.NotEmpty(t, result.Remediation)
		assert.Contains(t, result.Remediation, "Free at least")
	})

	t.Run("probe error downgrades to warning", func(t *testing.T) {
		t.Parallel()

		provider := func(string) (uint64, error) { return 0, errors.New("no such volume") }
		result := DiskSpace(provider, features, 80, `Z:\missing`)
		assert.Equal(t, model.StatusWarning, result.Status)
	})
}

func TestNetwork(t *testing.T) {
	t.Parallel()

	okDial := func(ctx context.Context, network, address string) (net.Conn, error) {
		server, client := net.Pipe()
		go func() {
			_ = server.Close()
		}()
		return client, nil
	}
	failDial := func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}

	t.Run("skipped when no feature needs network", func(t *testing.T) {
		t.Parallel()

		result := Network(context.Background(), failDial, buildconfig.Features{CaptureMedia: true})
		assert.Equal(t, model.StatusSkipped, result.Status)
		assert.Equal(t, time.Duration(0), result.Duration)
	})

	t.Run("passes when an endpoint answers", func(t *testing.T) {
		t.Parallel()

		result := Network(context.Background(), okDial, buildconfig.Features{InjectUpdates: true})
		assert.Equal(t, model.StatusPassed, result.Status)
	})

	t.Run("fails when all endpoints unreachable", func(t *testing.T) {
		t.Parallel()

		result := Network(context.Background(), failDial, buildconfig.Features{InjectUpdates: true})
		require.Equal(t, model.StatusFailed, result.Status)
		assert.NotEmpty(t, result.Remediation)
	})
}

func TestConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("valid document", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "build.yaml")
		document := `
version: 1.0.0
name: img
arch: x64
vhd_size_gb: 80
build_path: C:\ImageBuild
`
		require.NoError(t, os.WriteFile(path, []byte(document), 0o644))

		result := ConfigFile(path)
		assert.Equal(t, model.StatusPassed, result.Status)
	})

	t.Run("invalid document reports field", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "build.yaml")
		document := `
version: 1.0.0
name: img
arch: mips
vhd_size_gb: 80
build_path: C:\ImageBuild
`
		require.NoError(t, os.WriteFile(path, []byte(document), 0o644))

		result := ConfigFile(path)
		require.Equal(t, model.StatusFailed, result.Status)
		field, ok := result.Details.Get("Field")
		require.True(t, ok)
		assert.Contains(t, field.(string), "arch")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		result := ConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Equal(t, model.StatusFailed, result.Status)
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()

		result := ConfigFile("")
		assert.Equal(t, model.StatusFailed, result.Status)
	})
}

func TestAntivirusExclusions(t *testing.T) {
	t.Parallel()

	// The fake keys canned output on the executable name, so the two
	// PowerShell queries cannot receive distinct answers; the coverage
	// logic is exercised directly.
	t.Run("path covered", func(t *testing.T) {
		t.Parallel()

		assert.True(t, pathCovered(`C:\ImageBuild`, []string{`C:\ImageBuild`}))
		assert.True(t, pathCovered(`C:\ImageBuild\run1`, []string{`c:\imagebuild\`}))
		assert.False(t, pathCovered(`C:\ImageBuilder`, []string{`C:\ImageBuild`}))
		assert.False(t, pathCovered(`C:\Other`, nil))
	})

	t.Run("query failure is advisory warning", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{errs: map[string]error{"powershell.exe": errors.New("defender module missing")}}
		result := AntivirusExclusions(context.Background(), runner, `C:\ImageBuild`)
		assert.Equal(t, model.StatusWarning, result.Status)
	})

	t.Run("never fails", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{outputs: map[string]string{"powershell.exe": ""}}
		result := AntivirusExclusions(context.Background(), runner, `C:\ImageBuild`)
		assert.NotEqual(t, model.StatusFailed, result.Status)
	})
}

func TestCleanup(t *testing.T) {
	t.Parallel()

	t.Run("skip requested", func(t *testing.T) {
		t.Parallel()

		result := Cleanup(context.Background(), &fakeRunner{}, t.TempDir(), true)
		assert.Equal(t, model.StatusSkipped, result.Status)
	})

	t.Run("removes stale scratch directories", func(t *testing.T) {
		t.Parallel()

		buildPath := t.TempDir()
		stale := filepath.Join(buildPath, "scratch-20250101")
		fresh := filepath.Join(buildPath, "scratch-today")
		unrelated := filepath.Join(buildPath, "payloads")
		require.NoError(t, os.Mkdir(stale, 0o755))
		require.NoError(t, os.Mkdir(fresh, 0o755))
		require.NoError(t, os.Mkdir(unrelated, 0o755))

		old := time.Now().Add(-30 * 24 * time.Hour)
		require.NoError(t, os.Chtimes(stale, old, old))

		runner := &fakeRunner{outputs: map[string]string{"dism.exe": "No mounted images found."}}
		result := Cleanup(context.Background(), runner, buildPath, false)

		assert.Equal(t, model.StatusPassed, result.Status)
		removed, ok := result.Details.Get("ScratchDirsRemoved")
		require.True(t, ok)
		assert.Equal(t, 1, removed)

		assert.NoDirExists(t, stale)
		assert.DirExists(t, fresh)
		assert.DirExists(t, unrelated)
	})

	t.Run("stale mount points trigger cleanup call", func(t *testing.T) {
		t.Parallel()

		dismOutput := `Mounted images:

Mount Dir : C:\old\mount
Image File : C:\old\install.wim
Status : Needs Remount`

		runner := &fakeRunner{outputs: map[string]string{"dism.exe": dismOutput}}
		result := Cleanup(context.Background(), runner, t.TempDir(), false)

		assert.Equal(t, model.StatusPassed, result.Status)
		stale, ok := result.Details.Get("StaleMountPoints")
		require.True(t, ok)
		assert.Equal(t, 1, stale)
		assert.Contains(t, fmt.Sprint(runner.calls), "/Cleanup-Mountpoints")
	})

	t.Run("never blocks", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{errs: map[string]error{"dism.exe": errors.New("dism broken")}}
		result := Cleanup(context.Background(), runner, t.TempDir(), false)
		assert.NotEqual(t, model.StatusFailed, result.Status)
	})
}

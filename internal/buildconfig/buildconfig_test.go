package buildconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	forgeerrors "github.com/wimforge/wimforge/pkg/errors"
)

const validDocument = `
version: 1.2.0
name: win11-enterprise
arch: x64
vhd_size_gb: 80
build_path: C:\ImageBuild
features:
  capture_media: true
  vm_creation: true
  inject_updates: true
applications:
  - name: company-vpn
    source: payloads/vpn.msi
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "build.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseValidDocument(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(writeConfig(t, validDocument))
	require.NoError(t, err)

	assert.Equal(t, "win11-enterprise", cfg.Name)
	assert.Equal(t, "x64", cfg.Arch)
	assert.Equal(t, float64(80), cfg.VHDSizeGB)
	assert.True(t, cfg.Features.CaptureMedia)
	assert.True(t, cfg.Features.VMCreation)
	assert.False(t, cfg.Features.DeploymentMedia)
	require.Len(t, cfg.Applications, 1)
	assert.Equal(t, "company-vpn", cfg.Applications[0].Name)
}

func TestParseMissingFileReturnsParseError(t *testing.T) {
	t.Parallel()

	_, err := Parse(filepath.Join(t.TempDir(), "absent.yaml"))
	var parseErr *forgeerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseMalformedYAMLExtractsLine(t *testing.T) {
	t.Parallel()

	_, err := Parse(writeConfig(t, "version: 1.0.0\nname: [broken\n"))
	var parseErr *forgeerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Greater(t, parseErr.Line, 0)
}

func TestValidateRejectsBadDocuments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		document string
		field    string
	}{
		{
			name: "unsupported arch",
			document: `
version: 1.0.0
name: img
arch: ia64
vhd_size_gb: 80
build_path: C:\ImageBuild
`,
			field: "arch",
		},
		{
			name: "vhd too small",
			document: `
version: 1.0.0
name: img
arch: x64
vhd_size_gb: 4
build_path: C:\ImageBuild
`,
			field: "vhdsizegb",
		},
		{
			name: "not a semver",
			document: `
version: latest
name: img
arch: x64
vhd_size_gb: 80
build_path: C:\ImageBuild
`,
			field: "version",
		},
		{
			name: "applications enabled without payloads",
			document: `
version: 1.0.0
name: img
arch: x64
vhd_size_gb: 80
build_path: C:\ImageBuild
features:
  install_applications: true
`,
			field: "applications",
		},
		{
			name: "duplicate application names",
			document: `
version: 1.0.0
name: img
arch: x64
vhd_size_gb: 80
build_path: C:\ImageBuild
applications:
  - name: agent
    source: a.msi
  - name: agent
    source: b.msi
`,
			field: "applications[1].name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(writeConfig(t, tt.document))
			require.Error(t, err)

			var validationErr *forgeerrors.ValidationError
			require.True(t, errors.As(err, &validationErr), "expected ValidationError, got %v", err)
			assert.Contains(t, validationErr.Field, tt.field)
		})
	}
}

func TestValidateNilConfig(t *testing.T) {
	t.Parallel()

	err := Validate(nil)
	var validationErr *forgeerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

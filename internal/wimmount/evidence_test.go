package wimmount

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fltmcOutput = `Filter Name                     Num Instances    Altitude    Frame
------------------------------  -------------  ------------  -----
WdFilter                                5         328010         0
FileCrypt                                        141100
WIMMount                                3         180700         0
luafv                                   1         135000         0`

func TestParseFilterList(t *testing.T) {
	t.Parallel()

	entries := parseFilterList(fltmcOutput)
	require.Len(t, entries, 4)

	assert.Equal(t, FilterEntry{Name: "WdFilter", Altitude: "328010"}, entries[0])
	assert.Equal(t, FilterEntry{Name: "FileCrypt", Altitude: "141100"}, entries[1])
	assert.Equal(t, FilterEntry{Name: "WIMMount", Altitude: "180700"}, entries[2])
}

func TestParseFilterListEmptyOutput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, parseFilterList(""))
	assert.Empty(t, parseFilterList("Filter Name  Num Instances  Altitude  Frame\n---"))
}

// fakeCmdRunner answers canned output keyed by executable name.
type fakeCmdRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeCmdRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s %v", name, args))
	if err, ok := f.errs[name]; ok {
		return f.outputs[name], err
	}
	return f.outputs[name], nil
}

func TestServiceProviderPowerShellPath(t *testing.T) {
	t.Parallel()

	runner := &fakeCmdRunner{outputs: map[string]string{"powershell.exe": "Stopped"}}
	info, err := serviceProvider{runner: runner}.QueryService(context.Background(), ServiceName)
	require.NoError(t, err)

	assert.True(t, info.Exists)
	assert.Equal(t, "STOPPED", info.State)
	assert.Equal(t, "powershell", info.Source)
}

func TestServiceProviderFallsBackToSC(t *testing.T) {
	t.Parallel()

	scOutput := `SERVICE_NAME: WimMount
        TYPE               : 2  FILE_SYSTEM_DRIVER
        STATE              : 4  RUNNING
        WIN32_EXIT_CODE    : 0  (0x0)`

	runner := &fakeCmdRunner{
		outputs: map[string]string{"sc.exe": scOutput},
		errs:    map[string]error{"powershell.exe": errors.New("powershell has been disabled")},
	}

	info, err := serviceProvider{runner: runner}.QueryService(context.Background(), ServiceName)
	require.NoError(t, err)

	assert.True(t, info.Exists)
	assert.Equal(t, "RUNNING", info.State)
	assert.Equal(t, "sc", info.Source)
}

func TestServiceProviderMissingService(t *testing.T) {
	t.Parallel()

	runner := &fakeCmdRunner{
		outputs: map[string]string{
			"powershell.exe": "Get-Service : Cannot find any service with service name 'WimMount'.",
		},
		errs: map[string]error{"powershell.exe": errors.New("exit status 1")},
	}

	info, err := serviceProvider{runner: runner}.QueryService(context.Background(), ServiceName)
	require.NoError(t, err)
	assert.False(t, info.Exists)
}

func TestRegistryProviderParsesAltitude(t *testing.T) {
	t.Parallel()

	regOutput := `
HKEY_LOCAL_MACHINE\SYSTEM\CurrentControlSet\Services\WimMount\Instances\WIMMount
    Altitude    REG_SZ    180700
`
	runner := &fakeCmdRunner{outputs: map[string]string{"reg.exe": regOutput}}
	altitude, err := registryProvider{runner: runner}.ConfiguredAltitude(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "180700", altitude)
}

func TestRegistryProviderMissingValue(t *testing.T) {
	t.Parallel()

	runner := &fakeCmdRunner{outputs: map[string]string{"reg.exe": "HKEY_LOCAL_MACHINE\\..."}}
	_, err := registryProvider{runner: runner}.ConfiguredAltitude(context.Background())
	require.Error(t, err)
}

func TestKnownGoodHashMatchesBuildPrefix(t *testing.T) {
	t.Parallel()

	hash, ok := KnownGoodHash("10.0.22621.3155")
	require.True(t, ok)
	assert.NotEmpty(t, hash)

	_, ok = KnownGoodHash("6.1.7601")
	assert.False(t, ok)
}

func TestMatchSecurityAgents(t *testing.T) {
	t.Parallel()

	vendors := MatchSecurityAgents([]string{"Spooler", "CSAgent", "csflt", "WSearch"})
	assert.Equal(t, []string{"CrowdStrike Falcon"}, vendors)

	assert.Empty(t, MatchSecurityAgents([]string{"Spooler", "WSearch"}))
	assert.Empty(t, MatchSecurityAgents(nil))
}

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wimforge/wimforge/internal/model"
)

func TestPrintCheckResult(t *testing.T) {
	t.Parallel()

	result := model.CheckResult{
		CheckName:   "wimmount",
		Status:      model.StatusWarning,
		Message:     "filter not loaded",
		Details:     model.Details{{Key: "UsingNativeDISM", Value: true}},
		Remediation: "1. Run: fltmc load WimMount",
	}

	buf := &bytes.Buffer{}
	printCheckResult(buf, model.Tier2, result)

	output := buf.String()
	require.Contains(t, output, "wimmount")
	require.Contains(t, output, "warning")
	require.Contains(t, output, "filter not loaded")
	require.Contains(t, output, "UsingNativeDISM: true")
	require.Contains(t, output, "Suggested remediation:")
	require.Contains(t, output, "fltmc load WimMount")
}

func TestPrintCheckResultPassedOmitsRemediation(t *testing.T) {
	t.Parallel()

	result := model.CheckResult{
		CheckName: "administrator",
		Status:    model.StatusPassed,
		Message:   "running elevated",
	}

	buf := &bytes.Buffer{}
	printCheckResult(buf, model.Tier1, result)

	require.NotContains(t, buf.String(), "Suggested remediation:")
}

func TestCheckCommandParsesFlags(t *testing.T) {
	original := checkCmdRunner
	t.Cleanup(func() { checkCmdRunner = original })

	var got checkOptions
	checkCmdRunner = func(opts checkOptions) error {
		got = opts
		return nil
	}

	root := newRootCmd()
	root.SetArgs([]string{"check", "wimmount", "--no-remediate", "--vhd-size", "120"})
	require.NoError(t, root.Execute())
	require.Equal(t, "wimmount", got.Name)
	require.True(t, got.NoRemediate)
	require.Equal(t, 120.0, got.VHDSizeGB)
}

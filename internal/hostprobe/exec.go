// Package hostprobe runs host OS utilities and returns their output for the
// preflight checks. Every evidence source shells out through the Runner
// interface so classification logic can be tested against canned output.
package hostprobe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a host utility and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// LookPathFunc resolves an executable name the way exec.LookPath does.
type LookPathFunc func(name string) (string, error)

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// Run executes the command and returns trimmed combined output. A non-zero
// exit wraps the output text into the error so callers can surface it.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := strings.TrimSpace(buf.String())
	if err != nil {
		if output != "" {
			return output, fmt.Errorf("%s: %w: %s", name, err, output)
		}
		return output, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}

// PowerShell runs a script fragment through a non-interactive powershell
// session and returns its trimmed output.
func PowerShell(ctx context.Context, runner Runner, script string) (string, error) {
	return runner.Run(ctx, "powershell.exe",
		"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass",
		"-Command", script)
}

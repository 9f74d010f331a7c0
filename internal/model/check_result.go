package model

import (
	"time"
)

// Status classifies the outcome of a single preflight check.
type Status string

const (
	// StatusPassed indicates the check found nothing wrong.
	StatusPassed Status = "passed"
	// StatusFailed marks a blocking problem; only Tier 1 and Tier 2
	// checks may fail the preflight.
	StatusFailed Status = "failed"
	// StatusWarning marks a non-blocking problem the operator should see.
	StatusWarning Status = "warning"
	// StatusSkipped indicates the check's gating feature was not requested.
	StatusSkipped Status = "skipped"
)

// IsValid reports whether the status is one of the defined values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusWarning, StatusSkipped:
		return true
	default:
		return false
	}
}

// Blocking reports whether the status blocks the build.
func (s Status) Blocking() bool {
	return s == StatusFailed
}

// CheckResult captures the outcome of a single preflight check.
//
// Invariants, enforced by ResultBuilder: Remediation is empty exactly when
// Status is passed or skipped, and Details is never nil.
type CheckResult struct {
	CheckName   string
	Status      Status
	Message     string
	Details     Details
	Remediation string
	Duration    time.Duration
}

// ResultBuilder assembles a CheckResult without letting callers drift out
// of the result contract. Construct one with NewResult, record details as
// the check runs, then finish with exactly one of Pass, Fail, Warn or Skip.
type ResultBuilder struct {
	name    string
	details Details
	started time.Time
}

// NewResult starts a builder for the named check and begins timing it.
func NewResult(name string) *ResultBuilder {
	return &ResultBuilder{
		name:    name,
		details: Details{},
		started: time.Now(),
	}
}

// Detail records a structured diagnostic fact. Insertion order is preserved
// so the same host state always renders the same report.
func (b *ResultBuilder) Detail(key string, value any) *ResultBuilder {
	b.details.Set(key, value)
	return b
}

// Pass finishes the result as passed. Any remediation text recorded earlier
// is discarded; passed results carry none.
func (b *ResultBuilder) Pass(message string) CheckResult {
	return b.finish(StatusPassed, message, "")
}

// Fail finishes the result as failed with operator remediation guidance.
func (b *ResultBuilder) Fail(message, remediation string) CheckResult {
	return b.finish(StatusFailed, message, remediation)
}

// Warn finishes the result as a non-blocking warning.
func (b *ResultBuilder) Warn(message, remediation string) CheckResult {
	return b.finish(StatusWarning, message, remediation)
}

// Skip finishes the result as skipped. Skipped checks report zero duration;
// they did no work.
func (b *ResultBuilder) Skip(message string) CheckResult {
	result := b.finish(StatusSkipped, message, "")
	result.Duration = 0
	return result
}

func (b *ResultBuilder) finish(status Status, message, remediation string) CheckResult {
	switch status {
	case StatusPassed, StatusSkipped:
		remediation = ""
	case StatusFailed, StatusWarning:
		// Non-passing results always carry operator guidance.
		if remediation == "" {
			remediation = message
		}
	}
	details := b.details
	if details == nil {
		details = Details{}
	}
	duration := time.Since(b.started)
	if duration < 0 {
		duration = 0
	}
	return CheckResult{
		CheckName:   b.name,
		Status:      status,
		Message:     message,
		Details:     details,
		Remediation: remediation,
		Duration:    duration,
	}
}

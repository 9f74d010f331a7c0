package errors

import (
	"fmt"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures build-configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProbeError represents a failure while querying one OS evidence source.
// Probe failures are converted into check results at the point of origin;
// they never escape the preflight engine.
type ProbeError struct {
	Source string
	Err    error
}

// NewProbeError constructs a ProbeError for the named evidence source.
func NewProbeError(source string, err error) error {
	return &ProbeError{Source: source, Err: err}
}

func (e *ProbeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Source != "" {
		return fmt.Sprintf("probe error [%s]: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("probe error: %v", e.Err)
}

// Unwrap exposes the underlying error.
func (e *ProbeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RemediationError indicates a repair action failed while mutating OS state.
type RemediationError struct {
	Action string
	Err    error
}

// NewRemediationError constructs a RemediationError for the given action.
func NewRemediationError(action string, err error) error {
	return &RemediationError{Action: action, Err: err}
}

func (e *RemediationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Action != "" {
		return fmt.Sprintf("remediation error [%s]: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("remediation error: %v", e.Err)
}

// Unwrap exposes the underlying error.
func (e *RemediationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

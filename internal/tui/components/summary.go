package components

import (
	"fmt"
	"strings"
)

// SummaryData aggregates counts for rendering the run summary.
type SummaryData struct {
	Total     int
	Completed int
	Finished  bool
	Cancelled bool

	// HaveVerdict is set once the finalized report arrived.
	HaveVerdict bool
	Valid       bool
	Errors      int
	Warnings    int
}

// Summary renders a textual preflight summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary.
func (s Summary) View() string {
	var lines []string
	if s.data.Total > 0 {
		lines = append(lines, fmt.Sprintf("Checks: %d/%d completed", s.data.Completed, s.data.Total))
	}

	if s.data.Cancelled {
		lines = append(lines, "Preflight cancelled")
	} else if s.data.Finished && s.data.HaveVerdict {
		if s.data.Valid {
			lines = append(lines, "Environment is ready for the build")
		} else {
			lines = append(lines, fmt.Sprintf("Environment is NOT ready: %d blocking issue(s)", s.data.Errors))
		}
		if s.data.Warnings > 0 {
			lines = append(lines, fmt.Sprintf("%d warning(s), non-blocking", s.data.Warnings))
		}
	} else if s.data.Finished && s.data.Total > 0 && s.data.Completed < s.data.Total {
		lines = append(lines, "Preflight finished with pending checks")
	}

	return strings.Join(lines, "\n")
}

package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wimforge/wimforge/internal/model"
	"github.com/wimforge/wimforge/internal/tui/components"
)

// CheckStartMsg indicates a preflight check has started running.
type CheckStartMsg struct {
	Name string
	Time time.Time
}

// CheckCompleteMsg reports that a check has finished.
type CheckCompleteMsg struct {
	Tier   model.Tier
	Result model.CheckResult
}

// ReportMsg carries the finalized report once every tier has run.
type ReportMsg struct {
	Report *model.PreflightReport
}

type tickMsg struct{}

// Pseudo-statuses for checks the engine has not reported on yet. The real
// statuses come from the result model once a check completes.
const (
	statusPending = "pending"
	statusRunning = "running"
)

type checkState struct {
	status model.Status
	// pseudo holds pending/running before a result arrives.
	pseudo  string
	message string
	elapsed time.Duration
}

// Model contains the Bubbletea state for the preflight progress view.
type Model struct {
	title          string
	checks         map[string]checkState
	order          []string
	report         *model.PreflightReport
	total          int
	completed      int
	finished       bool
	cancelled      bool
	nonInteractive bool
}

// NewModel constructs a progress model for the named checks, rendered in the
// given order.
func NewModel(title string, names []string, nonInteractive bool) Model {
	m := Model{
		title:          title,
		checks:         make(map[string]checkState, len(names)),
		order:          make([]string, 0, len(names)),
		nonInteractive: nonInteractive,
	}
	for _, name := range names {
		if _, exists := m.checks[name]; exists {
			continue
		}
		m.checks[name] = checkState{pseudo: statusPending}
		m.order = append(m.order, name)
		m.total++
	}
	return m
}

// Init starts the Bubbletea program.
func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

// TotalChecks returns the number of checks the model tracks.
func (m Model) TotalChecks() int {
	return m.total
}

// CompletedChecks returns the number of checks that have reported a result.
func (m Model) CompletedChecks() int {
	return m.completed
}

// IsFinished reports whether the run has completed.
func (m Model) IsFinished() bool {
	return m.finished
}

// Report returns the finalized report, or nil while the run is in flight.
func (m Model) Report() *model.PreflightReport {
	return m.report
}

func (m *Model) ensureCheck(name string) {
	if name == "" {
		return
	}
	if _, exists := m.checks[name]; !exists {
		m.checks[name] = checkState{pseudo: statusPending}
		m.order = append(m.order, name)
		m.total++
	}
}

func (m *Model) markFinishedIfComplete() {
	if m.total > 0 && m.completed >= m.total {
		m.finished = true
	}
}

func (m Model) summaryData() components.SummaryData {
	data := components.SummaryData{
		Total:     m.total,
		Completed: m.completed,
		Finished:  m.finished,
		Cancelled: m.cancelled,
	}
	if m.report != nil {
		data.Valid = m.report.IsValid
		data.HaveVerdict = true
		data.Errors = len(m.report.Errors)
		data.Warnings = len(m.report.Warnings)
	}
	return data
}

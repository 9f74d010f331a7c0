package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, nil
	case CheckStartMsg:
		m.ensureCheck(msg.Name)
		check := m.checks[msg.Name]
		check.pseudo = statusRunning
		m.checks[msg.Name] = check
		return m, nil
	case CheckCompleteMsg:
		name := msg.Result.CheckName
		if name == "" {
			return m, nil
		}
		m.ensureCheck(name)
		existing := m.checks[name]
		done := existing.pseudo == "" && existing.status != ""
		m.checks[name] = checkState{
			status:  msg.Result.Status,
			message: msg.Result.Message,
			elapsed: msg.Result.Duration,
		}
		if !done {
			m.completed++
			m.markFinishedIfComplete()
		}
		return m, nil
	case ReportMsg:
		m.report = msg.Report
		m.finished = true
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
			return m, nil
		}
	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}

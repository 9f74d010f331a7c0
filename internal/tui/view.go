package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/wimforge/wimforge/internal/model"
	"github.com/wimforge/wimforge/internal/tui/components"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	title := titleStyle.Render(fmt.Sprintf("wimforge • %s", m.title))
	sections = append(sections, title)

	progress := components.NewProgress(m.total).View(m.completed)
	sections = append(sections, sectionStyle.Render("Progress"), progress)

	if len(m.order) > 0 {
		sections = append(sections, sectionStyle.Render("Checks"))
		sections = append(sections, m.renderChecks())
	}

	summary := components.NewSummary(m.summaryData()).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderChecks() string {
	var lines []string
	for _, name := range m.order {
		check := m.checks[name]
		line := fmt.Sprintf(" %s %s", m.checkIcon(check), name)
		if strings.TrimSpace(check.message) != "" {
			line = fmt.Sprintf("%s: %s", line, check.message)
		}
		if check.elapsed > 0 {
			line = fmt.Sprintf("%s (%s)", line, check.elapsed.Truncate(10*time.Millisecond))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) checkIcon(check checkState) string {
	if check.pseudo == statusRunning {
		return runningStyle.Render("⏳")
	}
	if check.pseudo == statusPending {
		return pendingStyle.Render("…")
	}
	return StatusIcon(check.status)
}

// StatusIcon returns the glyph representing a check status.
func StatusIcon(status model.Status) string {
	switch status {
	case model.StatusPassed:
		return passedStyle.Render("✓")
	case model.StatusFailed:
		return failedStyle.Render("✗")
	case model.StatusWarning:
		return warningStyle.Render("⚠")
	case model.StatusSkipped:
		return skippedStyle.Render("⊘")
	default:
		return pendingStyle.Render("…")
	}
}

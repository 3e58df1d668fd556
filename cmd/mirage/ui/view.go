package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"mirage/internal/session"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "starting mirage..."
	}

	title := titleBarStyle.Width(m.width - 2).Render(m.titleText())
	body := windowStyle.Width(m.width - 2).Render(m.viewport.View())

	var promptRow string
	switch m.controller.State() {
	case session.StateProcessing:
		promptRow = m.spinner.View() + " " + statusStyle.Render("waiting...")
	case session.StateClosed:
		promptRow = statusStyle.Render("session closed")
	default:
		promptRow = m.promptLine() + " " + m.input.View()
	}

	status := statusStyle.Render(m.statusText())

	return lipgloss.JoinVertical(lipgloss.Left, title, body, promptRow, status)
}

func (m Model) titleText() string {
	return fmt.Sprintf("%s | %s@%s: %s",
		m.cfg.WindowTitle, m.cfg.Username, m.cfg.Hostname, m.controller.CurrentPath())
}

func (m Model) statusText() string {
	switch m.controller.State() {
	case session.StateUninitialized, session.StateAwaitingCredential:
		return "enter your API credential to begin (input is hidden)"
	case session.StateProcessing:
		return "processing"
	case session.StateClosed:
		return "closed"
	default:
		return "ready · ctrl+c or `exit` to quit"
	}
}

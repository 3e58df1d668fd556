// Package ui implements the terminal window: a bubbletea program with a
// scrollback viewport, a prompt line, and a spinner while a command exchange
// is in flight. The window never touches session state directly; it submits
// input to the session controller and renders the display entries it gets
// back.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"mirage/internal/logging"
	"mirage/internal/session"
)

// Config holds the static display configuration of the window.
type Config struct {
	WindowTitle  string
	PromptSymbol string
	Username     string
	Hostname     string
}

// exchangeDoneMsg carries the result of one controller submission back into
// the update loop.
type exchangeDoneMsg struct {
	entry session.DisplayEntry
	err   error
}

// Model is the bubbletea model for the terminal window.
type Model struct {
	cfg        Config
	controller *session.Controller

	viewport   viewport.Model
	input      textinput.Model
	spinner    spinner.Model
	scrollback string

	width    int
	height   int
	ready    bool
	quitting bool
}

// New creates the window model around a controller.
func New(cfg Config, controller *session.Controller) Model {
	ti := textinput.New()
	ti.Placeholder = "enter credential"
	ti.EchoMode = textinput.EchoPassword
	ti.Focus()
	ti.CharLimit = 4096

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	return Model{
		cfg:        cfg,
		controller: controller,
		input:      ti,
		spinner:    sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - 4 // title bar, prompt line, status line, border
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width-2, vpHeight)
			m.ready = true
			m.appendRaw(renderHelpBanner())
		} else {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = vpHeight
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m.quit()
		case tea.KeyEnter:
			return m.handleSubmit()
		}

	case exchangeDoneMsg:
		m.appendEntry(msg.entry, msg.err)
		m.input.Focus()
		return m, nil

	case spinner.TickMsg:
		if m.controller.State() == session.StateProcessing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleSubmit routes the prompt line: local window commands are handled
// here, everything else goes to the controller.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if text == "" {
		return m, nil
	}

	if m.credentialPhase() {
		return m.submit(text)
	}

	switch text {
	case "exit":
		return m.quit()
	case "clear":
		m.scrollback = ""
		m.viewport.SetContent("")
		return m, nil
	case "help":
		m.appendRaw(renderHelp(m.viewport.Width))
		return m, nil
	}

	if m.controller.State() == session.StateProcessing {
		// Guard, not a queue: drop the input and tell the user why.
		m.appendRaw(statusStyle.Render("mirage: previous command still running") + "\n")
		return m, nil
	}

	return m.submit(text)
}

// submit echoes the prompt line into the scrollback and fires the exchange.
func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	echo := text
	if m.credentialPhase() {
		echo = session.CredentialMask
	}
	m.appendRaw(m.promptLine() + " " + echo + "\n")

	controller := m.controller
	exchange := func() tea.Msg {
		entry, err := controller.Submit(context.Background(), text)
		return exchangeDoneMsg{entry: entry, err: err}
	}
	return m, tea.Batch(exchange, m.spinner.Tick)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.controller.Close()
	logging.UI("terminal window closed")
	return m, tea.Quit
}

func (m Model) credentialPhase() bool {
	s := m.controller.State()
	return s == session.StateUninitialized || s == session.StateAwaitingCredential
}

// appendEntry renders one completed exchange into the scrollback.
func (m *Model) appendEntry(entry session.DisplayEntry, err error) {
	if err != nil && entry.Command == "" {
		// Gate rejections carry no display entry.
		m.appendRaw(errorStyle.Render(fmt.Sprintf("mirage: %v", err)) + "\n")
		return
	}

	if entry.Output != "" {
		style := outputStyle
		if entry.IsError {
			style = errorStyle
		}
		m.appendRaw(style.Render(entry.Output) + "\n")
	}
	m.appendRaw(timestampStyle.Render(fmt.Sprintf("[%s %s]", entry.Timestamp, entry.DirectoryAtExecution)) + "\n")

	// After credential acceptance the prompt stops masking input.
	if !m.credentialPhase() {
		m.input.EchoMode = textinput.EchoNormal
		m.input.Placeholder = ""
	}
}

func (m *Model) appendRaw(s string) {
	m.scrollback += s
	m.viewport.SetContent(m.scrollback)
	m.viewport.GotoBottom()
}

func (m Model) promptLine() string {
	return promptStyle.Render(fmt.Sprintf("%s@%s %s %s",
		m.cfg.Username, m.cfg.Hostname, m.controller.CurrentPath(), m.cfg.PromptSymbol))
}

func renderHelpBanner() string {
	return statusStyle.Render("mirage terminal. type `help` for the reference card\n") + "\n"
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/mci-runtime/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	deviceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// transcriptLines is how many past commands stay on screen.
const transcriptLines = 12

type interactiveModel struct {
	sys     *runtime.System
	input   textinput.Model
	log     []entry
	history []string
	histIdx int
	retSize uint32
	running bool
}

type entry struct {
	err     error
	command string
	result  string
}

type resultMsg entry

func newInteractiveModel(sys *runtime.System, retSize uint32) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "open mysound.wav alias ding"
	ti.Prompt = "mci> "
	ti.Width = 60
	ti.Focus()
	return &interactiveModel{
		sys:     sys,
		input:   ti,
		retSize: retSize,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "up":
			if m.histIdx > 0 {
				m.histIdx--
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.histIdx < len(m.history)-1 {
				m.histIdx++
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			} else {
				m.histIdx = len(m.history)
				m.input.SetValue("")
			}
			return m, nil

		case "enter":
			command := strings.TrimSpace(m.input.Value())
			if command == "" || m.running {
				return m, nil
			}
			if command == "quit" || command == "exit" {
				return m, tea.Quit
			}
			m.history = append(m.history, command)
			m.histIdx = len(m.history)
			m.input.SetValue("")
			m.running = true
			return m, m.send(command)
		}

	case resultMsg:
		m.running = false
		m.log = append(m.log, entry(msg))
		if len(m.log) > transcriptLines {
			m.log = m.log[len(m.log)-transcriptLines:]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) send(command string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.sys.SendString(context.Background(), command, m.retSize)
		return resultMsg{command: command, result: res, err: err}
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("MCI Console"))
	b.WriteString("\n\n")

	sessions := m.sys.Sessions()
	if len(sessions) == 0 {
		b.WriteString(helpStyle.Render("no open devices"))
		b.WriteString("\n")
	}
	for _, s := range sessions {
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			deviceStyle.Render(fmt.Sprintf("%3d", s.ID)),
			s.Name(),
			typeStyle.Render(s.DeviceType+" ("+s.Convention.String()+")")))
	}
	b.WriteString("\n")

	for _, e := range m.log {
		b.WriteString(commandStyle.Render("> " + e.command))
		b.WriteString("\n")
		switch {
		case e.err != nil:
			b.WriteString(errorStyle.Render(describe(e.err)))
			b.WriteString("\n")
		case e.result != "":
			b.WriteString(resultStyle.Render(e.result))
			b.WriteString("\n")
		}
	}
	if len(m.log) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter send • ↑/↓ history • esc quit"))
	return b.String()
}

func runInteractive(sys *runtime.System, retSize uint32) error {
	p := tea.NewProgram(newInteractiveModel(sys, retSize), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

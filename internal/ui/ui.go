// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orbits/internal/batch"
	"github.com/litescript/ls-orbits/internal/report"
	"github.com/litescript/ls-orbits/internal/state"
	"github.com/litescript/ls-orbits/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewElements ViewMode = iota
	ViewSystem
)

const viewCount = 2

// Msg types for Bubble Tea
type (
	// TickMsg triggers periodic UI updates.
	TickMsg time.Time

	// AnimTickMsg triggers fast animation updates.
	AnimTickMsg time.Time

	// DataUpdateMsg signals a new report is available.
	DataUpdateMsg struct {
		Snapshot state.Snapshot
	}

	// ErrorMsg signals a failed run.
	ErrorMsg struct {
		Error error
	}

	// advancedMsg carries the result of an Advancer call.
	advancedMsg struct {
		report   *batch.Report
		duration time.Duration
		err      error
	}
)

// Advancer produces the next report, typically by propagating the
// simulation one interval and solving again.
type Advancer func() (*batch.Report, error)

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	state   *state.Manager
	advance Advancer

	// UI state
	viewMode  ViewMode
	width     int
	height    int
	ready     bool
	advancing bool
	animTick  int

	// Sub-models
	elements ElementsModel
	system   SystemModel

	snapshot state.Snapshot
}

// New creates a new root UI model. advance may be nil, which disables
// stepping.
func New(stateMgr *state.Manager, advance Advancer) Model {
	m := Model{
		state:    stateMgr,
		advance:  advance,
		viewMode: ViewElements,
		elements: NewElementsModel(),
		system:   NewSystemModel(),
	}
	m.snapshot = stateMgr.Snapshot()
	m.pushSnapshot()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		animTickCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "1", "e":
			m.viewMode = ViewElements
		case "2", "s":
			m.viewMode = ViewSystem

		case "tab":
			m.viewMode = (m.viewMode + 1) % viewCount

		case "n":
			if cmd := m.advanceCmd(); cmd != nil {
				m.advancing = true
				cmds = append(cmds, cmd)
			}

		// Selection is shared between views.
		case "up", "k", "down", "j", "home", "g", "end", "G":
			m.elements, _ = m.elements.Update(msg)
			m.system = m.system.SetFocus(m.elements.SelectedID())

		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Title 3 lines, footer 2 lines
		contentHeight := msg.Height - 6
		m.elements = m.elements.SetSize(msg.Width, contentHeight)
		m.system = m.system.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		m.snapshot = m.state.Snapshot()
		m.pushSnapshot()

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++

	case DataUpdateMsg:
		m.snapshot = msg.Snapshot
		m.pushSnapshot()

	case advancedMsg:
		m.advancing = false
		m.state.Update(msg.report, msg.duration, msg.err)
		m.snapshot = m.state.Snapshot()
		m.pushSnapshot()

	case ErrorMsg:
		m.elements = m.elements.SetError(msg.Error)

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) pushSnapshot() {
	m.elements = m.elements.UpdateData(m.snapshot)
	m.system = m.system.UpdateData(m.snapshot).SetFocus(m.elements.SelectedID())
}

func (m *Model) advanceCmd() tea.Cmd {
	if m.advance == nil || m.advancing {
		return nil
	}
	advance := m.advance
	return func() tea.Msg {
		start := time.Now()
		rep, err := advance()
		return advancedMsg{report: rep, duration: time.Since(start), err: err}
	}
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewElements:
		m.elements, cmd = m.elements.Update(msg)
	case ViewSystem:
		m.system, cmd = m.system.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewElements:
		content = m.elements.View()
	case ViewSystem:
		content = m.system.View()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	return m.renderTitle() + m.renderTabs() + "\n"
}

// renderTitle draws the application name with a horizontal gradient.
func (m Model) renderTitle() string {
	title := []rune("  LS-ORBITS")

	var b strings.Builder
	for col, r := range title {
		color := gradientColor(col, len(title))
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(string(r)))
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render(fmt.Sprintf("  orbital elements from state vectors · v%s", version.Version)))
	b.WriteString("\n")
	return b.String()
}

// gradientColor returns a hex color along blue -> purple -> pink.
func gradientColor(col, width int) string {
	t := 0.0
	if width > 1 {
		t = float64(col) / float64(width-1)
	}

	var r, g, b float64
	if t < 0.5 {
		// Blue (#3B82F6) to Purple (#8B5CF6)
		u := t / 0.5
		r = 59 + u*(139-59)
		g = 130 + u*(92-130)
		b = 246
	} else {
		// Purple to Pink (#EC4899)
		u := (t - 0.5) / 0.5
		r = 139 + u*(236-139)
		g = 92 + u*(72-92)
		b = 246 + u*(153-246)
	}

	return fmt.Sprintf("#%02X%02X%02X", clampByte(r), clampByte(g), clampByte(b))
}

func clampByte(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return int(v)
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Elements", "[2] System"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

	var status string
	switch {
	case m.snapshot.LastError != nil:
		status = errorStyle.Render("ERROR: " + m.snapshot.LastError.Error())
	case m.advancing:
		status = accentStyle.Render(spinnerFrames[m.animTick%len(spinnerFrames)]) + dimStyle.Render(" advancing...")
	case m.snapshot.Report != nil:
		status = dimStyle.Render(fmt.Sprintf("run %d · %s", m.snapshot.Runs, report.FormatDuration(m.snapshot.RunDuration)))
	default:
		status = dimStyle.Render("no report")
	}

	var help string
	switch m.viewMode {
	case ViewSystem:
		help = "j/k: focus | +/-: zoom | z: scale | l: labels"
	default:
		help = "↑↓/jk: select | home/end | tab: switch view"
	}
	if m.advance != nil {
		help += " | n: advance"
	}
	help += " | q: quit"

	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + dimStyle.Render(help)

	if n := len(m.snapshot.Events); n > 0 {
		footer += "\n  " + dimStyle.Render(formatEvent(m.snapshot.Events[n-1]))
	}
	return footer
}

func formatEvent(e state.Event) string {
	switch e.Type {
	case state.EventOutcomeChanged:
		return fmt.Sprintf("%s: %s → %s", e.Body, e.OldOutcome, e.NewOutcome)
	case state.EventEscaped:
		return e.Body + " is now on an escape trajectory"
	case state.EventCaptured:
		return e.Body + " is now bound"
	case state.EventBodyLost:
		return e.Body + " dropped from the report"
	default:
		return fmt.Sprintf("%s: %s", e.Body, e.Type)
	}
}

// Mode returns the active view.
func (m Model) Mode() ViewMode {
	return m.viewMode
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// SendDataUpdate creates a command that sends a data update message.
func SendDataUpdate(snapshot state.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return DataUpdateMsg{Snapshot: snapshot}
	}
}

// SendError creates a command that sends an error message.
func SendError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Error: err}
	}
}

package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/batch"
	"github.com/litescript/ls-orbits/internal/bodies"
	"github.com/litescript/ls-orbits/internal/orbit"
	"github.com/litescript/ls-orbits/internal/report"
	"github.com/litescript/ls-orbits/internal/state"
)

// Styles for the elements table
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("235"))

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	mutedRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244")).
				Width(12)

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))
)

const (
	tableFormat = "%-14s %-11s %10s %14s %9s %9s %9s %9s"
	detailLines = 9
)

// ElementsModel is the table of solved bodies with a detail panel.
type ElementsModel struct {
	width    int
	height   int
	cursor   int
	snapshot state.Snapshot
	lastErr  error
}

// NewElementsModel creates a new elements model.
func NewElementsModel() ElementsModel {
	return ElementsModel{}
}

// SetSize updates the viewport size.
func (m ElementsModel) SetSize(width, height int) ElementsModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with new data. The cursor stays on the
// same body when it is still present.
func (m ElementsModel) UpdateData(snapshot state.Snapshot) ElementsModel {
	selected := m.SelectedID()
	m.snapshot = snapshot

	results := m.results()
	for i, r := range results {
		if r.ID == selected {
			m.cursor = i
			return m
		}
	}
	if m.cursor >= len(results) {
		m.cursor = len(results) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

// SetError sets the last error for display.
func (m ElementsModel) SetError(err error) ElementsModel {
	m.lastErr = err
	return m
}

// Update handles messages.
func (m ElementsModel) Update(msg tea.Msg) (ElementsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		count := len(m.results())

		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < count-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			if count > 0 {
				m.cursor = count - 1
			}
		}
	}

	return m, nil
}

func (m ElementsModel) results() []batch.Result {
	if m.snapshot.Report == nil {
		return nil
	}
	return m.snapshot.Report.Results
}

// Selected returns the result under the cursor, if any.
func (m ElementsModel) Selected() (batch.Result, bool) {
	results := m.results()
	if m.cursor < 0 || m.cursor >= len(results) {
		return batch.Result{}, false
	}
	return results[m.cursor], true
}

// SelectedID returns the body under the cursor, or 0.
func (m ElementsModel) SelectedID() bodies.ID {
	r, ok := m.Selected()
	if !ok {
		return 0
	}
	return r.ID
}

// View renders the table and the detail panel.
func (m ElementsModel) View() string {
	var b strings.Builder

	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("Error: " + m.lastErr.Error()))
		b.WriteString("\n\n")
	}

	rep := m.snapshot.Report
	if rep == nil {
		if m.lastErr == nil {
			b.WriteString("Waiting for a report...\n")
		}
		return b.String()
	}

	title := fmt.Sprintf("Orbits about %s @ %s", rep.CenterName, rep.Epoch.UTC().Format(time.RFC3339))
	if rep.System != "" {
		title += " · " + rep.System
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	b.WriteString(m.renderTable())
	b.WriteString("\n")
	b.WriteString(m.renderDetail())

	return b.String()
}

func (m ElementsModel) renderTable() string {
	var b strings.Builder

	header := fmt.Sprintf(tableFormat, "Body", "Outcome", "e", "a (km)", "i", "Ω", "ω", "ν")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	results := m.results()
	if len(results) == 0 {
		b.WriteString("  No bodies\n")
		return b.String()
	}

	// Leave room for the header and detail panel.
	maxRows := m.height - detailLines - 4
	if maxRows < 5 {
		maxRows = 5
	}

	startIdx := 0
	if m.cursor >= maxRows {
		startIdx = m.cursor - maxRows + 1
	}
	endIdx := startIdx + maxRows
	if endIdx > len(results) {
		endIdx = len(results)
	}

	for i := startIdx; i < endIdx; i++ {
		r := results[i]
		row := formatRow(r)

		switch {
		case i == m.cursor:
			b.WriteString(selectedRowStyle.Render(row))
		case r.Outcome == batch.Solved:
			b.WriteString(rowStyle.Render(row))
		default:
			b.WriteString(mutedRowStyle.Render(row))
		}
		b.WriteString("\n")
	}

	if len(results) > maxRows {
		b.WriteString(fmt.Sprintf("  Showing %d-%d of %d bodies\n", startIdx+1, endIdx, len(results)))
	}

	return b.String()
}

func formatRow(r batch.Result) string {
	if r.Outcome != batch.Solved && r.Outcome != batch.Degenerate {
		return fmt.Sprintf("%-14s %-11s %s", truncate(r.Name, 14), report.OutcomeLabel(r), truncate(r.Reason, 60))
	}
	return fmt.Sprintf(tableFormat,
		truncate(r.Name, 14),
		report.OutcomeLabel(r),
		report.FormatElement(r, orbit.FieldEccentricity),
		report.FormatElement(r, orbit.FieldSemiMajorAxis),
		report.FormatElement(r, orbit.FieldInclination),
		report.FormatElement(r, orbit.FieldLongAscNode),
		report.FormatElement(r, orbit.FieldArgPeriapsis),
		report.FormatElement(r, orbit.FieldTrueAnomaly),
	)
}

func (m ElementsModel) renderDetail() string {
	r, ok := m.Selected()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (NAIF %d)", r.Name, r.ID)))
	b.WriteString("\n")

	line := func(label, value string) {
		b.WriteString("  " + detailLabelStyle.Render(label) + detailValueStyle.Render(value) + "\n")
	}

	if r.Outcome != batch.Solved && r.Outcome != batch.Degenerate {
		line("Outcome", r.Outcome.String())
		line("Reason", r.Reason)
		return b.String()
	}

	line("Distance", report.FormatDistance(r.DistanceKm))
	line("Speed", report.FormatSpeed(r.SpeedKmS))
	lon, lat := astro.EclipticLonLat(r.Position)
	line("Ecliptic", fmt.Sprintf("λ %.2f°  β %+.2f°", lon, lat))

	peri, apo := report.Undefined, report.Undefined
	if r.Defined.Has(orbit.FieldEccentricity | orbit.FieldSemiMajorAxis) {
		peri = report.FormatDistance(r.Elements.Periapsis())
		apo = report.FormatDistance(r.Elements.Apoapsis())
	}
	line("Periapsis", peri)
	line("Apoapsis", apo)

	period := report.Undefined
	if p, ok := r.PeriodSeconds(); ok {
		period = report.FormatPeriod(p)
	} else if r.Elements.IsHyperbolic() {
		period = "unbound"
	}
	line("Period", period)

	if r.Outcome == batch.Degenerate {
		line("Degenerate", fmt.Sprintf("%s (defined: %v)", r.Kind, r.Defined))
	}

	return b.String()
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/batch"
	"github.com/litescript/ls-orbits/internal/bodies"
	"github.com/litescript/ls-orbits/internal/report"
	"github.com/litescript/ls-orbits/internal/state"
)

// Discrete zoom levels for clean stepping
var zoomLevels = []float64{0.25, 0.5, 0.75, 1.0, 1.5, 2.0, 3.0, 5.0, 10.0}

const defaultZoom = 3

// SystemModel renders a top-down view of the bodies about the primary.
type SystemModel struct {
	width    int
	height   int
	snapshot state.Snapshot

	focusID    bodies.ID
	zoomLevel  int
	scaleMode  astro.ScaleMode
	showLabels bool
}

// NewSystemModel creates a new system view model.
func NewSystemModel() SystemModel {
	return SystemModel{
		zoomLevel: defaultZoom,
		scaleMode: astro.ScaleInner,
	}
}

func (m SystemModel) scale() float64 {
	if m.zoomLevel < 0 || m.zoomLevel >= len(zoomLevels) {
		return 1.0
	}
	return zoomLevels[m.zoomLevel]
}

// SetSize updates the viewport size.
func (m SystemModel) SetSize(width, height int) SystemModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with new data.
func (m SystemModel) UpdateData(snapshot state.Snapshot) SystemModel {
	m.snapshot = snapshot
	return m
}

// SetFocus highlights a body.
func (m SystemModel) SetFocus(id bodies.ID) SystemModel {
	m.focusID = id
	return m
}

// Update handles input messages.
func (m SystemModel) Update(msg tea.Msg) (SystemModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "+", "=":
			if m.zoomLevel < len(zoomLevels)-1 {
				m.zoomLevel++
			}
		case "-":
			if m.zoomLevel > 0 {
				m.zoomLevel--
			}
		case "0", "r":
			m.zoomLevel = defaultZoom
		case "z":
			m.scaleMode = (m.scaleMode + 1) % 3
		case "l":
			m.showLabels = !m.showLabels
		}
	}
	return m, nil
}

// plotted is a body with a position in the view.
type plotted struct {
	result batch.Result
	pos    astro.Vec3
}

func (m SystemModel) plottable() []plotted {
	if m.snapshot.Report == nil {
		return nil
	}
	var out []plotted
	for _, r := range m.snapshot.Report.Results {
		if r.Outcome != batch.Solved && r.Outcome != batch.Degenerate {
			continue
		}
		out = append(out, plotted{result: r, pos: r.Position})
	}
	return out
}

// unit returns the reference length that frames every plotted body.
func (m SystemModel) unit(points []plotted) float64 {
	vs := make([]astro.Vec3, len(points))
	for i, p := range points {
		vs[i] = p.pos
	}
	return astro.FitUnit(vs)
}

// View renders the canvas and HUD.
func (m SystemModel) View() string {
	if m.width < 40 || m.height < 10 {
		return "Terminal too small for system view"
	}
	if m.snapshot.Report == nil {
		return "Waiting for a report..."
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.buildCanvas(), m.renderHUD())
}

// bodyPos tracks a body's screen position for label rendering.
type bodyPos struct {
	x, y      int
	name      string
	isFocused bool
}

func (m SystemModel) buildCanvas() string {
	canvasH := m.height - 4
	if canvasH < 5 {
		canvasH = 5
	}
	canvasW := m.width

	grid := make([][]rune, canvasH)
	for y := range grid {
		grid[y] = make([]rune, canvasW)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	cx := canvasW / 2
	cy := canvasH / 2

	points := m.plottable()
	unit := m.unit(points)
	cfg := astro.ProjectionConfig{Scale: m.scale(), Mode: m.scaleMode, Unit: unit}

	// The frame edge (5 units at zoom 1) fills most of the half-canvas.
	edge := astro.ProjectTopDown(astro.Vec3{X: 5 * unit}, astro.ProjectionConfig{Scale: 1, Mode: m.scaleMode, Unit: unit}).X
	maxDisplayR := float64(min(cx, cy*2)) * 0.9
	displayScale := 1.0
	if edge > 0 {
		displayScale = maxDisplayR / edge
	}

	m.drawOrbitRings(grid, cx, cy, displayScale, cfg)

	var positions []bodyPos
	for _, p := range points {
		proj := astro.ProjectTopDown(p.pos, cfg)
		sx := cx + int(math.Round(proj.X*displayScale))
		sy := cy - int(math.Round(proj.Y*displayScale*0.5)) // Aspect ratio correction

		if sx < 0 || sx >= canvasW || sy < 0 || sy >= canvasH {
			continue
		}

		focused := p.result.ID == m.focusID
		grid[sy][sx] = bodyGlyph(p.result, focused)
		positions = append(positions, bodyPos{x: sx, y: sy, name: p.result.Name, isFocused: focused})
	}

	// Primary last so it's always visible
	grid[cy][cx] = '☉'
	positions = append(positions, bodyPos{x: cx, y: cy, name: m.snapshot.Report.CenterName})

	m.renderLabels(grid, positions)

	return renderGrid(grid)
}

func (m SystemModel) drawOrbitRings(grid [][]rune, cx, cy int, displayScale float64, cfg astro.ProjectionConfig) {
	for _, units := range []float64{1, 2.5, 5} {
		proj := astro.ProjectTopDown(astro.Vec3{X: units * cfg.Unit}, cfg)
		drawCircle(grid, cx, cy, proj.X*displayScale)
	}
}

func drawCircle(grid [][]rune, cx, cy int, r float64) {
	if r < 1 {
		return
	}

	h := len(grid)
	w := len(grid[0])

	steps := int(2 * math.Pi * r)
	if steps < 8 {
		steps = 8
	}
	if steps > 360 {
		steps = 360
	}

	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + int(r*math.Cos(theta))
		y := cy - int(r*math.Sin(theta)*0.5)

		if x >= 0 && x < w && y >= 0 && y < h && grid[y][x] == ' ' {
			grid[y][x] = '·'
		}
	}
}

func (m SystemModel) renderLabels(grid [][]rune, positions []bodyPos) {
	w := len(grid[0])
	for _, p := range positions {
		if !m.showLabels && !p.isFocused {
			continue
		}
		label := []rune(" " + p.name)
		if p.isFocused {
			label = []rune(" ◄ " + p.name)
		}
		for i, r := range label {
			x := p.x + 1 + i
			if x >= w {
				break
			}
			if grid[p.y][x] != ' ' && grid[p.y][x] != '·' {
				break
			}
			grid[p.y][x] = r
		}
	}
}

func bodyGlyph(r batch.Result, focused bool) rune {
	switch {
	case focused:
		return '◉'
	case r.Elements.IsHyperbolic():
		return '◇'
	case r.Outcome == batch.Degenerate:
		return '○'
	default:
		return '•'
	}
}

func renderGrid(grid [][]rune) string {
	var b strings.Builder

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	sunStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	bodyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	openStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	focusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("249"))

	for _, row := range grid {
		for _, ch := range row {
			var style lipgloss.Style
			switch ch {
			case ' ':
				b.WriteRune(ch)
				continue
			case '·':
				style = dimStyle
			case '☉':
				style = sunStyle
			case '•', '○':
				style = bodyStyle
			case '◇':
				style = openStyle
			case '◉', '◄':
				style = focusStyle
			default:
				style = labelStyle
			}
			b.WriteString(style.Render(string(ch)))
		}
		b.WriteRune('\n')
	}

	return b.String()
}

func (m SystemModel) renderHUD() string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	unit := m.unit(m.plottable())
	hud := labelStyle.Render("Scale ") + valueStyle.Render(fmt.Sprintf("%s ×%.2f", m.scaleMode, m.scale())) +
		labelStyle.Render("  Ring ") + valueStyle.Render(report.FormatDistance(unit))

	for _, p := range m.plottable() {
		if p.result.ID == m.focusID {
			hud += labelStyle.Render("  Focus ") + valueStyle.Render(fmt.Sprintf("%s at %s", p.result.Name, report.FormatDistance(p.result.DistanceKm)))
			break
		}
	}
	return "  " + hud
}

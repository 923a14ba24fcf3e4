package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/litescript/ls-orbits/internal/batch"
	"github.com/litescript/ls-orbits/internal/orbit"
)

const tableWidth = 96

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9D4EDD"))
	ruleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
)

// Options controls text rendering.
type Options struct {
	Color bool
}

// ColorEnabled reports whether f is a terminal that should get colour.
// NO_COLOR disables it regardless.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// SummaryRow represents one row in the summary table.
type SummaryRow struct {
	Body         string
	Outcome      string
	Eccentricity string
	SemiMajor    string
	Inclination  string
	LongAscNode  string
	ArgPeriapsis string
	TrueAnomaly  string
	Reason       string
}

// GenerateSummaryRows formats each result of rep.
func GenerateSummaryRows(rep *batch.Report) []SummaryRow {
	if rep == nil {
		return nil
	}

	rows := make([]SummaryRow, 0, len(rep.Results))
	for _, r := range rep.Results {
		row := SummaryRow{
			Body:    r.Name,
			Outcome: OutcomeLabel(r),
		}
		if r.Outcome == batch.Solved || r.Outcome == batch.Degenerate {
			row.Eccentricity = FormatElement(r, orbit.FieldEccentricity)
			row.SemiMajor = FormatElement(r, orbit.FieldSemiMajorAxis)
			row.Inclination = FormatElement(r, orbit.FieldInclination)
			row.LongAscNode = FormatElement(r, orbit.FieldLongAscNode)
			row.ArgPeriapsis = FormatElement(r, orbit.FieldArgPeriapsis)
			row.TrueAnomaly = FormatElement(r, orbit.FieldTrueAnomaly)
		} else {
			row.Reason = r.Reason
		}
		rows = append(rows, row)
	}
	return rows
}

// OutcomeLabel names the outcome, with the degeneracy kind when there is one.
func OutcomeLabel(r batch.Result) string {
	if r.Outcome == batch.Degenerate {
		return r.Kind.String()
	}
	return r.Outcome.String()
}

// FormatElement formats one element of r, or Undefined.
func FormatElement(r batch.Result, f orbit.Field) string {
	if !r.Defined.Has(f) {
		return Undefined
	}
	el := r.Elements
	switch f {
	case orbit.FieldEccentricity:
		return fmt.Sprintf("%.6f", el.Eccentricity)
	case orbit.FieldSemiMajorAxis:
		return fmt.Sprintf("%.1f", el.SemiMajorAxis)
	case orbit.FieldInclination:
		return fmt.Sprintf("%.3f", el.Inclination)
	case orbit.FieldLongAscNode:
		return fmt.Sprintf("%.3f", el.LongAscNode)
	case orbit.FieldArgPeriapsis:
		return fmt.Sprintf("%.3f", el.ArgPeriapsis)
	case orbit.FieldTrueAnomaly:
		return fmt.Sprintf("%.3f", el.TrueAnomaly)
	}
	return Undefined
}

// WriteSummaryTable writes a text table of rep to the given writer.
func WriteSummaryTable(w io.Writer, rep *batch.Report, opts Options) {
	header := func(s string) string { return s }
	rule := header
	if opts.Color {
		header = func(s string) string { return headerStyle.Render(s) }
		rule = func(s string) string { return ruleStyle.Render(s) }
	}

	if rep == nil {
		fmt.Fprintln(w, "No report")
		return
	}

	title := fmt.Sprintf("Orbits about %s @ %s", rep.CenterName, rep.Epoch.UTC().Format(time.RFC3339))
	if rep.System != "" {
		title += " (" + rep.System + ")"
	}
	fmt.Fprintln(w, header(title))
	fmt.Fprintln(w, rule(strings.Repeat("─", tableWidth)))

	rows := GenerateSummaryRows(rep)
	if len(rows) == 0 {
		fmt.Fprintln(w, "No bodies")
		return
	}

	fmt.Fprintln(w, header(fmt.Sprintf("%-14s %-11s %10s %14s %9s %9s %9s %9s",
		"Body", "Outcome", "e", "a (km)", "i", "Ω", "ω", "ν")))
	fmt.Fprintln(w, rule(strings.Repeat("─", tableWidth)))

	for _, r := range rows {
		if r.Reason != "" {
			fmt.Fprintf(w, "%-14s %-11s %s\n",
				truncateStr(r.Body, 14),
				r.Outcome,
				truncateStr(r.Reason, tableWidth-27),
			)
			continue
		}
		fmt.Fprintf(w, "%-14s %-11s %10s %14s %9s %9s %9s %9s\n",
			truncateStr(r.Body, 14),
			r.Outcome,
			r.Eccentricity,
			r.SemiMajor,
			r.Inclination,
			r.LongAscNode,
			r.ArgPeriapsis,
			r.TrueAnomaly,
		)
	}

	counts := rep.Counts()
	fmt.Fprintf(w, "\nTotal: %d bodies (%d solved, %d degenerate, %d invalid, %d unavailable) in %s\n",
		len(rows),
		counts[batch.Solved],
		counts[batch.Degenerate],
		counts[batch.Invalid],
		counts[batch.Unavailable],
		FormatDuration(rep.Duration),
	)
}

func truncateStr(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-2]) + ".."
}

// Package report renders batch reports as JSON and text tables.
package report

import (
	"encoding/json"
	"io"
	"math"
	"time"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/batch"
	"github.com/litescript/ls-orbits/internal/orbit"
)

// Export is the JSON-serializable representation of a batch report.
type Export struct {
	Epoch       time.Time      `json:"epoch"`
	EpochJD     float64        `json:"epoch_jd,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
	Source      string         `json:"source"`
	CenterID    int            `json:"center_id"`
	Center      string         `json:"center"`
	System      string         `json:"system,omitempty"`
	DurationMs  float64        `json:"duration_ms"`
	Counts      map[string]int `json:"counts"`
	Bodies      []BodyExport   `json:"bodies"`
}

// BodyExport is one solved body. Element fields are omitted when the
// orbit leaves them undefined.
type BodyExport struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Outcome     string    `json:"outcome"`
	Degeneracy  string    `json:"degeneracy,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Elements    *Elements `json:"elements,omitempty"`
	PositionKm  []float64 `json:"position_km,omitempty"`
	EclLonDeg   *float64  `json:"ecl_lon_deg,omitempty"`
	EclLatDeg   *float64  `json:"ecl_lat_deg,omitempty"`
	DistanceKm  *float64  `json:"distance_km,omitempty"`
	SpeedKmS    *float64  `json:"speed_km_s,omitempty"`
	PeriapsisKm *float64  `json:"periapsis_km,omitempty"`
	ApoapsisKm  *float64  `json:"apoapsis_km,omitempty"`
	PeriodS     *float64  `json:"period_s,omitempty"`
}

// Elements holds the classical elements in km and degrees.
type Elements struct {
	Eccentricity  *float64 `json:"e,omitempty"`
	SemiMajorAxis *float64 `json:"a_km,omitempty"`
	Inclination   *float64 `json:"i_deg,omitempty"`
	LongAscNode   *float64 `json:"raan_deg,omitempty"`
	ArgPeriapsis  *float64 `json:"argp_deg,omitempty"`
	TrueAnomaly   *float64 `json:"nu_deg,omitempty"`
}

// ExportReport converts a batch report to an exportable form.
func ExportReport(rep *batch.Report, generatedAt time.Time) *Export {
	if rep == nil {
		return &Export{GeneratedAt: generatedAt, Counts: map[string]int{}}
	}

	export := &Export{
		Epoch:       rep.Epoch,
		GeneratedAt: generatedAt,
		Source:      rep.Source,
		CenterID:    int(rep.CenterID),
		Center:      rep.CenterName,
		System:      rep.System,
		DurationMs:  float64(rep.Duration) / float64(time.Millisecond),
		Counts:      make(map[string]int, 4),
		Bodies:      make([]BodyExport, 0, len(rep.Results)),
	}
	if !rep.Epoch.IsZero() {
		export.EpochJD = astro.JulianDate(rep.Epoch)
	}
	for outcome, n := range rep.Counts() {
		export.Counts[outcome.String()] = n
	}
	for _, r := range rep.Results {
		export.Bodies = append(export.Bodies, exportResult(r))
	}
	return export
}

func exportResult(r batch.Result) BodyExport {
	b := BodyExport{
		ID:      int(r.ID),
		Name:    r.Name,
		Outcome: r.Outcome.String(),
		Reason:  r.Reason,
	}
	if r.Outcome == batch.Degenerate {
		b.Degeneracy = r.Kind.String()
	}
	if r.Outcome != batch.Solved && r.Outcome != batch.Degenerate {
		return b
	}

	el := r.Elements
	b.Elements = &Elements{
		Eccentricity:  field(r.Defined, orbit.FieldEccentricity, el.Eccentricity),
		SemiMajorAxis: field(r.Defined, orbit.FieldSemiMajorAxis, el.SemiMajorAxis),
		Inclination:   field(r.Defined, orbit.FieldInclination, el.Inclination),
		LongAscNode:   field(r.Defined, orbit.FieldLongAscNode, el.LongAscNode),
		ArgPeriapsis:  field(r.Defined, orbit.FieldArgPeriapsis, el.ArgPeriapsis),
		TrueAnomaly:   field(r.Defined, orbit.FieldTrueAnomaly, el.TrueAnomaly),
	}
	b.PositionKm = []float64{r.Position.X, r.Position.Y, r.Position.Z}
	lon, lat := astro.EclipticLonLat(r.Position)
	b.EclLonDeg = finite(lon)
	b.EclLatDeg = finite(lat)
	b.DistanceKm = finite(r.DistanceKm)
	b.SpeedKmS = finite(r.SpeedKmS)

	if r.Defined.Has(orbit.FieldEccentricity | orbit.FieldSemiMajorAxis) {
		b.PeriapsisKm = finite(el.Periapsis())
		b.ApoapsisKm = finite(el.Apoapsis())
	}
	if p, ok := r.PeriodSeconds(); ok {
		b.PeriodS = finite(p)
	}
	return b
}

func field(defined, f orbit.Field, v float64) *float64 {
	if !defined.Has(f) {
		return nil
	}
	return finite(v)
}

// finite drops values JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// WriteJSON writes the export as indented JSON to the given writer.
func (e *Export) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

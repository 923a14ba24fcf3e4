package batch

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/bodies"
	"github.com/litescript/ls-orbits/internal/ephem"
	"github.com/litescript/ls-orbits/internal/logging"
	"github.com/litescript/ls-orbits/internal/metrics"
	"github.com/litescript/ls-orbits/internal/orbit"
)

// earthMassKg gives G·m = 398600.4418 km³/s².
const earthMassKg = 5.972365356723323e24

func mixedItems() []Item {
	mu := orbit.GravitationalParameter(earthMassKg, 0)
	vc := math.Sqrt(mu / 7000)
	return []Item{
		{
			ID: 1, Name: "elliptical", Available: true, PrimaryMassKg: earthMassKg,
			State: orbit.State{
				Position: astro.Vec3{X: 6524.834, Y: 6862.875, Z: 6448.296},
				Velocity: astro.Vec3{X: 4.901327, Y: 5.533756, Z: -1.976341},
			},
		},
		{
			ID: 2, Name: "circular", Available: true, PrimaryMassKg: earthMassKg,
			State: orbit.State{Position: astro.Vec3{X: 7000}, Velocity: astro.Vec3{Y: vc}},
		},
		{
			ID: 3, Name: "massless", Available: true,
			State: orbit.State{Position: astro.Vec3{X: 7000}, Velocity: astro.Vec3{Y: 7}},
		},
		{ID: 4, Name: "missing", Reason: "no ephemeris file"},
		{
			ID: 5, Name: "radial", Available: true, PrimaryMassKg: earthMassKg,
			State: orbit.State{Position: astro.Vec3{X: 7000}, Velocity: astro.Vec3{X: 1}},
		},
	}
}

func TestSolveOutcomes(t *testing.T) {
	m := metrics.New()
	s := NewSolver(3, logging.Discard(), m)

	results, err := s.Solve(context.Background(), mixedItems())
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	want := []struct {
		id      bodies.ID
		outcome Outcome
	}{
		{1, Solved},
		{2, Degenerate},
		{3, Invalid},
		{4, Unavailable},
		{5, Degenerate},
	}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i, w := range want {
		if results[i].ID != w.id {
			t.Errorf("result %d ID = %d, want %d (input order)", i, results[i].ID, w.id)
		}
		if results[i].Outcome != w.outcome {
			t.Errorf("result %d outcome = %v, want %v (%s)", i, results[i].Outcome, w.outcome, results[i].Reason)
		}
	}

	if !scalar.EqualWithinRel(results[0].Elements.Eccentricity, 0.832853398487521, 1e-9) {
		t.Errorf("e = %v", results[0].Elements.Eccentricity)
	}
	if results[0].Defined != orbit.AllFields {
		t.Errorf("Defined = %v, want all", results[0].Defined)
	}
	if results[1].Kind != orbit.Equatorial || !results[1].Defined.Has(orbit.FieldSemiMajorAxis) {
		t.Errorf("circular result = %+v", results[1])
	}
	if results[4].Kind != orbit.Radial {
		t.Errorf("radial Kind = %v", results[4].Kind)
	}
	if results[3].Reason != "no ephemeris file" {
		t.Errorf("missing Reason = %q", results[3].Reason)
	}

}

func TestSolveMetrics(t *testing.T) {
	m := metrics.New()
	s := NewSolver(2, nil, m)
	if _, err := s.Solve(context.Background(), mixedItems()); err != nil {
		t.Fatal(err)
	}

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	counts := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "lsorbits_solve_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "outcome" {
					counts[lp.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	want := map[string]float64{"solved": 1, "degenerate": 2, "invalid": 1, "unavailable": 1}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("lsorbits_solve_total{outcome=%q} = %v, want %v", k, counts[k], v)
		}
	}
}

func TestSolveMatchesSequential(t *testing.T) {
	items := mixedItems()
	for i := 0; i < 50; i++ {
		items = append(items, mixedItems()[i%2])
	}

	parallel, err := NewSolver(8, nil, nil).Solve(context.Background(), items)
	if err != nil {
		t.Fatal(err)
	}
	for i, item := range items {
		want := solveOne(item)
		if parallel[i].Outcome != want.Outcome || parallel[i].Elements != want.Elements {
			t.Errorf("item %d: parallel %+v != sequential %+v", i, parallel[i], want)
		}
	}
}

func TestSolveEmpty(t *testing.T) {
	results, err := NewSolver(4, nil, nil).Solve(context.Background(), nil)
	if err != nil || len(results) != 0 {
		t.Errorf("Solve(nil) = %v, %v", results, err)
	}
}

func TestSolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := mixedItems()
	for i := 0; i < 200; i++ {
		items = append(items, mixedItems()...)
	}
	results, err := NewSolver(1, nil, nil).Solve(ctx, items)
	if len(results) != len(items) {
		t.Fatalf("got %d results, want %d", len(results), len(items))
	}
	if err == nil {
		// Every item raced through before cancellation was observed.
		return
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	var cancelled int
	for _, r := range results {
		if r.Reason == "cancelled" {
			cancelled++
			if r.Outcome != Unavailable {
				t.Errorf("cancelled result outcome = %v", r.Outcome)
			}
		}
	}
	if cancelled == 0 {
		t.Error("expected some results marked cancelled")
	}
}

func TestBuildItems(t *testing.T) {
	epoch := time.Date(2020, 10, 1, 21, 18, 0, 0, time.UTC)
	earth := ephem.Available(bodies.Earth, epoch, orbit.State{
		Position: astro.Vec3{X: 1000, Y: 2000},
		Velocity: astro.Vec3{Z: 1},
	})
	moon := ephem.Available(bodies.Luna, epoch, orbit.State{
		Position: astro.Vec3{X: 1000 + 384400, Y: 2000},
		Velocity: astro.Vec3{Y: 1.02, Z: 1},
	})
	missing := ephem.Unavailable(999999, "not in state file")

	center := Center{ID: bodies.Earth, Name: "Earth", MassKg: 5.97237e24, Sample: earth}
	items := BuildItems(center, []ephem.Sample{earth, moon, missing})
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (centre skipped)", len(items))
	}

	m := items[0]
	if !m.Available || m.Name != "Moon" {
		t.Fatalf("moon item = %+v", m)
	}
	if m.State.Position != (astro.Vec3{X: 384400}) {
		t.Errorf("relative position = %v", m.State.Position)
	}
	if m.State.Velocity != (astro.Vec3{Y: 1.02}) {
		t.Errorf("relative velocity = %v", m.State.Velocity)
	}
	if m.BodyMassKg != 7.342e22 || m.PrimaryMassKg != 5.97237e24 {
		t.Errorf("masses = %v, %v", m.BodyMassKg, m.PrimaryMassKg)
	}

	if items[1].Available || items[1].Name != "NAIF 999999" || items[1].Reason != "not in state file" {
		t.Errorf("missing item = %+v", items[1])
	}
}

func TestBuildItemsCenterUnavailable(t *testing.T) {
	center := Center{ID: bodies.Earth, Name: "Earth", MassKg: 1, Sample: ephem.Unavailable(bodies.Earth, "no ephemeris file")}
	moon := ephem.Available(bodies.Luna, time.Time{}, orbit.State{Position: astro.Vec3{X: 1}})

	items := BuildItems(center, []ephem.Sample{moon})
	if len(items) != 1 || items[0].Available {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Reason != "centre Earth unavailable: no ephemeris file" {
		t.Errorf("Reason = %q", items[0].Reason)
	}
}

func TestResultPeriod(t *testing.T) {
	r := Result{
		Elements: orbit.Elements{Eccentricity: 0.1, SemiMajorAxis: 42164},
		Defined:  orbit.AllFields,
		Mu:       398600.4418,
	}
	p, ok := r.PeriodSeconds()
	if !ok || !scalar.EqualWithinRel(p, 86164, 1e-3) {
		t.Errorf("PeriodSeconds() = %v, %v, want ~one sidereal day", p, ok)
	}

	r.Defined = orbit.FieldEccentricity
	if _, ok := r.PeriodSeconds(); ok {
		t.Error("PeriodSeconds() should be undefined without a")
	}
}

func TestReportCounts(t *testing.T) {
	rep := Report{Results: []Result{{Outcome: Solved}, {Outcome: Solved}, {Outcome: Invalid}}}
	c := rep.Counts()
	if c[Solved] != 2 || c[Invalid] != 1 || c[Degenerate] != 0 {
		t.Errorf("Counts() = %v", c)
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{Solved, "solved"},
		{Degenerate, "degenerate"},
		{Invalid, "invalid"},
		{Unavailable, "unavailable"},
		{Outcome(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.o, got, tt.want)
		}
	}
}

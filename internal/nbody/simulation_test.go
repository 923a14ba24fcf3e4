package nbody

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/bodies"
	"github.com/litescript/ls-orbits/internal/ephem"
	"github.com/litescript/ls-orbits/internal/metrics"
	"github.com/litescript/ls-orbits/internal/orbit"
)

const earthMassKg = 5.972365356723323e24

func circularPair() []Body {
	const r = 7000.0
	mu := orbit.GravitationalParameter(earthMassKg, 1000)
	return []Body{
		{ID: bodies.Earth, MassKg: earthMassKg},
		{ID: -1, MassKg: 1000, Position: astro.Vec3{X: r}, Velocity: astro.Vec3{Y: math.Sqrt(mu / r)}},
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		bs    []Body
		theta float64
	}{
		{"zero mass", []Body{{ID: 1, MassKg: 0}}, 0.5},
		{"negative mass", []Body{{ID: 1, MassKg: -1}}, 0.5},
		{"NaN position", []Body{{ID: 1, MassKg: 1, Position: astro.Vec3{X: math.NaN()}}}, 0.5},
		{"negative theta", circularPair(), -0.1},
		{"NaN theta", circularPair(), math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.bs, tt.theta); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestStepEuler(t *testing.T) {
	bs := circularPair()
	sim, err := New(bs, DefaultTheta)
	if err != nil {
		t.Fatal(err)
	}
	sim.Step(2)

	got := sim.Bodies()[1]
	// a = F/m, v += dt·a, x += dt·v with the updated velocity.
	accel := -orbit.G * earthMassKg / (7000 * 7000)
	if !scalar.EqualWithinRel(got.Acceleration.X, accel, 1e-12) {
		t.Errorf("acceleration = %v, want %v", got.Acceleration.X, accel)
	}
	if !scalar.EqualWithinRel(got.Velocity.X, 2*accel, 1e-12) {
		t.Errorf("velocity.X = %v, want %v", got.Velocity.X, 2*accel)
	}
	if !scalar.EqualWithinRel(got.Position.X, 7000+4*accel, 1e-12) {
		t.Errorf("position.X = %v, want %v", got.Position.X, 7000+4*accel)
	}
	if sim.Elapsed() != 2*time.Second || sim.Steps() != 1 {
		t.Errorf("Elapsed() = %v, Steps() = %d", sim.Elapsed(), sim.Steps())
	}

	// The input slice is not modified.
	if bs[1].Position.X != 7000 {
		t.Error("New must copy its input bodies")
	}
}

func TestRunClosesCircularOrbit(t *testing.T) {
	const r = 7000.0
	mu := orbit.GravitationalParameter(earthMassKg, 1000)
	period := 2 * math.Pi * math.Sqrt(r*r*r/mu)

	m := metrics.New()
	sim, err := New(circularPair(), 0, WithMetrics(m))
	if err != nil {
		t.Fatal(err)
	}
	before := sim.Momentum()

	n, err := sim.Run(context.Background(), time.Duration(period*float64(time.Second)), 10*time.Second)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n != int(math.Ceil(period/10)) {
		t.Errorf("steps = %d, want %d", n, int(math.Ceil(period/10)))
	}
	expected := fmt.Sprintf(`
# HELP lsorbits_sim_steps_total Total number of n-body integration steps.
# TYPE lsorbits_sim_steps_total counter
lsorbits_sim_steps_total %d
`, n)
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "lsorbits_sim_steps_total"); err != nil {
		t.Error(err)
	}

	out := sim.Bodies()
	rel := out[1].Position.Sub(out[0].Position)
	if d := rel.Sub(astro.Vec3{X: r}).Norm(); d > 50 {
		t.Errorf("after one period satellite is %.1f km from start", d)
	}
	if !scalar.EqualWithinAbs(rel.Norm(), r, 5) {
		t.Errorf("radius = %v, want ≈ %v", rel.Norm(), r)
	}

	after := sim.Momentum()
	if after.Sub(before).Norm() > 1e-6*1000*math.Sqrt(mu/r) {
		t.Errorf("momentum drifted from %v to %v", before, after)
	}
}

func TestRunValidationAndCancel(t *testing.T) {
	sim, err := New(circularPair(), DefaultTheta)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sim.Run(context.Background(), time.Minute, 0); err == nil {
		t.Error("expected error for zero step")
	}
	if _, err := sim.Run(context.Background(), -time.Minute, time.Second); err == nil {
		t.Error("expected error for negative duration")
	}

	n, err := sim.Run(context.Background(), 10*time.Second, 3*time.Second)
	if err != nil || n != 4 {
		t.Errorf("Run() = %d, %v, want 4 steps", n, err)
	}
	if sim.Elapsed() != 10*time.Second {
		t.Errorf("Elapsed() = %v, want 10s", sim.Elapsed())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err = sim.Run(ctx, time.Hour, time.Second)
	if !errors.Is(err, context.Canceled) || n != 0 {
		t.Errorf("Run(cancelled) = %d, %v", n, err)
	}
}

func TestFromSamplesAndSamples(t *testing.T) {
	epoch := time.Date(2020, 10, 1, 21, 18, 0, 0, time.UTC)
	samples := []ephem.Sample{
		ephem.Available(bodies.Pluto, epoch, orbit.State{}),
		ephem.Available(bodies.Charon, epoch, orbit.State{Position: astro.Vec3{X: 19591}, Velocity: astro.Vec3{Y: 0.21}}),
		ephem.Unavailable(bodies.Nix, "no vectors for epoch"),
		ephem.Available(-98, epoch, orbit.State{Position: astro.Vec3{X: 1}}),
	}

	bs, skipped := FromSamples(samples)
	if len(bs) != 2 || bs[0].ID != bodies.Pluto || bs[1].MassKg != 1.586e21 {
		t.Fatalf("bodies = %+v", bs)
	}
	if len(skipped) != 2 || skipped[0] != bodies.Nix || skipped[1] != -98 {
		t.Errorf("skipped = %v", skipped)
	}

	sim, err := New(bs, DefaultTheta)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sim.Run(context.Background(), time.Hour, time.Minute); err != nil {
		t.Fatal(err)
	}
	out := sim.Samples(epoch)
	if len(out) != 2 || !out[1].Available {
		t.Fatalf("Samples() = %+v", out)
	}
	if !out[1].Epoch.Equal(epoch.Add(time.Hour)) {
		t.Errorf("epoch = %v, want %v", out[1].Epoch, epoch.Add(time.Hour))
	}
	if out[1].State.Position.Y <= 0 {
		t.Errorf("charon should have moved along +y, got %v", out[1].State.Position)
	}
}

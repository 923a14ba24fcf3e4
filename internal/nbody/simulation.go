package nbody

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/bodies"
	"github.com/litescript/ls-orbits/internal/ephem"
	"github.com/litescript/ls-orbits/internal/logging"
	"github.com/litescript/ls-orbits/internal/metrics"
	"github.com/litescript/ls-orbits/internal/orbit"
)

// DefaultTheta is the opening-angle threshold used when none is given.
const DefaultTheta = 0.5

// Body is one point mass in the simulation. Positions are km, velocities
// km/s, accelerations km/s² and forces kN.
type Body struct {
	ID           bodies.ID
	MassKg       float64
	Position     astro.Vec3
	Velocity     astro.Vec3
	Acceleration astro.Vec3
	Force        astro.Vec3
}

// State returns the body's position and velocity.
func (b Body) State() orbit.State {
	return orbit.State{Position: b.Position, Velocity: b.Velocity}
}

// Simulation advances a set of bodies in time.
type Simulation struct {
	bodies  []*Body
	theta   float64
	elapsed time.Duration
	steps   int

	log     *logging.Logger
	metrics *metrics.Metrics
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the simulation logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.log = l.Named("sim")
		}
	}
}

// WithMetrics counts integration steps in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Simulation) { s.metrics = m }
}

// New creates a simulation over copies of bs. Every body needs a positive
// mass and finite vectors; theta must be non-negative.
func New(bs []Body, theta float64, opts ...Option) (*Simulation, error) {
	if math.IsNaN(theta) || theta < 0 {
		return nil, fmt.Errorf("theta must be non-negative, got %v", theta)
	}
	s := &Simulation{
		bodies: make([]*Body, 0, len(bs)),
		theta:  theta,
		log:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, b := range bs {
		if !(b.MassKg > 0) || math.IsInf(b.MassKg, 0) {
			return nil, fmt.Errorf("body %d: mass must be positive, got %v", b.ID, b.MassKg)
		}
		if !b.Position.IsFinite() || !b.Velocity.IsFinite() {
			return nil, fmt.Errorf("body %d: non-finite state", b.ID)
		}
		b := b
		s.bodies = append(s.bodies, &b)
	}
	return s, nil
}

// FromSamples builds simulation bodies from the available samples, taking
// masses from the catalog. Unavailable samples and uncataloged bodies are
// returned as skipped IDs.
func FromSamples(samples []ephem.Sample) (bs []Body, skipped []bodies.ID) {
	for _, smp := range samples {
		cat, ok := bodies.Lookup(smp.ID)
		if !smp.Available || !ok {
			skipped = append(skipped, smp.ID)
			continue
		}
		bs = append(bs, Body{
			ID:       smp.ID,
			MassKg:   cat.MassKg,
			Position: smp.State.Position,
			Velocity: smp.State.Velocity,
		})
	}
	return bs, skipped
}

// Step advances every body by dt seconds: forces from a fresh tree, then
// a = F/m, v += dt·a, x += dt·v.
func (s *Simulation) Step(dt float64) {
	tree := BuildTree(s.bodies)
	for _, b := range s.bodies {
		b.Force = tree.Force(b, s.theta)
	}
	for _, b := range s.bodies {
		b.Acceleration = b.Force.Scale(1 / b.MassKg)
		b.Velocity = b.Velocity.Add(b.Acceleration.Scale(dt))
		b.Position = b.Position.Add(b.Velocity.Scale(dt))
	}
	s.elapsed += time.Duration(dt * float64(time.Second))
	s.steps++
}

// Run advances the simulation by duration in increments of step. The last
// increment is shortened so the total is exact. It returns the number of
// steps taken, stopping early with ctx.Err() when ctx is cancelled.
func (s *Simulation) Run(ctx context.Context, duration, step time.Duration) (int, error) {
	if step <= 0 {
		return 0, fmt.Errorf("step must be positive, got %v", step)
	}
	if duration < 0 {
		return 0, fmt.Errorf("duration must be non-negative, got %v", duration)
	}

	start := time.Now()
	var n int
	defer func() { s.metrics.AddSimSteps(n) }()

	for remaining := duration; remaining > 0; remaining -= step {
		if err := ctx.Err(); err != nil {
			s.log.Warn("simulation stopped after %d steps: %v", n, err)
			return n, err
		}
		dt := step
		if remaining < step {
			dt = remaining
		}
		s.Step(dt.Seconds())
		n++
	}

	s.log.Debug("advanced %d bodies by %v in %d steps (%v)", len(s.bodies), duration, n, time.Since(start))
	return n, nil
}

// Bodies returns a copy of the current body states.
func (s *Simulation) Bodies() []Body {
	out := make([]Body, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = *b
	}
	return out
}

// Elapsed returns the simulated time advanced so far.
func (s *Simulation) Elapsed() time.Duration { return s.elapsed }

// Steps returns the number of steps taken so far.
func (s *Simulation) Steps() int { return s.steps }

// Samples returns the current states as ephemeris samples at epoch plus
// the elapsed simulated time.
func (s *Simulation) Samples(epoch time.Time) []ephem.Sample {
	at := epoch.Add(s.elapsed)
	out := make([]ephem.Sample, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = ephem.Available(b.ID, at, b.State())
	}
	return out
}

// Momentum returns the total linear momentum in kg·km/s.
func (s *Simulation) Momentum() astro.Vec3 {
	var p astro.Vec3
	for _, b := range s.bodies {
		p = p.Add(b.Velocity.Scale(b.MassKg))
	}
	return p
}

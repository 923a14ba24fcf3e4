// Package batch solves orbital elements for many bodies in parallel.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/bodies"
	"github.com/litescript/ls-orbits/internal/ephem"
	"github.com/litescript/ls-orbits/internal/logging"
	"github.com/litescript/ls-orbits/internal/metrics"
	"github.com/litescript/ls-orbits/internal/orbit"
)

// Outcome classifies the result of one solve.
type Outcome int

const (
	Solved Outcome = iota
	Degenerate
	Invalid
	Unavailable
)

// String returns the outcome name, also used as the metrics label.
func (o Outcome) String() string {
	switch o {
	case Solved:
		return "solved"
	case Degenerate:
		return "degenerate"
	case Invalid:
		return "invalid"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Item is one body to solve: its state relative to the primary and the
// two masses of the pair.
type Item struct {
	ID            bodies.ID
	Name          string
	State         orbit.State
	Available     bool
	Reason        string // why State is missing
	BodyMassKg    float64
	PrimaryMassKg float64
}

// Result is the solve outcome for one Item.
type Result struct {
	ID       bodies.ID
	Name     string
	Outcome  Outcome
	Elements orbit.Elements // complete when Solved, partial when Degenerate
	Defined  orbit.Field
	Kind     orbit.Degeneracy
	Reason   string

	Position   astro.Vec3 // relative to the primary, km
	DistanceKm float64
	SpeedKmS   float64
	Mu         float64
}

// PeriodSeconds returns the orbital period, or false when it is undefined.
func (r Result) PeriodSeconds() (float64, bool) {
	if !r.Defined.Has(orbit.FieldEccentricity | orbit.FieldSemiMajorAxis) {
		return 0, false
	}
	p, err := r.Elements.Period(r.Mu)
	if err != nil {
		return 0, false
	}
	return p, true
}

// Solver manages a fixed number of goroutines for parallel element solves.
type Solver struct {
	workers int
	log     *logging.Logger
	metrics *metrics.Metrics
}

// NewSolver creates a solver with the given number of workers. m may be nil.
func NewSolver(workers int, log *logging.Logger, m *metrics.Metrics) *Solver {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Solver{
		workers: workers,
		log:     log.Named("batch"),
		metrics: m,
	}
}

// job is a unit of work for the pool.
type job struct {
	index int
	item  Item
}

// Solve computes elements for every item using the worker pool. Results
// are returned in input order. If ctx is cancelled before every item is
// solved, the items never reached are marked Unavailable and ctx.Err() is
// returned with them.
func (s *Solver) Solve(ctx context.Context, items []Item) ([]Result, error) {
	results := make([]Result, len(items))
	if len(items) == 0 {
		return results, nil
	}

	start := time.Now()
	done := make([]bool, len(items))

	jobs := make(chan job, s.workers*2)
	type indexed struct {
		index  int
		result Result
	}
	out := make(chan indexed, s.workers*2)

	// Start workers.
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				r := solveOne(j.item)
				select {
				case out <- indexed{index: j.index, result: r}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Feed jobs in a goroutine.
	go func() {
		defer close(jobs)
		for i, item := range items {
			select {
			case jobs <- job{index: i, item: item}:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close results when all workers are done.
	go func() {
		wg.Wait()
		close(out)
	}()

	var available, completed int
	for r := range out {
		results[r.index] = r.result
		done[r.index] = true
		completed++
		if r.result.Outcome != Unavailable {
			available++
		}
		s.record(r.result)
	}

	var err error
	if completed < len(items) {
		err = ctx.Err()
		for i, item := range items {
			if !done[i] {
				results[i] = Result{ID: item.ID, Name: item.Name, Outcome: Unavailable, Reason: "cancelled"}
			}
		}
	}

	elapsed := time.Since(start)
	s.metrics.ObserveBatch(elapsed, available)
	s.log.Debug("solved %d bodies in %v with %d workers", len(items), elapsed, s.workers)
	return results, err
}

func (s *Solver) record(r Result) {
	s.metrics.ObserveSolve(r.Outcome.String())
	switch r.Outcome {
	case Invalid:
		s.log.Warn("%s (%d): %s", r.Name, r.ID, r.Reason)
	case Degenerate:
		s.log.Debug("%s (%d): %s orbit, defined %v", r.Name, r.ID, r.Kind, r.Defined)
	case Unavailable:
		s.log.Debug("%s (%d): unavailable: %s", r.Name, r.ID, r.Reason)
	}
}

// solveOne classifies one item. It never panics on bad input.
func solveOne(item Item) Result {
	r := Result{ID: item.ID, Name: item.Name}
	if !item.Available {
		r.Outcome = Unavailable
		r.Reason = item.Reason
		return r
	}

	r.Position = item.State.Position
	r.DistanceKm = item.State.Position.Norm()
	r.SpeedKmS = item.State.Velocity.Norm()
	r.Mu = orbit.GravitationalParameter(item.PrimaryMassKg, item.BodyMassKg)

	el, err := orbit.FromVectors(item.State.Position, item.State.Velocity, item.PrimaryMassKg, item.BodyMassKg)

	var de *orbit.DegenerateError
	switch {
	case err == nil:
		r.Outcome = Solved
		r.Elements = el
		r.Defined = orbit.AllFields
	case errors.As(err, &de):
		r.Outcome = Degenerate
		r.Elements = de.Partial
		r.Defined = de.Defined
		r.Kind = de.Kind
		r.Reason = de.Error()
	case errors.Is(err, orbit.ErrInvalidInput):
		r.Outcome = Invalid
		r.Reason = err.Error()
	default:
		r.Outcome = Invalid
		r.Reason = fmt.Sprintf("unexpected error: %v", err)
	}
	return r
}

// Center describes the body elements are computed about.
type Center struct {
	ID     bodies.ID
	Name   string
	MassKg float64
	Sample ephem.Sample
}

// BuildItems turns ephemeris samples into items relative to center.
// Samples of the centre itself are skipped. When the centre has no state,
// every item is unavailable.
func BuildItems(center Center, samples []ephem.Sample) []Item {
	items := make([]Item, 0, len(samples))
	for _, smp := range samples {
		if smp.ID == center.ID {
			continue
		}

		item := Item{
			ID:            smp.ID,
			Name:          displayName(smp.ID),
			PrimaryMassKg: center.MassKg,
		}
		if b, ok := bodies.Lookup(smp.ID); ok {
			item.BodyMassKg = b.MassKg
		}

		switch {
		case !smp.Available:
			item.Reason = smp.Reason
		case !center.Sample.Available:
			item.Reason = fmt.Sprintf("centre %s unavailable: %s", center.Name, center.Sample.Reason)
		default:
			item.Available = true
			item.State = orbit.Relative(smp.State, center.Sample.State)
		}
		items = append(items, item)
	}
	return items
}

func displayName(id bodies.ID) string {
	if b, ok := bodies.Lookup(id); ok {
		return b.Name
	}
	return fmt.Sprintf("NAIF %d", id)
}

// Report is a solved batch with its context.
type Report struct {
	Epoch      time.Time
	Source     string
	CenterID   bodies.ID
	CenterName string
	System     string
	Results    []Result
	Duration   time.Duration
}

// Counts returns how many results fall in each outcome.
func (r Report) Counts() map[Outcome]int {
	counts := make(map[Outcome]int, 4)
	for _, res := range r.Results {
		counts[res.Outcome]++
	}
	return counts
}

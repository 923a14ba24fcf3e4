package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/litescript/ls-orbits/internal/batch"
	"github.com/litescript/ls-orbits/internal/bodies"
	"github.com/litescript/ls-orbits/internal/config"
	"github.com/litescript/ls-orbits/internal/ephem"
	"github.com/litescript/ls-orbits/internal/logging"
	"github.com/litescript/ls-orbits/internal/metrics"
	"github.com/litescript/ls-orbits/internal/nbody"
	"github.com/litescript/ls-orbits/internal/orbit"
)

// defaultAdvance is how far the TUI steps when no simulation duration is set.
const defaultAdvance = 24 * time.Hour

// pipeline loads states, optionally propagates them, and solves elements.
type pipeline struct {
	cfg     config.Config
	ids     []bodies.ID
	source  ephem.Source
	solver  *batch.Solver
	metrics *metrics.Metrics
	log     *logging.Logger

	// centre is fixed at load time; its sample follows the simulation.
	center  batch.Center
	system  string
	epoch   time.Time
	samples []ephem.Sample

	sim        *nbody.Simulation
	simEpoch   time.Time
	notSimmed  []ephem.Sample
	centerSeed bool // centre state was synthesised at the origin
}

// newPipeline opens the configured source and loads the initial samples.
func newPipeline(cfg config.Config, ids []bodies.ID, epoch time.Time, log *logging.Logger, m *metrics.Metrics) (*pipeline, error) {
	p := &pipeline{
		cfg:     cfg,
		solver:  batch.NewSolver(cfg.Workers, log, m),
		metrics: m,
		log:     log,
		epoch:   epoch,
	}

	switch {
	case cfg.States != "":
		sf, err := ephem.LoadStateFile(cfg.States)
		if err != nil {
			return nil, err
		}
		p.source = sf
	case cfg.HorizonsDir != "":
		p.source = ephem.NewHorizonsDir(cfg.HorizonsDir, epoch, log)
	default:
		return nil, errors.New("no ephemeris input: set -states or -horizons-dir")
	}

	if err := p.selectBodies(ids); err != nil {
		return nil, err
	}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

// selectBodies decides which bodies to solve.
func (p *pipeline) selectBodies(ids []bodies.ID) error {
	var sys bodies.System
	if p.cfg.System != config.Unset {
		s, ok := bodies.LookupSystem(bodies.SystemID(p.cfg.System))
		if !ok {
			return fmt.Errorf("unknown system %d", p.cfg.System)
		}
		sys = s
		p.system = s.Name
	}

	switch {
	case len(ids) > 0:
		p.ids = ids
	case p.system != "":
		p.ids = sys.IDs()
	default:
		if sf, ok := p.source.(*ephem.StateFile); ok {
			p.ids = sf.IDs()
		} else {
			for _, b := range bodies.All {
				p.ids = append(p.ids, b.ID)
			}
		}
	}

	switch {
	case p.cfg.Barycentric:
		p.center = batch.Center{
			ID:     bodies.ID(sys.ID),
			Name:   sys.Name + " barycentre",
			MassKg: sys.Mass(),
		}
	case p.cfg.Center != config.Unset:
		c, err := centerFor(bodies.ID(p.cfg.Center))
		if err != nil {
			return err
		}
		p.center = c
	case p.system != "":
		primary := sys.Primary()
		p.center = batch.Center{ID: primary.ID, Name: primary.Name, MassKg: primary.MassKg}
	default:
		id := bodies.Sun
		if sf, ok := p.source.(*ephem.StateFile); ok {
			id = sf.Center()
		}
		c, err := centerFor(id)
		if err != nil {
			return err
		}
		p.center = c
	}
	return nil
}

// centerFor builds a centre from the catalog. ID 0 is the solar system
// barycentre, which carries the Sun's mass.
func centerFor(id bodies.ID) (batch.Center, error) {
	if id == 0 {
		sun, _ := bodies.Lookup(bodies.Sun)
		return batch.Center{ID: 0, Name: "Solar System Barycenter", MassKg: sun.MassKg}, nil
	}
	b, ok := bodies.Lookup(id)
	if !ok {
		return batch.Center{}, fmt.Errorf("unknown centre %d: no catalog mass", id)
	}
	return batch.Center{ID: b.ID, Name: b.Name, MassKg: b.MassKg}, nil
}

// load reads samples for the selected bodies and the centre.
func (p *pipeline) load() error {
	fetch := append([]bodies.ID(nil), p.ids...)
	var members []bodies.ID
	if p.cfg.Barycentric {
		sys, _ := bodies.LookupSystem(bodies.SystemID(p.cfg.System))
		members = sys.IDs()
		fetch = appendMissing(fetch, members...)
	} else {
		fetch = appendMissing(fetch, p.center.ID)
	}

	samples, err := p.source.Samples(fetch)
	if err != nil {
		return fmt.Errorf("loading %s: %w", p.source.Name(), err)
	}

	available, unavailable := ephem.Counts(samples)
	p.log.Info("loaded %d bodies from %s (%d unavailable)", available, p.source.Name(), unavailable)

	if p.epoch.IsZero() {
		p.epoch = sampleEpoch(p.source, samples)
	}

	// A state file's own centre sits at the origin by definition.
	if sf, ok := p.source.(*ephem.StateFile); ok && !p.cfg.Barycentric && p.center.ID == sf.Center() {
		for i, s := range samples {
			if s.ID == p.center.ID && !s.Available {
				samples[i] = ephem.Available(s.ID, p.epoch, orbit.State{})
				p.centerSeed = true
			}
		}
	}

	p.samples = samples
	return nil
}

// sampleEpoch picks the epoch a set of samples describes.
func sampleEpoch(src ephem.Source, samples []ephem.Sample) time.Time {
	if sf, ok := src.(*ephem.StateFile); ok {
		return sf.Epoch()
	}
	for _, s := range samples {
		if s.Available && !s.Epoch.IsZero() {
			return s.Epoch
		}
	}
	return time.Time{}
}

func appendMissing(ids []bodies.ID, extra ...bodies.ID) []bodies.ID {
	for _, e := range extra {
		found := false
		for _, id := range ids {
			if id == e {
				found = true
				break
			}
		}
		if !found {
			ids = append(ids, e)
		}
	}
	return ids
}

// centerSample resolves the centre's current state.
func (p *pipeline) centerSample() ephem.Sample {
	if !p.cfg.Barycentric {
		for _, s := range p.samples {
			if s.ID == p.center.ID {
				return s
			}
		}
		return ephem.Unavailable(p.center.ID, "no state for centre")
	}

	sys, _ := bodies.LookupSystem(bodies.SystemID(p.cfg.System))
	var members []orbit.Member
	for _, b := range sys.Members() {
		m := orbit.Member{MassKg: b.MassKg}
		for _, s := range p.samples {
			if s.ID == b.ID && s.Available {
				m.State = s.State
				m.Available = true
			}
		}
		members = append(members, m)
	}
	st, err := orbit.Barycenter(members)
	if err != nil {
		return ephem.Unavailable(p.center.ID, "barycentre: %v", err)
	}
	return ephem.Available(p.center.ID, p.currentEpoch(), st)
}

func (p *pipeline) currentEpoch() time.Time {
	if p.sim == nil {
		return p.epoch
	}
	return p.simEpoch.Add(p.sim.Elapsed())
}

// propagate advances every propagatable body by d.
func (p *pipeline) propagate(ctx context.Context, d time.Duration) error {
	if p.sim == nil {
		bs, skipped := nbody.FromSamples(p.samples)
		// An uncataloged centre (ID 0) still pulls.
		if p.centerSeed {
			for i, id := range skipped {
				if id == p.center.ID {
					bs = append(bs, nbody.Body{ID: id, MassKg: p.center.MassKg})
					skipped = append(skipped[:i], skipped[i+1:]...)
					break
				}
			}
		}

		sim, err := nbody.New(bs, p.cfg.Theta, nbody.WithLogger(p.log), nbody.WithMetrics(p.metrics))
		if err != nil {
			return fmt.Errorf("simulation: %w", err)
		}
		p.sim = sim
		p.simEpoch = p.epoch

		for _, id := range skipped {
			reason := "not propagated: no catalog mass"
			for _, s := range p.samples {
				if s.ID == id && !s.Available {
					reason = s.Reason
				}
			}
			p.notSimmed = append(p.notSimmed, ephem.Unavailable(id, "%s", reason))
		}
		if len(skipped) > 0 {
			p.log.Warn("%d bodies left out of the simulation", len(skipped))
		}
	}

	steps, err := p.sim.Run(ctx, d, p.cfg.SimStep)
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	p.log.Info("propagated %d bodies by %v (%d steps)", len(p.sim.Bodies()), d, steps)

	p.samples = append(p.sim.Samples(p.simEpoch), p.notSimmed...)
	return nil
}

// solve builds items relative to the centre and solves them.
func (p *pipeline) solve(ctx context.Context) (*batch.Report, error) {
	start := time.Now()
	center := p.center
	center.Sample = p.centerSample()

	var selected []ephem.Sample
	for _, id := range p.ids {
		for _, s := range p.samples {
			if s.ID == id {
				selected = append(selected, s)
				break
			}
		}
	}

	results, err := p.solver.Solve(ctx, batch.BuildItems(center, selected))
	rep := &batch.Report{
		Epoch:      p.currentEpoch(),
		Source:     p.source.Name(),
		CenterID:   center.ID,
		CenterName: center.Name,
		System:     p.system,
		Results:    results,
		Duration:   time.Since(start),
	}
	return rep, err
}

// run propagates when configured and returns the first report.
func (p *pipeline) run(ctx context.Context) (*batch.Report, error) {
	if p.cfg.Simulate() {
		if err := p.propagate(ctx, p.cfg.SimDuration); err != nil {
			return nil, err
		}
	}
	return p.solve(ctx)
}

// advance steps the simulation once more and re-solves.
func (p *pipeline) advance(ctx context.Context) (*batch.Report, error) {
	d := p.cfg.SimDuration
	if d <= 0 {
		d = defaultAdvance
	}
	if err := p.propagate(ctx, d); err != nil {
		return nil, err
	}
	return p.solve(ctx)
}

// parseIDs parses a comma-separated list of NAIF IDs or body names.
func parseIDs(s string) ([]bodies.ID, error) {
	var ids []bodies.ID
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		id, err := parseBody(tok)
		if err != nil {
			return nil, err
		}
		ids = appendMissing(ids, id)
	}
	return ids, nil
}

// parseBody accepts a NAIF ID or a catalog name.
func parseBody(s string) (bodies.ID, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return bodies.ID(n), nil
	}
	b, ok := bodies.Find(s)
	if !ok {
		return 0, fmt.Errorf("unknown body %q", s)
	}
	return b.ID, nil
}

// parseSystem accepts a system ID, a system name or its primary's name.
func parseSystem(s string) (bodies.SystemID, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := bodies.LookupSystem(bodies.SystemID(n)); !ok {
			return 0, fmt.Errorf("unknown system %d", n)
		}
		return bodies.SystemID(n), nil
	}
	for _, sys := range bodies.Systems {
		if strings.EqualFold(sys.Name, s) || strings.EqualFold(sys.Primary().Name, s) {
			return sys.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown system %q", s)
}

package ephem

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/bodies"
	"github.com/litescript/ls-orbits/internal/orbit"
)

// stateFileJSON is the on-disk layout of a state file.
type stateFileJSON struct {
	Epoch  time.Time        `json:"epoch"`
	Center int              `json:"center"`
	Units  string           `json:"units"`
	Frame  string           `json:"frame"`
	Bodies []stateEntryJSON `json:"bodies"`
}

type stateEntryJSON struct {
	ID       int       `json:"id"`
	Position []float64 `json:"position,omitempty"`
	Velocity []float64 `json:"velocity,omitempty"`
}

// StateFile is a snapshot of body state vectors at one epoch, relative to a
// common centre. Units are "au" (AU and AU/day) or "km" (km and km/s).
type StateFile struct {
	path    string
	epoch   time.Time
	center  bodies.ID
	order   []bodies.ID
	entries map[bodies.ID]stateEntryJSON
	units   string
	frame   Frame
}

// LoadStateFile reads and parses a state file from disk.
func LoadStateFile(path string) (*StateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	sf, err := ParseStateFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sf.path = path
	return sf, nil
}

// ParseStateFile parses state file JSON.
func ParseStateFile(data []byte) (*StateFile, error) {
	var raw stateFileJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	units := strings.ToLower(raw.Units)
	switch units {
	case "", "au":
		units = "au"
	case "km":
	default:
		return nil, fmt.Errorf("unknown units %q (want au or km)", raw.Units)
	}

	frame, err := ParseFrame(raw.Frame)
	if err != nil {
		return nil, err
	}

	sf := &StateFile{
		epoch:   raw.Epoch.UTC(),
		center:  bodies.ID(raw.Center),
		entries: make(map[bodies.ID]stateEntryJSON, len(raw.Bodies)),
		units:   units,
		frame:   frame,
	}
	for _, b := range raw.Bodies {
		id := bodies.ID(b.ID)
		if _, dup := sf.entries[id]; dup {
			return nil, fmt.Errorf("body %d listed twice", b.ID)
		}
		sf.entries[id] = b
		sf.order = append(sf.order, id)
	}
	return sf, nil
}

// Name implements Source.
func (sf *StateFile) Name() string {
	if sf.path == "" {
		return "state file"
	}
	return "state file (" + sf.path + ")"
}

// Epoch returns the instant the vectors refer to.
func (sf *StateFile) Epoch() time.Time { return sf.epoch }

// Center returns the NAIF ID of the coordinate centre.
func (sf *StateFile) Center() bodies.ID { return sf.center }

// IDs returns the bodies listed in the file, in file order.
func (sf *StateFile) IDs() []bodies.ID {
	out := make([]bodies.ID, len(sf.order))
	copy(out, sf.order)
	return out
}

// Samples implements Source. A nil ids slice returns every body in the file.
func (sf *StateFile) Samples(ids []bodies.ID) ([]Sample, error) {
	if ids == nil {
		ids = sf.order
	}
	samples := make([]Sample, 0, len(ids))
	for _, id := range ids {
		samples = append(samples, sf.sample(id))
	}
	return samples, nil
}

func (sf *StateFile) sample(id bodies.ID) Sample {
	e, ok := sf.entries[id]
	if !ok {
		return Unavailable(id, "not in state file")
	}
	if len(e.Position) == 0 && len(e.Velocity) == 0 {
		return Unavailable(id, "no vectors for epoch")
	}
	pos, err := vecFromSlice(e.Position)
	if err != nil {
		return Unavailable(id, "position: %v", err)
	}
	vel, err := vecFromSlice(e.Velocity)
	if err != nil {
		return Unavailable(id, "velocity: %v", err)
	}

	if sf.units == "au" {
		pos = astro.AUVecToKm(pos, false)
		vel = astro.AUVecToKm(vel, true)
	}
	state := orbit.State{Position: pos, Velocity: vel}
	if sf.frame == FrameEquatorial {
		state = toEcliptic(state)
	}
	return Available(id, sf.epoch, state)
}

func vecFromSlice(v []float64) (astro.Vec3, error) {
	if len(v) != 3 {
		return astro.Vec3{}, fmt.Errorf("want 3 components, got %d", len(v))
	}
	return astro.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

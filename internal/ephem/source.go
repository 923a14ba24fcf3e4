// Package ephem loads state vectors for cataloged bodies from saved
// ephemeris files.
package ephem

import (
	"fmt"
	"time"

	"github.com/litescript/ls-orbits/internal/bodies"
	"github.com/litescript/ls-orbits/internal/orbit"
)

// Sample is the ephemeris result for one body. Either Available is true and
// State holds its vectors in km and km/s, or Reason explains why not.
type Sample struct {
	ID        bodies.ID
	Epoch     time.Time
	State     orbit.State
	Available bool
	Reason    string
}

// Available returns a sample carrying a state.
func Available(id bodies.ID, epoch time.Time, s orbit.State) Sample {
	return Sample{ID: id, Epoch: epoch, State: s, Available: true}
}

// Unavailable returns a sample with no state.
func Unavailable(id bodies.ID, format string, args ...interface{}) Sample {
	return Sample{ID: id, Reason: fmt.Sprintf(format, args...)}
}

// Source supplies samples for a set of bodies.
type Source interface {
	// Name returns the source name for display/logging.
	Name() string

	// Samples returns one sample per requested ID, in the same order.
	// Missing data yields an unavailable sample rather than an error; the
	// error is reserved for a source that cannot be read at all.
	Samples(ids []bodies.ID) ([]Sample, error)
}

// Mode represents which kind of source to open.
type Mode int

const (
	ModeStateFile Mode = iota // single JSON state file
	ModeHorizons              // directory of saved Horizons VECTORS results
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeStateFile:
		return "statefile"
	case ModeHorizons:
		return "horizons"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode string.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "statefile", "states":
		return ModeStateFile, nil
	case "horizons":
		return ModeHorizons, nil
	default:
		return ModeStateFile, fmt.Errorf("unknown ephemeris mode %q", s)
	}
}

// Frame is the reference plane of input vectors.
type Frame int

const (
	FrameEcliptic   Frame = iota // ecliptic of J2000
	FrameEquatorial              // ICRF / mean equator of J2000
)

// ParseFrame parses a frame name; an empty name means ecliptic.
func ParseFrame(s string) (Frame, error) {
	switch s {
	case "", "ecliptic":
		return FrameEcliptic, nil
	case "equatorial", "icrf", "ICRF":
		return FrameEquatorial, nil
	default:
		return FrameEcliptic, fmt.Errorf("unknown frame %q", s)
	}
}

// String returns the frame name.
func (f Frame) String() string {
	if f == FrameEquatorial {
		return "equatorial"
	}
	return "ecliptic"
}

// Counts returns how many samples are available and unavailable.
func Counts(samples []Sample) (available, unavailable int) {
	for _, s := range samples {
		if s.Available {
			available++
		} else {
			unavailable++
		}
	}
	return available, unavailable
}

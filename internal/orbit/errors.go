package orbit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput matches every *InputError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateOrbit matches every *DegenerateError.
	ErrDegenerateOrbit = errors.New("degenerate orbit")

	// ErrNotElliptical is returned for quantities only defined when e < 1.
	ErrNotElliptical = errors.New("orbit is not elliptical")
)

// InputError reports caller input rejected before any computation.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is match ErrInvalidInput.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Degeneracy names a geometry the classical elements cannot describe.
type Degeneracy int

const (
	// Parabolic: specific energy is zero, so a is unbounded.
	Parabolic Degeneracy = iota + 1
	// Radial: zero angular momentum, so the orbital plane is undefined.
	Radial
	// Equatorial: sin i is zero, so the node and argument of latitude are undefined.
	Equatorial
)

// String returns the degeneracy name.
func (d Degeneracy) String() string {
	switch d {
	case Parabolic:
		return "parabolic"
	case Radial:
		return "radial"
	case Equatorial:
		return "equatorial"
	default:
		return "unknown"
	}
}

// Field is a bit set over the six classical elements.
type Field uint8

const (
	FieldEccentricity Field = 1 << iota
	FieldSemiMajorAxis
	FieldInclination
	FieldLongAscNode
	FieldArgPeriapsis
	FieldTrueAnomaly

	AllFields = FieldEccentricity | FieldSemiMajorAxis | FieldInclination |
		FieldLongAscNode | FieldArgPeriapsis | FieldTrueAnomaly
)

// Has reports whether every bit of f2 is set in f.
func (f Field) Has(f2 Field) bool {
	return f&f2 == f2
}

// String lists the set fields using their usual symbols.
func (f Field) String() string {
	names := []struct {
		bit  Field
		name string
	}{
		{FieldEccentricity, "e"},
		{FieldSemiMajorAxis, "a"},
		{FieldInclination, "i"},
		{FieldLongAscNode, "Ω"},
		{FieldArgPeriapsis, "ω"},
		{FieldTrueAnomaly, "ν"},
	}
	var parts []string
	for _, n := range names {
		if f.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// DegenerateError is returned when the state describes a legitimate orbit
// that has no complete set of classical elements. Partial holds the
// elements that are still well defined; Defined says which ones. An
// equatorial orbit that is also circular has no periapsis, so ν is left
// undefined for it.
type DegenerateError struct {
	Kind    Degeneracy
	Partial Elements
	Defined Field
}

func (e *DegenerateError) Error() string {
	switch e.Kind {
	case Parabolic:
		return "degenerate orbit: parabolic (specific energy ≈ 0)"
	case Radial:
		return "degenerate orbit: radial (angular momentum ≈ 0)"
	case Equatorial:
		return "degenerate orbit: equatorial (sin i ≈ 0)"
	default:
		return "degenerate orbit"
	}
}

// Is lets errors.Is match ErrDegenerateOrbit.
func (e *DegenerateError) Is(target error) bool {
	return target == ErrDegenerateOrbit
}

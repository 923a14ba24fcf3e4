// Package orbit converts Cartesian state vectors into classical (Keplerian)
// orbital elements.
//
// Every function here is pure and safe for concurrent use. Distances are in
// km, velocities in km/s and masses in kg, matching G below.
package orbit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/litescript/ls-orbits/internal/astro"
)

// G is the universal gravitational constant in km³·kg⁻¹·s⁻².
const G = 6.67408e-20

const (
	// parabolicTol bounds |v²/2 − μ/r| relative to the larger of the two terms.
	parabolicTol = 1e-12

	// radialTol bounds |h| relative to r·v, i.e. the sine of the angle
	// between position and velocity.
	radialTol = 1e-12

	// equatorialTol bounds |sin i|.
	equatorialTol = 1e-10

	// circularTol is the eccentricity below which an orbit has no
	// periapsis to measure ν from.
	circularTol = 5e-5

	// minNormal is the smallest normal float64.
	minNormal = 0x1p-1022
)

func overflowError() error {
	return &InputError{Field: "state", Reason: "magnitude overflows"}
}

func underflowError() error {
	return &InputError{Field: "state", Reason: "magnitude underflows"}
}

// State is a position/velocity pair at one instant, relative to some centre.
type State struct {
	Position astro.Vec3 // km
	Velocity astro.Vec3 // km/s
}

// Elements are the six classical orbital elements. Angles are in degrees.
type Elements struct {
	Eccentricity  float64 // e ≥ 0
	SemiMajorAxis float64 // a in km, negative for hyperbolic orbits
	Inclination   float64 // i in [0, 180]
	LongAscNode   float64 // Ω in (-180, 180]
	ArgPeriapsis  float64 // ω in (-180, 180]
	TrueAnomaly   float64 // ν in (-180, 180]
}

// IsHyperbolic reports whether the orbit is open (e > 1).
func (el Elements) IsHyperbolic() bool {
	return el.Eccentricity > 1
}

// Periapsis returns the closest-approach distance a(1 − e).
func (el Elements) Periapsis() float64 {
	return el.SemiMajorAxis * (1 - el.Eccentricity)
}

// Apoapsis returns a(1 + e), or +Inf when the orbit is not closed.
func (el Elements) Apoapsis() float64 {
	if el.Eccentricity >= 1 {
		return math.Inf(1)
	}
	return el.SemiMajorAxis * (1 + el.Eccentricity)
}

// SemiLatusRectum returns p = a(1 − e²).
func (el Elements) SemiLatusRectum() float64 {
	return el.SemiMajorAxis * (1 - el.Eccentricity*el.Eccentricity)
}

// String implements fmt.Stringer.
func (el Elements) String() string {
	return fmt.Sprintf("e=%.6f a=%.1f i=%.3f Ω=%.3f ω=%.3f ν=%.3f",
		el.Eccentricity, el.SemiMajorAxis, el.Inclination,
		el.LongAscNode, el.ArgPeriapsis, el.TrueAnomaly)
}

// Period returns the orbital period in seconds of an elliptical orbit about
// a system with gravitational parameter mu.
func (el Elements) Period(mu float64) (float64, error) {
	if el.Eccentricity >= 1 || el.SemiMajorAxis <= 0 {
		return 0, ErrNotElliptical
	}
	if !(mu > 0) {
		return 0, &InputError{Field: "mu", Reason: "must be positive"}
	}
	a := el.SemiMajorAxis
	return 2 * math.Pi * math.Sqrt(a*a*a/mu), nil
}

// GravitationalParameter returns μ = G·(m1 + m2) in km³/s².
func GravitationalParameter(mass1Kg, mass2Kg float64) float64 {
	return G * (mass1Kg + mass2Kg)
}

// FromVectors computes the classical elements of a body at positionKm with
// velocityKmPerSec relative to a centre, for the two-body system of masses
// mass1Kg and mass2Kg.
//
// The error is a *InputError for non-finite vectors, a non-positive total
// mass, or magnitudes float64 cannot represent, and a *DegenerateError for parabolic, radial and equatorial
// geometries. In both cases the returned Elements are zero.
func FromVectors(positionKm, velocityKmPerSec astro.Vec3, mass1Kg, mass2Kg float64) (Elements, error) {
	if math.IsNaN(mass1Kg) || math.IsInf(mass1Kg, 0) || math.IsNaN(mass2Kg) || math.IsInf(mass2Kg, 0) {
		return Elements{}, &InputError{Field: "mass", Reason: "non-finite value"}
	}
	if mass1Kg+mass2Kg <= 0 {
		return Elements{}, &InputError{Field: "mass", Reason: "total mass must be positive"}
	}
	return Solve(State{Position: positionKm, Velocity: velocityKmPerSec}, GravitationalParameter(mass1Kg, mass2Kg))
}

// Solve computes the classical elements of s for gravitational parameter mu.
func Solve(s State, mu float64) (Elements, error) {
	if !s.Position.IsFinite() {
		return Elements{}, &InputError{Field: "position", Reason: "non-finite component"}
	}
	if !s.Velocity.IsFinite() {
		return Elements{}, &InputError{Field: "velocity", Reason: "non-finite component"}
	}
	if math.IsNaN(mu) || math.IsInf(mu, 0) || mu <= 0 {
		return Elements{}, &InputError{Field: "mu", Reason: "must be positive and finite"}
	}

	pos, vel := s.Position, s.Velocity
	h := astro.Cross(pos, vel)
	r := pos.Norm()
	v := vel.Norm()
	hMag := h.Norm()

	if math.IsInf(r, 0) || math.IsInf(v, 0) || math.IsInf(hMag, 0) || math.IsInf(hMag*hMag, 0) {
		return Elements{}, overflowError()
	}
	if (r == 0 && pos != astro.Vec3{}) || (v == 0 && vel != astro.Vec3{}) {
		return Elements{}, underflowError()
	}

	kinetic := v * v / 2
	var potential float64
	if r > 0 {
		potential = mu / r
	}
	if math.IsInf(kinetic, 0) || math.IsInf(potential, 0) {
		return Elements{}, overflowError()
	}
	energy := kinetic - potential
	parabolic := r > 0 && scalar.EqualWithinRel(kinetic, potential, parabolicTol)

	// r == 0 or v == 0 also lands here.
	if r == 0 || v == 0 || astro.Cross(unit(pos, r), unit(vel, v)).Norm() <= radialTol {
		var partial Elements
		defined := FieldEccentricity
		partial.Eccentricity = 1
		if !parabolic && r > 0 {
			partial.SemiMajorAxis = -mu / (2 * energy)
			defined |= FieldSemiMajorAxis
		}
		return Elements{}, &DegenerateError{Kind: Radial, Partial: partial, Defined: defined}
	}
	if hMag < minNormal {
		return Elements{}, underflowError()
	}

	i := astro.WrapTwoPi(math.Acos(clampUnit(h.Z / hMag)))
	sinI := math.Sin(i)
	equatorial := math.Abs(sinI) <= equatorialTol
	node := astro.WrapPi(math.Atan2(h.X, -h.Y))

	if parabolic {
		partial := Elements{Eccentricity: 1, Inclination: astro.RadToDeg(i)}
		defined := FieldEccentricity | FieldInclination
		if !equatorial {
			partial.LongAscNode = astro.RadToDeg(node)
			defined |= FieldLongAscNode
		}
		return Elements{}, &DegenerateError{Kind: Parabolic, Partial: partial, Defined: defined}
	}

	a := -mu / (2 * energy)
	if math.IsInf(a*mu, 0) {
		return Elements{}, overflowError()
	}
	e := eccentricity(hMag, a, mu)
	p := a * (1 - e*e)
	nu := astro.WrapPi(math.Atan2(math.Sqrt(p/mu)*astro.Dot(vel, pos), p-r))

	el := Elements{
		Eccentricity:  e,
		SemiMajorAxis: a,
		Inclination:   astro.RadToDeg(i),
		TrueAnomaly:   astro.RadToDeg(nu),
	}

	if equatorial {
		defined := FieldEccentricity | FieldSemiMajorAxis | FieldInclination
		if e > circularTol {
			defined |= FieldTrueAnomaly
		} else {
			el.TrueAnomaly = 0
		}
		return Elements{}, &DegenerateError{Kind: Equatorial, Partial: el, Defined: defined}
	}

	u := math.Atan2(pos.Z/sinI, pos.X*math.Cos(node)+pos.Y*math.Sin(node))
	w := astro.WrapPi(u - nu)

	el.LongAscNode = astro.RadToDeg(node)
	el.ArgPeriapsis = astro.RadToDeg(w)
	return el, nil
}

// unit scales v by 1/n componentwise, n being its norm.
func unit(v astro.Vec3, n float64) astro.Vec3 {
	return astro.Vec3{X: v.X / n, Y: v.Y / n, Z: v.Z / n}
}

// eccentricity returns sqrt(1 − h²/(a·μ)). Rounding near circular orbits can
// push the radicand slightly below zero; it is clamped to zero.
func eccentricity(hMag, a, mu float64) float64 {
	radicand := 1 - hMag*hMag/(a*mu)
	if radicand < 0 {
		return 0
	}
	return math.Sqrt(radicand)
}

// clampUnit clamps x to [-1, 1] so acos never sees rounding overshoot.
func clampUnit(x float64) float64 {
	if x > 1 {
		return 1
	} else if x < -1 {
		return -1
	}
	return x
}

package orbit

import (
	"errors"

	"github.com/litescript/ls-orbits/internal/astro"
)

// ErrNoMass is returned by Barycenter when the members carry no mass.
var ErrNoMass = errors.New("system has no mass")

// Relative returns the state of body as seen from primary.
func Relative(body, primary State) State {
	return State{
		Position: body.Position.Sub(primary.Position),
		Velocity: body.Velocity.Sub(primary.Velocity),
	}
}

// Distance returns |body − primary| in position units.
func Distance(body, primary State) float64 {
	return astro.Magnitude(body.Position.Sub(primary.Position))
}

// Speed returns the speed of body relative to primary.
func Speed(body, primary State) float64 {
	return astro.Magnitude(body.Velocity.Sub(primary.Velocity))
}

// Member is one body contributing to a barycentre.
type Member struct {
	MassKg    float64
	State     State
	Available bool
}

// Barycenter returns the mass-weighted position and velocity of members.
//
// Members without a state are skipped in the weighted sums, but their mass
// still counts towards the system total. The result is therefore pulled
// towards the origin when part of the system is missing.
func Barycenter(members []Member) (State, error) {
	var total float64
	for _, m := range members {
		total += m.MassKg
	}
	if !(total > 0) {
		return State{}, ErrNoMass
	}

	var pos, vel astro.Vec3
	for _, m := range members {
		if !m.Available {
			continue
		}
		pos = pos.Add(m.State.Position.Scale(m.MassKg))
		vel = vel.Add(m.State.Velocity.Scale(m.MassKg))
	}
	return State{Position: pos.Scale(1 / total), Velocity: vel.Scale(1 / total)}, nil
}

package bodies

import "fmt"

// SystemID identifies a planetary system.
type SystemID int

// The systems use the number of their primary planet; the Sun's system is 0.
const (
	Solar     SystemID = 0
	EarthMoon SystemID = 3
	Martian   SystemID = 4
	Jovian    SystemID = 5
	Saturnian SystemID = 6
	Uranian   SystemID = 7
	Neptunian SystemID = 8
	Plutonian SystemID = 9
)

// System is a group of bodies around a common primary.
type System struct {
	ID   SystemID
	Name string
	// RadiusKm is the apoapsis distance of the furthest member from the
	// primary; used to scale system views.
	RadiusKm float64
}

// Systems lists every planetary system in ID order.
var Systems = []System{
	{ID: Solar, Name: "Solar", RadiusKm: 1.457936e10},
	{ID: EarthMoon, Name: "Earth-Moon", RadiusKm: 405400},
	{ID: Martian, Name: "Martian", RadiusKm: 23470.9},
	{ID: Jovian, Name: "Jovian", RadiusKm: 39427165.8},
	{ID: Saturnian, Name: "Saturnian", RadiusKm: 30694994.4},
	{ID: Uranian, Name: "Uranian", RadiusKm: 28596748.2},
	{ID: Neptunian, Name: "Neptunian", RadiusKm: 77784500},
	{ID: Plutonian, Name: "Plutonian", RadiusKm: 65117.494156},
}

// LookupSystem returns the system with the given ID.
func LookupSystem(id SystemID) (System, bool) {
	for _, s := range Systems {
		if s.ID == id {
			return s, true
		}
	}
	return System{}, false
}

// String implements fmt.Stringer.
func (s System) String() string {
	return fmt.Sprintf("%s (%d)", s.Name, s.ID)
}

// Members returns the system's bodies, primary first.
func (s System) Members() []Body {
	var out []Body
	for _, b := range All {
		if b.System == s.ID {
			out = append(out, b)
		}
	}
	return out
}

// Primary returns the body the rest of the system orbits.
func (s System) Primary() Body {
	members := s.Members()
	if len(members) == 0 {
		return Body{}
	}
	return members[0]
}

// Mass returns the summed mass of every member in kg.
func (s System) Mass() float64 {
	var total float64
	for _, b := range s.Members() {
		total += b.MassKg
	}
	return total
}

// IDs returns the NAIF IDs of the members, primary first.
func (s System) IDs() []ID {
	members := s.Members()
	ids := make([]ID, len(members))
	for i, b := range members {
		ids[i] = b.ID
	}
	return ids
}

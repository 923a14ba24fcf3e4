// Package bodies is the static catalog of the Sun, planets, dwarf planets
// and major moons, grouped into the planetary systems they orbit in.
package bodies

import (
	"strings"
)

// ID is a NAIF SPICE ID for a body.
type ID int

// Type classifies a body.
type Type string

const (
	Star              Type = "star"
	TerrestrialPlanet Type = "terrestrial planet"
	GasGiant          Type = "gas giant"
	IceGiant          Type = "ice giant"
	DwarfPlanet       Type = "dwarf planet"
	Moon              Type = "moon"
)

// Body is one catalog entry. Radii are the ellipsoid semi-axes in km.
type Body struct {
	ID          ID
	Name        string
	Designation string
	Type        Type
	SatGroup    string // moons of the giants only
	MassKg      float64
	Radii       [3]float64
	System      SystemID
	Aliases     []string
}

// IsMoon reports whether the body orbits a planet or dwarf planet.
func (b Body) IsMoon() bool {
	return b.Type == Moon
}

// MeanRadius returns the arithmetic mean of the three semi-axes.
func (b Body) MeanRadius() float64 {
	return (b.Radii[0] + b.Radii[1] + b.Radii[2]) / 3
}

// NAIF IDs of the cataloged bodies.
const (
	Sun       ID = 10
	Mercury   ID = 199
	Venus     ID = 299
	Earth     ID = 399
	Luna      ID = 301
	Mars      ID = 499
	Phobos    ID = 401
	Deimos    ID = 402
	Jupiter   ID = 599
	Io        ID = 501
	Europa    ID = 502
	Ganymede  ID = 503
	Callisto  ID = 504
	Saturn    ID = 699
	Mimas     ID = 601
	Enceladus ID = 602
	Tethys    ID = 603
	Dione     ID = 604
	Rhea      ID = 605
	Titan     ID = 606
	Iapetus   ID = 608
	Uranus    ID = 799
	Ariel     ID = 701
	Umbriel   ID = 702
	Titania   ID = 703
	Oberon    ID = 704
	Miranda   ID = 705
	Neptune   ID = 899
	Triton    ID = 801
	Nereid    ID = 802
	Pluto     ID = 999
	Charon    ID = 901
	Nix       ID = 902
	Hydra     ID = 903
)

// All is the catalog, ordered by system with each system's primary first.
var All = []Body{
	// Solar
	{ID: Sun, Name: "Sun", Designation: "Sol", Type: Star, MassKg: 1.989e30, Radii: [3]float64{696000, 696000, 696000}, System: Solar, Aliases: []string{"SOL"}},
	{ID: Mercury, Name: "Mercury", Designation: "Mercury", Type: TerrestrialPlanet, MassKg: 3.3011e23, Radii: [3]float64{2440.5, 2440.5, 2438.3}, System: Solar},
	{ID: Venus, Name: "Venus", Designation: "Venus", Type: TerrestrialPlanet, MassKg: 4.8675e24, Radii: [3]float64{6051.8, 6051.8, 6051.8}, System: Solar},

	// Earth-Moon
	{ID: Earth, Name: "Earth", Designation: "Earth", Type: TerrestrialPlanet, MassKg: 5.97237e24, Radii: [3]float64{6378.137, 6378.137, 6356.752}, System: EarthMoon, Aliases: []string{"TERRA"}},
	{ID: Luna, Name: "Moon", Designation: "Earth I", Type: Moon, MassKg: 7.342e22, Radii: [3]float64{1738.1, 1738.1, 1736.0}, System: EarthMoon, Aliases: []string{"LUNA"}},

	// Martian
	{ID: Mars, Name: "Mars", Designation: "Mars", Type: TerrestrialPlanet, MassKg: 6.4171e23, Radii: [3]float64{3396.2, 3396.2, 3376.2}, System: Martian},
	{ID: Phobos, Name: "Phobos", Designation: "Mars I", Type: Moon, MassKg: 1.0659e16, Radii: [3]float64{13.0, 11.4, 9.1}, System: Martian},
	{ID: Deimos, Name: "Deimos", Designation: "Mars II", Type: Moon, MassKg: 1.4762e15, Radii: [3]float64{7.8, 6.0, 5.1}, System: Martian},

	// Jovian
	{ID: Jupiter, Name: "Jupiter", Designation: "Jupiter", Type: GasGiant, MassKg: 1.8982e27, Radii: [3]float64{71492, 71492, 66854}, System: Jovian},
	{ID: Io, Name: "Io", Designation: "Jupiter I", Type: Moon, SatGroup: "Galilean", MassKg: 8.931938e22, Radii: [3]float64{1829.4, 1819.4, 1815.7}, System: Jovian},
	{ID: Europa, Name: "Europa", Designation: "Jupiter II", Type: Moon, SatGroup: "Galilean", MassKg: 4.799844e22, Radii: [3]float64{1562.6, 1560.3, 1559.5}, System: Jovian},
	{ID: Ganymede, Name: "Ganymede", Designation: "Jupiter III", Type: Moon, SatGroup: "Galilean", MassKg: 1.4819e23, Radii: [3]float64{2631.2, 2631.2, 2631.2}, System: Jovian},
	{ID: Callisto, Name: "Callisto", Designation: "Jupiter IV", Type: Moon, SatGroup: "Galilean", MassKg: 1.075938e23, Radii: [3]float64{2410.3, 2410.3, 2410.3}, System: Jovian},

	// Saturnian
	{ID: Saturn, Name: "Saturn", Designation: "Saturn", Type: GasGiant, MassKg: 5.6834e26, Radii: [3]float64{60268, 60268, 54364}, System: Saturnian},
	{ID: Mimas, Name: "Mimas", Designation: "Saturn I", Type: Moon, SatGroup: "Inner large", MassKg: 3.7493e19, Radii: [3]float64{207.8, 196.7, 190.6}, System: Saturnian},
	{ID: Enceladus, Name: "Enceladus", Designation: "Saturn II", Type: Moon, SatGroup: "Inner large", MassKg: 1.08022e20, Radii: [3]float64{256.6, 251.4, 248.3}, System: Saturnian},
	{ID: Tethys, Name: "Tethys", Designation: "Saturn III", Type: Moon, SatGroup: "Inner large", MassKg: 6.17449e20, Radii: [3]float64{538.4, 528.3, 526.3}, System: Saturnian},
	{ID: Dione, Name: "Dione", Designation: "Saturn IV", Type: Moon, SatGroup: "Inner large", MassKg: 1.095452e21, Radii: [3]float64{563.4, 561.3, 559.6}, System: Saturnian},
	{ID: Rhea, Name: "Rhea", Designation: "Saturn V", Type: Moon, SatGroup: "Inner large", MassKg: 2.306518e21, Radii: [3]float64{765.0, 763.1, 762.4}, System: Saturnian},
	{ID: Titan, Name: "Titan", Designation: "Saturn VI", Type: Moon, SatGroup: "Outer large", MassKg: 1.3452e23, Radii: [3]float64{2574.73, 2574.73, 2574.73}, System: Saturnian},
	{ID: Iapetus, Name: "Iapetus", Designation: "Saturn VIII", Type: Moon, SatGroup: "Outer large", MassKg: 1.805635e21, Radii: [3]float64{745.7, 745.7, 712.1}, System: Saturnian},

	// Uranian
	{ID: Uranus, Name: "Uranus", Designation: "Uranus", Type: IceGiant, MassKg: 8.681e25, Radii: [3]float64{25559, 25559, 24973}, System: Uranian},
	{ID: Miranda, Name: "Miranda", Designation: "Uranus V", Type: Moon, SatGroup: "Major", MassKg: 6.59e19, Radii: [3]float64{240.4, 234.2, 232.9}, System: Uranian},
	{ID: Ariel, Name: "Ariel", Designation: "Uranus I", Type: Moon, SatGroup: "Major", MassKg: 1.353e21, Radii: [3]float64{581.1, 577.9, 577.7}, System: Uranian},
	{ID: Umbriel, Name: "Umbriel", Designation: "Uranus II", Type: Moon, SatGroup: "Major", MassKg: 1.172e21, Radii: [3]float64{584.7, 584.7, 584.7}, System: Uranian},
	{ID: Titania, Name: "Titania", Designation: "Uranus III", Type: Moon, SatGroup: "Major", MassKg: 3.527e21, Radii: [3]float64{788.9, 788.9, 788.9}, System: Uranian},
	{ID: Oberon, Name: "Oberon", Designation: "Uranus IV", Type: Moon, SatGroup: "Major", MassKg: 3.014e21, Radii: [3]float64{761.4, 761.4, 761.4}, System: Uranian},

	// Neptunian
	{ID: Neptune, Name: "Neptune", Designation: "Neptune", Type: IceGiant, MassKg: 1.02413e26, Radii: [3]float64{24764, 24764, 24341}, System: Neptunian},
	{ID: Triton, Name: "Triton", Designation: "Neptune I", Type: Moon, SatGroup: "Irregular", MassKg: 2.14e22, Radii: [3]float64{1353.4, 1353.4, 1353.4}, System: Neptunian},
	{ID: Nereid, Name: "Nereid", Designation: "Neptune II", Type: Moon, SatGroup: "Irregular", MassKg: 3.1e19, Radii: [3]float64{170, 170, 170}, System: Neptunian},

	// Plutonian
	{ID: Pluto, Name: "Pluto", Designation: "134340 Pluto", Type: DwarfPlanet, MassKg: 1.303e22, Radii: [3]float64{1188.3, 1188.3, 1188.3}, System: Plutonian},
	{ID: Charon, Name: "Charon", Designation: "Pluto I", Type: Moon, MassKg: 1.586e21, Radii: [3]float64{606, 606, 606}, System: Plutonian},
	{ID: Nix, Name: "Nix", Designation: "Pluto II", Type: Moon, MassKg: 4.5e16, Radii: [3]float64{25, 17.5, 16}, System: Plutonian},
	{ID: Hydra, Name: "Hydra", Designation: "Pluto III", Type: Moon, MassKg: 4.8e16, Radii: [3]float64{25.5, 18.7, 16}, System: Plutonian},
}

// ByID maps NAIF IDs to catalog entries.
var ByID = func() map[ID]Body {
	m := make(map[ID]Body, len(All))
	for _, b := range All {
		m[b.ID] = b
	}
	return m
}()

// ByName maps normalized names, designations and aliases to catalog entries.
var ByName = func() map[string]Body {
	m := make(map[string]Body, len(All)*3)
	for _, b := range All {
		m[normalizeName(b.Name)] = b
		m[normalizeName(b.Designation)] = b
		for _, alias := range b.Aliases {
			m[normalizeName(alias)] = b
		}
	}
	return m
}()

// Lookup returns the body with the given NAIF ID.
func Lookup(id ID) (Body, bool) {
	b, ok := ByID[id]
	return b, ok
}

// Find returns the body matching a name, designation or alias, ignoring case.
func Find(name string) (Body, bool) {
	b, ok := ByName[normalizeName(name)]
	return b, ok
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

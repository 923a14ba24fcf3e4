package astro

import (
	"math"
)

// ProjectedPoint represents a 2D projected position with metadata.
type ProjectedPoint struct {
	X float64 // Screen X coordinate in display units
	Y float64 // Screen Y coordinate in display units
	R float64 // True 3D distance in reference units
	Z float64 // Out-of-plane offset in reference units
}

// ScaleMode defines how radial distances are mapped to screen space.
type ScaleMode int

const (
	// ScaleLogR uses logarithmic scaling: r_display = log10(r + 1)
	ScaleLogR ScaleMode = iota

	// ScaleInner is linear out to 5 reference units, clamped beyond
	ScaleInner

	// ScaleOuter is linear to 5 units, then logarithmic
	ScaleOuter
)

// String returns the scale mode name.
func (m ScaleMode) String() string {
	switch m {
	case ScaleLogR:
		return "log"
	case ScaleInner:
		return "inner"
	case ScaleOuter:
		return "outer"
	default:
		return "unknown"
	}
}

// ProjectionConfig configures the top-down projection.
type ProjectionConfig struct {
	Scale float64   // Base scale factor
	Mode  ScaleMode // Scaling mode
	Unit  float64   // Length of one reference unit in km (AU when zero)
}

// DefaultProjectionConfig returns a reasonable default configuration.
func DefaultProjectionConfig() ProjectionConfig {
	return ProjectionConfig{
		Scale: 1.0,
		Mode:  ScaleLogR,
		Unit:  AU,
	}
}

// ProjectTopDown projects a km position vector to 2D screen coordinates.
// X points right (toward the reference direction), Y up; Z is dropped into
// the metadata.
func ProjectTopDown(v Vec3, cfg ProjectionConfig) ProjectedPoint {
	unit := cfg.Unit
	if unit <= 0 {
		unit = AU
	}
	u := v.Scale(1 / unit)

	rPlane := math.Sqrt(u.X*u.X + u.Y*u.Y)
	rDisplay := scaleRadius(rPlane, cfg)
	angle := math.Atan2(u.Y, u.X)

	return ProjectedPoint{
		X: rDisplay * math.Cos(angle) * cfg.Scale,
		Y: rDisplay * math.Sin(angle) * cfg.Scale,
		R: u.Norm(),
		Z: u.Z,
	}
}

// FitUnit returns a reference unit so the farthest point lands at r = 5.
// Used to frame moon systems, whose extent is far below 1 AU.
func FitUnit(points []Vec3) float64 {
	maxR := 0.0
	for _, p := range points {
		if r := math.Hypot(p.X, p.Y); r > maxR {
			maxR = r
		}
	}
	if maxR == 0 {
		return AU
	}
	return maxR / 5
}

// scaleRadius applies the configured scaling mode to a radial distance.
func scaleRadius(r float64, cfg ProjectionConfig) float64 {
	switch cfg.Mode {
	case ScaleLogR:
		// log10(r + 1): 0 at origin, ~0.78 at 5, ~1.04 at 10
		return math.Log10(r + 1)

	case ScaleInner:
		if r > 5 {
			return 5
		}
		return r

	case ScaleOuter:
		if r <= 5 {
			return r / 5 * 0.5 // inner region gets half the space
		}
		return 0.5 + math.Log10(r/5+1)*0.5

	default:
		return math.Log10(r + 1)
	}
}

// EclipticLonLat returns the longitude in [0, 360) and latitude in
// [-90, 90] of v, in degrees, taking v as ecliptic XYZ. The zero vector
// gives (0, 0).
func EclipticLonLat(v Vec3) (lon, lat float64) {
	lon = RadToDeg(WrapTwoPi(math.Atan2(v.Y, v.X)))
	lat = RadToDeg(math.Atan2(v.Z, math.Hypot(v.X, v.Y)))
	return lon, lat
}

// Obliquity is the Earth's axial tilt (J2000 epoch) in radians.
const obliquityRad = 23.439291 * math.Pi / 180

// EquatorialToEcliptic converts equatorial XYZ to ecliptic XYZ.
// Input is in any units (km, AU, etc); output is in the same units.
func EquatorialToEcliptic(eq Vec3) Vec3 {
	// Rotation matrix around X-axis by obliquity
	cosE := math.Cos(obliquityRad)
	sinE := math.Sin(obliquityRad)

	return Vec3{
		X: eq.X,
		Y: eq.Y*cosE + eq.Z*sinE,
		Z: -eq.Y*sinE + eq.Z*cosE,
	}
}

package astro

import "math"

const (
	// AU is the Astronomical Unit in kilometers.
	AU = 149597870.7

	// SecondsPerDay converts AU/day velocities to AU/s.
	SecondsPerDay = 24 * 60 * 60
)

// AstronomicalUnitsToKm converts a distance in AU to km. When isVelocity is
// true the value is taken as AU/day and converted to km/s.
func AstronomicalUnitsToKm(value float64, isVelocity bool) float64 {
	if isVelocity {
		return value * AU / SecondsPerDay
	}
	return value * AU
}

// AUVecToKm converts every component of an AU (or AU/day) vector.
func AUVecToKm(v Vec3, isVelocity bool) Vec3 {
	return Vec3{
		X: AstronomicalUnitsToKm(v.X, isVelocity),
		Y: AstronomicalUnitsToKm(v.Y, isVelocity),
		Z: AstronomicalUnitsToKm(v.Z, isVelocity),
	}
}

// KmToAU converts kilometers to Astronomical Units.
func KmToAU(km float64) float64 {
	return km / AU
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// WrapTwoPi reduces an angle in radians into [0, 2π).
func WrapTwoPi(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	// -tiny + 2π rounds up to 2π.
	if rad >= 2*math.Pi {
		rad = 0
	}
	return rad
}

// WrapPi reduces an angle in radians into (-π, π].
func WrapPi(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	if rad <= -math.Pi {
		rad += 2 * math.Pi
	} else if rad > math.Pi {
		rad -= 2 * math.Pi
	}
	return rad
}

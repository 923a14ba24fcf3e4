package astro

import (
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// JulianDate returns the Julian Date for t (UTC).
func JulianDate(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// TimeFromJulianDate converts a Julian Date to a UTC time.
func TimeFromJulianDate(jd float64) time.Time {
	return julian.JDToTime(jd).UTC()
}

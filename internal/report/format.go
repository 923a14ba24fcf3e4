package report

import (
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-orbits/internal/astro"
)

// Undefined is shown in place of an element a degenerate orbit lacks.
const Undefined = "—"

// FormatDistance returns a human-readable distance string.
func FormatDistance(km float64) string {
	abs := math.Abs(km)
	switch {
	case math.IsInf(km, 0):
		return "∞"
	case math.IsNaN(km):
		return "N/A"
	case abs < 1e6:
		return formatWithUnit(km, "km")
	case abs < 1e9:
		return formatWithUnit(km/1e6, "M km")
	default:
		return formatWithUnit(astro.KmToAU(km), "AU")
	}
}

// FormatSpeed returns a speed in km/s.
func FormatSpeed(kms float64) string {
	if math.IsNaN(kms) || kms < 0 {
		return "N/A"
	}
	return formatWithUnit(kms, "km/s")
}

// FormatPeriod returns a human-readable orbital period.
func FormatPeriod(seconds float64) string {
	const day = 86400.0
	const year = 365.25 * day
	switch {
	case math.IsNaN(seconds) || seconds <= 0:
		return "N/A"
	case math.IsInf(seconds, 1):
		return "∞"
	case seconds < 3600:
		return formatWithUnit(seconds/60, "min")
	case seconds < day:
		return formatWithUnit(seconds/3600, "hr")
	case seconds < year:
		return formatWithUnit(seconds/day, "d")
	default:
		return formatWithUnit(seconds/year, "yr")
	}
}

// FormatDuration rounds d for display.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	case d < time.Second:
		return d.Round(100 * time.Microsecond).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}

func formatWithUnit(value float64, unit string) string {
	abs := math.Abs(value)
	switch {
	case abs < 10:
		return fmt.Sprintf("%.2f %s", value, unit)
	case abs < 100:
		return fmt.Sprintf("%.1f %s", value, unit)
	default:
		return fmt.Sprintf("%.0f %s", value, unit)
	}
}

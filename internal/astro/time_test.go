package astro

import (
	"math"
	"testing"
	"time"
)

func TestJulianDate(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want float64
	}{
		{"J2000", time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 2451545.0},
		{"2020-10-01 21:18", time.Date(2020, 10, 1, 21, 18, 0, 0, time.UTC), 2459124.3875},
		{"non-UTC input", time.Date(2000, 1, 1, 13, 0, 0, 0, time.FixedZone("CET", 3600)), 2451545.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JulianDate(tt.t)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("JulianDate() = %.6f, want %.6f", got, tt.want)
			}
		})
	}
}

func TestTimeFromJulianDate(t *testing.T) {
	want := time.Date(2020, 10, 1, 21, 18, 0, 0, time.UTC)
	got := TimeFromJulianDate(JulianDate(want))

	if d := got.Sub(want); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("TimeFromJulianDate() = %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Location())
	}
}

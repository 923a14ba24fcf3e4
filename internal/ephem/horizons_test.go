package ephem

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/bodies"
)

const labeledResult = `*******************************************************************************
Ephemeris / API_USER Thu Oct  1 21:18:00 2020 Pasadena, USA      / Horizons
*******************************************************************************
Target body name: Earth (399)                     {source: DE441}
Center body name: Sun (10)                        {source: DE441}
*******************************************************************************
Output units    : AU-D
Output type     : GEOMETRIC cartesian states
Reference frame : Ecliptic of J2000.0
*******************************************************************************
$$SOE
2459124.387500000 = A.D. 2020-Oct-01 21:18:00.0000 TDB 
 X = 1.000000000000000E+00 Y = 0.000000000000000E+00 Z =-2.000000000000000E+00
 VX= 0.000000000000000E+00 VY= 1.000000000000000E+00 VZ=-5.000000000000000E-01
$$EOE
*******************************************************************************
`

const unlabeledKmResult = `Output units    : KM-S
Reference frame : ICRF
$$SOE
2451545.000000000 = A.D. 2000-Jan-01 12:00:00.0000 TDB 
  7.000000000000000E+03  0.000000000000000E+00  1.000000000000000E+03
  0.000000000000000E+00  1.200000000000000E+01  3.000000000000000E+00
  2.334902395405066E-02  7.071067811865476E+03  1.285714285714286E-01
2451546.000000000 = A.D. 2000-Jan-02 12:00:00.0000 TDB 
  7.100000000000000E+03  0.000000000000000E+00  1.000000000000000E+03
  0.000000000000000E+00  1.100000000000000E+01  3.000000000000000E+00
$$EOE
`

func wrapJSON(t *testing.T, result string) []byte {
	t.Helper()
	resp := horizonsResponse{Result: result}
	resp.Signature.Version = "1.2"
	resp.Signature.Source = "NASA/JPL Horizons API"
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestParseVectorsLabeledJSON(t *testing.T) {
	vt, err := ParseVectors(wrapJSON(t, labeledResult))
	if err != nil {
		t.Fatalf("ParseVectors() error = %v", err)
	}
	if vt.Units != UnitsAUDay {
		t.Errorf("Units = %v, want AU-D", vt.Units)
	}
	if vt.Frame != FrameEcliptic {
		t.Errorf("Frame = %v, want ecliptic", vt.Frame)
	}
	if len(vt.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(vt.Records))
	}

	r := vt.Records[0]
	wantPos := astro.Vec3{X: astro.AU, Y: 0, Z: -2 * astro.AU}
	wantVel := astro.Vec3{X: 0, Y: astro.AU / astro.SecondsPerDay, Z: -0.5 * astro.AU / astro.SecondsPerDay}
	if r.Position != wantPos {
		t.Errorf("Position = %v, want %v", r.Position, wantPos)
	}
	if r.Velocity != wantVel {
		t.Errorf("Velocity = %v, want %v", r.Velocity, wantVel)
	}

	want := time.Date(2020, 10, 1, 21, 18, 0, 0, time.UTC)
	if d := r.Epoch.Sub(want); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("Epoch = %v, want %v", r.Epoch, want)
	}
}

func TestParseVectorsUnlabeledText(t *testing.T) {
	vt, err := ParseVectors([]byte(unlabeledKmResult))
	if err != nil {
		t.Fatalf("ParseVectors() error = %v", err)
	}
	if vt.Units != UnitsKmSec {
		t.Errorf("Units = %v, want KM-S", vt.Units)
	}
	if vt.Frame != FrameEquatorial {
		t.Errorf("Frame = %v, want equatorial", vt.Frame)
	}
	if len(vt.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(vt.Records))
	}
	if vt.Records[0].Position != (astro.Vec3{X: 7000, Z: 1000}) {
		t.Errorf("Position = %v", vt.Records[0].Position)
	}
	if vt.Records[1].Velocity != (astro.Vec3{Y: 11, Z: 3}) {
		t.Errorf("Velocity = %v", vt.Records[1].Velocity)
	}

	// Nearest picks the second record for an epoch just after it.
	rec, ok := vt.Nearest(time.Date(2000, 1, 2, 13, 0, 0, 0, time.UTC))
	if !ok || rec.JD != 2451546 {
		t.Errorf("Nearest() = %v, %v", rec.JD, ok)
	}
	rec, _ = vt.Nearest(time.Time{})
	if rec.JD != 2451545 {
		t.Errorf("Nearest(zero) = %v, want first record", rec.JD)
	}
}

func TestParseVectorsCSVKmDay(t *testing.T) {
	text := "Output units    : KM-D\n$$SOE\n" +
		"2451545.000000000, A.D. 2000-Jan-01 12:00:00.0000, 1.0E+03, 2.0E+03, 3.0E+03, 8.64E+04, 0.0E+00, -1.728E+05,\n" +
		"$$EOE\n"
	vt, err := ParseVectors([]byte(text))
	if err != nil {
		t.Fatalf("ParseVectors() error = %v", err)
	}
	r := vt.Records[0]
	if r.Position != (astro.Vec3{X: 1000, Y: 2000, Z: 3000}) {
		t.Errorf("Position = %v", r.Position)
	}
	if !scalar.EqualWithinAbs(r.Velocity.X, 1, 1e-12) || !scalar.EqualWithinAbs(r.Velocity.Z, -2, 1e-12) {
		t.Errorf("Velocity = %v, want (1, 0, -2)", r.Velocity)
	}
}

func TestParseVectorsErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"no markers", "Output units : AU-D\nnothing here", "markers"},
		{"api error", `{"error":"Cannot interpret date. Type \"?!\" for help."}`, "horizons error"},
		{"bad json", `{"result": 12`, "JSON"},
		{"empty section", "$$SOE\n$$EOE", "no vector records"},
		{"missing velocity", "$$SOE\n2451545.0 = A.D. 2000-Jan-01 12:00:00.0000 TDB\n 1 2 3\n$$EOE", "missing position or velocity"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseVectors([]byte(tc.data))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want it to mention %q", err, tc.want)
			}
		})
	}
}

func TestParseVectorLabeled(t *testing.T) {
	tests := []struct {
		line    string
		want    astro.Vec3
		wantErr bool
	}{
		{"X = 1.5E+00 Y = 2.5E+00 Z =-3.5E-01", astro.Vec3{X: 1.5, Y: 2.5, Z: -0.35}, false},
		{"VX=-1.0E-03 VY= 2.0E-03 VZ= 3.0E-03", astro.Vec3{X: -1e-3, Y: 2e-3, Z: 3e-3}, false},
		{"X = 1.0 Y = 2.0", astro.Vec3{}, true},
		{"X = a Y = 2 Z = 3", astro.Vec3{}, true},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			got, err := parseVectorLabeled(tc.line)
			if tc.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHorizonsDirSamples(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "399.json"), wrapJSON(t, labeledResult), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "301.txt"), []byte(unlabeledKmResult), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "499.txt"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewHorizonsDir(dir, time.Time{}, nil)
	ids := []bodies.ID{bodies.Earth, bodies.Luna, bodies.Mars, bodies.Jupiter}
	samples, err := src.Samples(ids)
	if err != nil {
		t.Fatalf("Samples() error = %v", err)
	}
	if len(samples) != len(ids) {
		t.Fatalf("got %d samples, want %d", len(samples), len(ids))
	}
	for i, s := range samples {
		if s.ID != ids[i] {
			t.Errorf("sample %d ID = %d, want %d", i, s.ID, ids[i])
		}
	}

	if !samples[0].Available || samples[0].State.Position.X != astro.AU {
		t.Errorf("earth sample = %+v", samples[0])
	}

	// ICRF input is rotated onto the ecliptic.
	moon := samples[1]
	if !moon.Available {
		t.Fatalf("moon unavailable: %s", moon.Reason)
	}
	want := astro.EquatorialToEcliptic(astro.Vec3{X: 7000, Z: 1000})
	if moon.State.Position != want {
		t.Errorf("moon position = %v, want %v", moon.State.Position, want)
	}

	if samples[2].Available || !strings.Contains(samples[2].Reason, "unreadable") {
		t.Errorf("mars sample = %+v, want unreadable", samples[2])
	}
	if samples[3].Available || samples[3].Reason != "no ephemeris file" {
		t.Errorf("jupiter sample = %+v, want missing", samples[3])
	}

	avail, unavail := Counts(samples)
	if avail != 2 || unavail != 2 {
		t.Errorf("Counts() = %d, %d, want 2, 2", avail, unavail)
	}
}

func TestHorizonsDirMissing(t *testing.T) {
	src := NewHorizonsDir(filepath.Join(t.TempDir(), "nope"), time.Time{}, nil)
	if _, err := src.Samples([]bodies.ID{bodies.Earth}); err == nil {
		t.Error("expected error for missing directory")
	}
}

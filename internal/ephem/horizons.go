package ephem

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/bodies"
	"github.com/litescript/ls-orbits/internal/logging"
	"github.com/litescript/ls-orbits/internal/orbit"
)

// Units are the output units of a Horizons VECTORS table.
type Units int

const (
	UnitsAUDay Units = iota // AU, AU/day
	UnitsKmSec              // km, km/s
	UnitsKmDay              // km, km/day
)

// String returns the Horizons OUT_UNITS name.
func (u Units) String() string {
	switch u {
	case UnitsKmSec:
		return "KM-S"
	case UnitsKmDay:
		return "KM-D"
	default:
		return "AU-D"
	}
}

// Record is one epoch of a VECTORS table, converted to km and km/s.
type Record struct {
	JD       float64
	Epoch    time.Time
	Position astro.Vec3
	Velocity astro.Vec3
}

// VectorTable is a parsed Horizons VECTORS result.
type VectorTable struct {
	Units   Units
	Frame   Frame
	Records []Record
}

// Nearest returns the record closest to t, or the first record when t is zero.
func (vt VectorTable) Nearest(t time.Time) (Record, bool) {
	if len(vt.Records) == 0 {
		return Record{}, false
	}
	if t.IsZero() {
		return vt.Records[0], true
	}
	best := vt.Records[0]
	bestDiff := math.Abs(float64(best.Epoch.Sub(t)))
	for _, r := range vt.Records[1:] {
		if d := math.Abs(float64(r.Epoch.Sub(t))); d < bestDiff {
			best, bestDiff = r, d
		}
	}
	return best, true
}

// horizonsResponse represents the JSON API response.
type horizonsResponse struct {
	Signature struct {
		Version string `json:"version"`
		Source  string `json:"source"`
	} `json:"signature"`
	Result string `json:"result"`
	Error  string `json:"error"`
}

// ParseVectors parses a saved Horizons VECTORS result. data may be the JSON
// API envelope or the bare text output.
func ParseVectors(data []byte) (VectorTable, error) {
	text := string(data)
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var resp horizonsResponse
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return VectorTable{}, fmt.Errorf("failed to parse JSON: %w", err)
		}
		if resp.Error != "" {
			return VectorTable{}, fmt.Errorf("horizons error: %s", strings.TrimSpace(resp.Error))
		}
		text = resp.Result
	}

	// Find the data section between $$SOE and $$EOE markers
	soeIdx := strings.Index(text, "$$SOE")
	eoeIdx := strings.Index(text, "$$EOE")
	if soeIdx == -1 || eoeIdx == -1 || soeIdx >= eoeIdx {
		return VectorTable{}, fmt.Errorf("could not find vector data markers")
	}

	vt := VectorTable{
		Units: parseUnits(text[:soeIdx]),
		Frame: parseFrameHeader(text[:soeIdx]),
	}

	records, err := parseVectorRecords(text[soeIdx+5 : eoeIdx])
	if err != nil {
		return VectorTable{}, err
	}
	for _, r := range records {
		vt.Records = append(vt.Records, vt.convert(r))
	}
	if len(vt.Records) == 0 {
		return VectorTable{}, fmt.Errorf("no vector records between markers")
	}
	return vt, nil
}

// convert turns a raw record in table units into km and km/s.
func (vt VectorTable) convert(r Record) Record {
	switch vt.Units {
	case UnitsAUDay:
		r.Position = astro.AUVecToKm(r.Position, false)
		r.Velocity = astro.AUVecToKm(r.Velocity, true)
	case UnitsKmDay:
		r.Velocity = r.Velocity.Scale(1.0 / astro.SecondsPerDay)
	}
	r.Epoch = astro.TimeFromJulianDate(r.JD)
	return r
}

// parseUnits reads "Output units : KM-S" from the header. Horizons vector
// requests made for this tool default to AU-D.
func parseUnits(header string) Units {
	for _, line := range strings.Split(header, "\n") {
		if !strings.Contains(line, "Output units") {
			continue
		}
		switch {
		case strings.Contains(line, "KM-S"):
			return UnitsKmSec
		case strings.Contains(line, "KM-D"):
			return UnitsKmDay
		}
	}
	return UnitsAUDay
}

// parseFrameHeader reads "Reference frame : ICRF" from the header.
func parseFrameHeader(header string) Frame {
	for _, line := range strings.Split(header, "\n") {
		if strings.Contains(line, "Reference frame") && strings.Contains(line, "ICRF") {
			return FrameEquatorial
		}
	}
	return FrameEcliptic
}

// parseVectorRecords parses the lines between $$SOE and $$EOE.
//
// Labeled format (VEC_TABLE='2'):
//
//	2459124.387500000 = A.D. 2020-Oct-01 21:18:00.0000 TDB
//	 X = 9.837424893935764E-01 Y = 1.769146946128408E-01 Z =-1.464880598364545E-05
//	 VX=-3.282155016287183E-03 VY= 1.689620497498541E-02 VZ=-6.786043082339446E-07
//
// Unlabeled format (VEC_LABELS=NO) has the same rows without the labels, and
// CSV format puts each record on one comma-separated line.
func parseVectorRecords(section string) ([]Record, error) {
	var (
		records []Record
		cur     *Record
		havePos bool
		haveVel bool
	)

	flush := func() error {
		if cur == nil {
			return nil
		}
		if !havePos || !haveVel {
			return fmt.Errorf("record at JD %.6f is missing position or velocity", cur.JD)
		}
		records = append(records, *cur)
		cur = nil
		return nil
	}

	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.Contains(line, "A.D.") && strings.Contains(line, ",") {
			if err := flush(); err != nil {
				return nil, err
			}
			r, err := parseVectorCSV(line)
			if err != nil {
				return nil, err
			}
			records = append(records, r)
			continue
		}

		if strings.Contains(line, "A.D.") {
			if err := flush(); err != nil {
				return nil, err
			}
			jd, err := strconv.ParseFloat(strings.Fields(line)[0], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid epoch line %q: %w", line, err)
			}
			cur = &Record{JD: jd}
			havePos, haveVel = false, false
			continue
		}

		if cur == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "VX"):
			v, err := parseVectorLabeled(line)
			if err != nil {
				return nil, err
			}
			cur.Velocity, haveVel = v, true
		case strings.HasPrefix(line, "X"):
			v, err := parseVectorLabeled(line)
			if err != nil {
				return nil, err
			}
			cur.Position, havePos = v, true
		case strings.HasPrefix(line, "LT"):
			// light time, range and range-rate are not used
		default:
			v, err := parseVectorUnlabeled(line)
			if err != nil {
				continue
			}
			if !havePos {
				cur.Position, havePos = v, true
			} else if !haveVel {
				cur.Velocity, haveVel = v, true
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return records, nil
}

// parseVectorLabeled parses: X = 1.23E+00 Y = 2.34E+00 Z =-3.45E-01
func parseVectorLabeled(line string) (astro.Vec3, error) {
	// Split on = and parse pairs
	parts := strings.Split(line, "=")
	if len(parts) < 4 {
		return astro.Vec3{}, fmt.Errorf("invalid labeled format: %q", line)
	}

	var vals [3]float64
	for i := 0; i < 3; i++ {
		fields := strings.Fields(parts[i+1])
		if len(fields) == 0 {
			return astro.Vec3{}, fmt.Errorf("invalid labeled format: %q", line)
		}
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return astro.Vec3{}, err
		}
		vals[i] = v
	}

	return astro.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// parseVectorUnlabeled parses: 1.23E+00  2.34E+00  3.45E-01
func parseVectorUnlabeled(line string) (astro.Vec3, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return astro.Vec3{}, fmt.Errorf("insufficient fields: %d", len(fields))
	}
	return parseTriple(fields[:3])
}

// parseVectorCSV parses: JD, A.D. date, X, Y, Z, VX, VY, VZ[, ...]
func parseVectorCSV(line string) (Record, error) {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) < 8 {
		return Record{}, fmt.Errorf("insufficient CSV fields: %d", len(fields))
	}
	jd, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid epoch %q: %w", fields[0], err)
	}
	pos, err := parseTriple(fields[2:5])
	if err != nil {
		return Record{}, err
	}
	vel, err := parseTriple(fields[5:8])
	if err != nil {
		return Record{}, err
	}
	return Record{JD: jd, Position: pos, Velocity: vel}, nil
}

func parseTriple(fields []string) (astro.Vec3, error) {
	var vals [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return astro.Vec3{}, err
		}
		vals[i] = v
	}
	return astro.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// HorizonsDir reads saved Horizons VECTORS results from a directory, one
// file per body named <NAIF id>.json or <NAIF id>.txt. All bodies must share
// the same coordinate centre.
type HorizonsDir struct {
	dir   string
	epoch time.Time
	log   *logging.Logger
}

// NewHorizonsDir creates a source over dir. When epoch is non-zero the
// record closest to it is used; otherwise the first record in each file.
func NewHorizonsDir(dir string, epoch time.Time, log *logging.Logger) *HorizonsDir {
	if log == nil {
		log = logging.Discard()
	}
	return &HorizonsDir{dir: dir, epoch: epoch, log: log.Named("ephem")}
}

// Name implements Source.
func (h *HorizonsDir) Name() string {
	return "Horizons (" + h.dir + ")"
}

// Samples implements Source.
func (h *HorizonsDir) Samples(ids []bodies.ID) ([]Sample, error) {
	info, err := os.Stat(h.dir)
	if err != nil {
		return nil, fmt.Errorf("horizons directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("horizons directory: %s is not a directory", h.dir)
	}

	samples := make([]Sample, 0, len(ids))
	for _, id := range ids {
		samples = append(samples, h.sample(id))
	}
	return samples, nil
}

func (h *HorizonsDir) sample(id bodies.ID) Sample {
	data, path, err := h.readFile(id)
	if err != nil {
		h.log.Debug("body %d: %v", id, err)
		return Unavailable(id, "no ephemeris file")
	}

	vt, err := ParseVectors(data)
	if err != nil {
		h.log.Warn("%s: %v", path, err)
		return Unavailable(id, "unreadable ephemeris: %v", err)
	}

	rec, _ := vt.Nearest(h.epoch)
	state := orbit.State{Position: rec.Position, Velocity: rec.Velocity}
	if vt.Frame == FrameEquatorial {
		state = toEcliptic(state)
	}
	if !state.Position.IsFinite() || !state.Velocity.IsFinite() {
		return Unavailable(id, "non-finite vectors")
	}
	return Available(id, rec.Epoch, state)
}

func (h *HorizonsDir) readFile(id bodies.ID) ([]byte, string, error) {
	for _, ext := range []string{".json", ".txt"} {
		path := filepath.Join(h.dir, strconv.Itoa(int(id))+ext)
		data, err := os.ReadFile(path)
		if err == nil {
			return data, path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, path, err
		}
	}
	return nil, "", fmt.Errorf("no %d.json or %d.txt in %s", id, id, h.dir)
}

func toEcliptic(s orbit.State) orbit.State {
	return orbit.State{
		Position: astro.EquatorialToEcliptic(s.Position),
		Velocity: astro.EquatorialToEcliptic(s.Velocity),
	}
}

package state

import (
	"sync"
	"testing"
	"time"

	"github.com/litescript/ls-orbits/internal/batch"
	"github.com/litescript/ls-orbits/internal/bodies"
	"github.com/litescript/ls-orbits/internal/orbit"
)

var epoch0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func solved(id bodies.ID, name string, e, a float64) batch.Result {
	return batch.Result{
		ID:       id,
		Name:     name,
		Outcome:  batch.Solved,
		Elements: orbit.Elements{Eccentricity: e, SemiMajorAxis: a},
		Defined:  orbit.AllFields,
	}
}

func report(at time.Time, results ...batch.Result) *batch.Report {
	return &batch.Report{Epoch: at, Source: "test", CenterID: bodies.Sun, CenterName: "Sun", Results: results}
}

func TestNewManager(t *testing.T) {
	m := NewManager(DefaultConfig())

	if m == nil {
		t.Fatal("NewManager returned nil")
	}

	if m.HasData() {
		t.Error("HasData should be false initially")
	}

	if len(m.RecentEvents(10)) != 0 {
		t.Error("new manager should have no events")
	}
}

func TestManager_Update(t *testing.T) {
	m := NewManager(DefaultConfig())

	rep := report(epoch0, solved(bodies.Earth, "Earth", 0.0167, 1.496e8))
	m.Update(rep, 100*time.Millisecond, nil)

	if !m.HasData() {
		t.Error("HasData should be true after Update")
	}

	snap := m.Snapshot()

	if snap.Report != rep {
		t.Error("Snapshot Report doesn't match")
	}

	if snap.RunDuration != 100*time.Millisecond {
		t.Errorf("RunDuration = %v, want 100ms", snap.RunDuration)
	}

	if snap.LastError != nil {
		t.Errorf("LastError = %v, want nil", snap.LastError)
	}

	if snap.Counts[batch.Solved] != 1 {
		t.Errorf("Counts[solved] = %d, want 1", snap.Counts[batch.Solved])
	}
}

func TestManager_UpdateWithError(t *testing.T) {
	m := NewManager(DefaultConfig())

	rep := report(epoch0, solved(bodies.Earth, "Earth", 0.0167, 1.496e8))
	m.Update(rep, 10*time.Millisecond, nil)

	testErr := &testError{msg: "load failed"}
	m.Update(nil, 50*time.Millisecond, testErr)

	snap := m.Snapshot()

	if snap.Report != rep {
		t.Error("previous report should survive a failed run")
	}

	if snap.LastError != testErr {
		t.Errorf("LastError = %v, want %v", snap.LastError, testErr)
	}
}

type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}

func TestManager_HistoryBuffer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHistoryLen = 5
	m := NewManager(cfg)

	for i := 0; i < 10; i++ {
		m.Update(report(epoch0.Add(time.Duration(i)*time.Hour)), time.Millisecond, nil)
	}

	hist := m.History()
	if len(hist) != 5 {
		t.Fatalf("History length = %d, want 5", len(hist))
	}
	if want := epoch0.Add(5 * time.Hour); !hist[0].Timestamp.Equal(want) {
		t.Errorf("oldest entry = %v, want %v", hist[0].Timestamp, want)
	}
	if got := m.Snapshot().Runs; got != 5 {
		t.Errorf("Runs = %d, want 5", got)
	}
}

func TestManager_BodyHistory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyHist = 3
	m := NewManager(cfg)

	for i := 0; i < 5; i++ {
		m.Update(report(epoch0.Add(time.Duration(i)*time.Hour),
			solved(bodies.Mars, "Mars", 0.09+float64(i)*0.001, 2.279e8)), time.Millisecond, nil)
	}

	hist := m.GetBodyHistory(bodies.Mars)
	if hist == nil {
		t.Fatal("GetBodyHistory returned nil")
	}
	if len(hist.Eccentricity) != 3 {
		t.Fatalf("Eccentricity length = %d, want 3", len(hist.Eccentricity))
	}
	if len(hist.SemiMajor) != 3 {
		t.Errorf("SemiMajor length = %d, want 3", len(hist.SemiMajor))
	}
	if got := hist.Eccentricity[0].Value; got < 0.0919 || got > 0.0921 {
		t.Errorf("oldest eccentricity = %v, want 0.092", got)
	}

	// Mutating the copy must not affect the manager.
	hist.Eccentricity[0].Value = 99
	if again := m.GetBodyHistory(bodies.Mars); again.Eccentricity[0].Value == 99 {
		t.Error("GetBodyHistory should return a copy")
	}

	if m.GetBodyHistory(bodies.Pluto) != nil {
		t.Error("unknown body should have no history")
	}
}

func TestManager_BodyHistory_SkipsUndefinedAxis(t *testing.T) {
	m := NewManager(DefaultConfig())

	radial := batch.Result{
		ID:       bodies.Phobos,
		Name:     "Phobos",
		Outcome:  batch.Degenerate,
		Elements: orbit.Elements{Eccentricity: 1},
		Defined:  orbit.FieldEccentricity,
		Kind:     orbit.Radial,
	}
	unavailable := batch.Result{ID: bodies.Deimos, Name: "Deimos", Outcome: batch.Unavailable}
	m.Update(report(epoch0, radial, unavailable), time.Millisecond, nil)

	hist := m.GetBodyHistory(bodies.Phobos)
	if hist == nil {
		t.Fatal("degenerate result should be recorded")
	}
	if len(hist.Eccentricity) != 1 || len(hist.SemiMajor) != 0 {
		t.Errorf("got %d/%d points, want 1/0", len(hist.Eccentricity), len(hist.SemiMajor))
	}
	if m.GetBodyHistory(bodies.Deimos) != nil {
		t.Error("unavailable result should not be recorded")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(DefaultConfig())

	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			m.Update(report(epoch0.Add(time.Duration(i)*time.Minute),
				solved(bodies.Earth, "Earth", 0.0167, 1.496e8)), time.Millisecond, nil)
		}
	}()

	// Readers
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = m.Snapshot()
				_ = m.HasData()
				_ = m.RecentEvents(5)
				_ = m.GetBodyHistory(bodies.Earth)
			}
		}()
	}

	wg.Wait()
}

func TestManager_EventDetection(t *testing.T) {
	tests := []struct {
		name string
		prev []batch.Result
		next []batch.Result
		want []EventType
	}{
		{
			name: "new body",
			prev: nil,
			next: []batch.Result{solved(bodies.Io, "Io", 0.004, 421700)},
			want: []EventType{EventNewBody},
		},
		{
			name: "unchanged",
			prev: []batch.Result{solved(bodies.Io, "Io", 0.004, 421700)},
			next: []batch.Result{solved(bodies.Io, "Io", 0.0041, 421700)},
			want: nil,
		},
		{
			name: "outcome changed",
			prev: []batch.Result{solved(bodies.Io, "Io", 0.004, 421700)},
			next: []batch.Result{{ID: bodies.Io, Name: "Io", Outcome: batch.Unavailable}},
			want: []EventType{EventOutcomeChanged},
		},
		{
			name: "escaped",
			prev: []batch.Result{solved(bodies.Nereid, "Nereid", 0.75, 5.5e6)},
			next: []batch.Result{solved(bodies.Nereid, "Nereid", 1.2, -5.5e6)},
			want: []EventType{EventEscaped},
		},
		{
			name: "captured",
			prev: []batch.Result{solved(bodies.Nereid, "Nereid", 1.2, -5.5e6)},
			next: []batch.Result{solved(bodies.Nereid, "Nereid", 0.75, 5.5e6)},
			want: []EventType{EventCaptured},
		},
		{
			name: "lost",
			prev: []batch.Result{solved(bodies.Io, "Io", 0.004, 421700)},
			next: nil,
			want: []EventType{EventBodyLost},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(DefaultConfig())
			m.Update(report(epoch0, tt.prev...), time.Millisecond, nil)
			before := len(m.Snapshot().Events)

			m.Update(report(epoch0.Add(time.Hour), tt.next...), time.Millisecond, nil)
			events := m.Snapshot().Events[before:]

			if len(events) != len(tt.want) {
				t.Fatalf("got %d events, want %d: %+v", len(events), len(tt.want), events)
			}
			for i, e := range events {
				if e.Type != tt.want[i] {
					t.Errorf("event %d type = %s, want %s", i, e.Type, tt.want[i])
				}
				if !e.Timestamp.Equal(epoch0.Add(time.Hour)) {
					t.Errorf("event %d timestamp = %v, want report epoch", i, e.Timestamp)
				}
			}
		})
	}
}

func TestManager_EventRingBuffer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEvents = 5
	m := NewManager(cfg)

	// Each run introduces one new body and drops the previous one.
	for i := 0; i < 10; i++ {
		id := bodies.ID(1000 + i)
		m.Update(report(epoch0.Add(time.Duration(i)*time.Hour),
			solved(id, "body", 0.1, 1e6)), time.Millisecond, nil)
	}

	events := m.RecentEvents(100)
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}

	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			t.Errorf("events out of order at %d: %v before %v", i, events[i].Timestamp, events[i-1].Timestamp)
		}
	}

	last := events[len(events)-1]
	if last.Timestamp != epoch0.Add(9*time.Hour) {
		t.Errorf("newest event at %v, want %v", last.Timestamp, epoch0.Add(9*time.Hour))
	}

	if got := m.RecentEvents(2); len(got) != 2 {
		t.Errorf("RecentEvents(2) returned %d events", len(got))
	}
}

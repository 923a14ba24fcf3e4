// Package state provides thread-safe state management for the application.
package state

import (
	"sync"
	"time"

	"github.com/litescript/ls-orbits/internal/batch"
	"github.com/litescript/ls-orbits/internal/bodies"
	"github.com/litescript/ls-orbits/internal/orbit"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventNewBody        EventType = "NEW_BODY"
	EventOutcomeChanged EventType = "OUTCOME_CHANGED"
	EventEscaped        EventType = "ESCAPED"
	EventCaptured       EventType = "CAPTURED"
	EventBodyLost       EventType = "BODY_LOST"
)

// Event represents a change between two consecutive reports.
type Event struct {
	Type       EventType     `json:"type"`
	Timestamp  time.Time     `json:"timestamp"`
	BodyID     bodies.ID     `json:"body_id"`
	Body       string        `json:"body"`
	OldOutcome batch.Outcome `json:"old_outcome,omitempty"`
	NewOutcome batch.Outcome `json:"new_outcome,omitempty"`
}

// HistoryEntry represents a single point in the history buffer.
type HistoryEntry struct {
	Timestamp time.Time
	Report    *batch.Report
}

// BodyHistory tracks how a body's elements evolve across reports.
type BodyHistory struct {
	BodyID       bodies.ID
	BodyName     string
	Eccentricity []TimeSeries
	SemiMajor    []TimeSeries
}

// TimeSeries is a single data point with timestamp.
type TimeSeries struct {
	Timestamp time.Time
	Value     float64
}

// Manager handles all shared application state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Current state
	current     *batch.Report
	lastRun     time.Time
	lastError   error
	runDuration time.Duration

	// Previous results for event detection
	prevResults map[bodies.ID]batch.Result

	// History buffers
	history       []HistoryEntry
	maxHistoryLen int
	bodyHistory   map[bodies.ID]*BodyHistory
	maxBodyHist   int

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int
}

// Config holds configuration for the state manager.
type Config struct {
	MaxHistoryLen int
	MaxBodyHist   int
	MaxEvents     int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxHistoryLen: 32,
		MaxBodyHist:   256,
		MaxEvents:     50,
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	maxHistory := cfg.MaxHistoryLen
	if maxHistory <= 0 {
		maxHistory = 1
	}
	return &Manager{
		maxHistoryLen: maxHistory,
		maxBodyHist:   cfg.MaxBodyHist,
		maxEvents:     maxEvents,
		events:        make([]Event, 0, maxEvents),
		bodyHistory:   make(map[bodies.ID]*BodyHistory),
		prevResults:   make(map[bodies.ID]batch.Result),
	}
}

// Update atomically replaces the current report. A nil report with an
// error records a failed run and keeps the previous report.
func (m *Manager) Update(rep *batch.Report, runDuration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastRun = time.Now()
	m.lastError = err
	m.runDuration = runDuration

	if rep == nil {
		return
	}

	// Detect events before updating current state
	m.detectEvents(rep)

	m.current = rep

	m.history = append(m.history, HistoryEntry{Timestamp: rep.Epoch, Report: rep})
	if len(m.history) > m.maxHistoryLen {
		m.history = m.history[1:]
	}

	m.updateBodyHistory(rep)

	m.prevResults = make(map[bodies.ID]batch.Result, len(rep.Results))
	for _, r := range rep.Results {
		m.prevResults[r.ID] = r
	}
}

// detectEvents compares a new report with the previous one.
func (m *Manager) detectEvents(rep *batch.Report) {
	ts := rep.Epoch
	if ts.IsZero() {
		ts = time.Now()
	}

	seen := make(map[bodies.ID]bool, len(rep.Results))
	for _, r := range rep.Results {
		seen[r.ID] = true
		prev, wasPrev := m.prevResults[r.ID]

		switch {
		case !wasPrev:
			m.addEvent(Event{Type: EventNewBody, Timestamp: ts, BodyID: r.ID, Body: r.Name, NewOutcome: r.Outcome})
		case prev.Outcome != r.Outcome:
			m.addEvent(Event{Type: EventOutcomeChanged, Timestamp: ts, BodyID: r.ID, Body: r.Name, OldOutcome: prev.Outcome, NewOutcome: r.Outcome})
		case r.Outcome == batch.Solved && !prev.Elements.IsHyperbolic() && r.Elements.IsHyperbolic():
			m.addEvent(Event{Type: EventEscaped, Timestamp: ts, BodyID: r.ID, Body: r.Name, OldOutcome: prev.Outcome, NewOutcome: r.Outcome})
		case r.Outcome == batch.Solved && prev.Elements.IsHyperbolic() && !r.Elements.IsHyperbolic():
			m.addEvent(Event{Type: EventCaptured, Timestamp: ts, BodyID: r.ID, Body: r.Name, OldOutcome: prev.Outcome, NewOutcome: r.Outcome})
		}
	}

	for id, prev := range m.prevResults {
		if !seen[id] {
			m.addEvent(Event{Type: EventBodyLost, Timestamp: ts, BodyID: id, Body: prev.Name, OldOutcome: prev.Outcome})
		}
	}
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

func (m *Manager) updateBodyHistory(rep *batch.Report) {
	for _, r := range rep.Results {
		if r.Outcome != batch.Solved && r.Outcome != batch.Degenerate {
			continue
		}
		hist, ok := m.bodyHistory[r.ID]
		if !ok {
			hist = &BodyHistory{
				BodyID:       r.ID,
				BodyName:     r.Name,
				Eccentricity: make([]TimeSeries, 0, m.maxBodyHist),
				SemiMajor:    make([]TimeSeries, 0, m.maxBodyHist),
			}
			m.bodyHistory[r.ID] = hist
		}

		ts := rep.Epoch
		hist.Eccentricity = appendBounded(hist.Eccentricity, TimeSeries{Timestamp: ts, Value: r.Elements.Eccentricity}, m.maxBodyHist)
		if r.Defined.Has(orbit.FieldSemiMajorAxis) {
			hist.SemiMajor = appendBounded(hist.SemiMajor, TimeSeries{Timestamp: ts, Value: r.Elements.SemiMajorAxis}, m.maxBodyHist)
		}
	}
}

func appendBounded(s []TimeSeries, p TimeSeries, max int) []TimeSeries {
	s = append(s, p)
	if max > 0 && len(s) > max {
		s = s[1:]
	}
	return s
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Report      *batch.Report
	LastRun     time.Time
	LastError   error
	RunDuration time.Duration
	Counts      map[batch.Outcome]int
	Events      []Event
	Runs        int
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var counts map[batch.Outcome]int
	if m.current != nil {
		counts = m.current.Counts()
	}

	return Snapshot{
		Report:      m.current,
		LastRun:     m.lastRun,
		LastError:   m.lastError,
		RunDuration: m.runDuration,
		Counts:      counts,
		Events:      m.getEventsOrdered(),
		Runs:        len(m.history),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// History returns the retained reports, oldest first.
func (m *Manager) History() []HistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]HistoryEntry, len(m.history))
	copy(out, m.history)
	return out
}

// GetBodyHistory returns a copy of the element history for a body.
func (m *Manager) GetBodyHistory(id bodies.ID) *BodyHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hist, ok := m.bodyHistory[id]
	if !ok {
		return nil
	}

	copyHist := &BodyHistory{
		BodyID:       hist.BodyID,
		BodyName:     hist.BodyName,
		Eccentricity: make([]TimeSeries, len(hist.Eccentricity)),
		SemiMajor:    make([]TimeSeries, len(hist.SemiMajor)),
	}
	copy(copyHist.Eccentricity, hist.Eccentricity)
	copy(copyHist.SemiMajor, hist.SemiMajor)

	return copyHist
}

// HasData returns true if at least one report has been stored.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

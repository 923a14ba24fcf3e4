// Package metrics exposes Prometheus collectors for solver and simulation
// activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on their own registry, so tests and
// multiple runs in one process never collide on the default one.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	solveTotal      *prometheus.CounterVec
	batchDuration   prometheus.Histogram
	simStepsTotal   prometheus.Counter
	bodiesAvailable prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		solveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lsorbits_solve_total",
				Help: "Total number of element solves by outcome.",
			},
			[]string{"outcome"},
		),
		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lsorbits_batch_duration_seconds",
				Help:    "Wall time to solve one batch of bodies.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		simStepsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lsorbits_sim_steps_total",
				Help: "Total number of n-body integration steps.",
			},
		),
		bodiesAvailable: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lsorbits_bodies_available",
				Help: "Bodies with ephemeris data in the latest batch.",
			},
		),
	}

	m.registry.MustRegister(
		m.solveTotal,
		m.batchDuration,
		m.simStepsTotal,
		m.bodiesAvailable,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns the Prometheus metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSolve counts one solve with the given outcome label.
func (m *Metrics) ObserveSolve(outcome string) {
	if m == nil {
		return
	}
	m.solveTotal.WithLabelValues(outcome).Inc()
}

// ObserveBatch records the duration of a batch and how many of its bodies
// had data.
func (m *Metrics) ObserveBatch(d time.Duration, available int) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(d.Seconds())
	m.bodiesAvailable.Set(float64(available))
}

// AddSimSteps counts completed integration steps.
func (m *Metrics) AddSimSteps(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.simStepsTotal.Add(float64(n))
}

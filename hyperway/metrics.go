package hyperway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus-compatible metrics for stepper runs.
//
// Metrics exposed (all namespaced with "hyperway_"):
//
//  1. steps_total (counter): steps executed, labeled by run_id.
//  2. rows_total (counter): rows resolved, labeled by run_id and kind
//     (unit, partial, leaf).
//  3. queue_depth (gauge): rows waiting in the next queue.
//  4. stash_size (gauge): packs accumulated in the stash.
//  5. step_latency_ms (histogram): step duration, labeled by run_id.
//  6. merge_folds_total (counter): rows folded into merge invocations.
//  7. wire_violations_total (counter): wire contract violations.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := hyperway.NewMetrics(registry)
//	stepper := hyperway.NewStepper(g, hyperway.WithMetrics(metrics))
//
//	// Expose via HTTP for Prometheus scraping:
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Thread-safe: all updates go through prometheus client primitives.
type Metrics struct {
	steps          *prometheus.CounterVec
	rows           *prometheus.CounterVec
	queueDepth     prometheus.Gauge
	stashSize      prometheus.Gauge
	stepLatency    *prometheus.HistogramVec
	mergeFolds     *prometheus.CounterVec
	wireViolations *prometheus.CounterVec

	registry prometheus.Registerer
}

// NewMetrics creates and registers all stepper metrics with the provided
// registry. A nil registry falls back to prometheus.DefaultRegisterer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	m := &Metrics{registry: registry}

	m.steps = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hyperway",
		Name:      "steps_total",
		Help:      "Steps executed across all runs",
	}, []string{"run_id"})

	m.rows = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hyperway",
		Name:      "rows_total",
		Help:      "Rows resolved, by row kind",
	}, []string{"run_id", "kind"}) // kind: unit, partial, leaf

	m.queueDepth = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "hyperway",
		Name:      "queue_depth",
		Help:      "Rows waiting in the stepper's next queue",
	})

	m.stashSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "hyperway",
		Name:      "stash_size",
		Help:      "Packs accumulated in the stash",
	})

	m.stepLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hyperway",
		Name:      "step_latency_ms",
		Help:      "Step duration in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000},
	}, []string{"run_id"})

	m.mergeFolds = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hyperway",
		Name:      "merge_folds_total",
		Help:      "Rows folded into merge-node invocations",
	}, []string{"run_id"})

	m.wireViolations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hyperway",
		Name:      "wire_violations_total",
		Help:      "Wire contract violations (non-Pack wire returns)",
	}, []string{"run_id"})

	return m
}

// observeStep records one completed step.
func (m *Metrics) observeStep(runID string, d time.Duration, queueDepth, stashSize int) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(runID).Inc()
	m.stepLatency.WithLabelValues(runID).Observe(float64(d) / float64(time.Millisecond))
	m.queueDepth.Set(float64(queueDepth))
	m.stashSize.Set(float64(stashSize))
}

// observeRow records one resolved row.
func (m *Metrics) observeRow(runID string, kind RowKind) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(runID, kind.String()).Inc()
}

// observeMergeFold records rows folded into a merge invocation.
func (m *Metrics) observeMergeFold(runID string, folded int) {
	if m == nil {
		return
	}
	m.mergeFolds.WithLabelValues(runID).Add(float64(folded))
}

// observeWireViolation records a wire contract violation.
func (m *Metrics) observeWireViolation(runID string) {
	if m == nil {
		return
	}
	m.wireViolations.WithLabelValues(runID).Inc()
}

package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric keys recorded by the simulation. Keys are bounded; per-player or
// per-entity keys are never used as label values.
const (
	MetricCommandRejects   = "sim_command_rejects_total"
	MetricCommandOverflow  = "sim_command_buffer_overflow_total"
	MetricCommandOccupancy = "sim_command_buffer_occupancy"
	MetricPathCacheHits    = "nav_path_cache_hits_total"
	MetricPathCacheMisses  = "nav_path_cache_misses_total"
	MetricPathRequests     = "nav_path_requests_total"
	MetricScheduledActions = "sched_actions_fired_total"
	MetricScheduledPanics  = "sched_actions_panicked_total"
	MetricEntityCount      = "ecs_entity_count"
)

var counterKeys = map[string]struct{}{
	MetricCommandRejects:   {},
	MetricCommandOverflow:  {},
	MetricPathCacheHits:    {},
	MetricPathCacheMisses:  {},
	MetricPathRequests:     {},
	MetricScheduledActions: {},
	MetricScheduledPanics:  {},
}

// PrometheusMetrics implements Metrics on top of a prometheus registry.
type PrometheusMetrics struct {
	tickDuration prometheus.Histogram
	counters     *prometheus.CounterVec
	gauges       *prometheus.GaugeVec
}

var (
	promOnce    sync.Once
	promMetrics *PrometheusMetrics
)

// NewPrometheusMetrics registers the simulation collectors on the default
// registry. Safe to call more than once; registration happens a single time.
func NewPrometheusMetrics() *PrometheusMetrics {
	promOnce.Do(func() {
		promMetrics = &PrometheusMetrics{
			tickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "sim_tick_duration_seconds",
				Help:    "Time spent advancing one simulation tick",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
			}),
			counters: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "sim_events_total",
				Help: "Simulation counters keyed by bounded event name",
			}, []string{"key"}),
			gauges: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "sim_gauges",
				Help: "Simulation gauges keyed by bounded value name",
			}, []string{"key"}),
		}
	})
	return promMetrics
}

func (m *PrometheusMetrics) Add(key string, delta uint64) {
	if m == nil {
		return
	}
	if _, ok := counterKeys[key]; ok {
		m.counters.WithLabelValues(key).Add(float64(delta))
		return
	}
	m.gauges.WithLabelValues(key).Add(float64(delta))
}

func (m *PrometheusMetrics) Store(key string, value uint64) {
	if m == nil {
		return
	}
	m.gauges.WithLabelValues(key).Set(float64(value))
}

func (m *PrometheusMetrics) ObserveTick(seconds float64) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(seconds)
}

package eclipse

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects engine lifecycle telemetry in a private prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	state        prometheus.Gauge
	services     prometheus.Gauge
	droppedHooks prometheus.Gauge
	passes       *prometheus.CounterVec
	failures     *prometheus.CounterVec
	initLatency  *prometheus.HistogramVec
	passLatency  *prometheus.HistogramVec
}

// NewMetrics creates the engine collectors under namespace, "eclipse" if empty.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "eclipse"
	}

	m := &Metrics{registry: prometheus.NewRegistry()}

	m.state = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "state",
		Help:      "Current engine state (0=uninitialized, 1=initializing, 2=initialized, 3=unloading)",
	})

	m.services = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "services",
		Help:      "Number of live services",
	})

	m.droppedHooks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "dropped_hooks",
		Help:      "Hooks discarded by the last discovery because their target was not found",
	})

	m.passes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "passes_total",
			Help:      "Total number of lifecycle passes",
		},
		[]string{"operation"},
	)

	m.failures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "failures_total",
			Help:      "Total number of failures caught during lifecycle passes",
		},
		[]string{"phase", "kind"},
	)

	m.initLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "initialize_duration_seconds",
			Help:      "Time taken to initialize a service including its hooks",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"phase", "result"},
	)

	m.passLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "pass_duration_seconds",
			Help:      "Time taken by a lifecycle pass",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"operation"},
	)

	m.registry.MustRegister(
		m.state,
		m.services,
		m.droppedHooks,
		m.passes,
		m.failures,
		m.initLatency,
		m.passLatency,
	)

	return m
}

// Registry returns the registry holding engine collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) recordState(s State) {
	m.state.Set(float64(s))
}

func (m *Metrics) recordFailure(phase, kind string) {
	m.failures.WithLabelValues(phase, kind).Inc()
}

func (m *Metrics) recordInitialize(phase ThreadMode, ok bool, d time.Duration) {
	m.initLatency.WithLabelValues(phase.String(), result(ok)).Observe(d.Seconds())
}

func (m *Metrics) recordPass(operation string, services, droppedHooks int, d time.Duration) {
	m.passes.WithLabelValues(operation).Inc()
	m.passLatency.WithLabelValues(operation).Observe(d.Seconds())
	m.services.Set(float64(services))
	m.droppedHooks.Set(float64(droppedHooks))
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

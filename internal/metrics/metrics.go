package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "casedash"

// Metrics groups the collectors the dashboard reports.
type Metrics struct {
	registry     *prometheus.Registry
	loads        *prometheus.CounterVec
	loadDuration prometheus.Histogram
	cache        *prometheus.CounterVec
	rows         prometheus.Gauge
	diagnostics  *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, plus Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Dataset load passes by source kind and outcome.",
		}, []string{"source", "outcome"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time spent loading and normalizing the dataset.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Dataset cache lookups by result.",
		}, []string{"result"}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the most recently loaded dataset.",
		}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Degraded pipeline steps by stage.",
		}, []string{"stage"}),
	}
	m.registry.MustRegister(
		m.loads, m.loadDuration, m.cache, m.rows, m.diagnostics,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveLoad records one load pass.
func (m *Metrics) ObserveLoad(source string, degraded bool, rows int, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	m.loads.WithLabelValues(source, outcome).Inc()
	m.loadDuration.Observe(elapsed.Seconds())
	m.rows.Set(float64(rows))
}

// ObserveDiagnostic counts a degraded pipeline step.
func (m *Metrics) ObserveDiagnostic(stage string) {
	if m == nil {
		return
	}
	m.diagnostics.WithLabelValues(stage).Inc()
}

// CacheHit and CacheMiss satisfy cache.Observer.
func (m *Metrics) CacheHit() {
	if m != nil {
		m.cache.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cache.WithLabelValues("miss").Inc()
	}
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

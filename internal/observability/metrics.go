package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reservoir_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard service.
type Metrics struct {
	// Source loading metrics.
	SourceLoads        *prometheus.CounterVec   // labels: source, outcome={success,error,not_found}
	SourceLoadDuration *prometheus.HistogramVec // labels: source
	SourceRecords      *prometheus.GaugeVec     // labels: source
	RecordsDropped     *prometheus.CounterVec   // labels: source
	SnapshotGeneration prometheus.Gauge
	ReloadDuration     prometheus.Histogram

	// Storage client metrics.
	StorageRequests *prometheus.CounterVec // labels: outcome={success,error,not_found,retry,breaker_open}

	// View derivation metrics.
	ViewBuilds        prometheus.Counter
	ViewBuildDuration prometheus.Histogram
	ViewCache         *prometheus.CounterVec // labels: result={hit,miss}

	// Alert notice metrics.
	AlertsActive    prometheus.Gauge
	AlertsPublished prometheus.Counter
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SourceLoads,
		m.SourceLoadDuration,
		m.SourceRecords,
		m.RecordsDropped,
		m.SnapshotGeneration,
		m.ReloadDuration,
		m.StorageRequests,
		m.ViewBuilds,
		m.ViewBuildDuration,
		m.ViewCache,
		m.AlertsActive,
		m.AlertsPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SourceLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_loads_total",
			Help:      "Source fetch-and-decode attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		SourceLoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_load_duration_seconds",
			Help:      "Duration of a source fetch and decode.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		SourceRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_records",
			Help:      "Records held for each source in the current snapshot.",
		}, []string{"source"}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_records_dropped_total",
			Help:      "Records discarded during decoding (bad dates, duplicates).",
		}, []string{"source"}),
		SnapshotGeneration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_generation",
			Help:      "Generation number of the snapshot being served.",
		}),
		ReloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reload_duration_seconds",
			Help:      "Duration of a complete reload of every source.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		StorageRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_requests_total",
			Help:      "Object storage requests by outcome.",
		}, []string{"outcome"}),
		ViewBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_builds_total",
			Help:      "View models derived (cache misses).",
		}),
		ViewBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_build_duration_seconds",
			Help:      "Duration of a view model derivation.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		ViewCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_cache_total",
			Help:      "View cache lookups by result.",
		}, []string{"result"}),
		AlertsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alerts_active",
			Help:      "Service alerts active today in the current snapshot.",
		}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "Newly active alert notices written to Kafka.",
		}),
	}
}

// internal/monitoring/metrics.go
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager manages Prometheus metrics for one suite run. Every method
// is a no-op on a nil receiver so callers can run without metrics.
type MetricsManager struct {
	registry *prometheus.Registry

	// Case metrics
	casesTotal   *prometheus.CounterVec
	caseDuration *prometheus.HistogramVec

	// Page state metrics
	pageFetches  *prometheus.CounterVec
	pageReuses   *prometheus.CounterVec
	fetchTime    *prometheus.HistogramVec
	waitsElapsed prometheus.Counter

	// Run metrics
	lastRunTimestamp prometheus.Gauge
	lastRunFailed    prometheus.Gauge
}

// MetricsConfig configuration for metrics
type MetricsConfig struct {
	Namespace       string            `yaml:"namespace" json:"namespace"`
	Labels          map[string]string `yaml:"labels" json:"labels"`
	EnableGoMetrics bool              `yaml:"enable_go_metrics" json:"enable_go_metrics"`
}

// NewMetricsManager creates a metrics manager with its own registry.
func NewMetricsManager(config MetricsConfig) *MetricsManager {
	if config.Namespace == "" {
		config.Namespace = "pageprobe"
	}

	registry := prometheus.NewRegistry()
	if config.EnableGoMetrics {
		registry.MustRegister(collectors.NewGoCollector())
	}

	var registerer prometheus.Registerer = registry
	if len(config.Labels) > 0 {
		registerer = prometheus.WrapRegistererWith(prometheus.Labels(config.Labels), registry)
	}
	factory := promauto.With(registerer)

	return &MetricsManager{
		registry: registry,
		casesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "suite",
			Name:      "cases_total",
			Help:      "Total number of verification cases by outcome",
		}, []string{"case", "outcome"}),
		caseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "suite",
			Name:      "case_duration_seconds",
			Help:      "Verification case duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"case"}),
		pageFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "page",
			Name:      "fetches_total",
			Help:      "Navigations that refreshed the markup snapshot",
		}, []string{"page"}),
		pageReuses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "page",
			Name:      "reuses_total",
			Help:      "Checks served from the cached markup snapshot",
		}, []string{"page"}),
		fetchTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "page",
			Name:      "fetch_duration_seconds",
			Help:      "Navigation plus snapshot parse time in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"page"}),
		waitsElapsed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "page",
			Name:      "load_waits_elapsed_total",
			Help:      "Page load waits that ran out their timeout",
		}),
		lastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: "suite",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
		lastRunFailed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: "suite",
			Name:      "last_run_failed_cases",
			Help:      "Cases that did not pass in the last run",
		}),
	}
}

// RecordCase records one case outcome.
func (mm *MetricsManager) RecordCase(name, outcome string, duration time.Duration) {
	if mm == nil {
		return
	}
	mm.casesTotal.WithLabelValues(name, outcome).Inc()
	mm.caseDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// RecordPageFetch records a navigation that replaced the snapshot.
func (mm *MetricsManager) RecordPageFetch(page string, duration time.Duration) {
	if mm == nil {
		return
	}
	mm.pageFetches.WithLabelValues(page).Inc()
	mm.fetchTime.WithLabelValues(page).Observe(duration.Seconds())
}

// RecordPageReuse records a check served from the cached snapshot.
func (mm *MetricsManager) RecordPageReuse(page string) {
	if mm == nil {
		return
	}
	mm.pageReuses.WithLabelValues(page).Inc()
}

// RecordWaitElapsed records a load wait that timed out.
func (mm *MetricsManager) RecordWaitElapsed() {
	if mm == nil {
		return
	}
	mm.waitsElapsed.Inc()
}

// RecordRunComplete records the end of a run.
func (mm *MetricsManager) RecordRunComplete(failed int) {
	if mm == nil {
		return
	}
	mm.lastRunTimestamp.SetToCurrentTime()
	mm.lastRunFailed.Set(float64(failed))
}

// Registry exposes the underlying registry.
func (mm *MetricsManager) Registry() *prometheus.Registry {
	if mm == nil {
		return nil
	}
	return mm.registry
}

// MetricsHandler returns the HTTP handler for metrics
func (mm *MetricsManager) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the metrics in the text exposition format, suitable
// for the node exporter textfile collector.
func (mm *MetricsManager) WriteTextfile(path string) error {
	if mm == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, mm.registry)
}

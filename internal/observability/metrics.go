// Package observability holds the Prometheus instrumentation for the
// decision-support service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// alerting pipeline and HTTP surface.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec   // labels: method, path, status
	HTTPDuration    *prometheus.HistogramVec // labels: method, path
	RecomputeRuns   prometheus.Counter
	RecomputeErrors prometheus.Counter
	RecomputeTime   prometheus.Histogram
	ActiveAlerts    *prometheus.GaugeVec // labels: level
	AreasAssessed   prometheus.Gauge
	WeatherIngested prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.RecomputeRuns,
		m.RecomputeErrors,
		m.RecomputeTime,
		m.ActiveAlerts,
		m.AreasAssessed,
		m.WeatherIngested,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gsmap",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route, and status code.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gsmap",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "path"}),
		RecomputeRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gsmap",
			Name:      "recompute_runs_total",
			Help:      "Total alert recompute cycles executed.",
		}),
		RecomputeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gsmap",
			Name:      "recompute_errors_total",
			Help:      "Total alert recompute cycles that failed.",
		}),
		RecomputeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gsmap",
			Name:      "recompute_duration_seconds",
			Help:      "Duration of a full alert recompute cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		ActiveAlerts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gsmap",
			Name:      "active_alerts",
			Help:      "Active alerts by level from the latest recompute.",
		}, []string{"level"}),
		AreasAssessed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gsmap",
			Name:      "areas_assessed",
			Help:      "Areas with usable weather in the latest recompute.",
		}),
		WeatherIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gsmap",
			Name:      "weather_snapshots_ingested_total",
			Help:      "Total weather snapshots accepted via the API.",
		}),
	}
}

// ObserveAlertLevels sets the per-level alert gauges from a recompute.
func (m *Metrics) ObserveAlertLevels(red, orange, yellow int) {
	m.ActiveAlerts.WithLabelValues("RED").Set(float64(red))
	m.ActiveAlerts.WithLabelValues("ORANGE").Set(float64(orange))
	m.ActiveAlerts.WithLabelValues("YELLOW").Set(float64(yellow))
}

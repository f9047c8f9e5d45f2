// Package metrics provides Prometheus metrics for devdeck.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	ScansTotal        *prometheus.CounterVec
	ScanDuration      prometheus.Histogram
	ProjectsScanned   prometheus.Gauge
	AlertsCreated     *prometheus.CounterVec
	SnapshotFailures  prometheus.Counter
	HTTPRequestsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ScansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devdeck_scans_total",
				Help: "Total number of health scans by outcome.",
			},
			[]string{"status"},
		),
		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "devdeck_scan_duration_seconds",
				Help:    "Health scan duration.",
				Buckets: prometheus.DefBuckets,
			},
		),
		ProjectsScanned: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "devdeck_projects_scanned",
				Help: "Number of projects covered by the most recent scan.",
			},
		),
		AlertsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devdeck_alerts_created_total",
				Help: "Total alerts created by category and level.",
			},
			[]string{"category", "level"},
		),
		SnapshotFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "devdeck_snapshot_failures_total",
				Help: "GitHub snapshot fetches that returned no data.",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devdeck_http_requests_total",
				Help: "Total HTTP requests by route and status code.",
			},
			[]string{"route", "status"},
		),
		registry: reg,
	}

	reg.MustRegister(m.ScansTotal)
	reg.MustRegister(m.ScanDuration)
	reg.MustRegister(m.ProjectsScanned)
	reg.MustRegister(m.AlertsCreated)
	reg.MustRegister(m.SnapshotFailures)
	reg.MustRegister(m.HTTPRequestsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordScan increments the scan counter and observes its duration.
func (m *Metrics) RecordScan(status string, seconds float64) {
	m.ScansTotal.WithLabelValues(status).Inc()
	m.ScanDuration.Observe(seconds)
}

// RecordAlert increments the created-alert counter.
func (m *Metrics) RecordAlert(category, level string) {
	m.AlertsCreated.WithLabelValues(category, level).Inc()
}

// RecordHTTPRequest increments the request counter.
func (m *Metrics) RecordHTTPRequest(route, status string) {
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
}

// Package metrics exposes Prometheus instrumentation for the
// coverage, gap-analysis, and export pipelines.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	// ExportsTotal counts packet generations by outcome.
	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attestor_exports_total",
			Help: "Total number of audit packet generations by outcome",
		},
		[]string{"outcome"},
	)

	// ExportArchiveBytes observes finished archive sizes.
	ExportArchiveBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "attestor_export_archive_bytes",
			Help:    "Size of completed audit packet archives in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)

	// GapAnalysesTotal counts gap analysis runs by framework.
	GapAnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attestor_gap_analyses_total",
			Help: "Total number of gap analysis runs",
		},
		[]string{"framework"},
	)

	// RequestCounter counts HTTP requests.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attestor_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	registry.MustRegister(ExportsTotal)
	registry.MustRegister(ExportArchiveBytes)
	registry.MustRegister(GapAnalysesTotal)
	registry.MustRegister(RequestCounter)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Package observability provides Prometheus metrics for the dashboard.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UploadsTotal    *prometheus.CounterVec // bucket, result
	RowsLoaded      *prometheus.GaugeVec   // bucket
	UploadDuration  *prometheus.HistogramVec
	FilterRequests  *prometheus.CounterVec // endpoint
	FilteredRecords prometheus.Histogram

	gatherer prometheus.Gatherer
}

// NewMetrics registers the metrics on reg. A nil reg uses a fresh registry so
// several instances can coexist in tests.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		UploadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "robot_analytics",
			Subsystem: "ingest",
			Name:      "uploads_total",
			Help:      "Upload attempts by bucket and result",
		}, []string{"bucket", "result"}),
		RowsLoaded: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "robot_analytics",
			Subsystem: "ingest",
			Name:      "rows_loaded",
			Help:      "Records currently held per bucket",
		}, []string{"bucket"}),
		UploadDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "robot_analytics",
			Subsystem: "ingest",
			Name:      "upload_duration_seconds",
			Help:      "Time spent decoding and normalizing an upload",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		FilterRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "robot_analytics",
			Subsystem: "web",
			Name:      "filter_requests_total",
			Help:      "Filtered views served by endpoint",
		}, []string{"endpoint"}),
		FilteredRecords: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "robot_analytics",
			Subsystem: "web",
			Name:      "filtered_records",
			Help:      "Size of the filtered record set per request",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		gatherer: reg,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

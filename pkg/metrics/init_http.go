package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Buckets sized for in-memory lookups and multi-megabyte artifact downloads.
var (
	httpLatencyBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1}
	httpSizeBuckets    = prometheus.ExponentialBuckets(256, 4, 8) // 256B .. 4MiB
)

// httpLabels keys requests by the matched route pattern, never the raw path.
var httpLabels = []string{"method", "path", "status"}

func (r *Registry) initHTTPMetrics() {
	factory := promauto.With(r.registry)

	r.HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "genremap_http_requests_total",
		Help: "Map server requests by route pattern and status",
	}, httpLabels)

	r.HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "genremap_http_request_duration_seconds",
		Help:    "Time to answer a map server request",
		Buckets: httpLatencyBuckets,
	}, httpLabels)

	r.HTTPRequestsInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Name: "genremap_http_requests_in_flight",
		Help: "Map server requests currently being answered",
	})

	r.HTTPResponseSizeBytes = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "genremap_http_response_size_bytes",
		Help:    "Response body size; artifact downloads dominate the upper buckets",
		Buckets: httpSizeBuckets,
	}, []string{"method", "path"})
}

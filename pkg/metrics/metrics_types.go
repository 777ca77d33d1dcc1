package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Pipeline Metrics
	PipelineRunsTotal            *prometheus.CounterVec
	PipelineStageDuration        *prometheus.HistogramVec
	PipelineStageErrorsTotal     *prometheus.CounterVec
	PipelineGenresTotal          prometheus.Gauge
	PipelineEdgesTotal           prometheus.Gauge
	PipelineAnchorsTotal         prometheus.Gauge
	PipelineLastSuccessTimestamp prometheus.Gauge

	// Catalog (serving) Metrics
	CatalogGenresTotal   prometheus.Gauge
	CatalogEdgesTotal    prometheus.Gauge
	CatalogReloadsTotal  *prometheus.CounterVec
	CatalogLookupsTotal  *prometheus.CounterVec
	CatalogLoadedSeconds prometheus.Gauge

	// System Metrics
	UptimeSeconds  prometheus.Gauge
	GoRoutines     prometheus.Gauge
	HeapAllocBytes prometheus.Gauge
	GCCycles       prometheus.Gauge

	registry  *prometheus.Registry
	startedAt time.Time
	mu        sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry:  reg,
		startedAt: time.Now(),
	}

	r.initHTTPMetrics()
	r.initPipelineMetrics()
	r.initCatalogMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize records the size of an HTTP response body
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

// IncHTTPRequestsInFlight marks a request as started
func (r *Registry) IncHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight marks a request as finished
func (r *Registry) DecHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Dec()
}

// RecordStage records the duration of one pipeline stage
func (r *Registry) RecordStage(stage string, duration time.Duration) {
	r.PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRunFailure counts a failed run and the stage that failed it
func (r *Registry) RecordRunFailure(stage, kind string) {
	r.PipelineRunsTotal.WithLabelValues("failure").Inc()
	r.PipelineStageErrorsTotal.WithLabelValues(stage, kind).Inc()
}

// RecordRunSuccess counts a successful run and publishes its output sizes
func (r *Registry) RecordRunSuccess(genres, anchors, edges int) {
	r.PipelineRunsTotal.WithLabelValues("success").Inc()
	r.PipelineGenresTotal.Set(float64(genres))
	r.PipelineAnchorsTotal.Set(float64(anchors))
	r.PipelineEdgesTotal.Set(float64(edges))
	r.PipelineLastSuccessTimestamp.SetToCurrentTime()
}

// RecordCatalogLoad records a snapshot (re)load attempt
func (r *Registry) RecordCatalogLoad(genres, edges int, err error) {
	if err != nil {
		r.CatalogReloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	r.CatalogReloadsTotal.WithLabelValues("success").Inc()
	r.CatalogGenresTotal.Set(float64(genres))
	r.CatalogEdgesTotal.Set(float64(edges))
	r.CatalogLoadedSeconds.SetToCurrentTime()
}

// RecordLookup records a genre lookup
func (r *Registry) RecordLookup(hit bool) {
	if hit {
		r.CatalogLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	r.CatalogLookupsTotal.WithLabelValues("miss").Inc()
}

// UpdateSystemMetrics refreshes the process gauges.
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(r.startedAt).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.HeapAllocBytes.Set(float64(m.Alloc))
	r.GCCycles.Set(float64(m.NumGC))
}

// WriteTextfile writes every metric to path in the text exposition format,
// for node_exporter's textfile collector. The write is atomic.
func (r *Registry) WriteTextfile(path string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return prometheus.WriteToTextfile(path, r.registry)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// initSystemMetrics registers the process gauges refreshed by the server's
// periodic UpdateSystemMetrics tick.
func (r *Registry) initSystemMetrics() {
	gauges := []struct {
		dst  *prometheus.Gauge
		name string
		help string
	}{
		{&r.UptimeSeconds, "genremap_uptime_seconds", "Seconds since the map server process started"},
		{&r.GoRoutines, "genremap_goroutines", "Goroutines alive, including in-flight map requests"},
		{&r.HeapAllocBytes, "genremap_heap_alloc_bytes", "Bytes of live heap objects, as checked by the memory health check"},
		{&r.GCCycles, "genremap_gc_cycles", "Completed garbage collection cycles"},
	}
	for _, g := range gauges {
		*g.dst = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{Name: g.name, Help: g.help})
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initCatalogMetrics() {
	r.CatalogGenresTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "genremap_catalog_genres",
			Help: "Number of genres in the served snapshot",
		},
	)

	r.CatalogEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "genremap_catalog_edges",
			Help: "Number of edges in the served snapshot",
		},
	)

	r.CatalogReloadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "genremap_catalog_reloads_total",
			Help: "Total number of snapshot loads",
		},
		[]string{"result"}, // success, failure
	)

	r.CatalogLookupsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "genremap_catalog_lookups_total",
			Help: "Total number of genre lookups",
		},
		[]string{"result"}, // hit, miss
	)

	r.CatalogLoadedSeconds = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "genremap_catalog_loaded_timestamp_seconds",
			Help: "Unix time the served snapshot was loaded",
		},
	)
}

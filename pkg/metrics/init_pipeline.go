package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPipelineMetrics() {
	r.PipelineRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "genremap_pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"result"}, // success, failure
	)

	r.PipelineStageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genremap_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"stage"},
	)

	r.PipelineStageErrorsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "genremap_pipeline_stage_errors_total",
			Help: "Total number of pipeline failures by stage and error kind",
		},
		[]string{"stage", "kind"},
	)

	r.PipelineGenresTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "genremap_pipeline_genres",
			Help: "Number of genres mapped by the last successful run",
		},
	)

	r.PipelineEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "genremap_pipeline_edges",
			Help: "Number of spanning-tree edges produced by the last successful run",
		},
	)

	r.PipelineAnchorsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "genremap_pipeline_anchors",
			Help: "Number of anchor genres used by the last successful run",
		},
	)

	r.PipelineLastSuccessTimestamp = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "genremap_pipeline_last_success_timestamp_seconds",
			Help: "Unix time of the last successful pipeline run",
		},
	)
}

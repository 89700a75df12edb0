package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fpldata_build_info",
			Help: "Build information of the FPL data pipeline",
		},
		[]string{"version", "commit", "date"},
	)

	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fpldata_fetch_total",
			Help: "Total number of remote resource fetches",
		},
		[]string{"resource", "status"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fpldata_fetch_duration_seconds",
			Help:    "Duration of remote resource fetches",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 0.05s to ~25s
		},
		[]string{"resource"},
	)

	PipelineRunTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fpldata_pipeline_run_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	PipelineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fpldata_pipeline_run_duration_seconds",
			Help:    "Duration of pipeline runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~2048s
		},
	)

	RowsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fpldata_rows_upserted_total",
			Help: "Total number of rows written by the batch upsert engine",
		},
		[]string{"table"},
	)

	RowsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fpldata_rows_skipped_total",
			Help: "Total number of rows skipped after per-row constraint failures",
		},
		[]string{"table"},
	)

	MaintenanceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fpldata_maintenance_total",
			Help: "Total number of post-bulk maintenance passes",
		},
		[]string{"table", "status"},
	)
)

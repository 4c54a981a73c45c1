package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StageRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "icedb_loader_stage_rows_total",
			Help: "Rows emitted by each pipeline stage",
		},
		[]string{"stage"},
	)

	BadRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "icedb_loader_bad_records_total",
			Help: "Rows that failed conversion, by bad record action",
		},
		[]string{"action"},
	)

	PartsWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "icedb_loader_parts_written_total",
			Help: "Columnar part files written",
		},
	)

	PartBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "icedb_loader_part_bytes",
			Help:    "Size of written part files",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KiB to ~256MiB
		},
	)

	LoadTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "icedb_loader_tasks_total",
			Help: "Load tasks run, by outcome",
		},
		[]string{"status"},
	)

	LoadTaskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "icedb_loader_task_duration_seconds",
			Help:    "Duration of load tasks from assembly to committed part",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~82s
		},
	)
)

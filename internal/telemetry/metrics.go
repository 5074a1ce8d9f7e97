package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus метрики. Экспортируются на /metrics каждого сервиса.
var (
	// RunsStarted — количество запущенных runs.
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tabula_runs_started_total",
		Help: "Total number of workflow runs started.",
	})

	// RunsFinished — завершённые runs по терминальному статусу.
	RunsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tabula_runs_finished_total",
		Help: "Total number of workflow runs finished, by status.",
	}, []string{"status"})

	// RunDuration — длительность выполнения run.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tabula_run_duration_seconds",
		Help:    "Workflow run duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	// NodeFailures — отказы узлов по причине.
	NodeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tabula_node_failures_total",
		Help: "Total number of node failures, by reason.",
	}, []string{"reason"})

	// DatasetsUploaded — загруженные датасеты по формату.
	DatasetsUploaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tabula_datasets_uploaded_total",
		Help: "Total number of datasets uploaded, by kind.",
	}, []string{"kind"})
)

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the automation pipeline and upload surface.
var (
	ProcessorRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "processor_runs_total",
			Help: "Total number of batch processing runs started",
		},
	)

	ProcessorRecordsProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "processor_records_processed_total",
			Help: "Total number of records with images handled by batch runs",
		},
	)

	ProcessorErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "processor_errors_total",
			Help: "Total number of per-record and per-image failures in batch runs",
		},
	)

	ProcessorRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "processor_run_duration_seconds",
			Help:    "Duration of batch processing runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	ImagesGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "images_generated_total",
			Help: "Total number of image variations generated and stored",
		},
	)

	ImagesUploadedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "images_uploaded_total",
			Help: "Total number of client images uploaded to the bucket",
		},
	)

	RecordsSavedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_saved_total",
			Help: "Total number of order records written to the record store",
		},
		[]string{"mode"},
	)
)

// Register attaches all pipeline metrics to the default registry.
func Register() {
	prometheus.MustRegister(
		ProcessorRunsTotal,
		ProcessorRecordsProcessedTotal,
		ProcessorErrorsTotal,
		ProcessorRunDuration,
		ImagesGeneratedTotal,
		ImagesUploadedTotal,
		RecordsSavedTotal,
	)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extractor_extractions_total",
		Help: "Total number of frame extractions, by outcome",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "extractor_stage_duration_seconds",
		Help:    "Duration of each extraction stage",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extractor_frames_extracted_total",
		Help: "Total number of frames returned across all extractions",
	})

	FramesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extractor_frames_dropped_total",
		Help: "Frames dropped by best-effort extraction, by failing stage",
	}, []string{"stage"})

	ActiveExtractions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "extractor_active_extractions",
		Help: "Number of extractions currently in flight",
	})

	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extractor_jobs_processed_total",
		Help: "Total number of queued extraction jobs processed, by status",
	}, []string{"status"})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extractor_job_retry_total",
		Help: "Total number of job retries",
	}, []string{"attempt"})
)

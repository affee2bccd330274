package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeIngested  = "ingested"
	outcomeDuplicate = "duplicate"
	outcomeFailed    = "failed"
)

var (
	CVFilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cv_files_processed_total",
			Help: "Total number of uploaded CV files by terminal outcome",
		},
		[]string{"outcome"},
	)

	CVDuplicatesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cv_duplicates_detected_total",
			Help: "Total number of duplicate CVs by match reason",
		},
		[]string{"reason"},
	)

	CVResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cv_duplicate_resolutions_total",
			Help: "Total number of duplicate resolutions by mode and status",
		},
		[]string{"mode", "status"},
	)

	CVExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cv_extraction_duration_seconds",
			Help:    "Duration of the extraction round trip for one CV in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		},
		[]string{"outcome"},
	)

	CandidateIndexJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidate_index_jobs_total",
			Help: "Total number of candidate indexing jobs by result",
		},
		[]string{"result"},
	)
)

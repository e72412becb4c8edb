// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	RFQMatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfq_match_requests_total",
			Help: "Matching runs by outcome",
		},
		[]string{"outcome"},
	)

	RFQMatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rfq_match_duration_seconds",
			Help:    "Time spent ranking a candidate pool",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"outcome"},
	)

	RFQCandidatesEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfq_candidates_evaluated_total",
			Help: "Candidates seen by the matching engine, by result",
		},
		[]string{"result"},
	)

	RFQOracleFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfq_oracle_fallbacks_total",
			Help: "Relevance oracle calls replaced by the neutral adjustment",
		},
		[]string{"reason"},
	)

	RFQCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfq_cache_lookups_total",
			Help: "Redis cache lookups by cache and result",
		},
		[]string{"cache", "result"},
	)
)

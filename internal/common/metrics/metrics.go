// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tariff-workers/internal/models"
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

	RateTierLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tariff_rate_tier_lookups_total",
			Help: "Rate cascade lookups by tier and outcome (hit, miss, error)",
		},
		[]string{"tier", "outcome"},
	)

	RateTierDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tariff_rate_tier_duration_seconds",
			Help:    "Time spent in a single rate tier lookup",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2},
		},
		[]string{"tier"},
	)

	ClassificationConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tariff_classification_confidence",
			Help:    "Confidence of the top classification candidate",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
	)

	ClassificationNotFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tariff_classification_not_found_total",
			Help: "Classifications routed to manual review because nothing matched",
		},
	)

	BrokerReviewsRequired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tariff_broker_reviews_required_total",
			Help: "Composite results flagged for licensed broker review",
		},
		[]string{"task_type"},
	)
)

// ObserveRateTier has the shape of rates.Observer.
func ObserveRateTier(tier models.SourceTier, outcome string, elapsed time.Duration) {
	RateTierLookups.WithLabelValues(string(tier), outcome).Inc()
	RateTierDuration.WithLabelValues(string(tier)).Observe(elapsed.Seconds())
}

func ObserveClassification(result *models.ClassificationResult) {
	top := result.Top()
	if top == nil {
		ClassificationNotFound.Inc()
		return
	}
	ClassificationConfidence.Observe(float64(top.Confidence))
}

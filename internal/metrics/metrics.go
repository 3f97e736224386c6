// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stage outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
)

var (
	StageRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruiter_stage_runs_total",
			Help: "Total number of stage runs by outcome",
		},
		[]string{"stage", "outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recruiter_stage_duration_seconds",
			Help:    "Duration of stage runs in seconds, retries included",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"stage"},
	)

	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruiter_provider_attempts_total",
			Help: "Calls to external completion and embedding providers",
		},
		[]string{"op", "result"},
	)

	WorkflowRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruiter_workflow_runs_total",
			Help: "Completed workflow runs by outcome",
		},
		[]string{"outcome"},
	)

	WorkflowsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recruiter_workflows_active",
			Help: "Number of workflow runs in progress",
		},
	)

	CandidatesScreened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruiter_candidates_screened_total",
			Help: "Candidates screened by the ranker by result",
		},
		[]string{"result"},
	)

	BatchItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruiter_batch_items_total",
			Help: "Batch items processed by status",
		},
		[]string{"status"},
	)

	EmbeddingCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruiter_embedding_cache_requests_total",
			Help: "Embedding cache lookups by result",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruiter_http_requests_total",
			Help: "HTTP requests served by method, route and status code",
		},
		[]string{"method", "route", "code"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "forkful"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	RecipeOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "recipe_operations_total", Help: "Recipe service operations by operation and outcome."},
		[]string{"op", "outcome"},
	)
	MediaCleanupFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "media_cleanup_failures_total", Help: "Best-effort media deletions that failed."},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency by route and status.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route", "status"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(RecipeOperations)
	reg.MustRegister(MediaCleanupFailures)
	reg.MustRegister(HTTPRequestDuration)
}

// Outcome labels an operation result for RecipeOperations.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

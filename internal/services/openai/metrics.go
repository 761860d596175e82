package openai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiosketch_provider_requests_total",
			Help: "Total number of provider requests by operation, model and status.",
		},
		[]string{"operation", "model", "status"},
	)
	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audiosketch_provider_request_duration_seconds",
			Help:    "Histogram of provider request durations.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160, 480},
		},
		[]string{"operation", "model"},
	)
	providerTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiosketch_provider_tokens_total",
			Help: "Total number of tokens reported by chat completions.",
		},
		[]string{"model", "kind"},
	)
)

func observe(operation, model string, seconds float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	providerRequestsTotal.WithLabelValues(operation, model, status).Inc()
	providerRequestDuration.WithLabelValues(operation, model).Observe(seconds)
}

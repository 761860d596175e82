package workflow

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"audiosketch/internal/stageexec"
)

var (
	stepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiosketch_step_runs_total",
			Help: "Total number of pipeline stage and action runs by outcome.",
		},
		[]string{"kind", "name", "status"},
	)
	stepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audiosketch_step_duration_seconds",
			Help:    "Histogram of pipeline stage and action durations.",
			Buckets: prometheus.ExponentialBuckets(0.05, 3, 10),
		},
		[]string{"kind", "name"},
	)
	projectsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audiosketch_projects_created_total",
			Help: "Total number of projects created.",
		},
	)
)

func recordMetrics(_ context.Context, outcome stageexec.Outcome) {
	status := "completed"
	switch {
	case outcome.Err != nil:
		status = "failed"
	case outcome.Skipped:
		status = "skipped"
	}
	stepRunsTotal.WithLabelValues(string(outcome.Kind), outcome.Name, status).Inc()
	if !outcome.Skipped {
		stepDuration.WithLabelValues(string(outcome.Kind), outcome.Name).Observe(outcome.Duration.Seconds())
	}
}

func chainObservers(observers ...stageexec.Observer) stageexec.Observer {
	return func(ctx context.Context, outcome stageexec.Outcome) {
		for _, observe := range observers {
			if observe != nil {
				observe(ctx, outcome)
			}
		}
	}
}

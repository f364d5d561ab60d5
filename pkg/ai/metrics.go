package ai

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "autograder",
		Subsystem: "ai",
		Name:      "generation_duration_seconds",
		Help:      "Duration of AI generation requests",
	}, []string{"provider", "profile"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autograder",
		Subsystem: "ai",
		Name:      "generation_failures_total",
		Help:      "Number of AI generation failures",
	}, []string{"provider", "profile"})
)

func observe(provider string, profile Profile, start time.Time) {
	aiDuration.WithLabelValues(provider, string(profile)).Observe(time.Since(start).Seconds())
}

func fail(span trace.Span, provider string, profile Profile, err error) error {
	aiFailures.WithLabelValues(provider, string(profile)).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

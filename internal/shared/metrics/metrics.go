package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcomes.
const (
	ResultCompleted    = "completed"
	ResultFailed       = "failed"
	ResultLimitReached = "limit_reached"
)

var (
	registry = prometheus.NewRegistry()
	factory  = promauto.With(registry)

	coverLetterGenerations = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "cover_letter_generations_total",
		Help: "Cover letter generation attempts by result.",
	}, []string{"result"})

	coverLetterDeletes = factory.NewCounter(prometheus.CounterOpts{
		Name: "cover_letter_deletes_total",
		Help: "Cover letters deleted by their owners.",
	})

	llmDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_request_duration_seconds",
		Help:    "Latency of text generation calls.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"provider", "outcome"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IncGeneration counts a generation attempt with the given result.
func IncGeneration(result string) {
	coverLetterGenerations.WithLabelValues(result).Inc()
}

// IncDelete counts a deleted cover letter.
func IncDelete() {
	coverLetterDeletes.Inc()
}

// ObserveLLM records the latency of a provider call.
func ObserveLLM(provider string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	llmDuration.WithLabelValues(provider, outcome).Observe(d.Seconds())
}

// Registry exposes the collector registry, mainly for tests.
func Registry() *prometheus.Registry {
	return registry
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

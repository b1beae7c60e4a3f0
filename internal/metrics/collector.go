package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const subsystem = "rpn"

// Outcome labels for evaluations_total besides the evaluator error kinds
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid_config"
)

// Collector records evaluation metrics.
//
// Metrics:
//   - <namespace>_rpn_evaluations_total: evaluations by outcome
//   - <namespace>_rpn_evaluation_duration_seconds: evaluation latency
//   - <namespace>_rpn_expression_tokens: tokens per evaluated expression
type Collector struct {
	registry *prometheus.Registry

	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	expressionTokens   prometheus.Histogram
}

// NewCollector creates a collector and registers its metrics. If registry is
// nil a fresh registry is created.
func NewCollector(namespace string, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = "dago"
	}

	c := &Collector{
		registry: registry,
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of RPN evaluations by outcome",
			},
			[]string{"outcome"},
		),
		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of RPN evaluations in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
			},
		),
		expressionTokens: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "expression_tokens",
				Help:      "Number of tokens per evaluated expression",
				Buckets:   prometheus.ExponentialBuckets(1, 10, 8), // 1 to 10M
			},
		),
	}

	registry.MustRegister(c.evaluationsTotal, c.evaluationDuration, c.expressionTokens)

	return c
}

// RecordEvaluation records one evaluation
func (c *Collector) RecordEvaluation(outcome string, tokens int, duration time.Duration) {
	if c == nil {
		return
	}
	c.evaluationsTotal.WithLabelValues(outcome).Inc()
	c.evaluationDuration.Observe(duration.Seconds())
	if tokens > 0 {
		c.expressionTokens.Observe(float64(tokens))
	}
}

// Registry returns the registry the collector's metrics are registered with
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}

package completion

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	completionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agribot_completion_requests_total",
			Help: "Total number of completion requests by outcome",
		},
		[]string{"outcome"},
	)

	completionRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agribot_completion_request_duration_seconds",
			Help:    "Duration of completion requests in seconds",
			Buckets: []float64{0.5, 1.0, 2.0, 5.0, 10.0, 20.0, 30.0},
		},
		[]string{"outcome"},
	)

	completionTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agribot_completion_tokens_total",
			Help: "Total number of tokens consumed by completion requests",
		},
		[]string{"type"},
	)
)

// outcomeLabel is the metric label for an outcome: "success" or the
// error kind.
func outcomeLabel(o Outcome) string {
	if !o.IsError {
		return "success"
	}
	return string(o.Kind)
}

func recordCompletion(o Outcome, duration time.Duration) {
	label := outcomeLabel(o)
	completionRequestsTotal.WithLabelValues(label).Inc()
	completionRequestDuration.WithLabelValues(label).Observe(duration.Seconds())
}

func recordTokens(prompt, completion, total int) {
	completionTokensTotal.WithLabelValues("prompt").Add(float64(prompt))
	completionTokensTotal.WithLabelValues("completion").Add(float64(completion))
	completionTokensTotal.WithLabelValues("total").Add(float64(total))
}

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	aiTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_in",
			Help: "Sum of prompt (input) tokens per model.",
		},
		[]string{"model"},
	)

	aiTokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_out",
			Help: "Sum of completion (output) tokens per model.",
		},
		[]string{"model"},
	)

	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"model", "success"},
	)
)

func init() {
	register(aiTokensIn, aiTokensOut, aiCallsLatencyMs)
}

func AddAITokens(model string, in, out int) {
	if in > 0 {
		aiTokensIn.WithLabelValues(model).Add(float64(in))
	}
	if out > 0 {
		aiTokensOut.WithLabelValues(model).Add(float64(out))
	}
}

func ObserveAICall(model string, elapsed time.Duration, success bool) {
	aiCallsLatencyMs.WithLabelValues(model, strconv.FormatBool(success)).
		Observe(float64(elapsed.Milliseconds()))
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sessions_created_total",
		Help: "Sessions created since process start.",
	})

	sessionsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sessions_evicted_total",
		Help: "Sessions evicted by expiry (lazy lookups and background sweeps).",
	})
)

func init() {
	register(sessionsCreated, sessionsEvicted)
}

func IncSessionsCreated() { sessionsCreated.Inc() }

func AddSessionsEvicted(n int) {
	if n > 0 {
		sessionsEvicted.Add(float64(n))
	}
}

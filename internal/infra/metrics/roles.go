package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	roleResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "role_resolutions_total",
			Help: "Role resolutions by winning precedence source (bot/user/group/default).",
		},
		[]string{"source"},
	)

	// A non-zero rate here means a mapping points at a deleted role and the
	// resolver is silently serving the default profile. Worth alerting on.
	roleFallback = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "role_fallback_total",
		Help: "Resolutions that fell back to the default role because the mapped role id no longer exists.",
	})
)

func init() {
	register(roleResolutions, roleFallback)
}

func IncRoleResolutions(source string) { roleResolutions.WithLabelValues(source).Inc() }

func IncRoleFallback() { roleFallback.Inc() }

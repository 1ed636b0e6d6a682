package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		identitiesRegisteredTotal,
		rateLimitTriggeredTotal,
	)
}

var (
	identitiesRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "identities_registered_total",
			Help: "Total number of new identities registered.",
		},
	)

	rateLimitTriggeredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_triggered_total",
			Help: "Total number of rejected requests by limiter.",
		},
		[]string{"limiter"}, // 'daily_ads', 'api'
	)
)

func IncIdentitiesRegistered() {
	identitiesRegisteredTotal.Inc()
}

func IncRateLimitTriggered(limiter string) {
	rateLimitTriggeredTotal.WithLabelValues(norm(limiter)).Inc()
}

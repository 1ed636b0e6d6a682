package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionTransitionsTotal,
		webhookEventsTotal,
	)
}

var (
	subscriptionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recurring_subscription_transitions_total",
			Help: "Recurring subscription status transitions by plan kind and new status.",
		},
		[]string{"plan", "status"},
	)

	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Gateway webhook deliveries by event and result.",
		},
		[]string{"event", "result"}, // result: applied|duplicate|ignored|rejected|error
	)
)

func IncSubscriptionTransition(plan, status string) {
	subscriptionTransitionsTotal.WithLabelValues(norm(plan), norm(status)).Inc()
}

func IncWebhookEvent(event, result string) {
	if event == "" {
		event = "none"
	}
	webhookEventsTotal.WithLabelValues(norm(event), norm(result)).Inc()
}

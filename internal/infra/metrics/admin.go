package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(adminActionTotal, withdrawalsTotal) }

var (
	adminActionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_action_total",
			Help: "Admin endpoint calls by action and outcome.",
		},
		[]string{"action", "status"}, // status: 'ok', 'error'
	)

	withdrawalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_withdrawals_total",
			Help: "Referral withdrawal requests by action (requested/approve/reject).",
		},
		[]string{"action"},
	)
)

func IncAdminAction(action, status string) {
	adminActionTotal.WithLabelValues(norm(action), norm(status)).Inc()
}

func IncWithdrawal(action string) {
	withdrawalsTotal.WithLabelValues(norm(action)).Inc()
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		goldTransactionsTotal,
		goldPointsTotal,
	)
}

var (
	goldTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gold_transactions_total",
			Help: "Gold wallet log entries by kind and source.",
		},
		[]string{"kind", "source"},
	)

	goldPointsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gold_points_total",
			Help: "Gold points moved by kind (earn/spend).",
		},
		[]string{"kind"},
	)
)

func IncGoldTransaction(kind, source string, amount int64) {
	goldTransactionsTotal.WithLabelValues(norm(kind), norm(source)).Inc()
	goldPointsTotal.WithLabelValues(norm(kind)).Add(float64(amount))
}

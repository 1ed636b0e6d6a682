package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentOrdersTotal,
		paymentsRevenueTotal,
	)
}

var (
	paymentOrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_orders_total",
			Help: "One-shot payment orders by kind and status (pending/completed/failed).",
		},
		[]string{"kind", "status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_minor_total",
			Help: "Total value of confirmed payments in minor units, labeled by currency and source.",
		},
		[]string{"currency", "source"}, // source: order|subscription
	)
)

func IncPaymentOrder(kind, status string) {
	paymentOrdersTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}

func AddPaymentRevenue(currency, source string, amountMinor int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency), norm(source)).Add(float64(amountMinor))
}

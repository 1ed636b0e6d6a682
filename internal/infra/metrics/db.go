package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolConnections) }

var dbPoolConnections = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "db_pool_connections",
		Help: "Connections held by the pgx pool, sampled periodically.",
	},
	[]string{"state"}, // 'total', 'idle', 'in_use'
)

func SetDBPoolStats(total, idle, inUse int32) {
	dbPoolConnections.WithLabelValues("total").Set(float64(total))
	dbPoolConnections.WithLabelValues("idle").Set(float64(idle))
	dbPoolConnections.WithLabelValues("in_use").Set(float64(inUse))
}

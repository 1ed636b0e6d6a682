package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(ledgerAuditRunsTotal, ledgerAuditDrift) }

var (
	ledgerAuditRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_audit_runs_total",
			Help: "Total number of gold ledger audit passes, labeled by status.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	ledgerAuditDrift = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_audit_drift_identities",
			Help: "Identities whose cached gold balance disagrees with the transaction log in the last pass.",
		},
	)
)

func IncLedgerAudit(status string) {
	ledgerAuditRunsTotal.WithLabelValues(norm(status)).Inc()
}

func SetLedgerDrift(n int) {
	ledgerAuditDrift.Set(float64(n))
}

package balances

import "github.com/prometheus/client_golang/prometheus"

var operations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "muhasebe",
	Subsystem: "ledger",
	Name:      "operations_total",
	Help:      "Balance mutations by transaction type and outcome.",
}, []string{"type", "outcome"})

// Collectors returns the ledger metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{operations}
}

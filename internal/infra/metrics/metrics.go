package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DonationsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_inventory_donations_total",
		Help: "Inventory donation events recorded.",
	})
	ConsumptionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_inventory_consumptions_total",
		Help: "Inventory consumption events recorded.",
	})
	ContributionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_contributions_total",
		Help: "Member contributions recorded.",
	})
	PromisesFulfilled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_promises_fulfilled_total",
		Help: "Promises transitioned to fulfilled.",
	})
	ProjectionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_projection_failures_total",
		Help: "Best-effort secondary writes that failed after the primary record committed.",
	}, []string{"target"})
)

// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LiveBillComputations counts on-demand current-month bill builds.
	LiveBillComputations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gymflow_live_bill_computations_total",
		Help: "Number of live current-month bill computations.",
	})

	// BillsFinalized counts months frozen into history.
	BillsFinalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gymflow_bills_finalized_total",
		Help: "Number of monthly bills finalized.",
	})

	// PaymentsRecorded counts settlement events appended to the ledger.
	PaymentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gymflow_payments_recorded_total",
		Help: "Number of payment events recorded.",
	})

	// RollupFailures counts gyms skipped during platform rollups.
	RollupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gymflow_rollup_gym_failures_total",
		Help: "Number of gyms whose live contribution was dropped from a rollup.",
	})
)

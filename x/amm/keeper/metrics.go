package keeper

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ammMetrics holds the Prometheus metrics for the amm module
type ammMetrics struct {
	swapsTotal   *prometheus.CounterVec
	swapVolume   *prometheus.CounterVec
	swapFees     *prometheus.CounterVec
	poolsCreated prometheus.Counter

	liquidityAdded   *prometheus.CounterVec
	liquidityRemoved *prometheus.CounterVec

	flashLoansTotal *prometheus.CounterVec
	flashLoanVolume *prometheus.CounterVec

	breakerTrips  *prometheus.CounterVec
	breakerResets prometheus.Counter

	routerSwaps *prometheus.CounterVec
}

var (
	ammMetricsOnce sync.Once
	ammMetricsInst *ammMetrics
)

// metrics returns the module metrics singleton, registering on first use.
func metrics() *ammMetrics {
	ammMetricsOnce.Do(func() {
		ammMetricsInst = &ammMetrics{
			swapsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "surge",
					Subsystem: "amm",
					Name:      "swaps_total",
					Help:      "Total number of swaps executed",
				},
				[]string{"pool_id", "token_in", "token_out"},
			),
			swapVolume: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "surge",
					Subsystem: "amm",
					Name:      "swap_volume_total",
					Help:      "Total swap input volume in base units",
				},
				[]string{"pool_id", "denom"},
			),
			swapFees: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "surge",
					Subsystem: "amm",
					Name:      "swap_fees_total",
					Help:      "Total swap fees retained by pools",
				},
				[]string{"pool_id", "denom"},
			),
			poolsCreated: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "surge",
					Subsystem: "amm",
					Name:      "pools_created_total",
					Help:      "Total number of pools created",
				},
			),
			liquidityAdded: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "surge",
					Subsystem: "amm",
					Name:      "liquidity_added_total",
					Help:      "Total liquidity deposited into pools",
				},
				[]string{"pool_id", "denom"},
			),
			liquidityRemoved: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "surge",
					Subsystem: "amm",
					Name:      "liquidity_removed_total",
					Help:      "Total liquidity withdrawn from pools",
				},
				[]string{"pool_id", "denom"},
			),
			flashLoansTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "surge",
					Subsystem: "amm",
					Name:      "flash_loans_total",
					Help:      "Total flash loans by outcome",
				},
				[]string{"pool_id", "status"},
			),
			flashLoanVolume: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "surge",
					Subsystem: "amm",
					Name:      "flash_loan_volume_total",
					Help:      "Total flash loan principal in base units",
				},
				[]string{"pool_id", "denom"},
			),
			breakerTrips: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "surge",
					Subsystem: "amm",
					Name:      "circuit_breaker_trips_total",
					Help:      "Total circuit breaker trip events",
				},
				[]string{"pool_id", "reason"},
			),
			breakerResets: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "surge",
					Subsystem: "amm",
					Name:      "circuit_breaker_resets_total",
					Help:      "Total circuit breaker reset events",
				},
			),
			routerSwaps: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "surge",
					Subsystem: "amm",
					Name:      "router_swaps_total",
					Help:      "Total multi-hop swaps by hop count",
				},
				[]string{"hops"},
			),
		}
	})
	return ammMetricsInst
}

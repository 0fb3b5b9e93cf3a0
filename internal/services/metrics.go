package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mining_sessions_started_total",
		Help: "Number of mining sessions created.",
	})

	metricBoosts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mining_boosts_total",
		Help: "Boost requests by outcome (accepted, quota_rejected).",
	}, []string{"outcome"})

	metricWatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mining_watches_total",
		Help: "Watch-and-earn requests by outcome (accepted, quota_rejected).",
	}, []string{"outcome"})

	metricActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mining_active_sessions",
		Help: "Active mining sessions at the last accrual sweep.",
	})

	metricSupplyDistributed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mining_supply_distributed",
		Help: "Total supply distributed so far.",
	})

	metricEarningsCredited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mining_earnings_credited_total",
		Help: "Sum of mined earnings credited to wallets.",
	})
)

package history

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	historyTurns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agribot_history_turns",
			Help: "Current number of turns retained in conversation history",
		},
	)

	historyEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agribot_history_evictions_total",
			Help: "Total number of turns evicted once history reached capacity",
		},
	)
)

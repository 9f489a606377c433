package rebase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rewritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qbridge",
			Subsystem: "rebase",
			Name:      "rewrites_total",
			Help:      "Total number of commands rewritten by opcode",
		},
		[]string{"op"},
	)

	sweepsPerCircuit = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "qbridge",
			Subsystem: "rebase",
			Name:      "sweeps",
			Help:      "Sweeps needed to reach a fixed point",
			Buckets:   prometheus.LinearBuckets(0, 1, 8),
		},
	)
)

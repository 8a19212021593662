package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ringsRecordedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campaign",
			Name:      "rings_recorded_total",
			Help:      "Total inbound interactions recorded as rings.",
		},
		[]string{"kind"},
	)

	broadcastsEnqueuedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "campaign",
			Name:      "broadcasts_enqueued_total",
			Help:      "Total broadcast jobs enqueued.",
		},
	)
)

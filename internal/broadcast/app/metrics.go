package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	broadcastJobsReceivedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "broadcast",
			Name:      "jobs_received_total",
			Help:      "Total broadcast jobs received from the queue.",
		},
		[]string{"subject"},
	)

	broadcastSendsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "broadcast",
			Name:      "sends_total",
			Help:      "Total per-destination broadcast send outcomes.",
		},
		[]string{"status"},
	)

	broadcastDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "broadcast",
			Name:      "fanout_duration_seconds",
			Help:      "Duration of broadcast fan-out execution.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

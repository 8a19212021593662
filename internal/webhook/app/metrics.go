package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhooksReceivedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webhook",
			Name:      "received_total",
			Help:      "Total inbound webhook events successfully parsed.",
		},
		[]string{"provider", "kind"},
	)

	webhookCallbacksCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webhook",
			Name:      "callbacks_total",
			Help:      "Total delivery-status callbacks acknowledged.",
		},
		[]string{"provider"},
	)

	webhookProcessingDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webhook",
			Name:      "processing_duration_seconds",
			Help:      "Duration of inbound webhook processing.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "kind"},
	)
)

// Package metrics holds the Prometheus collectors shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsLive tracks the number of sessions currently held in memory.
	SessionsLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_sessions_live",
		Help: "Number of live sessions in the session store.",
	})

	// SessionsReaped counts sessions evicted by the reaper.
	SessionsReaped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_sessions_reaped_total",
		Help: "Total number of sessions removed by the idle-expiry reaper.",
	})

	// MessagesStored counts messages accepted into storage.
	MessagesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_messages_stored_total",
		Help: "Total number of chat messages stored.",
	})

	// HTTPRequestDuration observes request latency per route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

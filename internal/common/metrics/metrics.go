// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FacadeCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthkit_facade_calls_total",
			Help: "Total number of facade calls by terminal outcome",
		},
		[]string{"operation", "outcome"},
	)

	FacadeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthkit_facade_failures_total",
			Help: "Total number of failed facade calls by error code",
		},
		[]string{"operation", "error_code"},
	)

	FacadeCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "healthkit_facade_call_duration_seconds",
			Help:    "Duration of facade calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	BridgeEventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthkit_bridge_events_emitted_total",
			Help: "Total number of events emitted into the bridge",
		},
		[]string{"event"},
	)

	BridgeEventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthkit_bridge_events_delivered_total",
			Help: "Total number of handler invocations",
		},
		[]string{"event"},
	)

	BridgeSubscriptionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "healthkit_bridge_subscriptions_active",
			Help: "Number of live subscriptions per event name",
		},
		[]string{"event"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthkit_notifications_failed_total",
			Help: "Total number of notifications that could not be delivered",
		},
		[]string{"notifier"},
	)
)

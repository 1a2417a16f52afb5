package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Intake metrics
var (
	// MessagesCreatedTotal counts messages accepted by intake
	MessagesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_created_total",
			Help: "Total messages accepted and fanned out",
		},
	)
)

// Realtime broadcaster metrics
var (
	// RealtimeConnectedClients tracks currently connected WebSocket clients
	RealtimeConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connected_clients",
			Help: "Number of currently connected WebSocket clients",
		},
	)

	// RealtimeSlowClientsEvicted counts clients dropped for a full send buffer
	RealtimeSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_slow_clients_evicted_total",
			Help: "Total WebSocket clients evicted because their send buffer was full",
		},
	)

	// BroadcasterStopTimeoutsTotal counts shutdowns that exceeded the stop timeout
	BroadcasterStopTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_stop_timeouts_total",
			Help: "Total broadcaster shutdowns that hit the stop timeout",
		},
	)
)

// Push dispatch metrics
var (
	// PushDeliveriesTotal counts push delivery attempts by outcome
	PushDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_deliveries_total",
			Help: "Total push delivery attempts by status (ok/error)",
		},
		[]string{"status"},
	)

	// PushSubscriptionsPrunedTotal counts subscriptions removed after failed deliveries
	PushSubscriptionsPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "push_subscriptions_pruned_total",
			Help: "Total subscriptions pruned after a failed delivery",
		},
	)

	// PushSubscribers tracks the current size of the subscription store
	PushSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "push_subscribers",
			Help: "Current number of stored push subscriptions",
		},
	)
)

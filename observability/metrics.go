package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// CONNECTION METRICS
// =============================================================================

var (
	handshakesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magicnet_handshakes_total",
			Help: "Total number of handshake outcomes",
		},
		[]string{"outcome"}, // outcome: activated, hello_multiple, version_mismatch, hash_mismatch
	)

	activeConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "magicnet_active_connections",
			Help: "Number of currently activated connection handles",
		},
		[]string{"role"},
	)
)

// =============================================================================
// MESSAGE DISPATCH METRICS
// =============================================================================

var (
	messagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magicnet_messages_sent_total",
			Help: "Total messages handed to a transport handler for delivery",
		},
		[]string{"role"},
	)

	messagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magicnet_messages_received_total",
			Help: "Total messages decoded from an inbound datagram",
		},
		[]string{"role"},
	)

	messagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magicnet_messages_dropped_total",
			Help: "Total messages dropped by middleware or validation",
		},
		[]string{"reason"}, // reason: validation, unknown_destination
	)

	dispatchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "magicnet_dispatch_duration_seconds",
			Help:    "Time spent processing one received datagram",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"role"},
	)
)

// =============================================================================
// OBJECT REPLICATION METRICS
// =============================================================================

var (
	objectsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magicnet_objects_created_total",
			Help: "Total network objects that reached GENERATED",
		},
		[]string{"network_name"},
	)

	objectsDestroyedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magicnet_objects_destroyed_total",
			Help: "Total network objects destroyed",
		},
		[]string{"network_name"},
	)

	fieldCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magicnet_field_calls_total",
			Help: "Total field invocations, by outcome",
		},
		[]string{"outcome"}, // outcome: ok, no-field, no-auth, bad-args
	)
)

// =============================================================================
// PUBLIC API
// =============================================================================

// RecordHandshake records a handshake outcome. Called from netconn's HELLO
// processor (processHello in handshake.go).
func RecordHandshake(outcome string) {
	handshakesTotal.WithLabelValues(outcome).Inc()
}

// SetActiveConnections sets the current gauge value for a remote role.
// Called from TransportHandler.registerHandle/removeHandle whenever a handle
// activates or is destroyed.
func SetActiveConnections(role string, count int) {
	activeConnections.WithLabelValues(role).Set(float64(count))
}

// RecordMessageSent records one message handed to delivery. Called from
// TransportHandler.Deliver after a successful send.
func RecordMessageSent(role string) { messagesSentTotal.WithLabelValues(role).Inc() }

// RecordMessageReceived records one message decoded from an inbound
// datagram. Called from TransportHandler.DatagramReceived.
func RecordMessageReceived(role string) { messagesReceivedTotal.WithLabelValues(role).Inc() }

// RecordMessageDropped records one message dropped by middleware or an
// unresolved destination. Called from TransportHandler.DatagramReceived and
// TransportHandler.Deliver.
func RecordMessageDropped(reason string) { messagesDroppedTotal.WithLabelValues(reason).Inc() }

// RecordDispatchDuration records how long one datagram took to process.
// Called from NetworkManager.onDatagramReceived.
func RecordDispatchDuration(role string, seconds float64) {
	dispatchDurationSeconds.WithLabelValues(role).Observe(seconds)
}

// RecordObjectCreated records a network object reaching GENERATED. Called
// from netobject.Manager.initializeObject.
func RecordObjectCreated(networkName string) { objectsCreatedTotal.WithLabelValues(networkName).Inc() }

// RecordObjectDestroyed records a network object being destroyed. Called
// from netobject.Manager.destroyNetworkObject.
func RecordObjectDestroyed(networkName string) { objectsDestroyedTotal.WithLabelValues(networkName).Inc() }

// RecordFieldCall records a field invocation outcome ("ok", "no-field",
// "no-auth", or "bad-args"). Called from netobject's callField.
func RecordFieldCall(outcome string) { fieldCallsTotal.WithLabelValues(outcome).Inc() }

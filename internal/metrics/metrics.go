// Package metrics defines the Prometheus instrumentation for the agentchat
// gateway: request outcomes, authentication failures, publish latencies, and
// chat-domain counters.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Metrics variables - these will be initialized by InitMetrics
	GatewayRequestsTotal    *prometheus.CounterVec
	GatewayRequestDuration  *prometheus.HistogramVec
	AuthFailures            prometheus.Counter
	PublishRequestsTotal    *prometheus.CounterVec
	PublishDuration         prometheus.Histogram
	RateLimitExceeded       *prometheus.CounterVec
	ErrorsTotal             *prometheus.CounterVec
	EventSizeBytes          *prometheus.HistogramVec
	EventProcessingDuration *prometheus.HistogramVec
	MessagesTotal           *prometheus.CounterVec
	ConversationEventsTotal *prometheus.CounterVec
	PublishMessageSizeBytes *prometheus.HistogramVec
	PublishRetries          *prometheus.CounterVec
	DLQMessagesTotal        *prometheus.CounterVec
	CircuitBreakerState     *prometheus.CounterVec
)

// InitMetrics initializes metrics with a specific registry
func InitMetrics(reg prometheus.Registerer) error {
	if reg == nil {
		return fmt.Errorf("registry cannot be nil")
	}

	factory := promauto.With(reg)

	GatewayRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentchat_gateway_requests_total",
			Help: "Total number of event requests received",
		},
		[]string{"status", "event_type"},
	)

	GatewayRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentchat_gateway_request_duration_seconds",
			Help:    "Duration of event requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event_type"},
	)

	AuthFailures = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "agentchat_gateway_auth_failures_total",
			Help: "Total number of authentication failures",
		},
	)

	PublishRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentchat_publish_requests_total",
			Help: "Total number of Pub/Sub publish requests",
		},
		[]string{"status", "event_type"},
	)

	PublishDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agentchat_publish_duration_seconds",
			Help:    "Duration of Pub/Sub publish operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RateLimitExceeded = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentchat_rate_limit_exceeded_total",
			Help: "Total number of requests that exceeded rate limits",
		},
		[]string{"type"},
	)

	ErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentchat_errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"},
	)

	EventSizeBytes = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agentchat_event_size_bytes",
			Help: "Size of inbound chat event payloads in bytes",
			Buckets: []float64{
				100, 500, 1000, 5000, 10000, 50000, 100000,
			},
		},
		[]string{"event_type"},
	)

	EventProcessingDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentchat_event_processing_duration_seconds",
			Help:    "Time spent decoding and normalizing chat events",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event_type"},
	)

	MessagesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentchat_messages_total",
			Help: "Total number of chat messages by role and model",
		},
		[]string{"role", "model"},
	)

	ConversationEventsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentchat_conversation_events_total",
			Help: "Total number of conversation lifecycle events",
		},
		[]string{"event", "channel"},
	)

	PublishMessageSizeBytes = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agentchat_publish_message_size_bytes",
			Help: "Size of messages published to Pub/Sub in bytes",
			Buckets: []float64{
				100, 500, 1000, 5000, 10000, 50000, 100000,
			},
		},
		[]string{"event_type"},
	)

	PublishRetries = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentchat_publish_retries_total",
			Help: "Number of Pub/Sub publish retries",
		},
		[]string{"event_type"},
	)

	DLQMessagesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentchat_dlq_messages_total",
			Help: "Number of events routed to the dead letter queue",
		},
		[]string{"event_type", "reason"},
	)

	CircuitBreakerState = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentchat_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)

	return nil
}

// Helper functions for recording metrics

// RecordMessage records a chat message by role and model
func RecordMessage(role, model string) {
	MessagesTotal.WithLabelValues(role, model).Inc()
}

// RecordConversationEvent records a conversation lifecycle event
func RecordConversationEvent(event, channel string) {
	ConversationEventsTotal.WithLabelValues(event, channel).Inc()
}

// RecordEventSize records the size of an inbound event
func RecordEventSize(eventType string, sizeBytes int) {
	EventSizeBytes.WithLabelValues(eventType).Observe(float64(sizeBytes))
}

// RecordPublishMessageSize records the size of a published Pub/Sub message
func RecordPublishMessageSize(eventType string, sizeBytes int) {
	PublishMessageSizeBytes.WithLabelValues(eventType).Observe(float64(sizeBytes))
}

// RecordPublishRetry records a Pub/Sub publish retry attempt
func RecordPublishRetry(eventType string) {
	PublishRetries.WithLabelValues(eventType).Inc()
}

// RecordDLQMessage records an event routed to the dead letter queue
func RecordDLQMessage(eventType, reason string) {
	DLQMessagesTotal.WithLabelValues(eventType, reason).Inc()
}

// RecordCircuitTransition records a circuit breaker state change
func RecordCircuitTransition(from, to string) {
	CircuitBreakerState.WithLabelValues(from, to).Inc()
}

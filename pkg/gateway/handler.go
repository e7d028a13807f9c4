// Package gateway exposes the HTTP ingress for agentchat events: it
// authenticates requests, normalizes payloads, and publishes them to
// Pub/Sub.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentchat/gateway/internal/chat"
	"github.com/agentchat/gateway/internal/errors"
	"github.com/agentchat/gateway/internal/metrics"
	"github.com/agentchat/gateway/internal/publisher"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Status     string      `json:"status"`
	Message    string      `json:"message"`
	ErrorType  string      `json:"error_type"`
	RetryAfter int         `json:"retry_after,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

// Config holds the configuration for the event handler
type Config struct {
	GatewayToken string
	HMACSecret   string
	Publisher    publisher.Publisher
	// DLQ configuration
	DLQPublisher publisher.Publisher // Optional: publisher for dead letter queue
	EnableDLQ    bool                // Whether to enable dead letter queue
}

// Handler handles incoming agentchat events
type Handler struct {
	validator    *chat.Validator
	publisher    publisher.Publisher
	dlqPublisher publisher.Publisher
	enableDLQ    bool
}

// NewHandler creates a new event handler
func NewHandler(cfg Config) *Handler {
	var validator *chat.Validator
	if cfg.HMACSecret != "" {
		validator = chat.NewValidatorWithHMAC(cfg.GatewayToken, cfg.HMACSecret)
	} else {
		validator = chat.NewValidator(cfg.GatewayToken)
	}

	return &Handler{
		validator:    validator,
		publisher:    cfg.Publisher,
		dlqPublisher: cfg.DLQPublisher,
		enableDLQ:    cfg.EnableDLQ,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	eventType := "unknown"

	defer func() {
		metrics.GatewayRequestDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
	}()

	if r.Method != http.MethodPost {
		metrics.ErrorsTotal.WithLabelValues("method_not_allowed").Inc()
		metrics.GatewayRequestsTotal.WithLabelValues("405", eventType).Inc()

		response := ErrorResponse{
			Status:    "error",
			Message:   "Method not allowed, only POST is supported",
			ErrorType: "validation",
			Details: map[string]interface{}{
				"method": r.Method,
				"path":   r.URL.Path,
			},
		}

		h.sendJSONResponse(w, http.StatusMethodNotAllowed, response)
		return
	}

	// Validate token first
	if !h.validator.ValidateToken(r) {
		err := errors.NewAuthError("invalid token")
		metrics.AuthFailures.Inc()
		metrics.ErrorsTotal.WithLabelValues("auth_failure").Inc()
		h.handleError(w, r, err, eventType)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read request body")
		metrics.ErrorsTotal.WithLabelValues("body_read_error").Inc()
		h.handleError(w, r, err, eventType)
		return
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	// Verify the body signature when HMAC is configured
	if !h.validator.ValidateSignature(r, body) {
		err := errors.NewAuthError("invalid signature")
		metrics.AuthFailures.Inc()
		metrics.ErrorsTotal.WithLabelValues("auth_failure").Inc()
		h.handleError(w, r, err, eventType)
		return
	}

	metrics.RecordEventSize("raw", len(body))

	processStart := time.Now()

	var payload chat.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.ErrorsTotal.WithLabelValues("json_decode_error").Inc()
		h.handleError(w, r, errors.NewValidationError("failed to decode payload"), eventType)
		return
	}

	eventType = payload.Event

	metrics.EventProcessingDuration.WithLabelValues(eventType).Observe(time.Since(processStart).Seconds())

	// Handle ping event specially
	if eventType == "ping" {
		metrics.GatewayRequestsTotal.WithLabelValues("200", eventType).Inc()
		h.sendJSONResponse(w, http.StatusOK, map[string]string{
			"status":  "success",
			"message": "Pong! Event received successfully",
		})
		return
	}

	tracer := otel.Tracer("agentchat-gateway")
	ctx, transformSpan := tracer.Start(r.Context(), "transform_event",
		trace.WithAttributes(
			attribute.String("event_type", eventType),
			attribute.String("conversation_id", payload.Conversation.ID),
		))
	envelope, err := chat.Transform(payload)
	transformSpan.End()

	if err != nil {
		transformSpan.RecordError(err)
		err = errors.Wrap(err, "failed to transform event")
		metrics.ErrorsTotal.WithLabelValues("transform_error").Inc()
		h.handleError(w, r, err, eventType)
		return
	}

	// Record chat metrics
	if msg := envelope.Message; msg.ID != "" {
		metrics.RecordMessage(msg.Role, envelope.Agent.Model)
	}
	metrics.RecordConversationEvent(eventType, envelope.Conversation.Channel)

	pubStart := time.Now()

	envelopeJSON, _ := json.Marshal(envelope)
	metrics.RecordPublishMessageSize(eventType, len(envelopeJSON))

	ctx, publishSpan := tracer.Start(ctx, "publish_event",
		trace.WithAttributes(
			attribute.String("event_type", eventType),
			attribute.String("conversation_id", envelope.Conversation.ID),
		))
	defer publishSpan.End()

	// Attributes for Pub/Sub filtering; conversation_id doubles as the
	// ordering key
	pubsubAttributes := map[string]string{
		"origin":                    "agentchat-gateway",
		"event_type":                eventType,
		"channel":                   envelope.Conversation.Channel,
		"model":                     envelope.Agent.Model,
		"role":                      envelope.Message.Role,
		publisher.OrderingAttribute: envelope.Conversation.ID,
	}

	msgID, err := h.publisher.Publish(ctx, envelope, pubsubAttributes)

	metrics.PublishDuration.Observe(time.Since(pubStart).Seconds())

	if err != nil {
		publishSpan.RecordError(err)
		publishSpan.SetStatus(codes.Error, "publish failed")

		h.sendToDLQ(ctx, envelope, pubsubAttributes, err)

		publishErr := errors.NewPublishError("failed to publish message", err)
		metrics.PublishRequestsTotal.WithLabelValues("error", eventType).Inc()
		metrics.ErrorsTotal.WithLabelValues("publish_error").Inc()
		h.handleError(w, r, publishErr, eventType)
		return
	}

	publishSpan.SetAttributes(attribute.String("message_id", msgID))
	publishSpan.SetStatus(codes.Ok, "published successfully")

	metrics.GatewayRequestsTotal.WithLabelValues("200", eventType).Inc()
	metrics.PublishRequestsTotal.WithLabelValues("success", eventType).Inc()

	h.sendJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":     "success",
		"message":    "Event published successfully",
		"message_id": msgID,
		"event_type": eventType,
	})
}

// handleError processes errors and returns appropriate HTTP responses
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, eventType string) {
	metrics.GatewayRequestsTotal.WithLabelValues(h.getStatusCodeForError(err), eventType).Inc()

	response := ErrorResponse{
		Status:  "error",
		Message: errors.Format(err),
	}

	switch {
	case errors.IsAuthError(err):
		response.ErrorType = "auth"
		h.sendJSONResponse(w, http.StatusUnauthorized, response)

	case errors.IsValidationError(err):
		response.ErrorType = "validation"
		h.sendJSONResponse(w, http.StatusBadRequest, response)

	case errors.IsRateLimitError(err):
		response.ErrorType = "rate_limit"
		response.RetryAfter = 60
		h.sendJSONResponse(w, http.StatusTooManyRequests, response)

	case errors.IsConnectionError(err):
		response.ErrorType = "connection"
		response.RetryAfter = 30
		h.sendJSONResponse(w, http.StatusServiceUnavailable, response)

	case errors.IsPublishError(err):
		response.ErrorType = "publish"
		h.sendJSONResponse(w, http.StatusInternalServerError, response)

	default:
		response.ErrorType = "internal"
		h.sendJSONResponse(w, http.StatusInternalServerError, response)
	}
}

// getStatusCodeForError returns an appropriate HTTP status code for an error
func (h *Handler) getStatusCodeForError(err error) string {
	switch {
	case errors.IsAuthError(err):
		return "401"
	case errors.IsValidationError(err):
		return "400"
	case errors.IsRateLimitError(err):
		return "429"
	case errors.IsConnectionError(err):
		return "503"
	case errors.IsPublishError(err):
		return "500"
	default:
		return "500"
	}
}

// sendJSONResponse sends a JSON response with the given status code
func (h *Handler) sendJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		metrics.ErrorsTotal.WithLabelValues("json_encode_error").Inc()
	}
}

// sendToDLQ sends a failed event to the dead letter queue. This is a
// best-effort operation - errors are counted but don't affect the main flow.
func (h *Handler) sendToDLQ(ctx context.Context, data interface{}, originalAttrs map[string]string, failureErr error) {
	if !h.enableDLQ || h.dlqPublisher == nil {
		return
	}

	eventType := originalAttrs["event_type"]
	failureReason := classifyFailureReason(failureErr)

	dlqAttributes := make(map[string]string)
	for k, v := range originalAttrs {
		dlqAttributes[k] = v
	}

	dlqAttributes["dlq_reason"] = failureReason
	dlqAttributes["dlq_original_timestamp"] = time.Now().UTC().Format(time.RFC3339)
	dlqAttributes["dlq_error_message"] = errors.Format(failureErr)

	dlqMessage := map[string]interface{}{
		"original_payload": data,
		"dlq_metadata": map[string]interface{}{
			"failure_reason":      failureReason,
			"error_message":       errors.Format(failureErr),
			"timestamp":           time.Now().UTC(),
			"original_event_type": eventType,
		},
	}

	// Short timeout so a slow DLQ cannot block the request
	dlqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := h.dlqPublisher.Publish(dlqCtx, dlqMessage, dlqAttributes)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("dlq_publish_error").Inc()
		return
	}

	metrics.RecordDLQMessage(eventType, failureReason)
}

// classifyFailureReason returns a short description of why the event failed
func classifyFailureReason(err error) string {
	switch {
	case errors.IsConnectionError(err):
		return "connection_error"
	case errors.IsRateLimitError(err):
		return "rate_limit"
	case errors.IsPublishError(err):
		return "publish_error"
	default:
		return "unknown"
	}
}

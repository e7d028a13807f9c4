// Package publisher delivers normalized chat event envelopes to Google
// Cloud Pub/Sub.
package publisher

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"

	"github.com/agentchat/gateway/internal/errors"
)

// OrderingAttribute names the message attribute used as the Pub/Sub
// ordering key, so events within one conversation arrive in order.
const OrderingAttribute = "conversation_id"

// Publisher defines the interface for publishing messages
type Publisher interface {
	Publish(ctx context.Context, data interface{}, attributes map[string]string) (string, error)
	Close() error
}

// PubSubPublisher implements the Publisher interface for Google Cloud Pub/Sub
type PubSubPublisher struct {
	client  *pubsub.Client
	topic   *pubsub.Topic
	topicID string
}

// NewPubSubPublisher creates a publisher bound to an existing topic.
// Message ordering is enabled so per-conversation ordering keys take effect.
func NewPubSubPublisher(ctx context.Context, projectID, topicID string) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create pubsub client")
	}

	topic := client.Topic(topicID)

	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check topic existence")
	}
	if !exists {
		return nil, errors.NewNotFoundError("topic " + topicID + " does not exist")
	}

	topic.EnableMessageOrdering = true

	return &PubSubPublisher{
		client:  client,
		topic:   topic,
		topicID: topicID,
	}, nil
}

func (p *PubSubPublisher) TopicID() string {
	return p.topicID
}

// Publish publishes a message to Pub/Sub. When the attributes carry a
// conversation ID it is used as the ordering key.
func (p *PubSubPublisher) Publish(ctx context.Context, data interface{}, attributes map[string]string) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal event")
	}

	msg := &pubsub.Message{
		Data:       jsonData,
		Attributes: attributes,
	}
	if key, ok := attributes[OrderingAttribute]; ok && key != "" {
		msg.OrderingKey = key
	}

	result := p.topic.Publish(ctx, msg)
	msgID, err := result.Get(ctx)
	if err != nil {
		// Ordering pauses the key after a failure until resumed
		if msg.OrderingKey != "" {
			p.topic.ResumePublish(msg.OrderingKey)
		}
		return "", errors.NewPublishError("failed to publish message", err)
	}

	return msgID, nil
}

// Close closes the publisher and its connections
func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

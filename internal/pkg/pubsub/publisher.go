// Package pubsub publishes payment notifications for downstream
// consumers (customer messaging, accounting export).
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"collectionsync/internal/pkg/config"
	"collectionsync/internal/pkg/logger"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// TopicPublisherInterface is the slice of the Pub/Sub topic API the
// publisher needs; satisfied by *pubsub.Topic.
type TopicPublisherInterface interface {
	Publish(ctx context.Context, msg *pubsub.Message) PublishResultInterface
}

// PublishResultInterface mirrors *pubsub.PublishResult.
type PublishResultInterface interface {
	Get(ctx context.Context) (string, error)
}

type topicAdapter struct {
	topic *pubsub.Topic
}

func (a *topicAdapter) Publish(ctx context.Context, msg *pubsub.Message) PublishResultInterface {
	return a.topic.Publish(ctx, msg)
}

// PubSubPublisher publishes JSON messages to one topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	topic     TopicPublisherInterface
	topicName string
}

func NewPubSubPublisher(ctx context.Context, cfg config.PubSubConfig, opts ...option.ClientOption) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	return &PubSubPublisher{
		client:    client,
		topic:     &topicAdapter{topic: client.Topic(cfg.NotificationTopic)},
		topicName: cfg.NotificationTopic,
	}, nil
}

func NewPubSubPublisherWithTopic(topic TopicPublisherInterface, topicName string) *PubSubPublisher {
	return &PubSubPublisher{topic: topic, topicName: topicName}
}

// PublishMessage marshals the message and waits for the server-assigned
// message id.
func (p *PubSubPublisher) PublishMessage(ctx context.Context, message any) (string, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshaling pubsub message: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data})
	messageID, err := result.Get(ctx)
	if err != nil {
		logger.CtxError(ctx, "Failed to publish pubsub message", err,
			slog.String("topic", p.topicName))
		return "", err
	}

	logger.CtxDebug(ctx, "Pubsub message published",
		slog.String("topic", p.topicName),
		slog.String("message_id", messageID))
	return messageID, nil
}

// Close releases the underlying client.
func (p *PubSubPublisher) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

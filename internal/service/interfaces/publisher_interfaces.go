package interfaces

import "context"

// PubSubPublisherInterface publishes payment notifications after a
// reconciliation commits.
type PubSubPublisherInterface interface {
	PublishMessage(ctx context.Context, message any) (string, error)
}

// KafkaPublisherInterface publishes parked events to the manual-review
// topic.
type KafkaPublisherInterface interface {
	Publish(ctx context.Context, key string, message any) error
}

package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"collectionsync/internal/pkg/models"

	"cloud.google.com/go/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResult struct {
	id  string
	err error
}

func (r *fakeResult) Get(ctx context.Context) (string, error) {
	return r.id, r.err
}

type fakeTopic struct {
	published []*pubsub.Message
	result    *fakeResult
}

func (t *fakeTopic) Publish(ctx context.Context, msg *pubsub.Message) PublishResultInterface {
	t.published = append(t.published, msg)
	return t.result
}

func TestPublishMessage(t *testing.T) {
	topic := &fakeTopic{result: &fakeResult{id: "msg-42"}}
	publisher := NewPubSubPublisherWithTopic(topic, "payment-notifications")

	notification := models.PaymentNotification{
		ProposalID:        "p-1",
		InstallmentNumber: 3,
		ExternalID:        "ext-1",
		AmountPaidCents:   10000,
		PaidAt:            time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		ReceivedVia:       "PIX",
	}

	id, err := publisher.PublishMessage(context.Background(), notification)

	require.NoError(t, err)
	assert.Equal(t, "msg-42", id)
	require.Len(t, topic.published, 1)

	var decoded models.PaymentNotification
	require.NoError(t, json.Unmarshal(topic.published[0].Data, &decoded))
	assert.Equal(t, "p-1", decoded.ProposalID)
	assert.Equal(t, int64(10000), decoded.AmountPaidCents)
}

func TestPublishMessageError(t *testing.T) {
	topic := &fakeTopic{result: &fakeResult{err: errors.New("topic not found")}}
	publisher := NewPubSubPublisherWithTopic(topic, "payment-notifications")

	_, err := publisher.PublishMessage(context.Background(), map[string]string{"k": "v"})
	assert.Error(t, err)
}

func TestPublishMessageMarshalError(t *testing.T) {
	topic := &fakeTopic{result: &fakeResult{id: "unused"}}
	publisher := NewPubSubPublisherWithTopic(topic, "payment-notifications")

	_, err := publisher.PublishMessage(context.Background(), func() {})
	assert.Error(t, err)
	assert.Empty(t, topic.published)
}

package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"collectionsync/internal/pkg/models"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProducer is a function-backed ProducerInterface for tests.
type MockProducer struct {
	ProduceFunc func(msg *kafka.Message, deliveryChan chan kafka.Event) error
	FlushFunc   func(timeoutMs int) int
	CloseFunc   func()
}

func (m *MockProducer) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	if m.ProduceFunc != nil {
		return m.ProduceFunc(msg, deliveryChan)
	}
	return nil
}

func (m *MockProducer) Flush(timeoutMs int) int {
	if m.FlushFunc != nil {
		return m.FlushFunc(timeoutMs)
	}
	return 0
}

func (m *MockProducer) Close() {
	if m.CloseFunc != nil {
		m.CloseFunc()
	}
}

func deliverOK(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	go func() { deliveryChan <- msg }()
	return nil
}

func TestPublishDeliversKeyedJSON(t *testing.T) {
	var produced *kafka.Message

	mock := &MockProducer{
		ProduceFunc: func(msg *kafka.Message, deliveryChan chan kafka.Event) error {
			produced = msg
			return deliverOK(msg, deliveryChan)
		},
	}
	kp := NewKafkaProducerWithInterface(mock, "parked-events")

	parked := models.ParkedEventMessage{
		EventID:    "evt-1",
		ExternalID: "ext-1",
		Reason:     "orphan",
		Status:     "RECEIVED",
		OccurredAt: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
	}

	err := kp.Publish(context.Background(), "ext-1", parked)
	require.NoError(t, err)

	require.NotNil(t, produced)
	assert.Equal(t, "parked-events", *produced.TopicPartition.Topic)
	assert.Equal(t, []byte("ext-1"), produced.Key)

	var decoded models.ParkedEventMessage
	require.NoError(t, json.Unmarshal(produced.Value, &decoded))
	assert.Equal(t, "orphan", decoded.Reason)
}

func TestPublishProduceError(t *testing.T) {
	mock := &MockProducer{
		ProduceFunc: func(msg *kafka.Message, deliveryChan chan kafka.Event) error {
			return errors.New("queue full")
		},
	}
	kp := NewKafkaProducerWithInterface(mock, "parked-events")

	err := kp.Publish(context.Background(), "ext-1", map[string]string{"a": "b"})
	assert.Error(t, err)
}

func TestPublishDeliveryFailure(t *testing.T) {
	mock := &MockProducer{
		ProduceFunc: func(msg *kafka.Message, deliveryChan chan kafka.Event) error {
			failed := *msg
			failed.TopicPartition.Error = errors.New("broker rejected")
			go func() { deliveryChan <- &failed }()
			return nil
		},
	}
	kp := NewKafkaProducerWithInterface(mock, "parked-events")

	err := kp.Publish(context.Background(), "ext-1", map[string]string{"a": "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivery failed")
}

func TestCloseFlushes(t *testing.T) {
	flushed := false
	closed := false
	mock := &MockProducer{
		FlushFunc: func(timeoutMs int) int {
			flushed = true
			return 0
		},
		CloseFunc: func() { closed = true },
	}
	kp := NewKafkaProducerWithInterface(mock, "parked-events")

	require.NoError(t, kp.Close())
	assert.True(t, flushed)
	assert.True(t, closed)
}

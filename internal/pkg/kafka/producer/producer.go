// Package producer publishes parked reconciliation events to the
// manual-review Kafka topic.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"collectionsync/internal/pkg/config"
	"collectionsync/internal/pkg/logger"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// ProducerInterface covers the confluent producer operations we use.
type ProducerInterface interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

type KafkaProducer struct {
	producer       ProducerInterface
	topic          string
	flushTimeoutMs int
}

func NewKafkaProducer(cfg config.KafkaConfig) (*KafkaProducer, error) {
	kafkaConfig := &kafka.ConfigMap{
		"bootstrap.servers": cfg.Server,
		"security.protocol": cfg.SecurityProtocol,
		"sasl.mechanisms":   cfg.SASLMechanism,
		"sasl.username":     cfg.SASLUsername,
		"sasl.password":     cfg.SASLPassword,
		"client.id":         cfg.ClientID,
	}

	producer, err := kafka.NewProducer(kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	flushTimeout := cfg.FlushTimeoutMs
	if flushTimeout <= 0 {
		flushTimeout = 5000
	}

	return &KafkaProducer{
		producer:       producer,
		topic:          cfg.ParkedEventsTopic,
		flushTimeoutMs: flushTimeout,
	}, nil
}

func NewKafkaProducerWithInterface(producer ProducerInterface, topic string) *KafkaProducer {
	return &KafkaProducer{producer: producer, topic: topic, flushTimeoutMs: 5000}
}

// Publish marshals the message and waits for the broker's delivery
// report. Messages are keyed so all events for one collection land on
// the same partition.
func (kp *KafkaProducer) Publish(ctx context.Context, key string, message any) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling kafka message: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)
	defer close(deliveryChan)

	err = kp.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &kp.topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          payload,
	}, deliveryChan)
	if err != nil {
		logger.CtxError(ctx, "Failed to produce Kafka message", err,
			slog.String("topic", kp.topic),
			slog.String("key", key))
		return err
	}

	select {
	case ev := <-deliveryChan:
		m, ok := ev.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected kafka event type %T", ev)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("kafka delivery failed: %w", m.TopicPartition.Error)
		}
	case <-time.After(10 * time.Second):
		return fmt.Errorf("timeout waiting for kafka delivery report")
	case <-ctx.Done():
		return ctx.Err()
	}

	logger.CtxDebug(ctx, "Kafka message delivered",
		slog.String("topic", kp.topic),
		slog.String("key", key))
	return nil
}

// Close flushes outstanding messages and releases the producer.
func (kp *KafkaProducer) Close() error {
	kp.producer.Flush(kp.flushTimeoutMs)
	kp.producer.Close()
	return nil
}

package publish

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/okian/talentboard/internal/domain/model"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes changes to a Kafka topic keyed by record id, so all
// changes to one assessment land on the same partition in order.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.Hash{},
	})
	return &KafkaPublisher{writer: w, topic: topic}
}

// Message builds the Kafka message for c.
func Message(c model.Change) (kafka.Message, error) {
	value, err := Encode(c)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(c.Key()),
		Value: value,
		Time:  c.At,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(c.Kind)},
		},
	}, nil
}

// Publish writes c to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, c model.Change) error {
	msg, err := Message(c)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: topic %s: %w", ErrPublish, p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

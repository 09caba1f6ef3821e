package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/image-converter/internal/config"
	"github.com/aliskhannn/image-converter/internal/model"
)

// Producer represents a Kafka producer bound to one topic.
type Producer struct {
	Client   *wbfkafka.Producer
	strategy retry.Strategy
	topic    config.Topic
}

// New creates a new Producer.
// - brokers: Kafka broker addresses
// - topic: destination topic
// - s: retry strategy
func New(
	brokers []string,
	topic config.Topic,
	s retry.Strategy,
) *Producer {
	producer := wbfkafka.NewProducer(brokers, topic.Topic)

	return &Producer{
		Client:   producer,
		topic:    topic,
		strategy: s,
	}
}

// Produce serializes v to JSON and sends it to Kafka under key.
func (p *Producer) Produce(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err = p.Client.SendWithRetry(ctx, p.strategy, []byte(key), data); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", p.topic.Topic, err)
	}

	return nil
}

// Enqueue sends a menu click to the click queue.
// The click ID is used as the message key for partitioning.
func (p *Producer) Enqueue(ctx context.Context, click model.Click) error {
	return p.Produce(ctx, click.ID.String(), click)
}

// Publish sends a settings change to the settings feed.
func (p *Producer) Publish(ctx context.Context, changes model.Values) error {
	return p.Produce(ctx, uuid.NewString(), changes)
}

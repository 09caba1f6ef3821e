package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-converter/internal/config"
)

// fetchBackoff is the pause after a failed fetch before trying again.
const fetchBackoff = 500 * time.Millisecond

// handler defines the interface for handling messages from a topic.
type handler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// Consumer represents a Kafka consumer along with its topic
// and the handler that processes its messages.
type Consumer struct {
	Client   *wbfkafka.Consumer
	handler  handler
	topic    config.Topic
	strategy retry.Strategy
}

// New creates a new Consumer.
// - brokers: Kafka broker addresses
// - topic: topic and consumer group
// - s: retry strategy
// - h: handler for the topic's messages
func New(
	brokers []string,
	topic config.Topic,
	s retry.Strategy,
	h handler,
) *Consumer {
	consumer := wbfkafka.NewConsumer(brokers, topic.Topic, topic.GroupID)

	return &Consumer{
		Client:   consumer,
		handler:  h,
		topic:    topic,
		strategy: s,
	}
}

// Consume continuously fetches messages from Kafka, processes them using the handler,
// and commits offsets after processing. It stops gracefully on context cancellation.
//
// Handler failures are logged and committed: a failed conversion is terminal.
func (c *Consumer) Consume(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	zlog.Logger.Info().
		Str("topic", c.topic.Topic).
		Str("group_id", c.topic.GroupID).
		Msg("starting consumer")

	for {
		// Exit if context is canceled (graceful shutdown).
		if ctx.Err() != nil {
			zlog.Logger.Info().Str("topic", c.topic.Topic).Msg("shutdown signal received, stopping consumer")
			return
		}

		// Fetch a message from Kafka with retries.
		var msg kafka.Message
		err := retry.Do(func() error {
			var fetchErr error
			msg, fetchErr = c.Client.Fetch(ctx)
			return fetchErr
		}, c.strategy)

		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			// Log error and retry after a short backoff.
			zlog.Logger.Err(err).Str("topic", c.topic.Topic).Msg("failed to fetch message")
			time.Sleep(fetchBackoff)
			continue
		}

		if err := c.handler.Handle(ctx, msg); err != nil {
			zlog.Logger.Err(err).
				Str("topic", c.topic.Topic).
				Str("message", string(msg.Value)).
				Msg("failed to handle message")
		}

		// Commit the message with retries.
		err = retry.Do(func() error {
			return c.Client.Commit(ctx, msg)
		}, c.strategy)
		if err != nil {
			zlog.Logger.Err(err).Msg("failed to commit message after retries")
			continue
		}

		zlog.Logger.Debug().
			Str("topic", c.topic.Topic).
			Int64("offset", msg.Offset).
			Msg("message committed")
	}
}

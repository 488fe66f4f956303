package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// ErrRejected marks an event that can never be processed. Rejected events are
// acked and dropped instead of being redelivered.
var ErrRejected = errors.New("event rejected")

// Reject wraps err so the consumer drops the event.
func Reject(err error) error {
	return fmt.Errorf("%w: %w", ErrRejected, err)
}

// Handler processes a single event. Returning an error wrapped with Reject drops
// the event; any other error asks the broker to redeliver it.
type Handler[T any] func(ctx context.Context, event *T) error

// ConsumerStats counts the outcomes of handled messages.
type ConsumerStats struct {
	Processed int64
	Rejected  int64
	Failed    int64
}

// Consumer subscribes to a topic and feeds its events to a typed handler.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	eventType  string
	handler    Handler[T]
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}

	processed atomic.Int64
	rejected  atomic.Int64
	failed    atomic.Int64
}

// NewConsumer creates a consumer of T events published on topic by NewPublishFunc.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
) *Consumer[T] {
	eventType := eventTypeOf[T]()

	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		eventType:  eventType,
		handler:    handler,
		logger:     logger.With(zap.String("topic", topic), zap.String("event_type", eventType)),
		done:       make(chan struct{}),
	}
}

// Topic returns the topic this consumer subscribes to.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Stats returns the outcome counters since the consumer was created.
func (c *Consumer[T]) Stats() ConsumerStats {
	return ConsumerStats{
		Processed: c.processed.Load(),
		Rejected:  c.rejected.Load(),
		Failed:    c.failed.Load(),
	}
}

// Start subscribes to the topic and handles messages in the background.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		c.cancel()
		close(c.done)

		return fmt.Errorf("subscribe to %s: %w", c.topic, err)
	}

	go c.consumeLoop(ctx, msgs)

	return nil
}

func (c *Consumer[T]) consumeLoop(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			c.handleMessage(ctx, msg)
		}
	}
}

func (c *Consumer[T]) handleMessage(ctx context.Context, msg *message.Message) {
	err := c.process(ctx, msg)

	switch {
	case err == nil:
		c.processed.Add(1)
		msg.Ack()
		c.logger.Debug("processed event", zap.String("message_id", msg.UUID))
	case errors.Is(err, ErrRejected):
		c.rejected.Add(1)
		msg.Ack()
		c.logger.Warn("dropped event", zap.String("message_id", msg.UUID), zap.Error(err))
	default:
		c.failed.Add(1)
		msg.Nack()
		c.logger.Error("failed to handle event", zap.String("message_id", msg.UUID), zap.Error(err))
	}
}

// process decodes msg and runs the handler. Payloads of another event type or
// that do not decode are rejected since redelivery cannot fix them.
func (c *Consumer[T]) process(ctx context.Context, msg *message.Message) error {
	if got := msg.Metadata.Get(MetadataEventType); got != "" && got != c.eventType {
		return Reject(fmt.Errorf("unexpected event type %q", got))
	}

	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return Reject(fmt.Errorf("decode %s: %w", c.eventType, err))
	}

	return c.handler(ctx, &event)
}

// Shutdown stops the consumer and waits for the in-flight message.
// A consumer that was never started returns immediately.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}

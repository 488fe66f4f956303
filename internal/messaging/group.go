package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

var errGroupStarted = errors.New("consumer group already started")

// Runnable represents a component that can be started and shutdown.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// topicConsumer is implemented by consumers that report their topic and outcomes.
type topicConsumer interface {
	Topic() string
	Stats() ConsumerStats
}

// ConsumerGroup runs the consumers sharing one subscriber and closes it when
// they stop.
type ConsumerGroup struct {
	consumers  []Runnable
	subscriber message.Subscriber
	logger     *zap.Logger

	mu           sync.Mutex
	started      bool
	shutdownOnce sync.Once
	shutdownErr  error
}

// NewConsumerGroup creates a new consumer group.
func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a consumer to the group.
func (g *ConsumerGroup) Add(consumer Runnable) {
	g.consumers = append(g.consumers, consumer)
}

// Topics returns the topics of the registered consumers.
func (g *ConsumerGroup) Topics() []string {
	var topics []string

	for _, consumer := range g.consumers {
		if tc, ok := consumer.(topicConsumer); ok {
			topics = append(topics, tc.Topic())
		}
	}

	return topics
}

// Start starts all consumers. If one fails, those already started are stopped.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return errGroupStarted
	}

	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.consumers[j].Shutdown()
			}

			return fmt.Errorf("start consumer %d: %w", i, err)
		}
	}

	g.started = true

	g.logger.Info("consumer group started",
		zap.Int("count", len(g.consumers)),
		zap.Strings("topics", g.Topics()),
	)

	return nil
}

// Run starts the group, blocks until ctx is done and shuts the group down.
func (g *ConsumerGroup) Run(ctx context.Context) error {
	if err := g.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	return g.Shutdown()
}

// Shutdown stops every consumer and closes the subscriber. Later calls return
// the result of the first.
func (g *ConsumerGroup) Shutdown() error {
	g.shutdownOnce.Do(func() {
		g.logger.Info("shutting down consumer group")

		var errs []error

		for _, consumer := range g.consumers {
			if err := consumer.Shutdown(); err != nil {
				errs = append(errs, err)
			}

			if tc, ok := consumer.(topicConsumer); ok {
				stats := tc.Stats()
				g.logger.Info("consumer stopped",
					zap.String("topic", tc.Topic()),
					zap.Int64("processed", stats.Processed),
					zap.Int64("rejected", stats.Rejected),
					zap.Int64("failed", stats.Failed),
				)
			}
		}

		if err := g.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}

		g.shutdownErr = errors.Join(errs...)
	})

	return g.shutdownErr
}

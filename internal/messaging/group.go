package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is a consumer the group can start and stop.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

type topicNamer interface {
	Topic() string
}

// ConsumerGroup starts its consumers together and, on shutdown, stops them
// before closing the subscriber they share.
type ConsumerGroup struct {
	subscriber message.Subscriber
	logger     *zap.Logger

	mu        sync.Mutex
	consumers []Runnable
	started   int
}

func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{subscriber: subscriber, logger: logger}
}

func (g *ConsumerGroup) Add(consumer Runnable) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.consumers = append(g.consumers, consumer)
}

// Topics lists the topics of the registered consumers, in registration order.
func (g *ConsumerGroup) Topics() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var topics []string

	for _, c := range g.consumers {
		if n, ok := c.(topicNamer); ok {
			topics = append(topics, n.Topic())
		}
	}

	return topics
}

// Start starts every consumer. If one fails, those already running are
// stopped again and the group is left idle.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, consumer := range g.consumers[g.started:] {
		if err := consumer.Start(ctx); err != nil {
			g.stopLocked()

			return fmt.Errorf("start consumer %d: %w", i, err)
		}

		g.started++
	}

	g.logger.Info("consumer group started", zap.Int("count", g.started))

	return nil
}

func (g *ConsumerGroup) stopLocked() error {
	var errs []error

	for i := g.started - 1; i >= 0; i-- {
		if err := g.consumers[i].Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	g.started = 0

	return errors.Join(errs...)
}

// Shutdown stops the running consumers, then closes the subscriber. Every step
// runs even if an earlier one fails; all errors are returned joined.
func (g *ConsumerGroup) Shutdown() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("shutting down consumer group")

	errs := []error{g.stopLocked()}

	if err := g.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}

	return errors.Join(errs...)
}

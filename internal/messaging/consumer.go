package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Handler processes one decoded event.
type Handler[T any] func(ctx context.Context, event *T) error

type consumerSettings struct {
	retries uint64
	backoff time.Duration
}

// ConsumerOption tunes how a Consumer retries its handler.
type ConsumerOption func(*consumerSettings)

// WithHandlerRetries retries a failing handler n times, backoff apart, before
// the event is dropped.
func WithHandlerRetries(n uint64, backoff time.Duration) ConsumerOption {
	return func(s *consumerSettings) {
		s.retries = n
		s.backoff = backoff
	}
}

// Consumer decodes the events of one topic and feeds them to a handler.
//
// Events that cannot be decoded, or that still fail after the retries, are
// acked and logged: redelivering them would only repeat the failure. Events
// interrupted by shutdown are nacked so the broker can hand them out again.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      Topic[T]
	handler    Handler[T]
	logger     *zap.Logger
	settings   consumerSettings

	cancel context.CancelFunc
	done   chan struct{}
}

func NewConsumer[T any](
	subscriber message.Subscriber,
	topic Topic[T],
	handler Handler[T],
	logger *zap.Logger,
	opts ...ConsumerOption,
) *Consumer[T] {
	settings := consumerSettings{retries: 2, backoff: 50 * time.Millisecond}
	for _, opt := range opts {
		opt(&settings)
	}

	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger.With(zap.String("topic", topic.String())),
		settings:   settings,
	}
}

func (c *Consumer[T]) Topic() string {
	return c.topic.String()
}

func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic.String())
	if err != nil {
		cancel()

		return err
	}

	c.cancel = cancel
	c.done = make(chan struct{})

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
	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Error("dropping undecodable event",
			zap.String("message", msg.UUID),
			zap.Error(err),
		)
		msg.Ack()

		return
	}

	b := retry.WithMaxRetries(c.settings.retries, retry.NewConstant(max(c.settings.backoff, time.Millisecond)))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		return retry.RetryableError(c.handler(ctx, &event))
	})

	switch {
	case err == nil:
		msg.Ack()
		c.logger.Debug("processed event", zap.String("message", msg.UUID))
	case ctx.Err() != nil:
		msg.Nack()
	default:
		c.logger.Error("dropping event after retries",
			zap.String("message", msg.UUID),
			zap.Uint64("retries", c.settings.retries),
			zap.Error(err),
		)
		msg.Ack()
	}
}

// Shutdown stops consuming and waits for the in-flight event. It is a no-op
// for a consumer that never started.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}

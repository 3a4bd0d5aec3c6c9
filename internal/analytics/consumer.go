package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/podpulse/internal/messaging"
	"go.uber.org/zap"
)

// NewCreatedConsumer feeds smartlink.created events into store.
func NewCreatedConsumer(
	subscriber message.Subscriber,
	store Store,
	logger *zap.Logger,
) *messaging.Consumer[LinkCreatedEvent] {
	return messaging.NewConsumer(subscriber, TopicLinkCreated, store.SaveLinkCreated, logger)
}

// NewClickedConsumer feeds smartlink.clicked events into store.
func NewClickedConsumer(
	subscriber message.Subscriber,
	store Store,
	logger *zap.Logger,
) *messaging.Consumer[LinkClickedEvent] {
	return messaging.NewConsumer(subscriber, TopicLinkClicked, store.SaveLinkClicked, logger)
}

// Register adds both analytics consumers to group.
func Register(group *messaging.ConsumerGroup, subscriber message.Subscriber, store Store, logger *zap.Logger) {
	group.Add(NewCreatedConsumer(subscriber, store, logger))
	group.Add(NewClickedConsumer(subscriber, store, logger))
}

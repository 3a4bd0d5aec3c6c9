package messaging

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Message metadata keys set on every published event.
const (
	MetadataTopic       = "topic"
	MetadataPublishedAt = "published_at"
)

// Topic names a stream and fixes the event type carried on it, so a publisher
// and a consumer of the same topic cannot disagree on the payload.
type Topic[T any] string

func (t Topic[T]) String() string {
	return string(t)
}

// Publish sends one typed event. Callers log failures; a lost analytics event
// never fails the request that produced it.
type Publish[T any] func(event *T) error

// NewPublishFunc binds publisher to topic.
func NewPublishFunc[T any](publisher message.Publisher, topic Topic[T]) Publish[T] {
	return func(event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", topic, err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set(MetadataTopic, topic.String())
		msg.Metadata.Set(MetadataPublishedAt, time.Now().UTC().Format(time.RFC3339Nano))

		if err := publisher.Publish(topic.String(), msg); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}

		return nil
	}
}

// PublisherGroup owns the publisher for the injector. The gochannel backend
// shares one instance with the consumer group, so Close runs at most once.
type PublisherGroup struct {
	publisher message.Publisher
	once      sync.Once
	err       error
}

func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

func (g *PublisherGroup) Shutdown() error {
	g.once.Do(func() { g.err = g.publisher.Close() })

	return g.err
}

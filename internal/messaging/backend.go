package messaging

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// Backend selects the transport behind publishers and subscribers.
type Backend string

const (
	// BackendRedis uses Redis streams; the consumer runs as a separate process.
	BackendRedis Backend = "redis"
	// BackendGoChannel keeps events in-process; the consumer group runs inside the server.
	BackendGoChannel Backend = "gochannel"
	// BackendNone discards every event.
	BackendNone Backend = "none"
)

// ConsumerGroupName is the Redis stream consumer group shared by analytics consumers.
const ConsumerGroupName = "analytics"

// NewRedisPublisher creates a Redis stream publisher.
func NewRedisPublisher(client redis.UniversalClient, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return redisstream.NewPublisher(redisstream.PublisherConfig{
		Client:     client,
		Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
	}, logger)
}

// NewRedisSubscriber creates a Redis stream subscriber in the analytics consumer group.
func NewRedisSubscriber(client redis.UniversalClient, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
		ConsumerGroup: ConsumerGroupName,
	}, logger)
}

// NewGoChannel creates an in-process pub/sub usable as both publisher and subscriber.
func NewGoChannel(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
}

// Discard is a publisher that drops every message.
type Discard struct{}

func (Discard) Publish(string, ...*message.Message) error { return nil }

func (Discard) Close() error { return nil }

// ParseBackend validates a configured backend name.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(name); b {
	case BackendRedis, BackendGoChannel, BackendNone:
		return b, nil
	default:
		return "", fmt.Errorf("unknown events backend %q", name)
	}
}

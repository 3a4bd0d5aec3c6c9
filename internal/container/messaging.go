package container

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/podpulse/internal/analytics"
	analyticsstore "github.com/serroba/podpulse/internal/analytics/store"
	"github.com/serroba/podpulse/internal/messaging"
	"go.uber.org/zap"
)

var errNoConsumers = errors.New("events backend none has no consumers")

func backend(i *do.Injector) messaging.Backend {
	b, err := messaging.ParseBackend(options(i).Events)
	if err != nil {
		return messaging.BackendNone
	}

	return b
}

// EventsPackage provides the in-process channel shared by publishers and
// consumers on the gochannel backend.
func EventsPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*gochannel.GoChannel, error) {
		return messaging.NewGoChannel(messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i))), nil
	})
}

// PublisherGroupPackage provides the event publisher and the typed publish
// funcs for the analytics topics.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		logger := messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i))

		var (
			publisher message.Publisher
			err       error
		)

		switch backend(i) {
		case messaging.BackendRedis:
			publisher, err = messaging.NewRedisPublisher(do.MustInvoke[redis.UniversalClient](i), logger)
			if err != nil {
				return nil, err
			}
		case messaging.BackendGoChannel:
			publisher = do.MustInvoke[*gochannel.GoChannel](i)
		default:
			publisher = messaging.Discard{}
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[analytics.LinkCreatedEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc(group.Publisher(), analytics.TopicLinkCreated), nil
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[analytics.LinkClickedEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc(group.Publisher(), analytics.TopicLinkClicked), nil
	})
}

// ConsumerGroupPackage provides the analytics consumer group. With the
// gochannel backend it shares the server's in-process channel.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (analytics.Store, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		if options(i).AnalyticsStore == AnalyticsRedis {
			return analyticsstore.NewRedisCounters(do.MustInvoke[redis.UniversalClient](i)), nil
		}

		return analyticsstore.NewNoop(logger), nil
	})

	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		var (
			subscriber message.Subscriber
			err        error
		)

		switch backend(i) {
		case messaging.BackendRedis:
			subscriber, err = messaging.NewRedisSubscriber(do.MustInvoke[redis.UniversalClient](i), messaging.NewZapLogger(logger))
			if err != nil {
				return nil, err
			}
		case messaging.BackendGoChannel:
			subscriber = do.MustInvoke[*gochannel.GoChannel](i)
		default:
			return nil, errNoConsumers
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		analytics.Register(group, subscriber, do.MustInvoke[analytics.Store](i), logger)

		return group, nil
	})
}

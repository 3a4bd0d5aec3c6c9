package main

import (
	"context"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/serroba/podpulse/internal/container"
	"github.com/serroba/podpulse/internal/messaging"
	"go.uber.org/zap"
)

// The consumer reads SmartLink events from Redis Streams and folds them
// into the analytics store. It shares the server's flags and SERVICE_*
// variables but always subscribes through Redis.
func main() {
	_ = godotenv.Load(".env.local", ".env")

	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		options.Events = string(messaging.BackendRedis)
		if options.AnalyticsStore == container.AnalyticsNoop {
			options.AnalyticsStore = container.AnalyticsRedis
		}

		injector := do.New()
		do.ProvideValue(injector, options)
		container.LoggerPackage(injector)
		container.RedisPackage(injector)
		container.EventsPackage(injector)
		container.ConsumerGroupPackage(injector)

		logger := do.MustInvoke[*zap.Logger](injector)
		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			if err := options.Validate(); err != nil {
				logger.Fatal("invalid configuration", zap.Error(err))
			}

			group := do.MustInvoke[*messaging.ConsumerGroup](injector)
			if err := group.Start(ctx); err != nil {
				logger.Fatal("failed to start consumer group", zap.Error(err))
			}

			logger.Info("consumer running",
				zap.String("redis", options.RedisAddr),
				zap.String("analytics", options.AnalyticsStore),
				zap.Strings("topics", group.Topics()),
			)

			<-ctx.Done()
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")
			cancel()

			if err := injector.Shutdown(); err != nil {
				logger.Error("shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
			_ = logger.Sync()
		})
	})

	cli.Run()
}

package container

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/podpulse/internal/auth"
	"github.com/serroba/podpulse/internal/insights"
	"github.com/serroba/podpulse/internal/metrics"
	"github.com/serroba/podpulse/internal/ratelimit"
	"github.com/serroba/podpulse/internal/sentiment"
	"github.com/serroba/podpulse/internal/spotify"
	"github.com/serroba/podpulse/internal/store"
	"github.com/serroba/podpulse/internal/upstream"
	"go.uber.org/zap"
)

// MetricsPackage provides the Prometheus registry and collectors.
func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})
}

func upstreamClient(i *do.Injector, service string) *upstream.Client {
	return upstream.NewClient(service, do.MustInvoke[*zap.Logger](i),
		upstream.WithHTTPClient(&http.Client{Timeout: options(i).Timeout()}),
		upstream.WithObserver(do.MustInvoke[*metrics.Metrics](i).ObserveUpstream),
	)
}

// ServicesPackage provides the third-party API clients and the session issuer.
func ServicesPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*spotify.Client, error) {
		opts := options(i)

		return spotify.New(spotify.Config{
			ClientID:     opts.SpotifyClientID,
			ClientSecret: opts.SpotifyClientSecret,
			RedirectURI:  opts.SpotifyRedirectURI,
		}, upstreamClient(i, spotify.ServiceName)), nil
	})

	do.Provide(i, func(i *do.Injector) (*insights.Fallback, error) {
		opts := options(i)
		logger := do.MustInvoke[*zap.Logger](i)

		var gen insights.Generator

		switch {
		case opts.InsightsProvider == InsightsOpenAI && opts.OpenAIKey != "":
			gen = insights.NewOpenAI(opts.OpenAIKey, "", upstreamClient(i, insights.OpenAIService).HTTPClient())
		case opts.InsightsProvider == InsightsHuggingFace && opts.HuggingFaceKey != "":
			gen = do.MustInvoke[*insights.HuggingFace](i)
		default:
			logger.Info("insights generation disabled, serving static insights",
				zap.String("provider", opts.InsightsProvider))
		}

		return insights.WithFallback(gen, insights.Static, logger), nil
	})

	do.Provide(i, func(i *do.Injector) (*insights.HuggingFace, error) {
		opts := options(i)

		return insights.NewHuggingFace(
			upstreamClient(i, insights.HuggingFaceService),
			opts.HuggingFaceKey,
			opts.HuggingFaceModelURL,
			opts.HuggingFaceSummaryURL,
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*sentiment.Twitter, error) {
		return sentiment.NewTwitter(upstreamClient(i, sentiment.ServiceName), options(i).TwitterBearerToken, ""), nil
	})

	do.Provide(i, func(i *do.Injector) (*auth.Issuer, error) {
		opts := options(i)
		if opts.JWTSecret == "" {
			do.MustInvoke[*zap.Logger](i).Warn("no session secret configured, login is disabled")
		}

		return auth.NewIssuer(opts.JWTSecret, time.Duration(opts.SessionTTL)*time.Hour), nil
	})
}

// summarizer is nil when no Hugging Face key is configured.
func summarizer(i *do.Injector) insights.Summarizer {
	if options(i).HuggingFaceKey == "" {
		return nil
	}

	return do.MustInvoke[*insights.HuggingFace](i)
}

// RateLimitPackage provides the policy limiter over the configured counter store.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		opts := options(i)

		var counters ratelimit.Store = store.NewRateLimitMemoryStore()
		if opts.RateLimitStore == StoreRedis {
			counters = store.NewRateLimitRedisStore(do.MustInvoke[redis.UniversalClient](i))
		}

		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeRead, int64(opts.ReadPerMinute), time.Minute).
			AddLimit(ratelimit.ScopeWrite, int64(opts.WritePerMinute), time.Minute).
			Build()

		return ratelimit.NewPolicyLimiter(counters, policy), nil
	})

	do.Provide(i, func(i *do.Injector) (ratelimit.ScopeResolver, error) {
		return ratelimit.NewOperationScopeResolver(), nil
	})
}

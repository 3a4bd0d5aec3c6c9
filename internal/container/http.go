package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/podpulse/internal/analytics"
	"github.com/serroba/podpulse/internal/auth"
	"github.com/serroba/podpulse/internal/handlers"
	"github.com/serroba/podpulse/internal/health"
	"github.com/serroba/podpulse/internal/insights"
	"github.com/serroba/podpulse/internal/library"
	"github.com/serroba/podpulse/internal/messaging"
	"github.com/serroba/podpulse/internal/metrics"
	"github.com/serroba/podpulse/internal/middleware"
	"github.com/serroba/podpulse/internal/ratelimit"
	"github.com/serroba/podpulse/internal/sentiment"
	"github.com/serroba/podpulse/internal/smartlink"
	"github.com/serroba/podpulse/internal/spotify"
	"go.uber.org/zap"
)

// HTTPPackage provides the router and the huma API with every route
// registered. Invoking huma.API triggers registration.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(chimiddleware.Recoverer)

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := options(i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		issuer := do.MustInvoke[*auth.Issuer](i)

		api := humachi.New(router, huma.DefaultConfig("PodPulse", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestMetrics(m),
			middleware.RequestMeta(api),
			middleware.Authenticate(api, issuer, logger),
			middleware.PolicyRateLimiter(
				api,
				do.MustInvoke[*ratelimit.PolicyLimiter](i),
				do.MustInvoke[ratelimit.ScopeResolver](i),
				logger,
			),
		)

		handlers.RegisterSmartLinkRoutes(api, handlers.NewSmartLinkHandler(
			do.MustInvoke[*smartlink.Resolver](i),
			do.MustInvoke[*smartlink.Creator](i),
			do.MustInvoke[smartlink.Repository](i),
			opts.PublicBaseURL(),
			do.MustInvoke[messaging.Publish[analytics.LinkCreatedEvent]](i),
			do.MustInvoke[messaging.Publish[analytics.LinkClickedEvent]](i),
			m,
			logger,
		), handlers.RouteLimits{
			Redirect: ratelimit.RedirectLimits(int64(opts.RedirectPerMinute)),
			Create:   ratelimit.CreateLimits(int64(opts.CreatePerMinute), int64(opts.CreatePerHour)),
		})

		spotifyClient := do.MustInvoke[*spotify.Client](i)

		handlers.RegisterLibraryRoutes(api, handlers.NewLibraryHandler(do.MustInvoke[*library.Service](i), logger))
		handlers.RegisterPodcastRoutes(api, handlers.NewPodcastHandler(spotifyClient, logger))
		handlers.RegisterInsightsRoutes(api, handlers.NewInsightsHandler(
			do.MustInvoke[*insights.Fallback](i), summarizer(i), logger,
		))
		handlers.RegisterSentimentRoutes(api, handlers.NewSentimentHandler(do.MustInvoke[*sentiment.Twitter](i), logger))
		handlers.RegisterAuthRoutes(api, handlers.NewAuthHandler(spotifyClient, issuer, opts.FrontendURL, logger))

		health.RegisterRoutes(api, health.NewHandler(healthChecks(i)))

		router.Handle("/metrics", m.Handler())

		return api, nil
	})
}

// healthChecks covers the backends the configuration actually uses.
func healthChecks(i *do.Injector) map[string]health.Checker {
	opts := options(i)
	checks := map[string]health.Checker{}

	if opts.Store == StorePostgres {
		checks["postgres"] = health.NewPostgresChecker(do.MustInvoke[*Postgres](i).Pool)
	}

	if usesRedis(opts) {
		checks["redis"] = health.NewRedisChecker(do.MustInvoke[redis.UniversalClient](i))
	}

	return checks
}

func usesRedis(o *Options) bool {
	return o.Store == StoreRedis ||
		(o.Store == StorePostgres && o.CacheTTL > 0) ||
		o.Events == string(messaging.BackendRedis) ||
		o.RateLimitStore == StoreRedis ||
		o.AnalyticsStore == AnalyticsRedis
}

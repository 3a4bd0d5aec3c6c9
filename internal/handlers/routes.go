package handlers

import (
	"github.com/serroba/podpulse/internal/auth"
	"github.com/serroba/podpulse/internal/ratelimit"
)

// RouteLimits are the per-endpoint limits attached as operation metadata.
// An empty slice leaves the endpoint on the default scope policy.
type RouteLimits struct {
	Redirect []ratelimit.LimitConfig
	Create   []ratelimit.LimitConfig
}

// DefaultRouteLimits allows 1000 redirects per minute and 10 creates per
// minute (100 per hour) per client.
func DefaultRouteLimits() RouteLimits {
	return RouteLimits{
		Redirect: ratelimit.RedirectLimits(ratelimit.DefaultRedirectPerMinute),
		Create:   ratelimit.CreateLimits(ratelimit.DefaultCreatePerMinute, ratelimit.DefaultCreatePerHour),
	}
}

func rateLimited(limits []ratelimit.LimitConfig, scope ratelimit.Scope) map[string]any {
	if len(limits) == 0 {
		return map[string]any{}
	}

	return map[string]any{
		ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: scope, Limits: limits},
	}
}

func withAuth(metadata map[string]any) map[string]any {
	if metadata == nil {
		metadata = map[string]any{}
	}

	metadata[auth.MetadataKey] = true

	return metadata
}

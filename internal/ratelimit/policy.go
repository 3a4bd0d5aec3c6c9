package ratelimit

import "time"

// LimitConfig caps the number of requests within a sliding window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps scopes to the limits enforced for them. Every limit of every
// resolved scope must hold for a request to pass.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// PolicyBuilder assembles a Policy.
type PolicyBuilder struct {
	limits map[Scope][]LimitConfig
}

func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{limits: make(map[Scope][]LimitConfig)}
}

// AddLimit adds a limit of max requests per window to scope. Non-positive
// values are ignored so zero-valued options disable a limit.
func (b *PolicyBuilder) AddLimit(scope Scope, maxRequests int64, window time.Duration) *PolicyBuilder {
	if maxRequests <= 0 || window <= 0 {
		return b
	}

	b.limits[scope] = append(b.limits[scope], LimitConfig{Window: window, Max: maxRequests})

	return b
}

func (b *PolicyBuilder) Build() *Policy {
	limits := make(map[Scope][]LimitConfig, len(b.limits))
	for scope, l := range b.limits {
		limits[scope] = append([]LimitConfig(nil), l...)
	}

	return &Policy{Limits: limits}
}

// Defaults for the SmartLink endpoints.
const (
	DefaultRedirectPerMinute = 1000
	DefaultCreatePerMinute   = 10
	DefaultCreatePerHour     = 100
)

// RedirectLimits is attached to the public redirect endpoint. A non-positive
// value yields no limits.
func RedirectLimits(perMinute int64) []LimitConfig {
	return positive(LimitConfig{Window: time.Minute, Max: perMinute})
}

// CreateLimits is attached to SmartLink creation.
func CreateLimits(perMinute, perHour int64) []LimitConfig {
	return positive(
		LimitConfig{Window: time.Minute, Max: perMinute},
		LimitConfig{Window: time.Hour, Max: perHour},
	)
}

func positive(limits ...LimitConfig) []LimitConfig {
	var out []LimitConfig

	for _, l := range limits {
		if l.Max > 0 && l.Window > 0 {
			out = append(out, l)
		}
	}

	return out
}

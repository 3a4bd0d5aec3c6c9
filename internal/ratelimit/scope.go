package ratelimit

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Scope names a family of requests that share counters.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeRead   Scope = "read"
	ScopeWrite  Scope = "write"
	// ScopeRedirect covers public SmartLink resolution.
	ScopeRedirect Scope = "redirect"
	// ScopeCreate covers SmartLink creation.
	ScopeCreate Scope = "create"
)

// MetadataKey holds an EndpointConfig in huma.Operation.Metadata.
const MetadataKey = "rateLimit"

// EndpointConfig tunes limiting for one operation. Non-empty Limits replace
// the policy for that operation and are counted under CounterScope. Without
// Limits, a non-empty Scope replaces the scope derived from the method.
type EndpointConfig struct {
	Scope    Scope
	Limits   []LimitConfig
	Disabled bool
}

// CounterScope is the scope custom Limits are recorded under. Operations
// without a Scope count per route template, so /smartlink/{id} is one counter
// per client whatever the id.
func (c EndpointConfig) CounterScope(path string) Scope {
	if c.Scope != "" {
		return c.Scope
	}

	return Scope("custom:" + path)
}

// ConfigFor returns the EndpointConfig attached to op, if any.
func ConfigFor(op *huma.Operation) (EndpointConfig, bool) {
	if op == nil {
		return EndpointConfig{}, false
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)

	return cfg, ok
}

// MethodScope classifies safe methods as reads and everything else as writes.
func MethodScope(method string) Scope {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ScopeRead
	default:
		return ScopeWrite
	}
}

// ScopeResolver picks the policy scopes that apply to a request.
type ScopeResolver interface {
	Resolve(ctx huma.Context) []Scope
}

// ScopeResolverFunc adapts a function to ScopeResolver.
type ScopeResolverFunc func(ctx huma.Context) []Scope

func (f ScopeResolverFunc) Resolve(ctx huma.Context) []Scope {
	return f(ctx)
}

// MethodScopes resolves every request to the global scope plus its method scope.
var MethodScopes ScopeResolver = ScopeResolverFunc(func(ctx huma.Context) []Scope {
	return []Scope{ScopeGlobal, MethodScope(ctx.Method())}
})

// OperationScopeResolver behaves like MethodScopes unless the operation
// names its own Scope.
type OperationScopeResolver struct{}

func NewOperationScopeResolver() *OperationScopeResolver {
	return &OperationScopeResolver{}
}

func (*OperationScopeResolver) Resolve(ctx huma.Context) []Scope {
	scope := MethodScope(ctx.Method())

	if cfg, ok := ConfigFor(ctx.Operation()); ok && cfg.Scope != "" {
		scope = cfg.Scope
	}

	return []Scope{ScopeGlobal, scope}
}

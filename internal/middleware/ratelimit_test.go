package middleware_test

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"mime/multipart"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/podpulse/internal/auth"
	"github.com/serroba/podpulse/internal/middleware"
	"github.com/serroba/podpulse/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const (
	testHostAddr       = "192.168.1.1:12345"
	testUserAgent      = "TestAgent/1.0"
	testUserAgentShort = "TestAgent"
)

var errMultipartNotSupported = errors.New("multipart not supported in mock")

func newTestAPI() huma.API {
	return humachi.New(chi.NewMux(), huma.DefaultConfig("Test", "1.0.0"))
}

// mockHumaContext implements huma.Context for testing.
type mockHumaContext struct {
	ctx        context.Context
	headers    map[string]string
	respHeader map[string]string
	query      url.Values
	host       string
	remoteAddr string
	written    []byte
	statusCode int
	method     string
	operation  *huma.Operation
}

func newMockHumaContext() *mockHumaContext {
	return &mockHumaContext{
		ctx:        context.Background(),
		headers:    make(map[string]string),
		respHeader: make(map[string]string),
		method:     "GET",
	}
}

func (m *mockHumaContext) Operation() *huma.Operation {
	return m.operation
}
func (m *mockHumaContext) Context() context.Context             { return m.ctx }
func (m *mockHumaContext) TLS() *tls.ConnectionState            { return nil }
func (m *mockHumaContext) Version() huma.ProtoVersion           { return huma.ProtoVersion{} }
func (m *mockHumaContext) Method() string                       { return m.method }
func (m *mockHumaContext) Host() string                         { return m.host }
func (m *mockHumaContext) RemoteAddr() string                   { return m.remoteAddr }
func (m *mockHumaContext) URL() url.URL                         { return url.URL{RawQuery: m.query.Encode()} }
func (m *mockHumaContext) Param(_ string) string                { return "" }
func (m *mockHumaContext) Query(name string) string             { return m.query.Get(name) }
func (m *mockHumaContext) Header(name string) string            { return m.headers[name] }
func (m *mockHumaContext) BodyReader() io.Reader                { return nil }
func (m *mockHumaContext) SetReadDeadline(_ time.Time) error    { return nil }
func (m *mockHumaContext) SetStatus(code int)                   { m.statusCode = code }
func (m *mockHumaContext) Status() int                          { return m.statusCode }
func (m *mockHumaContext) AppendHeader(_, _ string)             {}
func (m *mockHumaContext) SetHeader(name, value string)         { m.respHeader[name] = value }
func (m *mockHumaContext) BodyWriter() io.Writer                { return &mockBodyWriter{ctx: m} }
func (m *mockHumaContext) GetMultipartForm() (*multipart.Form, error) {
	return nil, errMultipartNotSupported
}

func (m *mockHumaContext) EachHeader(cb func(name, value string)) {
	for name, value := range m.headers {
		cb(name, value)
	}
}

type mockBodyWriter struct {
	ctx *mockHumaContext
}

func (w *mockBodyWriter) Write(p []byte) (n int, err error) {
	w.ctx.written = append(w.ctx.written, p...)

	return len(p), nil
}

// capturingStore records the last key it saw.
type capturingStore struct {
	lastKey string
}

func (c *capturingStore) Record(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.lastKey = key

	return 1, nil
}

// keyFor runs one request through the limiter and returns the client key part.
func keyFor(t *testing.T, ctx *mockHumaContext) string {
	t.Helper()

	st := &capturingStore{}
	policy := ratelimit.NewPolicyBuilder().AddLimit(ratelimit.ScopeGlobal, 10, time.Minute).Build()
	resolver := &mockScopeResolver{scopes: []ratelimit.Scope{ratelimit.ScopeGlobal}}
	mw := middleware.PolicyRateLimiter(newTestAPI(), ratelimit.NewPolicyLimiter(st, policy), resolver, zap.NewNop())

	mw(ctx, func(_ huma.Context) {})

	key, _, _ := strings.Cut(st.lastKey, ":")

	return key
}

func TestClientKey(t *testing.T) {
	t.Run("uses IP and User-Agent", func(t *testing.T) {
		ctx1 := newMockHumaContext()
		ctx1.remoteAddr = testHostAddr
		ctx1.headers["User-Agent"] = testUserAgent

		ctx2 := newMockHumaContext()
		ctx2.remoteAddr = testHostAddr
		ctx2.headers["User-Agent"] = testUserAgent

		ctx3 := newMockHumaContext()
		ctx3.remoteAddr = testHostAddr
		ctx3.headers["User-Agent"] = "DifferentAgent/2.0"

		assert.Equal(t, keyFor(t, ctx1), keyFor(t, ctx2), "same IP and User-Agent should produce same key")
		assert.NotEqual(t, keyFor(t, ctx1), keyFor(t, ctx3), "different User-Agent should produce different key")
	})

	t.Run("uses first IP from X-Forwarded-For", func(t *testing.T) {
		ctx1 := newMockHumaContext()
		ctx1.remoteAddr = "10.0.0.1:12345"
		ctx1.headers["X-Forwarded-For"] = "203.0.113.195, 70.41.3.18, 150.172.238.178"
		ctx1.headers["User-Agent"] = testUserAgentShort

		ctx2 := newMockHumaContext()
		ctx2.remoteAddr = "10.0.0.2:54321"
		ctx2.headers["X-Forwarded-For"] = "203.0.113.195"
		ctx2.headers["User-Agent"] = testUserAgentShort

		assert.Equal(t, keyFor(t, ctx1), keyFor(t, ctx2))
	})

	t.Run("uses X-Real-IP when present", func(t *testing.T) {
		ctx1 := newMockHumaContext()
		ctx1.remoteAddr = "10.0.0.1:12345"
		ctx1.headers["X-Real-IP"] = "203.0.113.100"

		ctx2 := newMockHumaContext()
		ctx2.remoteAddr = "10.0.0.2:54321"
		ctx2.headers["X-Real-IP"] = "203.0.113.100"

		assert.Equal(t, keyFor(t, ctx1), keyFor(t, ctx2))
	})

	t.Run("ignores the remote port", func(t *testing.T) {
		ctx1 := newMockHumaContext()
		ctx1.remoteAddr = "192.168.1.1:1111"

		ctx2 := newMockHumaContext()
		ctx2.remoteAddr = "192.168.1.1:2222"

		ctx3 := newMockHumaContext()
		ctx3.remoteAddr = "192.168.1.1"

		assert.Equal(t, keyFor(t, ctx1), keyFor(t, ctx2))
		assert.Equal(t, keyFor(t, ctx1), keyFor(t, ctx3), "address without port is used as-is")
	})

	t.Run("falls back to host without remote addr", func(t *testing.T) {
		ctx1 := newMockHumaContext()
		ctx1.host = "192.168.1.1:1111"

		ctx2 := newMockHumaContext()
		ctx2.remoteAddr = "192.168.1.1:2222"

		assert.Equal(t, keyFor(t, ctx1), keyFor(t, ctx2))
	})

	t.Run("signed-in users are keyed by account", func(t *testing.T) {
		home := newMockHumaContext()
		home.remoteAddr = "192.168.1.1:1111"
		home.ctx = auth.ContextWithUser(context.Background(), "user-1")

		phone := newMockHumaContext()
		phone.remoteAddr = "10.1.1.1:2222"
		phone.headers["User-Agent"] = testUserAgent
		phone.ctx = auth.ContextWithUser(context.Background(), "user-1")

		anonymous := newMockHumaContext()
		anonymous.remoteAddr = "192.168.1.1:1111"

		assert.Equal(t, keyFor(t, home), keyFor(t, phone))
		assert.NotEqual(t, keyFor(t, home), keyFor(t, anonymous))
	})
}

// mockPolicyStore is a mock store for testing PolicyRateLimiter.
type mockPolicyStore struct {
	counts map[string]int64
	err    error
}

func newMockPolicyStore() *mockPolicyStore {
	return &mockPolicyStore{counts: make(map[string]int64)}
}

func (m *mockPolicyStore) Record(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}

	m.counts[key]++

	return m.counts[key], nil
}

// mockScopeResolver is a mock resolver for testing.
type mockScopeResolver struct {
	scopes []ratelimit.Scope
}

func (m *mockScopeResolver) Resolve(_ huma.Context) []ratelimit.Scope {
	return m.scopes
}

//nolint:maintidx // Test function with comprehensive coverage across many scenarios
func TestPolicyRateLimiter(t *testing.T) {
	t.Run("allows request when under limit", func(t *testing.T) {
		api := newTestAPI()
		store := newMockPolicyStore()
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeGlobal, 10, time.Minute).
			Build()
		limiter := ratelimit.NewPolicyLimiter(store, policy)
		resolver := &mockScopeResolver{scopes: []ratelimit.Scope{ratelimit.ScopeGlobal}}
		logger := zap.NewNop()

		mw := middleware.PolicyRateLimiter(api, limiter, resolver, logger)

		ctx := newMockHumaContext()
		ctx.remoteAddr = testHostAddr
		ctx.headers["User-Agent"] = testUserAgent

		nextCalled := false

		mw(ctx, func(_ huma.Context) {
			nextCalled = true
		})

		assert.True(t, nextCalled, "next should be called when allowed")
	})

	t.Run("returns 429 when rate limited", func(t *testing.T) {
		api := newTestAPI()
		store := newMockPolicyStore()
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeGlobal, 1, time.Minute).
			Build()
		limiter := ratelimit.NewPolicyLimiter(store, policy)
		resolver := &mockScopeResolver{scopes: []ratelimit.Scope{ratelimit.ScopeGlobal}}
		logger := zap.NewNop()

		mw := middleware.PolicyRateLimiter(api, limiter, resolver, logger)

		ctx := newMockHumaContext()
		ctx.remoteAddr = testHostAddr
		ctx.headers["User-Agent"] = testUserAgent

		// First request allowed
		mw(ctx, func(_ huma.Context) {})

		// Second request should be denied
		ctx2 := newMockHumaContext()
		ctx2.remoteAddr = testHostAddr
		ctx2.headers["User-Agent"] = testUserAgent

		nextCalled := false

		mw(ctx2, func(_ huma.Context) {
			nextCalled = true
		})

		assert.False(t, nextCalled, "next should not be called when rate limited")
		assert.Equal(t, 429, ctx2.statusCode)
		assert.Contains(t, string(ctx2.written), "rate limit exceeded")
		assert.Equal(t, "60", ctx2.respHeader["Retry-After"])
	})

	t.Run("includes limit details in error message", func(t *testing.T) {
		api := newTestAPI()
		store := newMockPolicyStore()
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeWrite, 1, time.Minute).
			Build()
		limiter := ratelimit.NewPolicyLimiter(store, policy)
		resolver := &mockScopeResolver{scopes: []ratelimit.Scope{ratelimit.ScopeWrite}}
		logger := zap.NewNop()

		mw := middleware.PolicyRateLimiter(api, limiter, resolver, logger)

		ctx := newMockHumaContext()
		ctx.remoteAddr = testHostAddr
		ctx.headers["User-Agent"] = testUserAgent

		mw(ctx, func(_ huma.Context) {})

		ctx2 := newMockHumaContext()
		ctx2.remoteAddr = testHostAddr
		ctx2.headers["User-Agent"] = testUserAgent

		mw(ctx2, func(_ huma.Context) {})

		assert.Contains(t, string(ctx2.written), "write")
		assert.Contains(t, string(ctx2.written), "2/1")
	})

	t.Run("applies different limits per scope", func(t *testing.T) {
		api := newTestAPI()
		store := newMockPolicyStore()
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeRead, 5, time.Minute).
			AddLimit(ratelimit.ScopeWrite, 2, time.Minute).
			Build()
		limiter := ratelimit.NewPolicyLimiter(store, policy)
		logger := zap.NewNop()

		readResolver := &mockScopeResolver{scopes: []ratelimit.Scope{ratelimit.ScopeRead}}
		writeResolver := &mockScopeResolver{scopes: []ratelimit.Scope{ratelimit.ScopeWrite}}

		readMW := middleware.PolicyRateLimiter(api, limiter, readResolver, logger)
		writeMW := middleware.PolicyRateLimiter(api, limiter, writeResolver, logger)

		// Read requests - should allow 5
		for i := range 5 {
			ctx := newMockHumaContext()
			ctx.remoteAddr = testHostAddr
			ctx.headers["User-Agent"] = testUserAgent

			nextCalled := false

			readMW(ctx, func(_ huma.Context) {
				nextCalled = true
			})

			assert.True(t, nextCalled, "read request %d should be allowed", i+1)
		}

		// Write requests - should only allow 2
		for i := range 2 {
			ctx := newMockHumaContext()
			ctx.remoteAddr = testHostAddr
			ctx.headers["User-Agent"] = testUserAgent

			nextCalled := false

			writeMW(ctx, func(_ huma.Context) {
				nextCalled = true
			})

			assert.True(t, nextCalled, "write request %d should be allowed", i+1)
		}

		// 3rd write should be denied
		ctx := newMockHumaContext()
		ctx.remoteAddr = testHostAddr
		ctx.headers["User-Agent"] = testUserAgent

		nextCalled := false

		writeMW(ctx, func(_ huma.Context) {
			nextCalled = true
		})

		assert.False(t, nextCalled, "3rd write request should be denied")
		assert.Equal(t, 429, ctx.statusCode)
	})

	t.Run("returns 500 on store error", func(t *testing.T) {
		api := newTestAPI()
		store := newMockPolicyStore()
		store.err = errors.New("store error")
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeGlobal, 10, time.Minute).
			Build()
		limiter := ratelimit.NewPolicyLimiter(store, policy)
		resolver := &mockScopeResolver{scopes: []ratelimit.Scope{ratelimit.ScopeGlobal}}
		logger := zap.NewNop()

		mw := middleware.PolicyRateLimiter(api, limiter, resolver, logger)

		ctx := newMockHumaContext()
		ctx.remoteAddr = testHostAddr
		ctx.headers["User-Agent"] = testUserAgent

		nextCalled := false

		mw(ctx, func(_ huma.Context) {
			nextCalled = true
		})

		assert.False(t, nextCalled)
		assert.Equal(t, 500, ctx.statusCode)
	})

	t.Run("skips rate limiting when disabled via metadata", func(t *testing.T) {
		api := newTestAPI()
		store := newMockPolicyStore()
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeGlobal, 1, time.Minute).
			Build()
		limiter := ratelimit.NewPolicyLimiter(store, policy)
		resolver := &mockScopeResolver{scopes: []ratelimit.Scope{ratelimit.ScopeGlobal}}
		logger := zap.NewNop()

		mw := middleware.PolicyRateLimiter(api, limiter, resolver, logger)

		// First request with disabled rate limiting
		ctx := newMockHumaContext()
		ctx.remoteAddr = testHostAddr
		ctx.headers["User-Agent"] = testUserAgent
		ctx.operation = &huma.Operation{
			Path: "/test",
			Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{
					Disabled: true,
				},
			},
		}

		nextCalled := false

		mw(ctx, func(_ huma.Context) {
			nextCalled = true
		})

		assert.True(t, nextCalled, "next should be called when rate limiting is disabled")

		// Second request should also be allowed (disabled means no limit)
		ctx2 := newMockHumaContext()
		ctx2.remoteAddr = testHostAddr
		ctx2.headers["User-Agent"] = testUserAgent
		ctx2.operation = ctx.operation

		nextCalled = false

		mw(ctx2, func(_ huma.Context) {
			nextCalled = true
		})

		assert.True(t, nextCalled, "second request should also be allowed when disabled")
	})

	t.Run("applies custom limits from metadata", func(t *testing.T) {
		api := newTestAPI()
		store := newMockPolicyStore()
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeGlobal, 100, time.Minute). // Policy allows 100
			Build()
		limiter := ratelimit.NewPolicyLimiter(store, policy)
		resolver := &mockScopeResolver{scopes: []ratelimit.Scope{ratelimit.ScopeGlobal}}
		logger := zap.NewNop()

		mw := middleware.PolicyRateLimiter(api, limiter, resolver, logger)

		// Custom limit of 2 per minute
		operation := &huma.Operation{
			Path: "/custom",
			Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{
					Limits: []ratelimit.LimitConfig{
						{Window: time.Minute, Max: 2},
					},
				},
			},
		}

		// First two requests should succeed
		for i := range 2 {
			ctx := newMockHumaContext()
			ctx.remoteAddr = testHostAddr
			ctx.headers["User-Agent"] = testUserAgent
			ctx.operation = operation

			nextCalled := false

			mw(ctx, func(_ huma.Context) {
				nextCalled = true
			})

			assert.True(t, nextCalled, "request %d should be allowed", i+1)
		}

		// Third request should be rate limited
		ctx := newMockHumaContext()
		ctx.remoteAddr = testHostAddr
		ctx.headers["User-Agent"] = testUserAgent
		ctx.operation = operation

		nextCalled := false

		mw(ctx, func(_ huma.Context) {
			nextCalled = true
		})

		assert.False(t, nextCalled, "third request should be denied by custom limit")
		assert.Equal(t, 429, ctx.statusCode)
	})

	t.Run("extracts path from operation", func(t *testing.T) {
		api := newTestAPI()
		store := newMockPolicyStore()
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeGlobal, 10, time.Minute).
			Build()
		limiter := ratelimit.NewPolicyLimiter(store, policy)
		resolver := &mockScopeResolver{scopes: []ratelimit.Scope{ratelimit.ScopeGlobal}}
		logger := zap.NewNop()

		mw := middleware.PolicyRateLimiter(api, limiter, resolver, logger)

		ctx := newMockHumaContext()
		ctx.remoteAddr = testHostAddr
		ctx.headers["User-Agent"] = testUserAgent
		ctx.operation = &huma.Operation{
			Path: "/api/v1/test",
		}

		nextCalled := false

		mw(ctx, func(_ huma.Context) {
			nextCalled = true
		})

		assert.True(t, nextCalled, "request should be allowed")
	})

	t.Run("custom limits store error returns 500", func(t *testing.T) {
		api := newTestAPI()
		store := newMockPolicyStore()
		store.err = errors.New("store error")
		policy := ratelimit.NewPolicyBuilder().Build()
		limiter := ratelimit.NewPolicyLimiter(store, policy)
		resolver := &mockScopeResolver{scopes: []ratelimit.Scope{}}
		logger := zap.NewNop()

		mw := middleware.PolicyRateLimiter(api, limiter, resolver, logger)

		ctx := newMockHumaContext()
		ctx.remoteAddr = testHostAddr
		ctx.headers["User-Agent"] = testUserAgent
		ctx.operation = &huma.Operation{
			Path: "/custom-error",
			Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{
					Limits: []ratelimit.LimitConfig{
						{Window: time.Minute, Max: 10},
					},
				},
			},
		}

		nextCalled := false

		mw(ctx, func(_ huma.Context) {
			nextCalled = true
		})

		assert.False(t, nextCalled)
		assert.Equal(t, 500, ctx.statusCode)
	})
}

func TestPolicyRateLimiter_CustomScope(t *testing.T) {
	st := newMockPolicyStore()
	limiter := ratelimit.NewPolicyLimiter(st, ratelimit.NewPolicyBuilder().Build())
	mw := middleware.PolicyRateLimiter(newTestAPI(), limiter, &mockScopeResolver{}, zap.NewNop())

	ctx := newMockHumaContext()
	ctx.remoteAddr = testHostAddr
	ctx.operation = &huma.Operation{
		Path: "/smartlinks",
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Scope:  ratelimit.ScopeCreate,
				Limits: ratelimit.CreateLimits(1, 10),
			},
		},
	}

	mw(ctx, func(_ huma.Context) {})

	blocked := newMockHumaContext()
	blocked.remoteAddr = testHostAddr
	blocked.operation = ctx.operation

	mw(blocked, func(_ huma.Context) {})

	assert.Equal(t, 429, blocked.statusCode)
	assert.Contains(t, string(blocked.written), "create scope")
	assert.Equal(t, "60", blocked.respHeader["Retry-After"])

	for key := range st.counts {
		assert.Contains(t, key, ":create:")
	}
}

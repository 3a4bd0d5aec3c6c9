package handlers

import (
	"context"
	"net/url"

	"github.com/serroba/podpulse/internal/smartlink"
)

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata for click recording and analytics.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
	Query     url.Values
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

// RequestContext is the resolver's view of the visit.
func (m RequestMeta) RequestContext() smartlink.RequestContext {
	return smartlink.RequestContext{
		Referrer:  m.Referrer,
		UserAgent: m.UserAgent,
		Query:     m.Query,
	}
}

package middleware

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// RequestObserver records one finished request.
type RequestObserver interface {
	ObserveRequest(method, operation string, status int, d time.Duration)
}

// RequestMetrics times every operation and reports it by operation id.
func RequestMetrics(observer RequestObserver) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		next(ctx)

		operation := "unknown"
		if op := ctx.Operation(); op != nil && op.OperationID != "" {
			operation = op.OperationID
		}

		observer.ObserveRequest(ctx.Method(), operation, ctx.Status(), time.Since(start))
	}
}

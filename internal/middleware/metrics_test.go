package middleware_test

import (
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/podpulse/internal/middleware"
	"github.com/stretchr/testify/assert"
)

type recordingObserver struct {
	method    string
	operation string
	status    int
	calls     int
}

func (r *recordingObserver) ObserveRequest(method, operation string, status int, _ time.Duration) {
	r.method = method
	r.operation = operation
	r.status = status
	r.calls++
}

func TestRequestMetrics(t *testing.T) {
	t.Run("reports operation id and status", func(t *testing.T) {
		obs := &recordingObserver{}
		ctx := newMockHumaContext()
		ctx.operation = &huma.Operation{OperationID: "resolve-smartlink"}

		middleware.RequestMetrics(obs)(ctx, func(next huma.Context) {
			next.SetStatus(302)
		})

		assert.Equal(t, 1, obs.calls)
		assert.Equal(t, "GET", obs.method)
		assert.Equal(t, "resolve-smartlink", obs.operation)
		assert.Equal(t, 302, obs.status)
	})

	t.Run("unknown operation", func(t *testing.T) {
		obs := &recordingObserver{}

		middleware.RequestMetrics(obs)(newMockHumaContext(), func(huma.Context) {})

		assert.Equal(t, "unknown", obs.operation)
	})
}

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/serroba/podpulse/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMemoryStore(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("counts requests per key", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		for want := int64(1); want <= 3; want++ {
			count, err := s.Record(ctx, "client1:create:60000", time.Minute)

			require.NoError(t, err)
			assert.Equal(t, want, count)
		}

		count, err := s.Record(ctx, "client2:create:60000", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("window slides", func(t *testing.T) {
		now := start
		s := store.NewRateLimitMemoryStore().WithClock(func() time.Time { return now })

		_, _ = s.Record(ctx, "k", time.Minute)

		now = now.Add(40 * time.Second)
		_, _ = s.Record(ctx, "k", time.Minute)

		now = now.Add(30 * time.Second)
		count, err := s.Record(ctx, "k", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(2), count, "only the first request left the window")
	})

	t.Run("sweeps idle keys", func(t *testing.T) {
		now := start
		s := store.NewRateLimitMemoryStore().
			WithClock(func() time.Time { return now }).
			WithSweepEvery(1)

		_, _ = s.Record(ctx, "one-off", time.Minute)
		_, _ = s.Record(ctx, "regular", time.Hour)
		assert.Equal(t, 2, s.Keys())

		now = now.Add(2 * time.Minute)
		_, _ = s.Record(ctx, "regular", time.Hour)

		assert.Equal(t, 1, s.Keys())
	})

	t.Run("concurrent records are all counted", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		var wg sync.WaitGroup

		for range 50 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, _ = s.Record(ctx, "burst", time.Minute)
			}()
		}

		wg.Wait()

		count, err := s.Record(ctx, "burst", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(51), count)
	})
}

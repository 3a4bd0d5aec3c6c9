//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/podpulse/internal/analytics"
	"github.com/serroba/podpulse/internal/analytics/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCounters(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}

	counters := store.NewRedisCounters(client)
	id := uuid.NewString()

	require.NoError(t, counters.SaveLinkCreated(ctx, &analytics.LinkCreatedEvent{ID: id, CreatedAt: time.Now()}))

	for _, platform := range []string{"spotify", "spotify", "apple"} {
		require.NoError(t, counters.SaveLinkClicked(ctx, &analytics.LinkClickedEvent{
			ID:       id,
			Platform: platform,
			Referrer: "Direct",
		}))
	}

	got, err := counters.Counters(ctx, id)

	require.NoError(t, err)
	assert.Equal(t, "3", got[store.FieldClicks])
	assert.Equal(t, "2", got["platform:spotify"])
	assert.Equal(t, "1", got["platform:apple"])
	assert.Equal(t, "3", got["referrer:Direct"])
	assert.NotEmpty(t, got[store.FieldCreated])
}

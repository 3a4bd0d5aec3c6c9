package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/podpulse/internal/analytics"
)

const (
	countersPrefix = "analytics:smartlink:"
	totalsKey      = countersPrefix + "totals"

	// FieldClicks and FieldCreated are kept in each per-link hash.
	FieldClicks  = "clicks"
	FieldCreated = "created"

	platformFieldFmt = "platform:%s"
	referrerFieldFmt = "referrer:%s"
	totalsLinks      = "links"
)

// RedisCounters aggregates events into one Redis hash per link plus a global
// totals hash. Each event is applied in a single MULTI/EXEC.
type RedisCounters struct {
	client redis.UniversalClient
}

func NewRedisCounters(client redis.UniversalClient) *RedisCounters {
	return &RedisCounters{client: client}
}

func (r *RedisCounters) SaveLinkCreated(ctx context.Context, event *analytics.LinkCreatedEvent) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, linkKey(event.ID), FieldCreated, event.CreatedAt.UnixMilli())
		pipe.HIncrBy(ctx, totalsKey, totalsLinks, 1)

		return nil
	})

	return err
}

func (r *RedisCounters) SaveLinkClicked(ctx context.Context, event *analytics.LinkClickedEvent) error {
	key := linkKey(event.ID)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, FieldClicks, 1)
		pipe.HIncrBy(ctx, key, fmt.Sprintf(platformFieldFmt, event.Platform), 1)
		pipe.HIncrBy(ctx, key, fmt.Sprintf(referrerFieldFmt, event.Referrer), 1)
		pipe.HIncrBy(ctx, totalsKey, FieldClicks, 1)

		return nil
	})

	return err
}

// Counters returns the raw counter hash of one link.
func (r *RedisCounters) Counters(ctx context.Context, id string) (map[string]string, error) {
	return r.client.HGetAll(ctx, linkKey(id)).Result()
}

func linkKey(id string) string {
	return countersPrefix + id
}

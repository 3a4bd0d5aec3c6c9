package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/podpulse/internal/smartlink"
)

// createScript stores the record and indexes it under its owner in one step.
// KEYS[1] record key, KEYS[2] owner set, ARGV[1] encoded record, ARGV[2] id.
var createScript = redis.NewScript(`
if redis.call("SET", KEYS[1], ARGV[1], "NX") == false then
	return 0
end
redis.call("SADD", KEYS[2], ARGV[2])
return 1
`)

// appendClickScript appends to the click list only when the record exists.
// KEYS[1] record key, KEYS[2] clicks key, ARGV[1] encoded click.
var appendClickScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("RPUSH", KEYS[2], ARGV[1])
return 1
`)

// RedisStore is a Redis implementation of smartlink.Repository. The immutable
// record is a JSON string and the click sequence a list.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, prefix: "smartlink:"}
}

func (r *RedisStore) recordKey(id smartlink.ID) string { return r.prefix + string(id) }
func (r *RedisStore) clicksKey(id smartlink.ID) string { return r.prefix + string(id) + ":clicks" }
func (r *RedisStore) ownerKey(owner string) string     { return r.prefix + "owner:" + owner }

func (r *RedisStore) Create(ctx context.Context, link *smartlink.SmartLink) error {
	payload, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("encode smartlink: %w", err)
	}

	keys := []string{r.recordKey(link.ID), r.ownerKey(link.Owner)}

	created, err := createScript.Run(ctx, r.client, keys, payload, string(link.ID)).Int()
	if err != nil {
		return err
	}

	if created == 0 {
		return smartlink.ErrIDTaken
	}

	return nil
}

func (r *RedisStore) Get(ctx context.Context, id smartlink.ID) (*smartlink.SmartLink, error) {
	raw, err := r.client.Get(ctx, r.recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, smartlink.ErrNotFound
		}

		return nil, err
	}

	var link smartlink.SmartLink
	if err := json.Unmarshal(raw, &link); err != nil {
		return nil, fmt.Errorf("decode smartlink: %w", err)
	}

	return &link, nil
}

func (r *RedisStore) AppendClick(ctx context.Context, id smartlink.ID, click smartlink.ClickEvent) error {
	payload, err := json.Marshal(click)
	if err != nil {
		return fmt.Errorf("encode click: %w", err)
	}

	appended, err := appendClickScript.Run(ctx, r.client,
		[]string{r.recordKey(id), r.clicksKey(id)}, string(payload)).Int()
	if err != nil {
		return err
	}

	if appended == 0 {
		return smartlink.ErrNotFound
	}

	return nil
}

func (r *RedisStore) Clicks(ctx context.Context, id smartlink.ID) ([]smartlink.ClickEvent, error) {
	exists, err := r.client.Exists(ctx, r.recordKey(id)).Result()
	if err != nil {
		return nil, err
	}

	if exists == 0 {
		return nil, smartlink.ErrNotFound
	}

	raw, err := r.client.LRange(ctx, r.clicksKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	clicks := make([]smartlink.ClickEvent, 0, len(raw))

	for _, item := range raw {
		var click smartlink.ClickEvent
		if err := json.Unmarshal([]byte(item), &click); err != nil {
			return nil, fmt.Errorf("decode click: %w", err)
		}

		clicks = append(clicks, click)
	}

	return clicks, nil
}

func (r *RedisStore) ListByOwner(ctx context.Context, owner string) ([]*smartlink.SmartLink, error) {
	ids, err := r.client.SMembers(ctx, r.ownerKey(owner)).Result()
	if err != nil {
		return nil, err
	}

	links := make([]*smartlink.SmartLink, 0, len(ids))

	for _, id := range ids {
		link, err := r.Get(ctx, smartlink.ID(id))
		if errors.Is(err, smartlink.ErrNotFound) {
			continue
		}

		if err != nil {
			return nil, err
		}

		links = append(links, link)
	}

	sort.Slice(links, func(i, j int) bool { return links[i].CreatedAt.After(links[j].CreatedAt) })

	return links, nil
}

var _ smartlink.Repository = (*RedisStore)(nil)

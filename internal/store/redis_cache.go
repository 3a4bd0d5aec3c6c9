package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/podpulse/internal/smartlink"
	"go.uber.org/zap"
)

// RedisCacheRepository wraps a Repository with Redis caching of the immutable
// record. Click appends and reads always hit the underlying store.
type RedisCacheRepository struct {
	store  smartlink.Repository
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store smartlink.Repository, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "smartlink-cache:",
		ttl:    ttl,
		logger: logger,
	}
}

// Create stores the record in the underlying store and updates the cache.
func (r *RedisCacheRepository) Create(ctx context.Context, link *smartlink.SmartLink) error {
	if err := r.store.Create(ctx, link); err != nil {
		return err
	}

	r.cacheLink(ctx, link)

	return nil
}

// Get checks the cache first and populates it on a miss.
func (r *RedisCacheRepository) Get(ctx context.Context, id smartlink.ID) (*smartlink.SmartLink, error) {
	if link, ok := r.getFromCache(ctx, id); ok {
		return link, nil
	}

	link, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

func (r *RedisCacheRepository) AppendClick(ctx context.Context, id smartlink.ID, click smartlink.ClickEvent) error {
	return r.store.AppendClick(ctx, id, click)
}

func (r *RedisCacheRepository) Clicks(ctx context.Context, id smartlink.ID) ([]smartlink.ClickEvent, error) {
	return r.store.Clicks(ctx, id)
}

func (r *RedisCacheRepository) ListByOwner(ctx context.Context, owner string) ([]*smartlink.SmartLink, error) {
	return r.store.ListByOwner(ctx, owner)
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, id smartlink.ID) (*smartlink.SmartLink, bool) {
	raw, err := r.client.Get(ctx, r.prefix+string(id)).Bytes()
	if err != nil {
		return nil, false
	}

	var link smartlink.SmartLink
	if err := json.Unmarshal(raw, &link); err != nil {
		return nil, false
	}

	return &link, true
}

func (r *RedisCacheRepository) cacheLink(ctx context.Context, link *smartlink.SmartLink) {
	payload, err := json.Marshal(link)
	if err != nil {
		r.logger.Warn("encode smartlink for cache", zap.String("id", string(link.ID)), zap.Error(err))

		return
	}

	if err := r.client.Set(ctx, r.prefix+string(link.ID), payload, r.ttl).Err(); err != nil {
		r.logger.Warn("smartlink cache write failed", zap.String("id", string(link.ID)), zap.Error(err))
	}
}

// Shutdown is a no-op for RedisCacheRepository (client managed externally).
func (r *RedisCacheRepository) Shutdown() error {
	return nil
}

var _ smartlink.Repository = (*RedisCacheRepository)(nil)

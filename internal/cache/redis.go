package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Redis is the distributed cache implementation, used when the service runs
// more than one instance so that invalidations reach all of them. Values are
// stored as JSON; expiry is delegated to Redis key TTLs.
type Redis[V any] struct {
	client *redis.Client
}

func NewRedis[V any](client *redis.Client) *Redis[V] {
	return &Redis[V]{client: client}
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.WithError(err).WithField("key", key).Warn("cache: redis get failed")
		}
		return zero, false
	}

	var value V
	if err := json.Unmarshal(raw, &value); err != nil {
		log.WithError(err).WithField("key", key).Warn("cache: corrupt cache entry, dropping")
		r.client.Del(ctx, key)
		return zero, false
	}

	return value, true
}

func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	raw, err := json.Marshal(value)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("cache: marshal failed, skipping set")
		return
	}

	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("cache: redis set failed")
	}
}

func (r *Redis[V]) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("cache: redis del failed")
	}
}

func (r *Redis[V]) InvalidateEvent(ctx context.Context, eventID string) {
	r.deleteByPattern(ctx, eventPrefix(eventID)+"*")
}

func (r *Redis[V]) Clear(ctx context.Context) {
	r.deleteByPattern(ctx, keyPrefix+"*")
}

func (r *Redis[V]) deleteByPattern(ctx context.Context, pattern string) {
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.WithError(err).WithField("pattern", pattern).Warn("cache: redis scan failed")
		return
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			log.WithError(err).WithField("pattern", pattern).Warn("cache: redis del failed")
		}
	}
}

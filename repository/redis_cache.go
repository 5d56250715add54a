package repository

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/tastemichigan/api-go/types"
)

// RedisCache stores a whole batch under one key with a native TTL, so expired
// entries disappear on their own.
type RedisCache[T any] struct {
	client *redis.Client
	key    string
	kind   types.ContentType
	now    clock
}

type redisEnvelope[T any] struct {
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Items     []T       `json:"items"`
}

func NewRedisProductCache(client *redis.Client) *RedisCache[types.Product] {
	return &RedisCache[types.Product]{client: client, key: "cache:" + productCacheKey, kind: types.ContentProducts, now: utcNow}
}

func NewRedisEpisodeCache(client *redis.Client) *RedisCache[types.Episode] {
	return &RedisCache[types.Episode]{client: client, key: "cache:" + episodeCacheKey, kind: types.ContentEpisodes, now: utcNow}
}

func (c *RedisCache[T]) load(ctx context.Context) (*redisEnvelope[T], error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var env redisEnvelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *RedisCache[T]) Get(ctx context.Context) ([]T, error) {
	env, err := c.load(ctx)
	if err != nil {
		return nil, &types.QueryError{Op: "read " + string(c.kind) + " cache", Err: err}
	}
	if env == nil || !c.now().Before(env.ExpiresAt) {
		return []T{}, nil
	}
	return env.Items, nil
}

func (c *RedisCache[T]) Put(ctx context.Context, items []T, ttl time.Duration) error {
	if len(items) == 0 {
		return nil
	}
	now := c.now()
	raw, err := json.Marshal(redisEnvelope[T]{CachedAt: now, ExpiresAt: now.Add(ttl), Items: items})
	if err != nil {
		return &types.QueryError{Op: "encode " + string(c.kind) + " cache", Err: err}
	}
	if err := c.client.Set(ctx, c.key, raw, ttl).Err(); err != nil {
		return &types.QueryError{Op: "write " + string(c.kind) + " cache", Err: err}
	}
	return nil
}

func (c *RedisCache[T]) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return &types.QueryError{Op: "clear " + string(c.kind) + " cache", Err: err}
	}
	return nil
}

func (c *RedisCache[T]) Stats(ctx context.Context) (types.CacheStats, error) {
	stats := types.CacheStats{Type: c.kind, Backend: "redis"}
	env, err := c.load(ctx)
	if err != nil {
		return stats, &types.QueryError{Op: string(c.kind) + " cache stats", Err: err}
	}
	if env == nil {
		return stats, nil
	}
	if c.now().Before(env.ExpiresAt) {
		stats.Valid = int64(len(env.Items))
	} else {
		stats.Expired = int64(len(env.Items))
	}
	stats.Oldest = &env.CachedAt
	stats.Newest = &env.CachedAt
	return stats, nil
}

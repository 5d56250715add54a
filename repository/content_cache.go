package repository

import (
	"context"
	"time"

	"github.com/tastemichigan/api-go/types"
)

// ContentCache holds the most recent adapter output until it expires. Get
// never returns an expired item; an empty slice means "miss".
type ContentCache[T any] interface {
	Get(ctx context.Context) ([]T, error)
	Put(ctx context.Context, items []T, ttl time.Duration) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (types.CacheStats, error)
}

const (
	productCacheKey = "products"
	episodeCacheKey = "episodes:latest"
)

type clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

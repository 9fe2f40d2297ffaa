package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/redis/go-redis/v9"
)

// CatalogCache holds the serialised active catalog. A miss is (nil, false, nil).
type CatalogCache interface {
	Get(ctx context.Context) ([]model.ProductWithPrices, bool, error)
	Set(ctx context.Context, v []model.ProductWithPrices) error
	Invalidate(ctx context.Context) error
}

const catalogCacheKey = "billsync:catalog:active"

type redisCatalogCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCatalogCache returns a Redis-backed cache, or a no-op one when rdb is nil.
func NewCatalogCache(rdb *redis.Client, ttl time.Duration) CatalogCache {
	if rdb == nil {
		return noopCatalogCache{}
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &redisCatalogCache{rdb: rdb, ttl: ttl}
}

func (c *redisCatalogCache) Get(ctx context.Context) ([]model.ProductWithPrices, bool, error) {
	b, err := c.rdb.Get(ctx, catalogCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out []model.ProductWithPrices
	if err := json.Unmarshal(b, &out); err != nil {
		// stale shape after a deploy; treat as a miss
		return nil, false, nil
	}
	return out, true, nil
}

func (c *redisCatalogCache) Set(ctx context.Context, v []model.ProductWithPrices) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, catalogCacheKey, b, c.ttl).Err()
}

func (c *redisCatalogCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, catalogCacheKey).Err()
}

type noopCatalogCache struct{}

func (noopCatalogCache) Get(context.Context) ([]model.ProductWithPrices, bool, error) {
	return nil, false, nil
}
func (noopCatalogCache) Set(context.Context, []model.ProductWithPrices) error { return nil }
func (noopCatalogCache) Invalidate(context.Context) error                    { return nil }

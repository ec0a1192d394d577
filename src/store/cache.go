package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/logging"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

// CachedStore wraps a PerformanceStore with a Redis-first read cache
// in front of BestSelectors/BestUA/BestProxy, the store's read-heavy,
// eventually-consistent queries (§5). Writes always go straight
// through to the wrapped store; a cache miss or Redis error falls back
// to it transparently.
type CachedStore struct {
	PerformanceStore
	redisClient *redis.Client
	ttl         time.Duration
	log         *logging.Logger
}

// NewCachedStore wraps store with a Redis cache-aside layer. If
// redisClient is nil, reads simply pass through uncached.
func NewCachedStore(underlying PerformanceStore, redisClient *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedStore{PerformanceStore: underlying, redisClient: redisClient, ttl: ttl, log: logging.Global()}
}

func (c *CachedStore) BestSelectors(ctx context.Context, field string, limit int) ([]models.SelectorStat, error) {
	if c.redisClient == nil {
		return c.PerformanceStore.BestSelectors(ctx, field, limit)
	}
	key := fmt.Sprintf("perf:selectors:%s:%d", field, limit)

	if cached, err := c.redisClient.Get(ctx, key).Result(); err == nil {
		var stats []models.SelectorStat
		if json.Unmarshal([]byte(cached), &stats) == nil {
			c.log.CacheLogger("best_selectors", key, true)
			return stats, nil
		}
	}
	c.log.CacheLogger("best_selectors", key, false)

	stats, err := c.PerformanceStore.BestSelectors(ctx, field, limit)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(stats); err == nil {
		c.redisClient.Set(ctx, key, data, c.ttl)
	}
	return stats, nil
}

func (c *CachedStore) BestUA(ctx context.Context) (string, error) {
	if c.redisClient == nil {
		return c.PerformanceStore.BestUA(ctx)
	}
	const key = "perf:best_ua"
	if cached, err := c.redisClient.Get(ctx, key).Result(); err == nil && cached != "" {
		c.log.CacheLogger("best_ua", key, true)
		return cached, nil
	}
	c.log.CacheLogger("best_ua", key, false)

	ua, err := c.PerformanceStore.BestUA(ctx)
	if err != nil {
		return "", err
	}
	if ua != "" {
		c.redisClient.Set(ctx, key, ua, c.ttl)
	}
	return ua, nil
}

func (c *CachedStore) BestProxy(ctx context.Context) (string, error) {
	if c.redisClient == nil {
		return c.PerformanceStore.BestProxy(ctx)
	}
	const key = "perf:best_proxy"
	if cached, err := c.redisClient.Get(ctx, key).Result(); err == nil && cached != "" {
		c.log.CacheLogger("best_proxy", key, true)
		return cached, nil
	}
	c.log.CacheLogger("best_proxy", key, false)

	proxy, err := c.PerformanceStore.BestProxy(ctx)
	if err != nil {
		return "", err
	}
	if proxy != "" {
		c.redisClient.Set(ctx, key, proxy, c.ttl)
	}
	return proxy, nil
}

// InvalidateUAProxy drops the cached UA/proxy picks so the next
// BestUA/BestProxy call reads through to the wrapped store.
func (c *CachedStore) InvalidateUAProxy(ctx context.Context) {
	if c.redisClient == nil {
		return
	}
	c.redisClient.Del(ctx, "perf:best_ua", "perf:best_proxy")
}

var _ PerformanceStore = (*CachedStore)(nil)

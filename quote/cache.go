package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cached serves recent quotes from redis and falls back to the wrapped provider.
// Redis errors never fail a lookup.
type Cached struct {
	next Provider
	rdb  *redis.Client
	ttl  time.Duration
	log  *slog.Logger
}

func NewCached(next Provider, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Cached {
	return &Cached{next: next, rdb: rdb, ttl: ttl, log: log}
}

func (c *Cached) Lookup(ctx context.Context, symbol string) (Quote, error) {
	symbol = Normalize(symbol)
	key := cacheKey(symbol)

	cached, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		var q Quote
		if err := json.Unmarshal([]byte(cached), &q); err == nil {
			return q, nil
		}
		c.log.Warn("dropping unreadable cached quote", slog.String("key", key))
	} else if err != redis.Nil {
		c.log.Warn("quote cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	q, err := c.next.Lookup(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}

	payload, err := json.Marshal(q)
	if err != nil {
		return q, nil
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn("failed to cache quote", slog.String("key", key), slog.Any("error", err))
	}

	return q, nil
}

func cacheKey(symbol string) string {
	return fmt.Sprintf("stock:%s:quote", symbol)
}

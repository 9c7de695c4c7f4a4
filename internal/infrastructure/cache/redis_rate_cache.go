package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/estudio/backend/internal/domain/fx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRateCache is a read-through layer over a persistent fx.RateCache that
// shares effective-rate lookups across process instances. Redis failures
// degrade to the inner cache rather than failing the lookup.
type RedisRateCache struct {
	inner  fx.RateCache
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisRateCache creates a new RedisRateCache over inner.
// The caller retains ownership of the Redis client.
func NewRedisRateCache(inner fx.RateCache, client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisRateCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRateCache{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger.Named("cache.rates"),
	}
}

func (c *RedisRateCache) key(date time.Time) string {
	return fmt.Sprintf("fx:rate:%s", fx.NormalizeDate(date).Format(time.DateOnly))
}

// Get returns the effective rate for a date, consulting Redis first
func (c *RedisRateCache) Get(ctx context.Context, date time.Time) (*fx.ExchangeRate, error) {
	cacheKey := c.key(date)

	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var rate fx.ExchangeRate
		if uerr := json.Unmarshal(data, &rate); uerr == nil {
			return &rate, nil
		}
		// Corrupt entry, drop it and fall through to the inner cache.
		c.client.Del(ctx, cacheKey)
	} else if err != redis.Nil {
		c.logger.Warn("redis get failed, reading through",
			zap.String("key", cacheKey),
			zap.Error(err))
	}

	rate, err := c.inner.Get(ctx, date)
	if err != nil {
		return nil, err
	}

	if data, merr := json.Marshal(rate); merr == nil {
		if serr := c.client.Set(ctx, cacheKey, data, c.ttl).Err(); serr != nil {
			c.logger.Warn("redis set failed",
				zap.String("key", cacheKey),
				zap.Error(serr))
		}
	}
	return rate, nil
}

// Put delegates to the inner cache and invalidates the Redis entry for the
// date so subsequent reads observe the new effective rate
func (c *RedisRateCache) Put(ctx context.Context, rate *fx.ExchangeRate) error {
	err := c.inner.Put(ctx, rate)

	cacheKey := c.key(rate.RateDate)
	if derr := c.client.Del(ctx, cacheKey).Err(); derr != nil {
		c.logger.Warn("redis invalidation failed",
			zap.String("key", cacheKey),
			zap.Error(derr))
	}
	return err
}

// History delegates to the inner cache
func (c *RedisRateCache) History(ctx context.Context, date time.Time) ([]fx.ExchangeRate, error) {
	return c.inner.History(ctx, date)
}

// NearestBefore delegates to the inner cache
func (c *RedisRateCache) NearestBefore(ctx context.Context, date time.Time, lookbackDays int) (*fx.ExchangeRate, error) {
	return c.inner.NearestBefore(ctx, date, lookbackDays)
}

// MissingDates delegates to the inner cache
func (c *RedisRateCache) MissingDates(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	return c.inner.MissingDates(ctx, from, to)
}

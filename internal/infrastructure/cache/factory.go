package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/estudio/backend/internal/domain/fx"
	"github.com/estudio/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateCacheFactory builds the rate read-cache layer based on configuration
type RateCacheFactory struct {
	redisConfig config.RedisConfig
	logger      *zap.Logger
}

// NewRateCacheFactory creates a new factory
func NewRateCacheFactory(cfg config.RedisConfig, logger *zap.Logger) *RateCacheFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateCacheFactory{redisConfig: cfg, logger: logger}
}

// Create wraps the persistent cache with a read-through layer. When Redis is
// enabled and reachable it is used so instances share lookups; otherwise the
// factory falls back to a per-process in-memory layer.
func (f *RateCacheFactory) Create(inner fx.RateCache) (fx.RateCache, func() error, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("using in-memory rate read cache")
		return NewInMemoryRateCache(inner), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		f.logger.Warn("redis unavailable, falling back to in-memory rate read cache",
			zap.Error(fmt.Errorf("failed to connect to Redis: %w", err)))
		return NewInMemoryRateCache(inner), func() error { return nil }, nil
	}

	f.logger.Info("using Redis rate read cache", zap.String("addr", f.redisConfig.Addr()))
	return NewRedisRateCache(inner, client, f.redisConfig.TTL, f.logger), client.Close, nil
}

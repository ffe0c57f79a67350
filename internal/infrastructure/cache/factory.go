package cache

import (
	"context"
	"fmt"

	"github.com/erp/checkout/internal/domain/shared"
	"github.com/erp/checkout/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore picks the store for cfg: Redis when a host is configured,
// memory otherwise. A Redis that cannot be reached falls back to memory unless
// idempotency.require_redis is set.
func NewIdempotencyStore(ctx context.Context, cfg config.Config, log *zap.Logger) (shared.IdempotencyStore, error) {
	if cfg.Redis.Host == "" {
		log.Info("Using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(ctx, RedisOptions{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err == nil {
		log.Info("Using Redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
		return store, nil
	}

	if cfg.Idempotency.RequireRedis {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}
	log.Warn("Redis unavailable, falling back to in-memory idempotency store; "+
		"retries that reach another instance will not be recognised",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}

package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/seedledger-api/internal/config"
	"github.com/sangkips/seedledger-api/pkg/apperror"
	"go.uber.org/zap"
)

const retryInterval = 50 * time.Millisecond

// RedisLocker hands out short-lived distributed locks backed by Redis
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// NewRedisLocker creates a locker whose locks expire after ttl
func NewRedisLocker(rdb redislock.RedisClient, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		logger: logger,
	}
}

// Lock blocks until key is obtained or the ttl has elapsed in retries.
// The returned func releases the lock.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	retries := int(l.ttl / retryInterval)
	lk, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(retryInterval), retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.logger.Warn("could not obtain redis lock", zap.String("key", key))
		return nil, apperror.NewConflictError("Resource is busy, please retry")
	}
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}

	return func(ctx context.Context) error {
		if err := lk.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release redis lock", zap.String("key", key), zap.Error(err))
			return err
		}
		return nil
	}, nil
}

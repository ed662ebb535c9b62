package locks

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockValue = "locked"

// RedisLocker implements Locker with SET NX PX, the single-instance
// redis lock. The TTL guards against holders that die without
// releasing.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if client == nil {
		panic("redis client is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) error {
	ok, err := l.client.SetNX(ctx, lockKey(key), lockValue, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire lock %q: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLockHeld, key)
	}
	return nil
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, lockKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release lock %q: %w", key, err)
	}
	return nil
}

func lockKey(key string) string {
	return "lock:" + key
}

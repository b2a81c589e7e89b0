package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// GetString reads a cached value; ok is false on miss or redis error,
// so callers fall through to the database.
func (r *Redis) GetString(ctx context.Context, key string) (string, bool) {
	if r == nil || r.Client == nil {
		return "", false
	}
	val, err := r.Client.Get(ctx, key).Result()
	if err != nil {
		// redis.Nil and transient errors are both treated as a miss
		return "", false
	}
	return val, true
}

// SetString caches a value with a TTL; errors are ignored (cache is best effort).
func (r *Redis) SetString(ctx context.Context, key, val string, ttl time.Duration) {
	if r == nil || r.Client == nil {
		return
	}
	_ = r.Client.Set(ctx, key, val, ttl).Err()
}

// Invalidate drops cached keys.
func (r *Redis) Invalidate(ctx context.Context, keys ...string) {
	if r == nil || r.Client == nil || len(keys) == 0 {
		return
	}
	_ = r.Client.Del(ctx, keys...).Err()
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/riveredge/platform-kernel/internal/application/ports"
)

var _ ports.Cache = (*Redis)(nil)

// Redis caché compartida entre instancias.
type Redis struct {
	c   *redis.Client
	ttl time.Duration
}

// NewRedisClient crea el cliente a partir de una URL redis://.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewRedis envuelve un cliente existente.
func NewRedis(c *redis.Client, defaultTTL time.Duration) *Redis {
	return &Redis{c: c, ttl: ports.ClampTTL(defaultTTL)}
}

// Ping comprueba la conexión.
func (r *Redis) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}

// Close cierra el cliente.
func (r *Redis) Close() error {
	return r.c.Close()
}

func (r *Redis) expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return r.ttl
	}
	return ports.ClampTTL(ttl)
}

func (r *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := r.c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return r.c.Set(ctx, key, raw, r.expiration(ttl)).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.c.Del(ctx, keys...).Err()
}

func (r *Redis) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := r.c.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			return fmt.Errorf("cache: scan %s: %w", prefix, err)
		}
		if len(keys) > 0 {
			if err := r.c.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache: del: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (r *Redis) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := r.c.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache: incr %s: %w", key, err)
	}
	if n == 1 {
		if err := r.c.Expire(ctx, key, r.expiration(ttl)).Err(); err != nil {
			return n, fmt.Errorf("cache: expire %s: %w", key, err)
		}
	}
	return n, nil
}

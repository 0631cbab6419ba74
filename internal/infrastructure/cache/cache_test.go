package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/application/ports"
)

type payload struct {
	Codes []string `json:"codes"`
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedis(client, time.Minute)
}

func caches(t *testing.T) map[string]ports.Cache {
	_, r := setupRedis(t)
	return map[string]ports.Cache{"local": NewLocal(time.Minute), "redis": r}
}

func TestCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, c := range caches(t) {
		t.Run(name, func(t *testing.T) {
			key := ports.CacheKey("perm", 1, "user_permissions", "7")
			var got payload
			ok, err := c.Get(ctx, key, &got)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, c.Set(ctx, key, payload{Codes: []string{"a:read"}}, 0))
			ok, err = c.Get(ctx, key, &got)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, []string{"a:read"}, got.Codes)

			require.NoError(t, c.Delete(ctx, key))
			ok, _ = c.Get(ctx, key, &got)
			assert.False(t, ok)
		})
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	for name, c := range caches(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Set(ctx, ports.CacheKey("perm", 1, "user_permissions", "1"), 1, 0))
			require.NoError(t, c.Set(ctx, ports.CacheKey("perm", 1, "user_permissions", "2"), 2, 0))
			require.NoError(t, c.Set(ctx, ports.CacheKey("perm", 2, "user_permissions", "1"), 3, 0))

			require.NoError(t, c.DeletePrefix(ctx, ports.CachePrefix("perm", 1, "user_permissions")))

			var v int
			ok, _ := c.Get(ctx, ports.CacheKey("perm", 1, "user_permissions", "1"), &v)
			assert.False(t, ok)
			ok, _ = c.Get(ctx, ports.CacheKey("perm", 2, "user_permissions", "1"), &v)
			assert.True(t, ok)
			assert.Equal(t, 3, v)
		})
	}
}

func TestCache_Incr(t *testing.T) {
	ctx := context.Background()
	for name, c := range caches(t) {
		t.Run(name, func(t *testing.T) {
			key := ports.CacheKey("auth", 0, "login_attempts", "alice")
			for i := int64(1); i <= 3; i++ {
				n, err := c.Incr(ctx, key, time.Minute)
				require.NoError(t, err)
				assert.Equal(t, i, n)
			}
			var n int64
			ok, err := c.Get(ctx, key, &n)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, int64(3), n)
		})
	}
}

func TestRedis_TTLAcotado(t *testing.T) {
	mr, r := setupRedis(t)
	require.NoError(t, r.Set(context.Background(), "k", "v", time.Hour))
	assert.Equal(t, ports.MaxCacheTTL, mr.TTL("k"))

	mr.FastForward(ports.MaxCacheTTL + time.Second)
	var v string
	ok, err := r.Get(context.Background(), "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPorts_CacheKey(t *testing.T) {
	assert.Equal(t, "dict:3:code:CURRENCY", ports.CacheKey("dict", 3, "code", "CURRENCY"))
	assert.Equal(t, ports.MaxCacheTTL, ports.ClampTTL(0))
	assert.Equal(t, time.Minute, ports.ClampTTL(time.Minute))
}

package ports

import (
	"context"
	"fmt"
	"time"
)

// MaxCacheTTL límite superior de cualquier entrada cacheada.
const MaxCacheTTL = 5 * time.Minute

// Cache caché clave/valor con TTL. Los valores se serializan como JSON.
type Cache interface {
	// Get carga el valor en dest; false si la clave no existe o expiró.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix invalida todas las claves que empiezan por prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	// Incr incrementa un contador; ttl se aplica al crearlo.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// CacheKey construye "{scope}:{tenant_id}:{key_type}:{key_value}".
func CacheKey(scope string, tenantID int64, keyType, keyValue string) string {
	return fmt.Sprintf("%s:%d:%s:%s", scope, tenantID, keyType, keyValue)
}

// CachePrefix prefijo "{scope}:{tenant_id}:{key_type}:" para invalidaciones en bloque.
func CachePrefix(scope string, tenantID int64, keyType string) string {
	return fmt.Sprintf("%s:%d:%s:", scope, tenantID, keyType)
}

// ClampTTL aplica MaxCacheTTL.
func ClampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > MaxCacheTTL {
		return MaxCacheTTL
	}
	return ttl
}

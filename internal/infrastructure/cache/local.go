// Package cache implementa ports.Cache en memoria (go-cache) y sobre Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/riveredge/platform-kernel/internal/application/ports"
)

var _ ports.Cache = (*Local)(nil)

// Local caché de proceso. Los valores se guardan como JSON para que Get se
// comporte igual que la versión Redis.
type Local struct {
	c   *gocache.Cache
	ttl time.Duration
	mu  sync.Mutex
}

// NewLocal crea una caché local con el TTL por defecto indicado (máximo 5 minutos).
func NewLocal(defaultTTL time.Duration) *Local {
	ttl := ports.ClampTTL(defaultTTL)
	return &Local{c: gocache.New(ttl, 2*ttl), ttl: ttl}
}

func (l *Local) expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return l.ttl
	}
	return ports.ClampTTL(ttl)
}

func (l *Local) Get(_ context.Context, key string, dest any) (bool, error) {
	v, ok := l.c.Get(key)
	if !ok {
		return false, nil
	}
	var raw []byte
	switch t := v.(type) {
	case []byte:
		raw = t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return false, fmt.Errorf("cache: %w", err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return true, nil
}

func (l *Local) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	l.c.Set(key, raw, l.expiration(ttl))
	return nil
}

func (l *Local) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		l.c.Delete(k)
	}
	return nil
}

func (l *Local) DeletePrefix(_ context.Context, prefix string) error {
	for k := range l.c.Items() {
		if strings.HasPrefix(k, prefix) {
			l.c.Delete(k)
		}
	}
	return nil
}

func (l *Local) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.c.Add(key, int64(1), l.expiration(ttl)); err == nil {
		return 1, nil
	}
	n, err := l.c.IncrementInt64(key, 1)
	if err != nil {
		return 0, fmt.Errorf("cache: incr %s: %w", key, err)
	}
	return n, nil
}

package memcache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemCache: процессный кэш с TTL. Живёт до рестарта, просроченные записи
// удаляются при чтении.
type MemCache struct {
	mu  sync.Mutex
	m   map[string]entry
	now func() time.Time
}

func New() *MemCache {
	return &MemCache{m: make(map[string]entry), now: time.Now}
}

func (c *MemCache) WithClock(now func() time.Time) *MemCache {
	c.now = now
	return c
}

func (c *MemCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.m, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (c *MemCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = entry{value: append([]byte(nil), value...), expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemCache) Keys(_ context.Context, prefix string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	out := make([]string, 0, len(c.m))
	for k, e := range c.m {
		if strings.HasPrefix(k, prefix) && now.Before(e.expiresAt) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (c *MemCache) Purge(_ context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
			n++
		}
	}
	return n, nil
}

package service

import (
	"context"
	"sync"
	"time"
)

const defaultMissCacheEntries = 10000

// MissCache remembers usernames that recently resolved to no principal.
type MissCache interface {
	Seen(ctx context.Context, username string) (bool, error)
	Remember(ctx context.Context, username string, ttl time.Duration) error
	Forget(ctx context.Context, username string) error
}

type noMissCache struct{}

func (noMissCache) Seen(context.Context, string) (bool, error)            { return false, nil }
func (noMissCache) Remember(context.Context, string, time.Duration) error { return nil }
func (noMissCache) Forget(context.Context, string) error                  { return nil }

// InMemoryMissCache is a process-local MissCache holding at most limit
// names. Once full, new misses are dropped until entries expire.
type InMemoryMissCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	limit   int
	now     func() time.Time
}

func NewInMemoryMissCache(limit int) *InMemoryMissCache {
	if limit <= 0 {
		limit = defaultMissCacheEntries
	}
	return &InMemoryMissCache{entries: make(map[string]time.Time), limit: limit, now: time.Now}
}

// WithClock overrides the expiry clock.
func (c *InMemoryMissCache) WithClock(now func() time.Time) *InMemoryMissCache {
	if now != nil {
		c.now = now
	}
	return c
}

func (c *InMemoryMissCache) Seen(_ context.Context, username string) (bool, error) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	expiresAt, ok := c.entries[username]
	if !ok {
		return false, nil
	}
	if !now.Before(expiresAt) {
		delete(c.entries, username)
		return false, nil
	}
	return true, nil
}

func (c *InMemoryMissCache) Remember(_ context.Context, username string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[username]; !ok && len(c.entries) >= c.limit {
		c.sweepLocked(now)
		if len(c.entries) >= c.limit {
			return nil
		}
	}
	c.entries[username] = now.Add(ttl)
	return nil
}

func (c *InMemoryMissCache) Forget(_ context.Context, username string) error {
	c.mu.Lock()
	delete(c.entries, username)
	c.mu.Unlock()
	return nil
}

// Len counts entries, expired ones included.
func (c *InMemoryMissCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *InMemoryMissCache) sweepLocked(now time.Time) {
	for name, expiresAt := range c.entries {
		if !now.Before(expiresAt) {
			delete(c.entries, name)
		}
	}
}

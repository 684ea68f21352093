package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMissCache shares principal misses across replicas. Each name is one
// key expiring with its TTL.
type RedisMissCache struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisMissCache(client redis.UniversalClient, prefix string) *RedisMissCache {
	if prefix == "" {
		prefix = "principal_miss"
	}
	return &RedisMissCache{client: client, prefix: prefix}
}

func (c *RedisMissCache) Seen(ctx context.Context, username string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(username)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *RedisMissCache) Remember(ctx context.Context, username string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, c.key(username), "1", ttl).Err()
}

func (c *RedisMissCache) Forget(ctx context.Context, username string) error {
	return c.client.Del(ctx, c.key(username)).Err()
}

func (c *RedisMissCache) key(username string) string {
	return c.prefix + ":" + hashToken(username)
}

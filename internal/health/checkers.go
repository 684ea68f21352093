package health

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type DBChecker struct {
	db *gorm.DB
}

func NewDBChecker(db *gorm.DB) *DBChecker { return &DBChecker{db: db} }

func (c *DBChecker) Name() string { return "database" }

func (c *DBChecker) Check(ctx context.Context) CheckResult {
	if c.db == nil {
		return CheckResult{Name: c.Name(), Error: "database not configured"}
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return CheckResult{Name: c.Name(), Error: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return CheckResult{Name: c.Name(), Error: err.Error()}
	}
	return CheckResult{Name: c.Name(), Healthy: true}
}

type RedisChecker struct {
	client redis.UniversalClient
}

func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Name() string { return "redis" }

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	if c.client == nil {
		return CheckResult{Name: c.Name(), Error: "redis not configured"}
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return CheckResult{Name: c.Name(), Error: err.Error()}
	}
	return CheckResult{Name: c.Name(), Healthy: true}
}

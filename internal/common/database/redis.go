// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"healthkit-bridge/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the Redis client shared by the redis cloud store and the
// bridge's pub/sub feed.
type RedisClient struct {
	Client    *redis.Client
	KeyPrefix string
}

func NewRedis(cfg config.RedisConfig) *RedisClient {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return &RedisClient{Client: rdb, KeyPrefix: cfg.KeyPrefix}
}

// NewRedisFromClient wraps an already configured client, e.g. one pointing at miniredis.
func NewRedisFromClient(c *redis.Client, keyPrefix string) *RedisClient {
	return &RedisClient{Client: c, KeyPrefix: keyPrefix}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// Key prefixes parts with the configured namespace.
func (c *RedisClient) Key(part string) string {
	return c.KeyPrefix + part
}

// Publish sends payload on channel.
func (c *RedisClient) Publish(ctx context.Context, channel string, payload interface{}) error {
	return c.Client.Publish(ctx, channel, payload).Err()
}

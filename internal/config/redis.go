package config

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the Redis server backing the rate limiter.
// It returns nil without error when no address is configured, and an error
// when the server does not answer a ping within two seconds.
func (c *Config) NewRedisClient(ctx context.Context) (*redis.Client, error) {
	if c.Redis.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", c.Redis.Addr, err)
	}
	return client, nil
}

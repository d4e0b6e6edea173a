package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gogotex/collabedit/internal/config"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a pinged client, or (nil, nil) when Redis is not configured.
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	addr := cfg.RedisAddr()
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

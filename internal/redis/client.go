// Package redis 牌局比分的 Redis 镜像
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"sudooom.set/internal/config"
)

// Client Redis 客户端
type Client struct {
	client *redis.Client
	logger *slog.Logger
}

// NewClient 创建 Redis 客户端并检查连接
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}

	logger := slog.Default().With("component", "Redis")
	logger.Info("Connected to Redis", "addr", addr, "db", cfg.DB)
	return &Client{client: client, logger: logger}, nil
}

// Raw 返回底层客户端
func (c *Client) Raw() *redis.Client {
	return c.client
}

// Ping 检查 Redis 连接
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.client.Close()
}

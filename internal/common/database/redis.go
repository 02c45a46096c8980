package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"assistance-wizard/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// ErrKeyNotFound is returned by Get for a missing key.
var ErrKeyNotFound = errors.New("key not found")

type RedisClient struct {
	Client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	return &RedisClient{Client: rdb, ttl: config.GetDuration(cfg.TTL)}, nil
}

// NewRedisFromClient wraps an existing client, e.g. one backed by miniredis or redismock.
func NewRedisFromClient(rdb redis.UniversalClient, ttl time.Duration) *RedisClient {
	return &RedisClient{Client: rdb, ttl: ttl}
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

// Get returns ErrKeyNotFound when the key does not exist.
func (c *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Set stores value with the client's default TTL.
func (c *RedisClient) Set(ctx context.Context, key string, value []byte) error {
	if err := c.Client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisClient) Del(ctx context.Context, keys ...string) error {
	if err := c.Client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

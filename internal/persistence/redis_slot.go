package persistence

import (
	"context"
	"errors"

	"assistance-wizard/internal/common/database"
)

const redisKeyPrefix = "wizard:snapshot:"

// RedisSlot stores snapshots in Redis, optionally with a TTL set on the client.
type RedisSlot struct {
	client *database.RedisClient
}

func NewRedisSlot(client *database.RedisClient) *RedisSlot {
	return &RedisSlot{client: client}
}

func (r *RedisSlot) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key)
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, ErrSlotEmpty
	}
	return data, err
}

func (r *RedisSlot) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, redisKeyPrefix+key, value)
}

func (r *RedisSlot) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, redisKeyPrefix+key)
}

func (r *RedisSlot) Name() string { return "redis" }

package storage

import (
	"context"
	"errors"

	"github.com/darkjune/eclipse/pkg/naming"
	"github.com/go-redis/redis/v8"
)

// DefaultRedisKey is the hash holding parameter values.
const DefaultRedisKey = "eclipse:parameters"

// RedisClient is the subset of *redis.Client used by Redis.
type RedisClient interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
}

// Redis stores values as fields of a single hash.
type Redis struct {
	client RedisClient
	key    string
}

// NewRedis creates a Redis storage writing into the hash named key, DefaultRedisKey if empty.
func NewRedis(client RedisClient, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

func (r *Redis) Load(ctx context.Context, key naming.FullName) (string, bool, error) {
	raw, err := r.client.HGet(ctx, r.key, key.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return raw, true, nil
}

func (r *Redis) Save(ctx context.Context, key naming.FullName, raw string) error {
	return r.client.HSet(ctx, r.key, key.String(), raw).Err()
}

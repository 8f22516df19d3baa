package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisStorageRepo struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStorageRepository keeps each device namespace in one hash,
// "<prefix>:storage:<namespace>".
func NewRedisStorageRepository(rdb *redis.Client, prefix string) StorageRepository {
	return &redisStorageRepo{
		rdb:    rdb,
		prefix: prefix,
	}
}

func (r *redisStorageRepo) namespaceKey(namespace string) string {
	return fmt.Sprintf("%s:storage:%s", r.prefix, namespace)
}

func (r *redisStorageRepo) Get(ctx context.Context, namespace, key string) (string, error) {
	value, err := r.rdb.HGet(ctx, r.namespaceKey(namespace), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis hget %s: %w", key, err)
	}

	return value, nil
}

func (r *redisStorageRepo) Set(ctx context.Context, namespace, key, value string) error {
	if err := r.rdb.HSet(ctx, r.namespaceKey(namespace), key, value).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

func (r *redisStorageRepo) Delete(ctx context.Context, namespace, key string) error {
	if err := r.rdb.HDel(ctx, r.namespaceKey(namespace), key).Err(); err != nil {
		return fmt.Errorf("redis hdel %s: %w", key, err)
	}
	return nil
}

package ratelimiter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimiter:"

// RedisBackend keeps every entry under keyPrefix so it can share a redis
// database with other data.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(addr string) *RedisBackend {
	return NewRedisBackendWithClient(redis.NewClient(&redis.Options{
		Addr: addr,
	}))
}

func NewRedisBackendWithClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (rb *RedisBackend) Get(ctx context.Context, key string) (*ClientData, error) {
	result, err := rb.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var data ClientData
	if err := json.Unmarshal(result, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (rb *RedisBackend) Set(ctx context.Context, key string, data *ClientData) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return rb.client.Set(ctx, keyPrefix+key, jsonData, 0).Err()
}

func (rb *RedisBackend) Delete(ctx context.Context, key string) error {
	return rb.client.Del(ctx, keyPrefix+key).Err()
}

func (rb *RedisBackend) List(ctx context.Context) (map[string]*ClientData, error) {
	keys, err := rb.keys(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*ClientData, len(keys))
	for _, key := range keys {
		val, err := rb.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// expired or deleted between SCAN and GET
			continue
		}
		if err != nil {
			return nil, err
		}

		var data ClientData
		if err := json.Unmarshal(val, &data); err != nil {
			return nil, err
		}
		result[strings.TrimPrefix(key, keyPrefix)] = &data
	}

	return result, nil
}

func (rb *RedisBackend) Clear(ctx context.Context) error {
	keys, err := rb.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rb.client.Del(ctx, keys...).Err()
}

func (rb *RedisBackend) Close() error {
	return rb.client.Close()
}

func (rb *RedisBackend) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := rb.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	scanBatch   = 100
	pingTimeout = 3 * time.Second
)

// RedisHandle exposes a redis logical database as a set of collections,
// one per key namespace (the part of the key before the first ':').
type RedisHandle struct {
	client *redis.Client
	name   string
}

func NewRedisHandle(client *redis.Client, name string) *RedisHandle {
	if name == "" {
		name = fmt.Sprintf("db%d", client.Options().DB)
	}
	return &RedisHandle{client: client, name: name}
}

func (rh *RedisHandle) Name() string {
	return rh.name
}

func (rh *RedisHandle) ListCollectionNames(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})

	iter := rh.client.Scan(ctx, 0, "*", scanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if i := strings.IndexByte(key, ':'); i >= 0 {
			key = key[:i]
		}
		seen[key] = struct{}{}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (rh *RedisHandle) Close() error {
	return rh.client.Close()
}

// Open enables the database for this process. It never fails: every
// outcome is encoded in the returned Locator, and the returned close func
// is always safe to call.
func Open(ctx context.Context, url, name string, logger *zap.Logger) (Locator, func() error) {
	noop := func() error { return nil }

	if url == "" {
		logger.Info("database disabled, DATABASE_URL not set")
		return Absent{}, noop
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("invalid DATABASE_URL", zap.Error(err))
		return Static{Err: fmt.Errorf("parse DATABASE_URL: %w", err)}, noop
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("database not initialized", zap.String("addr", opts.Addr), zap.Error(err))
		_ = client.Close()
		return Static{}, noop
	}

	handle := NewRedisHandle(client, name)
	logger.Info("database connected", zap.String("addr", opts.Addr), zap.String("name", handle.Name()))
	return Static{Handle: handle}, handle.Close
}

package ratelimiter

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("client not found")

type Backend interface {
	Get(ctx context.Context, key string) (*ClientData, error)
	Set(ctx context.Context, key string, data *ClientData) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]*ClientData, error)
	Clear(ctx context.Context) error
}

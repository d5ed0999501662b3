package ratelimiter

import (
	"context"
	"sync"
)

// MemoryBackend keeps entries by value, so callers never share state with
// the map.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]ClientData
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: map[string]ClientData{}}
}

func (mb *MemoryBackend) Get(_ context.Context, key string) (*ClientData, error) {
	mb.mu.RLock()
	entry, ok := mb.data[key]
	mb.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return &entry, nil
}

func (mb *MemoryBackend) Set(_ context.Context, key string, data *ClientData) error {
	mb.mu.Lock()
	mb.data[key] = *data
	mb.mu.Unlock()
	return nil
}

func (mb *MemoryBackend) Delete(_ context.Context, key string) error {
	mb.mu.Lock()
	delete(mb.data, key)
	mb.mu.Unlock()
	return nil
}

func (mb *MemoryBackend) List(_ context.Context) (map[string]*ClientData, error) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	out := make(map[string]*ClientData, len(mb.data))
	for key, entry := range mb.data {
		entry := entry
		out[key] = &entry
	}
	return out, nil
}

func (mb *MemoryBackend) Clear(_ context.Context) error {
	mb.mu.Lock()
	clear(mb.data)
	mb.mu.Unlock()
	return nil
}

func (mb *MemoryBackend) Len() int {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	return len(mb.data)
}

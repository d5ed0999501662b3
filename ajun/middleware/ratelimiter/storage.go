package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type StorageBackend string

const (
	Memory StorageBackend = "memory"
	Redis  StorageBackend = "redis"
)

// NewBackend builds the backend named by kind. The close func releases its
// connections.
func NewBackend(kind StorageBackend, redisAddr string) (Backend, func() error, error) {
	switch kind {
	case Memory, "":
		return NewMemoryBackend(), func() error { return nil }, nil
	case Redis:
		rb := NewRedisBackend(redisAddr)
		return rb, rb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown rate limiter backend %q", kind)
	}
}

// Storage serializes read-modify-write cycles on a Backend.
type Storage struct {
	mu          sync.Mutex
	backend     Backend
	timeCleanIn time.Duration
	ttl         time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewStorage starts the cleanup worker, which runs until ctx is done.
func NewStorage(ctx context.Context, backend Backend, timeCleanIn time.Duration, ttl time.Duration, logger *zap.Logger) *Storage {
	s := &Storage{
		backend:     backend,
		timeCleanIn: timeCleanIn,
		ttl:         ttl,
		logger:      logger,
		now:         time.Now,
	}

	go s.startCleanupWorker(ctx)

	return s
}

// Hit records one request for key inside a window of the given length and
// returns the updated entry.
func (s *Storage) Hit(ctx context.Context, key string, window time.Duration) (*ClientData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	data, err := s.get(ctx, key)
	if err != nil {
		return nil, err
	}

	if data.blocked(now) {
		data.Time = now
		return data, s.backend.Set(ctx, key, data)
	}

	if data.WindowStart.IsZero() || now.Sub(data.WindowStart) >= window {
		data.WindowStart = now
		data.Count = 0
	}
	data.Count++
	data.Time = now

	return data, s.backend.Set(ctx, key, data)
}

// Disable blocks key for duration.
func (s *Storage) Disable(ctx context.Context, key string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.get(ctx, key)
	if err != nil {
		return err
	}
	now := s.now()
	data.Time = now
	data.DisableUntil = now.Add(duration)

	return s.backend.Set(ctx, key, data)
}

func (s *Storage) disabledUntil(ctx context.Context, key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.backend.Get(ctx, key)
	if err != nil {
		return time.Time{}, false
	}
	return data.DisableUntil, data.blocked(s.now())
}

func (s *Storage) counts(ctx context.Context) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.backend.List(ctx)
	if err != nil {
		s.logger.Warn("rate limiter list failed", zap.Error(err))
		return map[string]int{}
	}

	counts := make(map[string]int, len(data))
	for key, d := range data {
		counts[key] = d.Count
	}
	return counts
}

func (s *Storage) reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.Delete(ctx, key)
}

func (s *Storage) resetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.Clear(ctx)
}

func (s *Storage) startCleanupWorker(ctx context.Context) {
	ticker := time.NewTicker(s.timeCleanIn)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupOldData(ctx)
		case <-ctx.Done():
			s.logger.Debug("rate limiter cleanup worker stopped")
			return
		}
	}
}

func (s *Storage) cleanupOldData(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	data, err := s.backend.List(ctx)
	if err != nil {
		s.logger.Warn("rate limiter cleanup list failed", zap.Error(err))
		return 0
	}

	count := 0
	for key, d := range data {
		if !d.idle(now, s.ttl) {
			continue
		}
		if err := s.backend.Delete(ctx, key); err != nil {
			s.logger.Warn("rate limiter cleanup delete failed", zap.String("key", key), zap.Error(err))
			continue
		}
		count++
	}

	if count > 0 {
		s.logger.Debug("rate limiter cleanup complete", zap.Int("removed", count))
	}
	return count
}

// get must be called with s.mu held. A missing entry is a fresh one.
func (s *Storage) get(ctx context.Context, key string) (*ClientData, error) {
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return &ClientData{}, nil
	}
	return data, err
}

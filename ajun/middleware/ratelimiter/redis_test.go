package ratelimiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Erro ao iniciar miniredis: %v", err)
	}

	backend := NewRedisBackendWithClient(redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	}))
	t.Cleanup(func() {
		backend.Close()
		mr.Close()
	})

	return backend, mr
}

func TestRedisBackend_SetAndGet(t *testing.T) {
	backend, mr := setupTestRedis(t)
	ctx := context.Background()

	data := &ClientData{
		Count:        5,
		Time:         time.Now(),
		DisableUntil: time.Now().Add(time.Minute),
	}

	if err := backend.Set(ctx, "ip:192.168.1.1", data); err != nil {
		t.Fatalf("Set retornou erro: %v", err)
	}

	if !mr.Exists("ratelimiter:ip:192.168.1.1") {
		t.Error("chave deveria usar o prefixo ratelimiter:")
	}

	retrieved, err := backend.Get(ctx, "ip:192.168.1.1")
	if err != nil {
		t.Fatalf("Get retornou erro: %v", err)
	}

	if retrieved.Count != data.Count {
		t.Errorf("Count esperado %d, obtido %d", data.Count, retrieved.Count)
	}
	if !retrieved.DisableUntil.Equal(data.DisableUntil) {
		t.Errorf("DisableUntil esperado %v, obtido %v", data.DisableUntil, retrieved.DisableUntil)
	}
}

func TestRedisBackend_GetNonExistent(t *testing.T) {
	backend, _ := setupTestRedis(t)

	retrieved, err := backend.Get(context.Background(), "nao-existe")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("esperado ErrNotFound, obtido %v", err)
	}

	if retrieved != nil {
		t.Error("Get deveria retornar nil para chave inexistente")
	}
}

func TestRedisBackend_Delete(t *testing.T) {
	backend, _ := setupTestRedis(t)
	ctx := context.Background()

	backend.Set(ctx, "ip:192.168.1.1", &ClientData{Count: 3})

	if err := backend.Delete(ctx, "ip:192.168.1.1"); err != nil {
		t.Fatalf("Delete retornou erro: %v", err)
	}
	if _, err := backend.Get(ctx, "ip:192.168.1.1"); !errors.Is(err, ErrNotFound) {
		t.Error("chave deveria ter sido removida")
	}

	if err := backend.Delete(ctx, "nao-existe"); err != nil {
		t.Errorf("Delete de chave inexistente retornou erro: %v", err)
	}
}

func TestRedisBackend_ListIgnoresForeignKeys(t *testing.T) {
	backend, mr := setupTestRedis(t)
	ctx := context.Background()

	mr.Set("users:1", "nao pertence ao rate limiter")
	backend.Set(ctx, "ip:10.0.0.1", &ClientData{Count: 1})
	backend.Set(ctx, "token:abc", &ClientData{Count: 2})

	result, err := backend.List(ctx)
	if err != nil {
		t.Fatalf("List retornou erro: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("esperado 2 entradas, obtido %d", len(result))
	}
	if result["token:abc"].Count != 2 {
		t.Errorf("Count esperado 2, obtido %d", result["token:abc"].Count)
	}
}

func TestRedisBackend_Clear(t *testing.T) {
	backend, mr := setupTestRedis(t)
	ctx := context.Background()

	mr.Set("users:1", "fica")
	backend.Set(ctx, "ip:10.0.0.1", &ClientData{Count: 1})
	backend.Set(ctx, "ip:10.0.0.2", &ClientData{Count: 1})

	if err := backend.Clear(ctx); err != nil {
		t.Fatalf("Clear retornou erro: %v", err)
	}

	result, _ := backend.List(ctx)
	if len(result) != 0 {
		t.Errorf("esperado 0 entradas após Clear, obtido %d", len(result))
	}
	if !mr.Exists("users:1") {
		t.Error("Clear não deveria remover chaves de outros dados")
	}

	if err := backend.Clear(ctx); err != nil {
		t.Errorf("Clear em banco vazio retornou erro: %v", err)
	}
}

package ratelimiter

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var successHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("success"))
})

func doRequest(h http.Handler, remoteAddr, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.RemoteAddr = remoteAddr
	if apiKey != "" {
		req.Header.Set(APIKeyHeader, apiKey)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func newTestLimiter(t *testing.T, config RateLimiterConfig) (http.Handler, *fakeClock) {
	storage, clock := newTestStorage(t, time.Minute)
	rl := NewRateLimiter(config, storage, zap.NewNop())
	return rl.RateLimiterHandler(successHandler), clock
}

func TestRateLimiterHandler_AllowsRequestsBelowLimit(t *testing.T) {
	handler, _ := newTestLimiter(t, NewRateLimiterConfig(5, time.Second, 10, time.Second))

	for i := 0; i < 5; i++ {
		w := doRequest(handler, "10.0.0.1:12345", "")
		if w.Code != http.StatusOK {
			t.Errorf("Requisição %d: esperado 200, recebeu %d", i+1, w.Code)
		}
	}
}

func TestRateLimiterHandler_BlocksAboveLimitThenRecovers(t *testing.T) {
	handler, clock := newTestLimiter(t, NewRateLimiterConfig(5, time.Second, 10, time.Second))

	for i := 0; i < 5; i++ {
		doRequest(handler, "10.0.0.1:12345", "")
	}

	w := doRequest(handler, "10.0.0.1:12345", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Requisição 6: esperado 429, recebeu %d", w.Code)
	}
	if w.Body.String() != `{"message":"Too many requests"}` {
		t.Errorf("corpo inesperado: %s", w.Body.String())
	}

	// outro IP não é afetado
	if w := doRequest(handler, "10.0.0.2:12345", ""); w.Code != http.StatusOK {
		t.Errorf("outro IP: esperado 200, recebeu %d", w.Code)
	}

	clock.Advance(500 * time.Millisecond)
	if w := doRequest(handler, "10.0.0.1:12345", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("durante bloqueio: esperado 429, recebeu %d", w.Code)
	}

	clock.Advance(time.Second)
	if w := doRequest(handler, "10.0.0.1:12345", ""); w.Code != http.StatusOK {
		t.Errorf("após bloqueio: esperado 200, recebeu %d", w.Code)
	}
}

func TestRateLimiterHandler_TokenUsesTokenLimit(t *testing.T) {
	handler, _ := newTestLimiter(t, NewRateLimiterConfig(2, time.Second, 4, time.Second))

	for i := 0; i < 4; i++ {
		if w := doRequest(handler, "10.0.0.1:12345", "abc123"); w.Code != http.StatusOK {
			t.Errorf("Requisição com token %d: esperado 200, recebeu %d", i+1, w.Code)
		}
	}
	if w := doRequest(handler, "10.0.0.1:12345", "abc123"); w.Code != http.StatusTooManyRequests {
		t.Errorf("Requisição com token 5: esperado 429, recebeu %d", w.Code)
	}

	// o IP sem token tem seu próprio contador
	if w := doRequest(handler, "10.0.0.1:12345", ""); w.Code != http.StatusOK {
		t.Errorf("Requisição sem token: esperado 200, recebeu %d", w.Code)
	}
}

func TestRateLimiterHandler_StorageFailureLetsRequestsThrough(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Erro ao iniciar miniredis: %v", err)
	}
	backend := NewRedisBackendWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	defer backend.Close()
	mr.Close()

	storage, _ := newTestStorage(t, time.Minute)
	storage.backend = backend
	handler := NewRateLimiter(NewRateLimiterConfig(1, time.Second, 1, time.Second), storage, zap.NewNop()).RateLimiterHandler(successHandler)

	for i := 0; i < 3; i++ {
		if w := doRequest(handler, "10.0.0.1:12345", ""); w.Code != http.StatusOK {
			t.Errorf("Requisição %d: esperado 200 com storage fora, recebeu %d", i+1, w.Code)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{"host e porta", "192.168.1.1:5555", "", false, "192.168.1.1"},
		{"ipv6", "[::1]:8080", "", false, "::1"},
		{"sem porta", "192.168.1.1", "", false, "192.168.1.1"},
		{"x-forwarded-for ignorado", "10.0.0.1:1", "203.0.113.7, 10.0.0.1", false, "10.0.0.1"},
		{"x-forwarded-for com proxy confiável", "10.0.0.1:1", "203.0.113.7, 10.0.0.1", true, "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(req, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, esperado %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterHandler_IgnoresForwardedForByDefault(t *testing.T) {
	handler, _ := newTestLimiter(t, NewRateLimiterConfig(2, time.Second, 10, time.Second))

	var codes []int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	want := []int{200, 200, 429, 429, 429}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("códigos = %v, esperado %v", codes, want)
		}
	}
}

func TestRateLimiterHandler_TrustProxyUsesForwardedFor(t *testing.T) {
	config := NewRateLimiterConfig(1, time.Second, 10, time.Second)
	config.TrustProxy = true
	handler, _ := newTestLimiter(t, config)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("cliente %d atrás do proxy: esperado 200, recebeu %d", i, w.Code)
		}
	}
}

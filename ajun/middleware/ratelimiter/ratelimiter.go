package ratelimiter

import (
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const APIKeyHeader = "API_KEY"

type RateLimiter struct {
	config  RateLimiterConfig
	storage *Storage
	logger  *zap.Logger
}

// RateLimiterConfig: Limit requests per Delay for an IP, TokenLimit per
// TokenDelay for a request carrying an API key. A client over its limit is
// blocked for the same duration. X-Forwarded-For is only read with
// TrustProxy, otherwise the socket address identifies the client.
type RateLimiterConfig struct {
	Limit      int
	Delay      time.Duration
	TokenLimit int
	TokenDelay time.Duration
	TrustProxy bool
}

func NewRateLimiterConfig(limit int, delay time.Duration, tokenLimit int, tokenDelay time.Duration) RateLimiterConfig {
	return RateLimiterConfig{
		Limit:      limit,
		Delay:      delay,
		TokenLimit: tokenLimit,
		TokenDelay: tokenDelay,
	}
}

func NewRateLimiter(config RateLimiterConfig, storage *Storage, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		config:  config,
		storage: storage,
		logger:  logger,
	}
}

func (rl *RateLimiter) RateLimiterHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, limit, window := rl.classify(r)
		ctx := r.Context()

		data, err := rl.storage.Hit(ctx, key, window)
		if err != nil {
			// storage trouble must not take the API down
			rl.logger.Warn("rate limiter storage unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if data.blocked(rl.storage.now()) {
			tooManyRequests(w)
			return
		}

		if data.Count > limit {
			if err := rl.storage.Disable(ctx, key, window); err != nil {
				rl.logger.Warn("rate limiter disable failed", zap.String("client", key), zap.Error(err))
			}
			rl.logger.Info("client blocked", zap.String("client", key), zap.Int("count", data.Count), zap.Duration("for", window))
			tooManyRequests(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) classify(r *http.Request) (key string, limit int, window time.Duration) {
	if token := r.Header.Get(APIKeyHeader); token != "" {
		return "token:" + token, rl.config.TokenLimit, rl.config.TokenDelay
	}
	return "ip:" + clientIP(r, rl.config.TrustProxy), rl.config.Limit, rl.config.Delay
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.Split(r.RemoteAddr, ":")[0]
	}
	return host
}

func tooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"message":"Too many requests"}`))
}

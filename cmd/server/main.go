package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adalbertofjr/digital-products-api/ajun"
	"adalbertofjr/digital-products-api/ajun/middleware"
	"adalbertofjr/digital-products-api/ajun/middleware/ratelimiter"
	"adalbertofjr/digital-products-api/cmd/configs"
	"adalbertofjr/digital-products-api/internal/database"
	"adalbertofjr/digital-products-api/internal/diagnostics"
	"adalbertofjr/digital-products-api/internal/infra/api"
	"adalbertofjr/digital-products-api/internal/logger"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config := loadConfigs()

	log, err := logger.New(config.LogLevel, config.LogFormat)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiterSettings, err := config.RateLimiter()
	if err != nil {
		log.Fatal("invalid rate limiter config", zap.Error(err))
	}

	locator, closeDB := database.Open(ctx, config.DatabaseURL, config.DatabaseName, log)
	defer closeDB()

	handler, closeLimiter, err := buildHandler(ctx, locator, limiterSettings, log)
	if err != nil {
		log.Fatal("build handler", zap.Error(err))
	}
	defer closeLimiter()

	srv := &http.Server{
		Addr:              config.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Starting web server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}

// buildHandler wires routes and middleware. The returned func releases the
// rate limiter backend.
func buildHandler(ctx context.Context, locator database.Locator, limiter configs.RateLimiterSettings, log *zap.Logger) (http.Handler, func() error, error) {
	closeLimiter := func() error { return nil }

	router := ajun.NewRouter()
	router.Use(
		middleware.AccessLog(log),
		middleware.Recover(log),
		middleware.CORS(middleware.AllowAllCORS()),
	)

	if limiter.Enabled {
		backend, closeFn, err := ratelimiter.NewBackend(ratelimiter.StorageBackend(limiter.Backend), limiter.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		closeLimiter = closeFn

		storage := ratelimiter.NewStorage(ctx, backend, limiter.CleanupInterval, limiter.TTL, log)
		rlConfig := ratelimiter.NewRateLimiterConfig(limiter.MaxRequests, limiter.TimeDelay, limiter.TokenMaxRequest, limiter.TokenTimeDelay)
		rlConfig.TrustProxy = limiter.TrustProxy
		rl := ratelimiter.NewRateLimiter(rlConfig, storage, log)
		router.Use(rl.RateLimiterHandler)
		log.Info("rate limiter enabled",
			zap.String("backend", limiter.Backend),
			zap.Int("max_requests", limiter.MaxRequests),
			zap.Duration("delay", limiter.TimeDelay),
			zap.Bool("trust_proxy", limiter.TrustProxy),
		)
	}

	prober := diagnostics.NewProber(locator, os.LookupEnv, log)
	api.RegisterRoutes(router, api.NewHandlers(prober, log))

	return router.Handler(), closeLimiter, nil
}

func loadConfigs() *configs.Config {
	config, err := configs.LoadConfig(".")
	if err != nil {
		panic(err)
	}
	return config
}

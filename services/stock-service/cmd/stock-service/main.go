package main

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/acme/orderflow/libs/config"
	"github.com/acme/orderflow/libs/httpx"
	"github.com/acme/orderflow/libs/idempotency"
	otelx "github.com/acme/orderflow/libs/otel"
	"github.com/acme/orderflow/libs/runtime"
	"github.com/acme/orderflow/services/stock-service/internal/handlers"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "stock-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var store idempotency.Store
	var ready []runtime.ReadyCheck
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		store = idempotency.NewRedisStore(rdb, config.Duration("IDEMPOTENCY_TTL", 24*time.Hour), service)
		ready = append(ready, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	} else {
		logger.Warn("redis not configured, using in-memory idempotency store")
		store = idempotency.NewMemoryStore(config.Duration("IDEMPOTENCY_TTL", 24*time.Hour))
	}

	var latency func() time.Duration
	if maxMs := config.Int("MAX_LATENCY_MS", 0); maxMs > 0 {
		latency = func() time.Duration {
			return time.Duration(rand.Int64N(int64(maxMs))) * time.Millisecond
		}
	}

	h := handlers.NewStockHandler(store, logger, latency)

	mux := runtime.NewBaseMuxWithReady(ready...)
	mux.HandleFunc("/stocks", h.Allocate)
	mux.HandleFunc("/stocks/", h.Cancel)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "stock")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

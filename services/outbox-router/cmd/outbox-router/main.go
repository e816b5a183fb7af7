package main

import (
	"context"
	"net/http"
	"time"

	"github.com/acme/orderflow/libs/config"
	"github.com/acme/orderflow/libs/kafkax"
	otelx "github.com/acme/orderflow/libs/otel"
	"github.com/acme/orderflow/libs/runtime"
	"github.com/acme/orderflow/services/outbox-router/internal/router"
)

func main() {
	service := config.String("SERVICE_NAME", "outbox-router")
	port, err := config.Port("PORT", "8081")
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

	brokers := config.String("KAFKA_BROKERS", "")
	rt := router.New(logger, router.Config{
		Brokers: brokers,
		GroupID: config.String("KAFKA_GROUP_ID", "outbox-router"),
		Topic:   config.String("CDC_TOPIC", "orderflow.cdc.outbox_events"),
	})
	go rt.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
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
	logger.Info("router stopped")
}

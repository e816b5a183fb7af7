package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/acme/orderflow/libs/config"
	"github.com/acme/orderflow/libs/kafkax"
	otelx "github.com/acme/orderflow/libs/otel"
	"github.com/acme/orderflow/libs/runtime"
	"github.com/acme/orderflow/services/order-stream/internal/client"
	"github.com/acme/orderflow/services/order-stream/internal/event"
	"github.com/acme/orderflow/services/order-stream/internal/model"
	"github.com/acme/orderflow/services/order-stream/internal/pipeline"
	"github.com/acme/orderflow/services/order-stream/internal/saga"
	"github.com/segmentio/kafka-go"
)

func main() {
	service := config.String("SERVICE_NAME", "order-stream")
	port, err := config.Port("PORT", "8082")
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

	sagaTimeout := config.Duration("SAGA_TIMEOUT", 5*time.Second)
	callTimeout := config.Duration("STEP_CALL_TIMEOUT", 2*time.Second)
	if callTimeout >= sagaTimeout {
		// Per-call timeouts must leave room for the rollback pass.
		callTimeout = sagaTimeout / 2
	}

	payments := client.NewPaymentClient(config.String("PAYMENT_SERVICE_URL", "http://payment-service:8083"), callTimeout)
	stocks := client.NewStockClient(config.String("STOCK_SERVICE_URL", "http://stock-service:8084"), callTimeout)

	policy := saga.CompensateAll
	if config.Bool("SAGA_COMPENSATE_EXECUTED_ONLY", false) {
		policy = saga.CompensateExecuted
	}
	workflow := saga.NewCreateOrderWorkflow(logger, payments, stocks, saga.Options{
		Policy:  policy,
		Timeout: sagaTimeout,
	})

	handler := func(ctx context.Context, msg kafka.Message) error {
		key, value, err := event.Decode(msg)
		if err != nil {
			return err
		}
		logger.Info("outbox event received",
			"topic", msg.Topic, "event_id", key.EventID, "event_type", value.EventType)

		switch value.EventType {
		case event.TypeOrderCreated:
			var order model.Order
			if err := json.Unmarshal([]byte(value.Payload), &order); err != nil {
				return err
			}
			outcome, runErr := workflow.Run(ctx, key.EventID, order)
			// A compensated saga is terminal for this delivery; only the
			// causing error is worth surfacing in the log.
			logger.Info("saga finished",
				"event_id", key.EventID, "outcome", outcome.String(), "err", runErr)
			return nil
		default:
			logger.Info("ignoring event type", "event_type", value.EventType, "event_id", key.EventID)
			return nil
		}
	}

	brokers := config.String("KAFKA_BROKERS", "")
	consumer := pipeline.New(logger, pipeline.Config{
		Brokers: brokers,
		GroupID: config.String("KAFKA_GROUP_ID", "order-stream"),
		Topic:   config.String("KAFKA_CONSUME_TOPIC", "order.outbox"),
		Workers: config.Int("CONSUMER_WORKERS", 4),
		Retry: pipeline.RetryPolicy{
			MaxAttempts: config.Int("RETRY_MAX_ATTEMPTS", 5),
			BaseDelay:   config.Duration("RETRY_BASE_DELAY", 2*time.Second),
			Multiplier:  config.Float("RETRY_MULTIPLIER", 2),
			MaxDelay:    config.Duration("RETRY_MAX_DELAY", 10*time.Second),
		},
	}, handler)
	go consumer.Run(ctx)

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
	logger.Info("order stream stopped")
}

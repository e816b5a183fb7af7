package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/acme/orderflow/libs/kafkax"
	"github.com/acme/orderflow/services/outbox-router/internal/cdc"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Router consumes the outbox changelog topic, applies the CDC transform and
// republishes routed events to their aggregate topics. The transform decides
// what to emit; the router only moves messages.
type Router struct {
	reader      *kafka.Reader
	writer      *kafka.Writer
	transformer *cdc.Transformer
	logger      *slog.Logger
}

type Config struct {
	Brokers string
	GroupID string
	Topic   string
}

func New(logger *slog.Logger, cfg Config) *Router {
	brokers := kafkax.SplitBrokers(cfg.Brokers)
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	// Topic left empty: the transform addresses each message individually.
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Balancer: &kafka.Hash{},
	})
	return &Router{
		reader:      reader,
		writer:      writer,
		transformer: cdc.NewTransformer(logger),
		logger:      logger,
	}
}

func (r *Router) Run(ctx context.Context) {
	defer r.reader.Close()
	defer r.writer.Close()

	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Error("kafka read error", "err", err)
			time.Sleep(1 * time.Second)
			continue
		}

		msgCtx := kafkax.ExtractTraceContext(ctx, msg)
		spanCtx, span := otel.Tracer("outbox-router").Start(msgCtx, "outbox.route",
			trace.WithAttributes(
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.source", msg.Topic),
			),
		)

		routed, action := r.transformer.Transform(msg)
		switch action {
		case cdc.ActionRoute:
			if err := r.writer.WriteMessages(spanCtx, routed); err != nil {
				// Leave the offset uncommitted so the record is redelivered.
				r.logger.Error("routed event publish failed", "err", err, "topic", routed.Topic)
				span.RecordError(err)
				span.End()
				continue
			}
		case cdc.ActionPass:
			r.logger.Debug("tombstone passed through", "offset", msg.Offset)
		case cdc.ActionDrop:
			// Already logged by the transform when it matters.
		}

		if err := r.reader.CommitMessages(ctx, msg); err != nil {
			r.logger.Error("offset commit failed", "err", err)
			span.RecordError(err)
		}
		span.End()
	}
}

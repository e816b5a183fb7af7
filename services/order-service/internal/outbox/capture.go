package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/acme/orderflow/libs/db"
	"github.com/acme/orderflow/libs/kafkax"
	otelx "github.com/acme/orderflow/libs/otel"
	"github.com/segmentio/kafka-go"
)

// Capture polls committed outbox rows and republishes each one as a raw
// change record on the changelog topic. It is the change-data-capture source
// for the outbox router: rows are only ever inserted, so every captured
// record carries op "c".
type Capture struct {
	pool      *db.Pool
	repo      *Repository
	logger    *slog.Logger
	brokers   []string
	topic     string
	pollEvery time.Duration
	batchSize int
}

type CaptureConfig struct {
	Brokers   string
	Topic     string
	PollEvery time.Duration
	BatchSize int
}

func NewCapture(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg CaptureConfig) *Capture {
	brokers := kafkax.SplitBrokers(cfg.Brokers)
	if cfg.Topic == "" {
		cfg.Topic = "orderflow.cdc.outbox_events"
	}
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Capture{
		pool:      pool,
		repo:      repo,
		logger:    logger,
		brokers:   brokers,
		topic:     cfg.Topic,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

func (c *Capture) Run(ctx context.Context) {
	if len(c.brokers) == 0 {
		c.logger.Warn("outbox capture disabled (no kafka brokers configured)")
		return
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  c.brokers,
		Topic:    c.topic,
		Balancer: &kafka.Hash{},
	})
	defer writer.Close()

	ticker := time.NewTicker(c.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.captureBatch(ctx, writer); err != nil {
				c.logger.Error("outbox capture failed", "err", err)
			}
		}
	}
}

func (c *Capture) captureBatch(ctx context.Context, writer *kafka.Writer) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	records, err := c.repo.FetchUncaptured(ctx, tx, c.batchSize)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return tx.Commit(ctx)
	}

	for _, r := range records {
		value, err := ChangeRecordValue(r)
		if err != nil {
			return err
		}
		// Resume the trace recorded at outbox write time so the changelog
		// message carries the originating request's context.
		msgCtx := otelx.ContextWithTraceContext(ctx, r.Traceparent, r.Tracestate)
		msg := kafka.Message{
			Key:     []byte(r.EventID),
			Value:   value,
			Headers: kafkax.InjectTraceHeaders(msgCtx, nil),
			Time:    r.CreatedAt,
		}
		if err := writer.WriteMessages(msgCtx, msg); err != nil {
			return err
		}
		c.logger.Debug("captured outbox row", "event_id", r.EventID, "event_type", r.EventType)
	}

	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	if err := c.repo.MarkCaptured(ctx, tx, ids); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

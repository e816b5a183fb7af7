package pipeline

import (
	"context"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/acme/orderflow/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Handler func(ctx context.Context, msg kafka.Message) error

// dltWriter is what the consumer needs from a dead-letter publisher.
// *kafka.Writer satisfies it.
type dltWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Consumer is an at-least-once consumer with in-process retry and a terminal
// dead-letter topic. Messages are partitioned over workers by key hash, so
// same-key messages stay in arrival order while different keys proceed
// concurrently. Offsets commit in fetch order, after the message reaches a
// terminal outcome.
type Consumer struct {
	reader  *kafka.Reader
	dlt     dltWriter
	policy  RetryPolicy
	handler Handler
	logger  *slog.Logger
	workers int
	sleep   func(ctx context.Context, d time.Duration) error
}

type Config struct {
	Brokers string
	GroupID string
	Topic   string
	Workers int
	Retry   RetryPolicy
}

func New(logger *slog.Logger, cfg Config, handler Handler) *Consumer {
	brokers := kafkax.SplitBrokers(cfg.Brokers)
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	dlt := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    kafkax.DLTTopic(cfg.Topic),
		Balancer: &kafka.Hash{},
	})
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Consumer{
		reader:  reader,
		dlt:     dlt,
		policy:  cfg.Retry.normalized(),
		handler: handler,
		logger:  logger,
		workers: workers,
		sleep:   sleepContext,
	}
}

type task struct {
	msg  kafka.Message
	done chan struct{}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()
	if w, ok := c.dlt.(*kafka.Writer); ok {
		defer w.Close()
	}

	lanes := make([]chan *task, c.workers)
	for i := range lanes {
		lanes[i] = make(chan *task, 16)
		go c.worker(ctx, lanes[i])
	}

	// Commits must follow fetch order, so terminal outcomes are acknowledged
	// through a FIFO rather than directly by the workers.
	commits := make(chan *task, 16*c.workers)
	go c.committer(ctx, commits)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			time.Sleep(1 * time.Second)
			continue
		}

		t := &task{msg: msg, done: make(chan struct{})}
		select {
		case commits <- t:
		case <-ctx.Done():
			return
		}
		select {
		case lanes[laneFor(msg.Key, c.workers)] <- t:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) worker(ctx context.Context, lane <-chan *task) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-lane:
			c.process(ctx, t.msg)
			close(t.done)
		}
	}
}

func (c *Consumer) committer(ctx context.Context, commits <-chan *task) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-commits:
			select {
			case <-t.done:
			case <-ctx.Done():
				return
			}
			if err := c.reader.CommitMessages(ctx, t.msg); err != nil && ctx.Err() == nil {
				c.logger.Error("offset commit failed", "err", err)
			}
		}
	}
}

// process drives one message to a terminal outcome: acked on handler
// success, dead-lettered after the retry budget is spent. Attempts are
// strictly sequential; attempt N+1 starts only after attempt N failed and
// the backoff delay elapsed.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	msgCtx := kafkax.ExtractTraceContext(ctx, msg)
	spanCtx, span := otel.Tracer("order-stream").Start(msgCtx, "outbox.consume",
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	for attempt := 1; ; attempt++ {
		err := c.handler(spanCtx, msg)
		if err == nil {
			return
		}
		span.RecordError(err)

		if attempt >= c.policy.MaxAttempts {
			c.logger.Error("retry budget exhausted, dead-lettering",
				"err", err, "attempts", attempt, "key", string(msg.Key))
			c.deadLetter(ctx, msg)
			return
		}

		delay := c.policy.Delay(attempt)
		c.logger.Warn("handler failed, scheduling redelivery",
			"err", err, "attempt", attempt, "delay", delay, "key", string(msg.Key))
		if err := c.sleep(ctx, delay); err != nil {
			// Shutting down mid-backoff: leave the offset uncommitted so the
			// message is redelivered on restart.
			return
		}
	}
}

// deadLetter forwards the message verbatim (same key, value and headers) to
// the dead-letter topic. The write is retried until it succeeds or the
// consumer shuts down; silently losing an exhausted message is worse than
// stalling this lane.
func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message) {
	out := kafka.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: msg.Headers,
		Time:    msg.Time,
	}
	for {
		err := c.dlt.WriteMessages(ctx, out)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		c.logger.Error("dead-letter publish failed", "err", err)
		if err := c.sleep(ctx, c.policy.BaseDelay); err != nil {
			return
		}
	}
}

func laneFor(key []byte, workers int) int {
	h := fnv.New32a()
	_, _ = h.Write(key)
	return int(h.Sum32() % uint32(workers))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

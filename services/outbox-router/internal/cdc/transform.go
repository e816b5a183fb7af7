package cdc

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/acme/orderflow/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

// Action is the outcome of transforming one change record.
type Action int

const (
	// ActionRoute means the returned message must be published to its Topic.
	ActionRoute Action = iota
	// ActionPass means the record is a tombstone and is forwarded unchanged.
	ActionPass
	// ActionDrop means the record is operationally meaningless or malformed
	// and is discarded without stopping the stream.
	ActionDrop
)

// Transformer turns raw outbox change records into routed domain events.
// Transform is a pure function of the input message; retries and offset
// management belong to the surrounding consumer, not here.
type Transformer struct {
	logger *slog.Logger
}

func NewTransformer(logger *slog.Logger) *Transformer {
	return &Transformer{logger: logger}
}

// Transform applies the outbox routing contract:
//
//   - a message with no value passes through untouched,
//   - any op other than create is dropped,
//   - a well-formed create is re-addressed to {aggregateType}.outbox with
//     key {eventId}, value {eventType, timestamp, payload} and an appended
//     correlationId header, preserving the source timestamp.
//
// A record whose after image cannot be parsed is logged and dropped so one
// bad row never stalls the stream.
func (t *Transformer) Transform(msg kafka.Message) (kafka.Message, Action) {
	if len(msg.Value) == 0 {
		return msg, ActionPass
	}

	var record ChangeRecord
	if err := json.Unmarshal(msg.Value, &record); err != nil {
		t.logger.Error("malformed change record", "err", err, "offset", msg.Offset)
		return kafka.Message{}, ActionDrop
	}
	if record.Op != OpCreate {
		return kafka.Message{}, ActionDrop
	}

	var after map[string]string
	if err := json.Unmarshal([]byte(record.After), &after); err != nil {
		t.logger.Error("malformed after image", "err", err, "after", record.After)
		return kafka.Message{}, ActionDrop
	}

	aggregateType := after["aggregateType"]
	eventID := after["eventId"]
	if aggregateType == "" || eventID == "" {
		t.logger.Error("after image missing aggregateType or eventId", "after", record.After)
		return kafka.Message{}, ActionDrop
	}

	key, err := json.Marshal(EventKey{EventID: eventID})
	if err != nil {
		return kafka.Message{}, ActionDrop
	}
	value, err := json.Marshal(EventValue{
		EventType: after["eventType"],
		Timestamp: record.TsMs,
		Payload:   after["payload"],
	})
	if err != nil {
		return kafka.Message{}, ActionDrop
	}

	out := kafka.Message{
		Topic:   kafkax.OutboxTopic(aggregateType),
		Key:     key,
		Value:   value,
		Headers: kafkax.AppendHeader(msg.Headers, kafkax.CorrelationIDHeader, eventID),
		Time:    time.UnixMilli(record.TsMs),
	}
	t.logger.Debug("routed outbox event",
		"event_id", eventID,
		"event_type", after["eventType"],
		"topic", out.Topic,
	)
	return out, ActionRoute
}

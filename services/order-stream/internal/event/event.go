package event

import (
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Key and Value mirror the wire format the outbox router publishes on
// {aggregateType}.outbox topics.
type Key struct {
	EventID string `json:"eventId"`
}

type Value struct {
	EventType string `json:"eventType"`
	Timestamp int64  `json:"timestamp"`
	Payload   string `json:"payload"`
}

const TypeOrderCreated = "order_created"

// Decode parses a consumed outbox message. A decode failure is a handler
// error: the surrounding pipeline retries and eventually dead-letters it.
func Decode(msg kafka.Message) (Key, Value, error) {
	var k Key
	if err := json.Unmarshal(msg.Key, &k); err != nil {
		return Key{}, Value{}, fmt.Errorf("decode event key: %w", err)
	}
	if k.EventID == "" {
		return Key{}, Value{}, fmt.Errorf("event key missing eventId")
	}
	var v Value
	if err := json.Unmarshal(msg.Value, &v); err != nil {
		return Key{}, Value{}, fmt.Errorf("decode event value: %w", err)
	}
	return k, v, nil
}

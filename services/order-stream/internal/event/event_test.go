package event

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestDecode(t *testing.T) {
	msg := kafka.Message{
		Key:   []byte(`{"eventId":"E-1"}`),
		Value: []byte(`{"eventType":"order_created","timestamp":1700000000123,"payload":"{}"}`),
	}

	k, v, err := Decode(msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if k.EventID != "E-1" {
		t.Fatalf("expected eventId E-1, got %q", k.EventID)
	}
	if v.EventType != "order_created" || v.Timestamp != 1700000000123 {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestDecode_Malformed(t *testing.T) {
	cases := []kafka.Message{
		{Key: []byte("{{"), Value: []byte("{}")},
		{Key: []byte(`{"eventId":"E-1"}`), Value: []byte("{{")},
		{Key: []byte(`{}`), Value: []byte("{}")},
	}
	for i, msg := range cases {
		if _, _, err := Decode(msg); err == nil {
			t.Fatalf("case %d: expected decode error", i)
		}
	}
}

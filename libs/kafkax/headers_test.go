package kafkax

import (
	"reflect"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestHeaderValue(t *testing.T) {
	headers := []kafka.Header{
		{Key: "a", Value: []byte("1")},
		{Key: CorrelationIDHeader, Value: []byte("E-1")},
	}
	if got := HeaderValue(headers, CorrelationIDHeader); got != "E-1" {
		t.Fatalf("expected E-1, got %q", got)
	}
	if got := HeaderValue(headers, "missing"); got != "" {
		t.Fatalf("expected empty for missing key, got %q", got)
	}
	if got := HeaderValue(nil, "a"); got != "" {
		t.Fatalf("expected empty for nil headers, got %q", got)
	}
}

func TestAppendHeaderKeepsExistingEntries(t *testing.T) {
	headers := []kafka.Header{{Key: CorrelationIDHeader, Value: []byte("upstream")}}
	headers = AppendHeader(headers, CorrelationIDHeader, "ours")

	if len(headers) != 2 {
		t.Fatalf("expected both entries to survive, got %d", len(headers))
	}
	if string(headers[0].Value) != "upstream" || string(headers[1].Value) != "ours" {
		t.Fatalf("unexpected header values: %v", headers)
	}
}

func TestTopicNames(t *testing.T) {
	if got := OutboxTopic("order"); got != "order.outbox" {
		t.Fatalf("OutboxTopic: got %q", got)
	}
	if got := DLTTopic("order.outbox"); got != "order.outbox-dlt" {
		t.Fatalf("DLTTopic: got %q", got)
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092 , kafka-2:9092,,kafka-3:9092 ")
	want := []string{"kafka-1:9092", "kafka-2:9092", "kafka-3:9092"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := SplitBrokers(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

package kafkax

import (
	"strings"

	"github.com/segmentio/kafka-go"
)

// CorrelationIDHeader carries the event id across the outbox topic, the saga
// steps and the participant HTTP calls. It is appended by the outbox router
// and must survive retries and dead-lettering untouched.
const CorrelationIDHeader = "correlationId"

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// AppendHeader adds a header without touching existing entries, even ones
// with the same key. Header namespaces belong to their producers.
func AppendHeader(headers []kafka.Header, key, value string) []kafka.Header {
	return append(headers, kafka.Header{Key: key, Value: []byte(value)})
}

// OutboxTopic is the routed destination for a captured outbox row.
func OutboxTopic(aggregateType string) string {
	return aggregateType + ".outbox"
}

// DLTTopic names the dead-letter topic for a source topic.
func DLTTopic(topic string) string {
	return topic + "-dlt"
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

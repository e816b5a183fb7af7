package outbox

import (
	"encoding/json"
	"strconv"
	"time"
)

// Event is the domain event written to outbox_events in the same transaction
// as the aggregate it describes. Payload is the serialized aggregate snapshot
// taken at write time.
type Event struct {
	EventID       string
	EventType     string
	AggregateType string
	Payload       string
}

// Record is a committed outbox row as read back by the capture worker.
type Record struct {
	ID            int64
	EventID       string
	EventType     string
	AggregateType string
	Payload       string
	Traceparent   string
	Tracestate    string
	CreatedAt     time.Time
}

// changeRecord is the change-stream envelope emitted for every captured row,
// shaped like a CDC post-image: op code, commit time in epoch millis, and the
// row serialized as a JSON string-keyed mapping.
type changeRecord struct {
	Op    string `json:"op"`
	TsMs  int64  `json:"ts_ms"`
	After string `json:"after"`
}

const opCreate = "c"

// ChangeRecordValue renders the wire value the capture worker publishes to
// the changelog topic for one outbox row.
func ChangeRecordValue(r Record) ([]byte, error) {
	after, err := json.Marshal(map[string]string{
		"id":            strconv.FormatInt(r.ID, 10),
		"eventId":       r.EventID,
		"eventType":     r.EventType,
		"aggregateType": r.AggregateType,
		"payload":       r.Payload,
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(changeRecord{
		Op:    opCreate,
		TsMs:  r.CreatedAt.UnixMilli(),
		After: string(after),
	})
}

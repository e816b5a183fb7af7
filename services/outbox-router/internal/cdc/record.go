package cdc

// ChangeRecord is one raw change-stream entry for the outbox table. After is
// the post-image of the row, itself serialized as a JSON string-keyed
// mapping (the Debezium wire convention the capture worker reproduces).
type ChangeRecord struct {
	Op   string `json:"op"`
	TsMs int64  `json:"ts_ms"`
	After string `json:"after"`
}

// Op codes in the change stream. Only creates are routed: outbox rows are
// append-only, so updates, deletes and snapshot reads carry no meaning.
const (
	OpCreate = "c"
	OpUpdate = "u"
	OpDelete = "d"
	OpRead   = "r"
)

// EventKey is the wire key of a routed domain event. Ordering is guaranteed
// per eventId only.
type EventKey struct {
	EventID string `json:"eventId"`
}

// EventValue is the wire value of a routed domain event. Payload is the
// opaque serialized aggregate snapshot taken at outbox write time.
type EventValue struct {
	EventType string `json:"eventType"`
	Timestamp int64  `json:"timestamp"`
	Payload   string `json:"payload"`
}

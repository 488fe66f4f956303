package audit

import "time"

// TopicItemChanged is the topic item change events are published to.
const TopicItemChanged = "items.changed"

// Action names what happened to an item.
type Action string

const (
	ActionCreated      Action = "created"
	ActionUpdated      Action = "updated"
	ActionDeleted      Action = "deleted"
	ActionBatchCreated Action = "batch_created"
)

// ItemChanged represents an event emitted after an item was successfully mutated.
type ItemChanged struct {
	Action     Action    `json:"action"`
	ItemID     int64     `json:"itemId"`
	Name       string    `json:"name,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	RequestID  string    `json:"requestId,omitempty"`
	ClientIP   string    `json:"clientIp,omitempty"`
}

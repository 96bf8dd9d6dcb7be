package events

import "time"

// Event is the contract for everything published to NATS.
type Event interface {
	// EventType is the subject suffix, e.g. "research_done" publishes to
	// "events.research_done".
	EventType() string

	// Payload carries the event data. Consumers expect a user_id key when
	// the event targets a specific user.
	Payload() map[string]interface{}

	// Timestamp is when the event occurred, not when it was delivered.
	Timestamp() time.Time
}

// BaseEvent is the ready-made implementation used everywhere events are
// published inline.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

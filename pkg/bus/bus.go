package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Topic is the single logical channel all pipeline events are broadcast on.
const Topic = "stratos_events"

// Envelope is the wire format of every bus message.
type Envelope struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// EventBus is a broadcast publish/subscribe channel carrying typed JSON
// events. Delivery is at-least-once per subscriber; no ordering is
// guaranteed across different event types.
type EventBus struct {
	pubSub *gochannel.GoChannel
}

func New(logger watermill.LoggerAdapter) *EventBus {
	return &EventBus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{}, logger),
	}
}

// Publish broadcasts one envelope to every subscriber of the topic.
func (b *EventBus) Publish(eventType string, payload map[string]interface{}) error {
	data, err := json.Marshal(Envelope{
		Type:    eventType,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", eventType, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := b.pubSub.Publish(Topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", eventType, err)
	}
	return nil
}

// Subscribe returns a channel of raw messages for the event topic.
// Each subscriber gets its own copy of every message.
func (b *EventBus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, Topic)
}

// Close shuts the underlying pubsub down, closing all subscriber channels.
func (b *EventBus) Close() error {
	return b.pubSub.Close()
}

// Decode parses a bus message into an envelope. Malformed messages are the
// caller's problem to swallow; a single bad event must never kill a listener.
func Decode(msg *message.Message) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return nil, fmt.Errorf("malformed event envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("event envelope missing type")
	}
	return &env, nil
}

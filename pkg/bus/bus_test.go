package bus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	b := New(watermill.NopLogger{})
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub1, err := b.Subscribe(ctx)
	require.NoError(t, err)
	sub2, err := b.Subscribe(ctx)
	require.NoError(t, err)

	err = b.Publish("clarification_update", map[string]interface{}{
		"session_id": "abc",
		"confidence": 0.5,
	})
	require.NoError(t, err)

	for _, sub := range []<-chan *message.Message{sub1, sub2} {
		select {
		case msg := <-sub:
			env, err := Decode(msg)
			require.NoError(t, err)
			assert.Equal(t, "clarification_update", env.Type)
			assert.Equal(t, "abc", env.Payload["session_id"])
			msg.Ack()
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestDecodeRejectsMalformedEnvelope(t *testing.T) {
	_, err := Decode(message.NewMessage("1", []byte("not json")))
	assert.Error(t, err)

	_, err = Decode(message.NewMessage("2", []byte(`{"payload":{}}`)))
	assert.Error(t, err)
}

func TestCloseReleasesSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := New(watermill.NopLogger{})
	sub, err := b.Subscribe(context.Background())
	require.NoError(t, err)

	require.NoError(t, b.Close())

	_, open := <-sub
	assert.False(t, open, "subscriber channel should close with the bus")
}

package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T, policy RetryPolicy) *Dispatcher {
	t.Helper()

	d, err := New(policy, watermill.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDispatchRunsHandlerWithArgs(t *testing.T) {
	d := newTestDispatcher(t, DefaultRetryPolicy())

	got := make(chan map[string]string, 1)
	d.Register("echo", func(ctx context.Context, args map[string]string) error {
		got <- args
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()
	<-d.Running()

	err := d.Dispatch(context.Background(), "echo", map[string]string{"session_id": "s1"})
	require.NoError(t, err)

	select {
	case args := <-got:
		assert.Equal(t, "s1", args["session_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestDispatchRetriesUntilSuccess(t *testing.T) {
	d := newTestDispatcher(t, RetryPolicy{MaxAttempts: 3, BaseDelay: 5 * time.Millisecond, Multiplier: 2})

	var attempts int32
	done := make(chan struct{})
	d.Register("flaky", func(ctx context.Context, args map[string]string) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient provider error")
		}
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()
	<-d.Running()

	require.NoError(t, d.Dispatch(context.Background(), "flaky", nil))

	select {
	case <-done:
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	case <-time.After(2 * time.Second):
		t.Fatalf("job did not succeed after retries, attempts=%d", atomic.LoadInt32(&attempts))
	}
}

func TestDispatchStopsAfterMaxAttempts(t *testing.T) {
	d := newTestDispatcher(t, RetryPolicy{MaxAttempts: 2, BaseDelay: 5 * time.Millisecond, Multiplier: 2})

	var attempts int32
	d.Register("doomed", func(ctx context.Context, args map[string]string) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("always failing")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()
	<-d.Running()

	require.NoError(t, d.Dispatch(context.Background(), "doomed", nil))

	// Give the router time to burn both attempts and settle.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestMalformedArgsAreDroppedNotRetried(t *testing.T) {
	d := newTestDispatcher(t, DefaultRetryPolicy())

	var invoked int32
	d.Register("strict", func(ctx context.Context, args map[string]string) error {
		atomic.AddInt32(&invoked, 1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()
	<-d.Running()

	// Bypass Dispatch to deliver a broken payload.
	msg := message.NewMessage(watermill.NewUUID(), []byte("not json at all"))
	require.NoError(t, d.pubSub.Publish(jobTopic("strict"), msg))

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&invoked))
}

package service

import (
	"context"
	"testing"
	"time"

	"stratos-backend/internal/constant"
	"stratos-backend/pkg/bus"
	"stratos-backend/pkg/dispatch"
	"stratos-backend/pkg/pipeline/state"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newListenerFixture(t *testing.T, store *fakeStore) *listenerService {
	t.Helper()

	eventBus := bus.New(watermill.NopLogger{})
	dispatcher, err := dispatch.New(dispatch.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, Multiplier: 1}, watermill.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = dispatcher.Close()
		_ = eventBus.Close()
	})

	orchestrator := NewOrchestratorService(&fakeFactory{store: store}, eventBus, dispatcher, &fakeMailer{}, nopLogger{})
	return NewListenerService(eventBus, orchestrator, nopLogger{}).(*listenerService)
}

func eventMessage(t *testing.T, eventType string, payload string) *message.Message {
	t.Helper()
	return message.NewMessage(watermill.NewUUID(), []byte(`{"type":"`+eventType+`","payload":`+payload+`}`))
}

func TestListenerSwallowsMalformedEnvelope(t *testing.T) {
	store := newFakeStore()
	session := seedSession(store, state.Clarifying, "")
	listener := newListenerFixture(t, store)
	ctx := context.Background()

	// Garbage must be dropped without taking anything down or touching state.
	listener.handleMessage(ctx, message.NewMessage(watermill.NewUUID(), []byte("{not json at all")))
	listener.handleMessage(ctx, message.NewMessage(watermill.NewUUID(), []byte(`{"payload":{"session_id":"x"}}`)))
	assert.Equal(t, state.Clarifying, session.Status)

	// The listener keeps routing after bad envelopes.
	listener.handleMessage(ctx, eventMessage(t, constant.EventClarificationReady,
		`{"session_id":"`+session.Id.String()+`","mirror_summary":"a clear idea"}`))
	assert.Equal(t, state.AwaitingConsent, session.Status)
	require.NotNil(t, session.ClarifiedSummary)
	assert.Equal(t, "a clear idea", *session.ClarifiedSummary)
}

func TestListenerFallsBackToStructuredSummary(t *testing.T) {
	store := newFakeStore()
	session := seedSession(store, state.Clarifying, "")
	listener := newListenerFixture(t, store)

	listener.handleMessage(context.Background(), eventMessage(t, constant.EventClarificationReady,
		`{"session_id":"`+session.Id.String()+`","schema":{"project_domain":"agritech"}}`))

	require.NotNil(t, session.ClarifiedSummary)
	assert.Contains(t, *session.ClarifiedSummary, "agritech")
}

func TestListenerIgnoresUnknownEventType(t *testing.T) {
	store := newFakeStore()
	session := seedSession(store, state.Clarifying, "")
	listener := newListenerFixture(t, store)

	listener.handleMessage(context.Background(), eventMessage(t, "section_written",
		`{"session_id":"`+session.Id.String()+`"}`))

	assert.Equal(t, state.Clarifying, session.Status)
}

func TestListenerStaleEventIsNoOp(t *testing.T) {
	store := newFakeStore()
	session := seedSession(store, state.AwaitingConsent, "already consented")
	listener := newListenerFixture(t, store)

	// clarification_ready after the session moved on must change nothing.
	listener.handleMessage(context.Background(), eventMessage(t, constant.EventClarificationReady,
		`{"session_id":"`+session.Id.String()+`","mirror_summary":"late duplicate"}`))

	assert.Equal(t, state.AwaitingConsent, session.Status)
	assert.Equal(t, "already consented", *session.ClarifiedSummary)
}

func TestListenerMissingSessionId(t *testing.T) {
	store := newFakeStore()
	listener := newListenerFixture(t, store)

	// No panic, no state change, error is logged and absorbed.
	listener.handleMessage(context.Background(), eventMessage(t, constant.EventClarificationReady, `{}`))
	listener.handleMessage(context.Background(), eventMessage(t, constant.EventResearchDone, `{"report_id":"not-a-uuid"}`))
	assert.Empty(t, store.sessions)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"stratos-backend/internal/constant"
	"stratos-backend/internal/entity"
	"stratos-backend/pkg/bus"
	"stratos-backend/pkg/llm"
	"stratos-backend/pkg/pipeline/state"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSchemaFillsEmptyFields(t *testing.T) {
	existing := map[string]string{
		"project_domain": "agritech",
	}
	incoming := map[string]string{
		"project_domain": "fintech",
		"core_problem":   "crop yield forecasting is guesswork",
	}

	merged := MergeSchema(existing, incoming)

	// A filled field never changes, regardless of what the model claims later.
	assert.Equal(t, "agritech", merged["project_domain"])
	assert.Equal(t, "crop yield forecasting is guesswork", merged["core_problem"])
	assert.Empty(t, merged["target_persona"])
}

func TestMergeSchemaIgnoresEmptyIncoming(t *testing.T) {
	existing := map[string]string{
		"target_persona": "smallholder farmers",
	}
	incoming := map[string]string{
		"target_persona": "",
		"core_problem":   "",
	}

	merged := MergeSchema(existing, incoming)

	assert.Equal(t, "smallholder farmers", merged["target_persona"])
	assert.Empty(t, merged["core_problem"])
}

func TestMergeSchemaIgnoresUnknownKeys(t *testing.T) {
	merged := MergeSchema(map[string]string{}, map[string]string{
		"project_domain": "healthtech",
		"budget":         "should not appear",
	})

	assert.Equal(t, "healthtech", merged["project_domain"])
	_, ok := merged["budget"]
	assert.False(t, ok)
}

func TestComputeConfidenceWalk(t *testing.T) {
	schema := map[string]string{}
	assert.Equal(t, 0.0, ComputeConfidence(schema))

	schema["project_domain"] = "agritech"
	assert.Equal(t, 0.17, ComputeConfidence(schema))

	schema["target_persona"] = "smallholder farmers"
	assert.Equal(t, 0.33, ComputeConfidence(schema))

	schema["core_problem"] = "yield forecasting"
	assert.Equal(t, 0.5, ComputeConfidence(schema))

	schema["current_workaround"] = "manual scouting"
	schema["proposed_solution"] = "satellite imagery model"
	assert.Equal(t, 0.83, ComputeConfidence(schema))

	// 5 of 6 fields is still below the stop threshold.
	assert.Less(t, ComputeConfidence(schema), constant.ConfidenceThreshold)

	schema["differentiation"] = "works offline"
	assert.Equal(t, 1.0, ComputeConfidence(schema))
	assert.GreaterOrEqual(t, ComputeConfidence(schema), constant.ConfidenceThreshold)
}

func TestComputeConfidenceIgnoresForeignKeys(t *testing.T) {
	schema := map[string]string{
		"not_a_field":     "x",
		"another_unknown": "y",
	}
	assert.Equal(t, 0.0, ComputeConfidence(schema))
}

const partialTurnJSON = `{
	"updated_schema": {"project_domain": "agritech", "core_problem": "crop yield forecasting is guesswork"},
	"mirror_summary": "You want to forecast crop yields.",
	"next_question": "Who exactly would use this?",
	"knowledge_gaps": ["target persona unknown"]
}`

const completeTurnJSON = `{
	"updated_schema": {
		"project_domain": "agritech",
		"target_persona": "smallholder farmers",
		"core_problem": "crop yield forecasting is guesswork",
		"current_workaround": "manual scouting",
		"proposed_solution": "satellite imagery model",
		"differentiation": "works offline"
	},
	"mirror_summary": "An offline-capable yield forecasting tool for smallholder farmers.",
	"next_question": ""
}`

func newClarificationFixture(t *testing.T, store *fakeStore, llmFake *fakeLLM) (IClarificationService, <-chan *message.Message) {
	t.Helper()

	eventBus := bus.New(watermill.NopLogger{})
	t.Cleanup(func() { _ = eventBus.Close() })

	messages, err := eventBus.Subscribe(context.Background())
	require.NoError(t, err)

	svc := NewClarificationService(&fakeFactory{store: store}, llmFake, eventBus, nopLogger{})
	return svc, messages
}

func seedClarifyingSession(store *fakeStore) *entity.Session {
	session := seedSession(store, state.Clarifying, "")
	store.messages = append(store.messages, &entity.ChatMessage{
		Id:        uuid.New(),
		SessionId: session.Id,
		Role:      constant.ChatMessageRoleUser,
		Message:   session.IdeaDescription,
		CreatedAt: time.Now(),
	})
	return session
}

func TestClarificationTurnBelowThreshold(t *testing.T) {
	store := newFakeStore()
	session := seedClarifyingSession(store)
	svc, messages := newClarificationFixture(t, store, &fakeLLM{responses: []string{partialTurnJSON}})

	err := svc.Run(context.Background(), map[string]string{"session_id": session.Id.String()})
	require.NoError(t, err)

	// Exactly one assistant reply per turn, carrying the mirror and question.
	var assistant []*entity.ChatMessage
	for _, m := range store.messages {
		if m.SessionId == session.Id && m.Role == constant.ChatMessageRoleAssistant {
			assistant = append(assistant, m)
		}
	}
	require.Len(t, assistant, 1)
	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(assistant[0].Message), &body))
	assert.Equal(t, "You want to forecast crop yields.", body["mirror_summary"])
	assert.Equal(t, "Who exactly would use this?", body["next_question"])

	assert.Equal(t, "agritech", session.ClarificationSchema["project_domain"])

	payload := waitForEvent(t, messages, constant.EventClarificationUpdate)
	assert.Equal(t, 0.33, payload["confidence_score"])
	schema, ok := payload["schema"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "crop yield forecasting is guesswork", schema["core_problem"])

	// Below the threshold nothing else is published.
	select {
	case msg := <-messages:
		envelope, decodeErr := bus.Decode(msg)
		msg.Ack()
		require.NoError(t, decodeErr)
		t.Fatalf("unexpected event %s below confidence threshold", envelope.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestClarificationTurnAtThresholdSignalsReady(t *testing.T) {
	store := newFakeStore()
	session := seedClarifyingSession(store)
	svc, messages := newClarificationFixture(t, store, &fakeLLM{responses: []string{completeTurnJSON}})

	err := svc.Run(context.Background(), map[string]string{"session_id": session.Id.String()})
	require.NoError(t, err)

	payloads := waitForEvents(t, messages, constant.EventClarificationUpdate, constant.EventClarificationReady)

	ready := payloads[constant.EventClarificationReady]
	assert.Equal(t, 1.0, ready["confidence_score"])
	assert.Equal(t, session.Id.String(), ready["session_id"])
	assert.Equal(t, "An offline-capable yield forecasting tool for smallholder farmers.", ready["mirror_summary"])
	schema, ok := ready["schema"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, schema, len(constant.SchemaFields))
}

func TestClarificationSchemaSurvivesContradictingTurn(t *testing.T) {
	store := newFakeStore()
	session := seedClarifyingSession(store)
	session.ClarificationSchema = map[string]string{"project_domain": "healthtech"}
	svc, messages := newClarificationFixture(t, store, &fakeLLM{responses: []string{partialTurnJSON}})

	err := svc.Run(context.Background(), map[string]string{"session_id": session.Id.String()})
	require.NoError(t, err)

	waitForEvent(t, messages, constant.EventClarificationUpdate)
	assert.Equal(t, "healthtech", session.ClarificationSchema["project_domain"])
	assert.Equal(t, "crop yield forecasting is guesswork", session.ClarificationSchema["core_problem"])
}

func TestClarificationDropsDeletedSession(t *testing.T) {
	store := newFakeStore()
	llmFake := &fakeLLM{responses: []string{partialTurnJSON}}
	svc, _ := newClarificationFixture(t, store, llmFake)

	err := svc.Run(context.Background(), map[string]string{"session_id": uuid.New().String()})
	require.NoError(t, err)

	assert.Zero(t, llmFake.calls)
	assert.Empty(t, store.messages)
}

func TestClarificationMalformedProviderOutput(t *testing.T) {
	store := newFakeStore()
	session := seedClarifyingSession(store)
	svc, _ := newClarificationFixture(t, store, &fakeLLM{responses: []string{"the model rambled with no JSON"}})

	err := svc.Run(context.Background(), map[string]string{"session_id": session.Id.String()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrMalformedOutput))

	// A failed turn persists nothing; the retry replays it from scratch.
	for _, m := range store.messages {
		assert.NotEqual(t, constant.ChatMessageRoleAssistant, m.Role)
	}
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"stratos-backend/internal/constant"
	"stratos-backend/internal/dto"
	"stratos-backend/internal/entity"
	"stratos-backend/pkg/bus"
	"stratos-backend/pkg/dispatch"
	"stratos-backend/pkg/pipeline/state"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu        sync.Mutex
	consent   []string
	reportsTo []string
}

func (f *fakeMailer) SendConsentRequested(toEmail, ideaSummary string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consent = append(f.consent, toEmail)
	return nil
}

func (f *fakeMailer) SendReportReady(toEmail, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reportsTo = append(f.reportsTo, toEmail)
	return nil
}

func newOrchestratorFixture(t *testing.T, store *fakeStore) (IOrchestratorService, <-chan *message.Message) {
	t.Helper()

	eventBus := bus.New(watermill.NopLogger{})
	dispatcher, err := dispatch.New(dispatch.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, Multiplier: 1}, watermill.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = dispatcher.Close()
		_ = eventBus.Close()
	})

	messages, err := eventBus.Subscribe(context.Background())
	require.NoError(t, err)

	svc := NewOrchestratorService(&fakeFactory{store: store}, eventBus, dispatcher, &fakeMailer{}, nopLogger{})
	return svc, messages
}

func seedSession(store *fakeStore, status state.Status, summary string) *entity.Session {
	user := &entity.User{Id: uuid.New(), Email: "owner@example.com"}
	store.users[user.Id] = user

	session := &entity.Session{
		Id:                  uuid.New(),
		UserId:              user.Id,
		Status:              status,
		IdeaDescription:     "an app for smallholder farmers",
		ClarificationSchema: map[string]string{},
		CreatedAt:           time.Now(),
	}
	if summary != "" {
		session.ClarifiedSummary = &summary
	}
	store.sessions[session.Id] = session

	report := &entity.Report{
		Id:        uuid.New(),
		SessionId: session.Id,
		Topic:     "smallholder farming tools",
		Status:    "draft",
		CreatedAt: time.Now(),
	}
	store.reports[report.Id] = report
	return session
}

func TestStartSessionSeedsPipeline(t *testing.T) {
	store := newFakeStore()
	svc, messages := newOrchestratorFixture(t, store)
	userId := uuid.New()

	resp, err := svc.StartSession(context.Background(), userId, &dto.StartSessionRequest{
		IdeaDescription: "a marketplace for refurbished lab equipment",
	})
	require.NoError(t, err)
	assert.Equal(t, string(state.Clarifying), resp.Status)

	session := store.sessions[resp.Id]
	require.NotNil(t, session)
	assert.Equal(t, userId, session.UserId)
	assert.Equal(t, state.Clarifying, session.Status)

	// The idea description is the first transcript entry.
	require.Len(t, store.messages, 1)
	assert.Equal(t, constant.ChatMessageRoleUser, store.messages[0].Role)
	assert.Equal(t, "a marketplace for refurbished lab equipment", store.messages[0].Message)

	// A draft report exists from the first moment of the session.
	require.Len(t, store.reports, 1)

	events := waitForEvents(t, messages, constant.EventSessionCreated, constant.EventClarificationStarted)
	assert.Equal(t, userId.String(), events[constant.EventSessionCreated]["user_id"])
	assert.Equal(t, resp.Id.String(), events[constant.EventClarificationStarted]["session_id"])
}

func TestHandleUserMessageOutsideClarificationRejected(t *testing.T) {
	store := newFakeStore()
	svc, _ := newOrchestratorFixture(t, store)
	session := seedSession(store, state.ResearchRunning, "summary")

	_, err := svc.HandleUserMessage(context.Background(), session.UserId, &dto.UserMessageRequest{
		SessionId: session.Id,
		Message:   "one more detail",
	})
	require.Error(t, err)

	var transitionErr *state.InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
	assert.Empty(t, store.messages)
}

func TestSessionAccessIsOwnerOnly(t *testing.T) {
	store := newFakeStore()
	svc, _ := newOrchestratorFixture(t, store)
	session := seedSession(store, state.Clarifying, "")

	stranger := uuid.New()

	_, err := svc.GetStatus(context.Background(), stranger, session.Id)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.AcceptConsent(context.Background(), stranger, session.Id)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetStatus(context.Background(), session.UserId, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptConsentRequiresSummary(t *testing.T) {
	store := newFakeStore()
	svc, _ := newOrchestratorFixture(t, store)
	session := seedSession(store, state.AwaitingConsent, "")

	_, err := svc.AcceptConsent(context.Background(), session.UserId, session.Id)
	assert.ErrorIs(t, err, ErrMissingPrerequisite)
	assert.Equal(t, state.AwaitingConsent, store.sessions[session.Id].Status)
}

func TestAcceptConsentAdvancesToResearchPrep(t *testing.T) {
	store := newFakeStore()
	svc, messages := newOrchestratorFixture(t, store)
	session := seedSession(store, state.AwaitingConsent, "A vetted summary of the idea.")

	resp, err := svc.AcceptConsent(context.Background(), session.UserId, session.Id)
	require.NoError(t, err)
	assert.Equal(t, string(state.ReadyForResearch), resp.Status)

	payload := waitForEvent(t, messages, constant.EventClarificationCompleted)
	assert.Equal(t, session.Id.String(), payload["session_id"])
	assert.Equal(t, string(state.ReadyForResearch), payload["status"])
}

func TestRequestConsentKeepsFirstSummary(t *testing.T) {
	store := newFakeStore()
	svc, _ := newOrchestratorFixture(t, store)
	session := seedSession(store, state.Clarifying, "the original summary")

	err := svc.RequestConsent(context.Background(), session.Id, "a different summary")
	require.NoError(t, err)

	require.NotNil(t, store.sessions[session.Id].ClarifiedSummary)
	assert.Equal(t, "the original summary", *store.sessions[session.Id].ClarifiedSummary)
	assert.Equal(t, state.AwaitingConsent, store.sessions[session.Id].Status)
}

func TestAcceptOutlineDuplicateDeliveryIsNoOp(t *testing.T) {
	store := newFakeStore()
	svc, messages := newOrchestratorFixture(t, store)
	session := seedSession(store, state.ReadyForResearch, "A vetted summary of the idea.")

	require.NoError(t, svc.AcceptOutline(context.Background(), session.Id))
	assert.Equal(t, state.ResearchRunning, store.sessions[session.Id].Status)

	waitForEvents(t, messages, constant.EventOutlineAccepted, constant.EventResearchStarted)

	err := svc.AcceptOutline(context.Background(), session.Id)
	require.Error(t, err)

	var transitionErr *state.InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, state.ResearchRunning, store.sessions[session.Id].Status)
}

func TestCompleteResearchMarksReportAndSession(t *testing.T) {
	store := newFakeStore()
	svc, _ := newOrchestratorFixture(t, store)
	session := seedSession(store, state.ResearchRunning, "A vetted summary of the idea.")

	var reportId uuid.UUID
	for id := range store.reports {
		reportId = id
	}

	require.NoError(t, svc.CompleteResearch(context.Background(), reportId))
	assert.Equal(t, state.WritingSections, store.sessions[session.Id].Status)
	assert.Equal(t, "research_complete", store.reports[reportId].Status)
}

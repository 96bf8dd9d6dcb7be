package service

import (
	"context"
	"encoding/json"
	"errors"

	"stratos-backend/internal/constant"
	"stratos-backend/internal/pkg/logger"
	"stratos-backend/pkg/bus"
	"stratos-backend/pkg/pipeline/state"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IListenerService interface {
	Listen(ctx context.Context) error
}

// listenerService is the single long-lived bus subscriber that drives the
// pipeline forward between stages. Every handler sits behind a state guard,
// so duplicate or replayed events degrade to logged no-ops.
type listenerService struct {
	eventBus     *bus.EventBus
	orchestrator IOrchestratorService
	logger       logger.ILogger
}

func NewListenerService(eventBus *bus.EventBus, orchestrator IOrchestratorService, log logger.ILogger) IListenerService {
	return &listenerService{
		eventBus:     eventBus,
		orchestrator: orchestrator,
		logger:       log,
	}
}

func (s *listenerService) Listen(ctx context.Context) error {
	messages, err := s.eventBus.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.handleMessage(ctx, msg)
			msg.Ack()
		}
		s.logger.Info("Listener", "Event stream closed, listener stopping", nil)
	}()

	return nil
}

func (s *listenerService) handleMessage(ctx context.Context, msg *message.Message) {
	envelope, err := bus.Decode(msg)
	if err != nil {
		// One malformed event must never take the listener down.
		s.logger.Warn("Listener", "Dropping malformed event", map[string]interface{}{"error": err.Error()})
		return
	}

	var handleErr error
	switch envelope.Type {
	case constant.EventClarificationReady:
		handleErr = s.onClarificationReady(ctx, envelope.Payload)
	case constant.EventOutlineReady:
		handleErr = s.onOutlineReady(ctx, envelope.Payload)
	case constant.EventResearchDone:
		handleErr = s.onResearchDone(ctx, envelope.Payload)
	default:
		return
	}

	if handleErr == nil {
		return
	}

	var transitionErr *state.InvalidTransitionError
	if errors.As(handleErr, &transitionErr) {
		// Duplicate delivery found the session already advanced.
		s.logger.Info("Listener", "Ignoring stale event", map[string]interface{}{
			"type":  envelope.Type,
			"state": string(transitionErr.Current),
		})
		return
	}

	s.logger.Error("Listener", "Event handling failed", map[string]interface{}{
		"type":  envelope.Type,
		"error": handleErr.Error(),
	})
}

func payloadID(payload map[string]interface{}, key string) (uuid.UUID, error) {
	raw, _ := payload[key].(string)
	return uuid.Parse(raw)
}

func (s *listenerService) onClarificationReady(ctx context.Context, payload map[string]interface{}) error {
	sessionId, err := payloadID(payload, "session_id")
	if err != nil {
		return err
	}

	// The consented summary prefers the human-readable mirror; the full
	// structured result is the fallback.
	summary, _ := payload["mirror_summary"].(string)
	if summary == "" {
		encoded, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		summary = string(encoded)
	}

	return s.orchestrator.RequestConsent(ctx, sessionId, summary)
}

func (s *listenerService) onOutlineReady(ctx context.Context, payload map[string]interface{}) error {
	sessionId, err := payloadID(payload, "session_id")
	if err != nil {
		return err
	}
	return s.orchestrator.AcceptOutline(ctx, sessionId)
}

func (s *listenerService) onResearchDone(ctx context.Context, payload map[string]interface{}) error {
	reportId, err := payloadID(payload, "report_id")
	if err != nil {
		return err
	}
	return s.orchestrator.CompleteResearch(ctx, reportId)
}

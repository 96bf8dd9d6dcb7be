package service

import (
	"context"
	"time"

	"stratos-backend/internal/pkg/logger"
	"stratos-backend/internal/repository/specification"
	"stratos-backend/internal/repository/unitofwork"
	"stratos-backend/internal/websocket"
	"stratos-backend/pkg/bus"
	"stratos-backend/pkg/events"
	pktNats "stratos-backend/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// IRelayService fans pipeline events out beyond the in-process bus: every
// envelope is pushed to the owner's websocket connections and republished
// on the durable stream for the notification service.
type IRelayService interface {
	Start(ctx context.Context) error
}

type relayService struct {
	eventBus   *bus.EventBus
	uowFactory unitofwork.RepositoryFactory
	hub        *websocket.Hub
	publisher  *pktNats.Publisher
	logger     logger.ILogger
}

func NewRelayService(
	eventBus *bus.EventBus,
	uowFactory unitofwork.RepositoryFactory,
	hub *websocket.Hub,
	publisher *pktNats.Publisher,
	log logger.ILogger,
) IRelayService {
	return &relayService{
		eventBus:   eventBus,
		uowFactory: uowFactory,
		hub:        hub,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *relayService) Start(ctx context.Context) error {
	messages, err := s.eventBus.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.relay(ctx, msg)
			msg.Ack()
		}
		s.logger.Info("Relay", "Event relay stopped", nil)
	}()

	return nil
}

func (s *relayService) relay(ctx context.Context, msg *message.Message) {
	envelope, err := bus.Decode(msg)
	if err != nil {
		s.logger.Warn("Relay", "Dropping malformed event", map[string]interface{}{"error": err.Error()})
		return
	}
	s.handle(ctx, envelope)
}

func (s *relayService) handle(ctx context.Context, envelope *bus.Envelope) {
	userID, ok := s.resolveOwner(ctx, envelope.Payload)
	if !ok {
		s.logger.Warn("Relay", "Cannot resolve event owner, skipping", map[string]interface{}{
			"type": envelope.Type,
		})
		return
	}

	if s.hub != nil {
		s.hub.SendEvent(userID, envelope.Type, envelope.Payload)
	}

	if s.publisher != nil {
		data := make(map[string]interface{}, len(envelope.Payload)+1)
		for k, v := range envelope.Payload {
			data[k] = v
		}
		data["user_id"] = userID.String()

		event := events.BaseEvent{
			Type:       envelope.Type,
			Data:       data,
			OccurredAt: time.Now(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Relay", "Failed to republish event", map[string]interface{}{
				"type":  envelope.Type,
				"error": err.Error(),
			})
		}
	}
}

// resolveOwner finds the user an event belongs to, preferring an explicit
// user_id in the payload, then a session lookup, then a report lookup for
// the worker events that only carry report_id.
func (s *relayService) resolveOwner(ctx context.Context, payload map[string]interface{}) (uuid.UUID, bool) {
	if id, ok := payloadUUID(payload, "user_id"); ok {
		return id, true
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessionId, ok := payloadUUID(payload, "session_id")
	if !ok {
		reportId, ok := payloadUUID(payload, "report_id")
		if !ok {
			return uuid.Nil, false
		}
		report, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: reportId})
		if err != nil || report == nil {
			return uuid.Nil, false
		}
		sessionId = report.SessionId
	}

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil || session == nil {
		return uuid.Nil, false
	}
	return session.UserId, true
}

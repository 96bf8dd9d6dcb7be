package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stratos-backend/internal/model"
	"stratos-backend/internal/pkg/logger"
	"stratos-backend/internal/repository"
	"stratos-backend/pkg/events"
	pktNats "stratos-backend/pkg/nats"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification model.Notification)
}

type NotificationService struct {
	repo       repository.NotificationRepository
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(repo repository.NotificationRepository, sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		repo:       repo,
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event stream.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	// Strip "events." prefix from type if present (NATS subject includes stream name)
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	config, err := s.repo.GetNotificationTypeByCode(ctx, typeCode)
	if err != nil {
		// Most pipeline events have no notification mapping; that is normal.
		s.logger.Debug("NotificationService", fmt.Sprintf("No notification config for code '%s'", typeCode), nil)
		return nil
	}
	if !config.IsActive {
		s.logger.Info("NotificationService", fmt.Sprintf("Notification type '%s' is inactive", typeCode), nil)
		return nil
	}

	// Pipeline events always carry the owning user in the payload. Events
	// without one cannot be delivered to an inbox and are dropped.
	userID, ok := payloadUUID(event.Payload(), "user_id")
	if !ok {
		s.logger.Warn("NotificationService", fmt.Sprintf("No user_id in payload for event %s", typeCode), nil)
		return nil
	}

	notif := s.buildNotification(userID, config, event)

	if err := s.repo.CreateNotification(ctx, &notif); err != nil {
		s.logger.Error("NotificationService", fmt.Sprintf("Error saving notification for user %s", userID), map[string]interface{}{"error": err})
		return err // NATS will redeliver
	}

	if s.delivery != nil {
		s.delivery.Send(userID, notif)
	}
	return nil
}

func (s *NotificationService) buildNotification(userID uuid.UUID, config *model.NotificationType, event events.Event) model.Notification {
	// Simple template engine: {key} placeholders filled from the payload.
	msg := config.Template
	payload := event.Payload()

	for k, v := range payload {
		placeholder := fmt.Sprintf("{%s}", k)
		valStr := fmt.Sprintf("%v", v)
		msg = strings.ReplaceAll(msg, placeholder, valStr)
	}

	entityType := ""
	var entityID *uuid.UUID
	if et, ok := payload["entity_type"].(string); ok {
		entityType = et
	}
	if eid, ok := payloadUUID(payload, "entity_id"); ok {
		entityID = &eid
	}

	// Metadata mirrors the payload, enriched with action_url for deep linking.
	metaMap := make(map[string]interface{})
	for k, v := range payload {
		metaMap[k] = v
	}
	if entityType != "" && entityID != nil {
		metaMap["action_url"] = fmt.Sprintf("/%ss/%s", entityType, entityID.String())
	}
	metaJSON, _ := json.Marshal(metaMap)

	return model.Notification{
		ID:         uuid.New(),
		UserID:     userID,
		TypeCode:   config.Code,
		Title:      config.DisplayName,
		Message:    msg,
		Metadata:   datatypes.JSON(metaJSON),
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  time.Now(),
		IsRead:     false,
	}
}

func payloadUUID(payload map[string]interface{}, key string) (uuid.UUID, bool) {
	str, ok := payload[key].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetNotifications fetches notifications for a user.
func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	return s.repo.GetNotificationsByUserID(ctx, userID, limit, offset)
}

// GetUnreadCount fetches unread count.
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

// MarkAsRead marks a notification as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a user.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

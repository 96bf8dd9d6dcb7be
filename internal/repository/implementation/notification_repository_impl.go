package implementation

import (
	"context"
	"errors"
	"time"

	"stratos-backend/internal/model"
	"stratos-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notifications live on models directly rather than the entity/mapper
// stack: they are a presentation concern with no domain logic attached.
type NotificationRepositoryImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) repository.NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (r *NotificationRepositoryImpl) CreateNotification(ctx context.Context, notification *model.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *NotificationRepositoryImpl) GetNotificationsByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *NotificationRepositoryImpl) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepositoryImpl) markRead(ctx context.Context, where string, args ...interface{}) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where(where, args...).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) MarkAsRead(ctx context.Context, notificationID uuid.UUID) error {
	affected, err := r.markRead(ctx, "id = ?", notificationID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.New("notification not found")
	}
	return nil
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.markRead(ctx, "user_id = ? AND is_read = ?", userID, false)
	return err
}

func (r *NotificationRepositoryImpl) GetNotificationTypeByCode(ctx context.Context, code string) (*model.NotificationType, error) {
	var notifType model.NotificationType
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&notifType).Error
	if err != nil {
		return nil, err
	}
	return &notifType, nil
}

package repositories

import (
	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	GetByRecipientID(recipientID uint, page, limit int) ([]models.Notification, int64, error)
	GetUnreadCount(recipientID uint) (int64, error)
	MarkAsRead(notificationID, recipientID uint) error
	MarkAllAsRead(recipientID uint) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *postgresNotificationRepository) GetByRecipientID(recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	if err := r.db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := r.db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *postgresNotificationRepository) GetUnreadCount(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Where("recipient_id = ? AND is_read = false", recipientID).Count(&count).Error
	return count, err
}

// MarkAsRead marks one notification read; it must belong to recipientID
func (r *postgresNotificationRepository) MarkAsRead(notificationID, recipientID uint) error {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllAsRead(recipientID uint) error {
	return r.db.Model(&models.Notification{}).Where("recipient_id = ? AND is_read = false", recipientID).Update("is_read", true).Error
}

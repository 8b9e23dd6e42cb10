package services

import (
	"itr_flow_app_go/models"
	"log"
	"time"

	"gorm.io/gorm"
)

// NotificationService persists in-app notifications and, when an email sender
// is configured, mirrors them to email. It is a fire-and-forget side channel:
// the workflow never depends on its success.
type NotificationService struct {
	DB    *gorm.DB
	Email *EmailService // optional
}

func NewNotificationService(db *gorm.DB, email *EmailService) *NotificationService {
	return &NotificationService{DB: db, Email: email}
}

func (s *NotificationService) CreateNotification(notification *models.Notification) error {
	if err := s.DB.Create(notification).Error; err != nil {
		return err
	}

	if s.Email != nil {
		var user models.User
		if err := s.DB.First(&user, "id = ?", notification.UserID).Error; err == nil {
			if err := s.Email.Send(&Email{
				To:      []string{user.Email},
				Subject: notification.Title,
				Text:    notification.Message,
			}); err != nil {
				log.Printf("[NOTIFY] Failed to send notification email to %s: %v", user.Email, err)
			}
		}
	}
	return nil
}

func (s *NotificationService) GetUnreadNotifications(userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.DB.Where("user_id = ? AND read_at IS NULL", userID).
		Order("created_at DESC").
		Limit(20).
		Find(&notifications).Error
	return notifications, err
}

func (s *NotificationService) MarkAsRead(notificationID, userID string) error {
	now := time.Now()
	return s.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read_at", now).Error
}

func (s *NotificationService) MarkAllAsRead(userID string) error {
	now := time.Now()
	return s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", now).Error
}

func (s *NotificationService) GetNotificationCount(userID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

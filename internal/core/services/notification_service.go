package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/adapters/persistence/repositories"
	"chitfund-ledger/internal/core/domain"
)

// NotificationService handles in-app notifications
type NotificationService struct {
	notifRepo repositories.NotificationRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(notifRepo repositories.NotificationRepository) *NotificationService {
	return &NotificationService{notifRepo: notifRepo}
}

// ListNotificationsOutput represents list notifications output
type ListNotificationsOutput struct {
	Notifications []*models.Notification `json:"notifications"`
	Total         int64                  `json:"total"`
	Unread        int64                  `json:"unread"`
	Page          int                    `json:"page"`
	Limit         int                    `json:"limit"`
}

// ListMine lists the user's notifications, newest first
func (s *NotificationService) ListMine(ctx context.Context, userID uint, page, limit int) (*ListNotificationsOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	notifications, total, err := s.notifRepo.GetByOwnerID(ctx, userID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	unread, err := s.notifRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ListNotificationsOutput{
		Notifications: notifications,
		Total:         total,
		Unread:        unread,
		Page:          page,
		Limit:         limit,
	}, nil
}

// UnreadCount returns the user's unread notification count
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notifRepo.CountUnread(ctx, userID)
}

// MarkRead marks one of the user's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	if err := s.notifRepo.MarkRead(ctx, userID, notificationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

// MarkAllRead marks all of the user's notifications as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.notifRepo.MarkAllRead(ctx, userID)
}

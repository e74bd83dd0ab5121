package repositories

import (
	"context"

	"chitfund-ledger/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// notificationRepository implements NotificationRepository interface
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create creates a new notification
func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// CreateIfAbsent inserts a notification unless one with the same owner and
// dedup key already exists. Returns true when a row was inserted.
func (r *notificationRepository) CreateIfAbsent(ctx context.Context, n *models.Notification) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(n)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetByOwnerID gets a member's notifications with pagination
func (r *notificationRepository) GetByOwnerID(ctx context.Context, ownerID uint, offset, limit int) ([]*models.Notification, int64, error) {
	var notifications []*models.Notification
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("owner_id = ?", ownerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

// CountUnread counts a member's unread notifications
func (r *notificationRepository) CountUnread(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("owner_id = ?", ownerID).
		Where("is_read = ?", false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one of the owner's notifications as read
func (r *notificationRepository) MarkRead(ctx context.Context, ownerID, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead marks all of the owner's notifications as read
func (r *notificationRepository) MarkAllRead(ctx context.Context, ownerID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("owner_id = ?", ownerID).
		Where("is_read = ?", false).
		Update("is_read", true).Error
}

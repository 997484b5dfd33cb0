package models

import (
	"context"
	"time"

	"github.com/venturatrading/commerce_backend/config"
	"github.com/venturatrading/commerce_backend/utils"
	"gorm.io/gorm"
)

// Notification rows are created as transition side effects and mutated only
// to flip read flags. CustomerId 0 means the notification is addressed to
// staff.
type Notification struct {
	ID          int              `gorm:"primary_key" json:"id"`
	CustomerId  int              `gorm:"index" json:"customer_id"`
	Type        NotificationType `gorm:"size:50;not null" json:"type"`
	Title       string           `gorm:"size:255;not null" json:"title"`
	Message     string           `gorm:"type:text;not null" json:"message"`
	Data        string           `gorm:"type:text;default:null" json:"data"`
	IsRead      bool             `gorm:"default:false" json:"is_read"`
	ReadAt      *time.Time       `json:"read_at"`
	AdminIsRead bool             `gorm:"default:false" json:"admin_is_read"`
	AdminReadAt *time.Time       `json:"admin_read_at"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func CreateNotification(tx *gorm.DB, customerId int, notifType NotificationType, title string, message string, data string) error {
	notification := Notification{
		CustomerId: customerId,
		Type:       notifType,
		Title:      title,
		Message:    message,
		Data:       data,
	}
	return tx.Create(&notification).Error
}

func GetCustomerNotifications(ctx context.Context, customerId int) ([]*Notification, error) {
	db := config.GetDB()
	var results []*Notification
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerId).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetAdminNotifications(ctx context.Context) ([]*Notification, error) {
	db := config.GetDB()
	var results []*Notification
	err := db.WithContext(ctx).
		Where("customer_id = 0").
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// MarkNotificationRead flips the read flag for the owning customer.
func MarkNotificationRead(ctx context.Context, customerId int, id int) (*Notification, error) {
	db := config.GetDB()

	notification, err := utils.FetchCustomerModel[Notification](ctx, customerId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("notification not found")
	}

	if !notification.IsRead {
		now := time.Now().UTC()
		notification.IsRead = true
		notification.ReadAt = &now
		if err := db.WithContext(ctx).Save(notification).Error; err != nil {
			return nil, err
		}
	}
	return notification, nil
}

func MarkAllNotificationsRead(ctx context.Context, customerId int) (int64, error) {
	db := config.GetDB()
	now := time.Now().UTC()
	result := db.WithContext(ctx).Model(&Notification{}).
		Where("customer_id = ? AND is_read = ?", customerId, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	return result.RowsAffected, result.Error
}

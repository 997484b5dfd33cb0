package models_test

import (
	"testing"

	"github.com/venturatrading/commerce_backend/models"
	"github.com/venturatrading/commerce_backend/utils"
)

func TestMarkNotificationRead(t *testing.T) {
	db := setupTestDB(t)
	customer := seedCustomer(t, db, "Notify Co")

	tx := db.Begin()
	if err := models.CreateNotification(tx, customer.ID, models.NotificationTypeGeneral, "Hello", "A message", ""); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	list, err := models.GetCustomerNotifications(testContext(), customer.ID)
	if err != nil {
		t.Fatalf("GetCustomerNotifications: %v", err)
	}
	if len(list) != 1 || list[0].IsRead {
		t.Fatalf("notifications = %+v, want one unread", list)
	}

	marked, err := models.MarkNotificationRead(testContext(), customer.ID, list[0].ID)
	if err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if !marked.IsRead || marked.ReadAt == nil {
		t.Errorf("notification not marked read: %+v", marked)
	}

	// Other customers cannot touch it.
	other := seedCustomer(t, db, "Other Notify Co")
	if _, err := models.MarkNotificationRead(testContext(), other.ID, list[0].ID); utils.KindOf(err) != utils.ErrorKindNotFound {
		t.Errorf("kind = %v, want not_found", utils.KindOf(err))
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	db := setupTestDB(t)
	customer := seedCustomer(t, db, "Bulk Notify Co")

	tx := db.Begin()
	for i := 0; i < 3; i++ {
		if err := models.CreateNotification(tx, customer.ID, models.NotificationTypeGeneral, "Hello", "A message", ""); err != nil {
			t.Fatalf("CreateNotification: %v", err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	updated, err := models.MarkAllNotificationsRead(testContext(), customer.ID)
	if err != nil {
		t.Fatalf("MarkAllNotificationsRead: %v", err)
	}
	if updated != 3 {
		t.Errorf("updated = %d, want 3", updated)
	}

	// Second call has nothing left to flip.
	updated, err = models.MarkAllNotificationsRead(testContext(), customer.ID)
	if err != nil {
		t.Fatalf("MarkAllNotificationsRead (second): %v", err)
	}
	if updated != 0 {
		t.Errorf("updated = %d on second pass, want 0", updated)
	}
}

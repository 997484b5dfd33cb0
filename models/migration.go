package models

import (
	"github.com/venturatrading/commerce_backend/config"
)

func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&Customer{},
		&User{},
		&Invoice{},
		&Payment{},
		&PaymentHistory{},
		&PaymentReceipt{},
		&ReceiptNumberSequence{},
		&Notification{},
	)
	if err != nil {
		panic(err)
	}
}

package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/venturatrading/commerce_backend/config"
	"gorm.io/gorm"
)

// PaymentHistory is an append-only audit log. Rows are never updated and
// are deleted only by cascade when the parent payment is hard-deleted.
type PaymentHistory struct {
	ID            int             `gorm:"primary_key" json:"id"`
	PaymentId     int             `gorm:"index;not null" json:"payment_id"`
	InvoiceId     int             `gorm:"index;not null" json:"invoice_id"`
	CustomerId    int             `gorm:"index;not null" json:"customer_id"`
	Action        HistoryAction   `gorm:"size:20;not null" json:"action"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	PaymentMethod PaymentMethod   `gorm:"size:50" json:"payment_method"`
	Reference     string          `gorm:"size:255;default:null" json:"reference"`
	Notes         string          `gorm:"type:text;default:null" json:"notes"`
	PerformedBy   *int            `json:"performed_by"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func CreatePaymentHistory(tx *gorm.DB, payment *Payment, action HistoryAction, notes string, performedBy *int) error {
	history := PaymentHistory{
		PaymentId:     payment.ID,
		InvoiceId:     payment.InvoiceId,
		CustomerId:    payment.CustomerId,
		Action:        action,
		Amount:        payment.Amount,
		PaymentMethod: payment.PaymentMethod,
		Reference:     payment.Reference,
		Notes:         notes,
		PerformedBy:   performedBy,
	}
	return tx.Create(&history).Error
}

func GetPaymentHistory(ctx context.Context, paymentId int) ([]*PaymentHistory, error) {
	db := config.GetDB()
	var results []*PaymentHistory
	err := db.WithContext(ctx).
		Where("payment_id = ?", paymentId).
		Order("created_at").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

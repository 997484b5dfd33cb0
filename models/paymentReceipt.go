package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/venturatrading/commerce_backend/config"
	"github.com/venturatrading/commerce_backend/utils"
	"gorm.io/gorm"
)

// PaymentReceipt is immutable once created: one receipt per approved or
// succeeded payment event.
type PaymentReceipt struct {
	ID               int             `gorm:"primary_key" json:"id"`
	ReceiptNumber    string          `gorm:"size:50;not null;uniqueIndex" json:"receipt_number"`
	PaymentId        int             `gorm:"index;not null;uniqueIndex" json:"payment_id"`
	InvoiceId        int             `gorm:"index;not null" json:"invoice_id"`
	CustomerId       int             `gorm:"index;not null" json:"customer_id"`
	PaymentDate      time.Time       `gorm:"not null" json:"payment_date"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	RemainingAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"remaining_amount"`
	PaymentMethod    PaymentMethod   `gorm:"size:50" json:"payment_method"`
	PaymentReference string          `gorm:"size:255;default:null" json:"payment_reference"`
	Status           ReceiptStatus   `gorm:"size:20;not null" json:"status"`
	ReceiptData      string          `gorm:"type:text" json:"receipt_data"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// ReceiptNumberSequence holds one counter row per year. Incremented under a
// row lock so concurrent receipt creation cannot collide.
type ReceiptNumberSequence struct {
	Year     int `gorm:"primaryKey;autoIncrement:false" json:"year"`
	Sequence int `gorm:"not null;default:0" json:"sequence"`
}

func nextReceiptNumber(tx *gorm.DB, now time.Time) (string, error) {
	year := now.Year()

	var seq ReceiptNumberSequence
	if err := lockForUpdate(tx).Where(ReceiptNumberSequence{Year: year}).FirstOrCreate(&seq).Error; err != nil {
		return "", err
	}
	seq.Sequence++
	if err := tx.Save(&seq).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("RCP-%d-%04d", year, seq.Sequence), nil
}

// CreatePaymentReceipt snapshots the post-ledger invoice balance. Must run
// after ApplyInvoicePayment in the same transaction.
func CreatePaymentReceipt(tx *gorm.DB, payment *Payment, invoiceUpdate *InvoiceUpdate) (*PaymentReceipt, error) {

	now := time.Now().UTC()
	number, err := nextReceiptNumber(tx, now)
	if err != nil {
		return nil, err
	}

	status := ReceiptStatusPartial
	if invoiceUpdate.RemainingBalance.LessThanOrEqual(decimal.Zero) {
		status = ReceiptStatusCompleted
	}

	receipt := PaymentReceipt{
		ReceiptNumber:    number,
		PaymentId:        payment.ID,
		InvoiceId:        payment.InvoiceId,
		CustomerId:       payment.CustomerId,
		PaymentDate:      now,
		Amount:           payment.Amount,
		TotalAmount:      invoiceUpdate.TotalAmount,
		RemainingAmount:  invoiceUpdate.RemainingBalance,
		PaymentMethod:    payment.PaymentMethod,
		PaymentReference: payment.Reference,
		Status:           status,
	}

	// denormalized snapshot for rendering
	data, _ := json.Marshal(map[string]interface{}{
		"receipt_number":      number,
		"payment_number":      payment.PaymentNumber,
		"invoice_number":      invoiceUpdate.InvoiceNumber,
		"payment_method":      payment.PaymentMethod.DisplayName(),
		"amount":              payment.Amount,
		"invoice_total":       invoiceUpdate.TotalAmount,
		"remaining_balance":   invoiceUpdate.RemainingBalance,
		"payment_reference":   payment.Reference,
		"payment_date":        now.Format(time.RFC3339),
	})
	receipt.ReceiptData = string(data)

	if err := tx.Create(&receipt).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func GetPaymentReceipt(ctx context.Context, id int) (*PaymentReceipt, error) {
	receipt, err := utils.FetchModel[PaymentReceipt](ctx, id)
	if err != nil {
		return nil, utils.NewNotFoundError("receipt not found")
	}
	return receipt, nil
}

func GetCustomerReceipts(ctx context.Context, customerId int) ([]*PaymentReceipt, error) {
	db := config.GetDB()
	var results []*PaymentReceipt
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerId).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/venturatrading/commerce_backend/config"
	"github.com/venturatrading/commerce_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Invoice struct {
	ID               int             `gorm:"primary_key" json:"id"`
	InvoiceNumber    string          `gorm:"size:255;not null;uniqueIndex" json:"invoice_number" binding:"required"`
	CustomerId       int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	PaidAmount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"remaining_balance"`
	DueDate          time.Time       `gorm:"not null" json:"due_date"`
	Status           InvoiceStatus   `gorm:"size:50;not null" json:"status"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// InvoiceUpdate is the snapshot returned to callers after a ledger
// mutation.
type InvoiceUpdate struct {
	ID               int             `json:"id"`
	InvoiceNumber    string          `json:"invoice_number"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Status           InvoiceStatus   `json:"status"`
}

func (inv *Invoice) snapshot() *InvoiceUpdate {
	return &InvoiceUpdate{
		ID:               inv.ID,
		InvoiceNumber:    inv.InvoiceNumber,
		TotalAmount:      inv.TotalAmount,
		PaidAmount:       inv.PaidAmount,
		RemainingBalance: inv.RemainingBalance,
		Status:           inv.Status,
	}
}

// DeriveInvoiceStatus is a pure function of the invoice numbers and the
// clock. Completed wins over overdue; overdue wins over partially paid.
func DeriveInvoiceStatus(paidAmount, totalAmount decimal.Decimal, dueDate time.Time, now time.Time) InvoiceStatus {
	remaining := totalAmount.Sub(paidAmount)
	if remaining.LessThanOrEqual(decimal.Zero) {
		return InvoiceStatusCompleted
	}
	if dueDate.Before(now) {
		return InvoiceStatusOverdue
	}
	if paidAmount.GreaterThan(decimal.Zero) {
		return InvoiceStatusPartiallyPaid
	}
	return InvoiceStatusAwaitingPayment
}

// lockForUpdate adds a row lock on dialects that support it. The sqlite
// test driver does not understand FOR UPDATE.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// ApplyInvoicePayment adds amount to the invoice's paid total and derives
// the new status. Must run inside the caller's transaction so a later
// failure rolls the ledger back with everything else.
func ApplyInvoicePayment(tx *gorm.DB, invoiceId int, amount decimal.Decimal) (*InvoiceUpdate, error) {

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, utils.NewValidationError("payment amount must be greater than zero")
	}

	var invoice Invoice
	if err := lockForUpdate(tx).First(&invoice, invoiceId).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewNotFoundError("invoice not found")
		}
		return nil, err
	}

	invoice.PaidAmount = invoice.PaidAmount.Add(amount)
	invoice.RemainingBalance = invoice.TotalAmount.Sub(invoice.PaidAmount)
	if invoice.RemainingBalance.IsNegative() {
		invoice.RemainingBalance = decimal.Zero
	}
	invoice.Status = DeriveInvoiceStatus(invoice.PaidAmount, invoice.TotalAmount, invoice.DueDate, time.Now().UTC())

	if err := tx.Save(&invoice).Error; err != nil {
		return nil, err
	}

	return invoice.snapshot(), nil
}

// RecalculateInvoice recomputes remaining balance and status from the
// stored amounts. Idempotent repair operation; writes back only on
// discrepancy and reports whether an update occurred.
func RecalculateInvoice(ctx context.Context, invoiceId int) (*InvoiceUpdate, bool, error) {
	db := config.GetDB()

	var invoice Invoice
	if err := db.WithContext(ctx).First(&invoice, invoiceId).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, utils.NewNotFoundError("invoice not found")
		}
		return nil, false, err
	}

	remaining := invoice.TotalAmount.Sub(invoice.PaidAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	status := DeriveInvoiceStatus(invoice.PaidAmount, invoice.TotalAmount, invoice.DueDate, time.Now().UTC())

	if remaining.Equal(invoice.RemainingBalance) && status == invoice.Status {
		return invoice.snapshot(), false, nil
	}

	invoice.RemainingBalance = remaining
	invoice.Status = status
	if err := db.WithContext(ctx).Save(&invoice).Error; err != nil {
		return nil, false, err
	}

	return invoice.snapshot(), true, nil
}

func GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	return utils.FetchModel[Invoice](ctx, id)
}

// GetCustomerInvoice fetches an invoice and enforces ownership.
func GetCustomerInvoice(ctx context.Context, customerId int, id int) (*Invoice, error) {
	invoice, err := utils.FetchModel[Invoice](ctx, id)
	if err != nil {
		return nil, utils.NewNotFoundError("invoice not found")
	}
	if invoice.CustomerId != customerId {
		return nil, utils.NewAuthorizationError("invoice does not belong to this customer")
	}
	return invoice, nil
}

func GetCustomerInvoices(ctx context.Context, customerId int) ([]*Invoice, error) {
	db := config.GetDB()
	var results []*Invoice
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerId).
		Order("due_date").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

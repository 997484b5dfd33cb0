package models

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/venturatrading/commerce_backend/config"
	"github.com/venturatrading/commerce_backend/utils"
	"gorm.io/gorm"
)

type Payment struct {
	ID               int             `gorm:"primary_key" json:"id"`
	PaymentNumber    string          `gorm:"size:255;not null;uniqueIndex" json:"payment_number"`
	InvoiceId        int             `gorm:"index;not null" json:"invoice_id" binding:"required"`
	CustomerId       int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount" binding:"required"`
	PaymentMethod    PaymentMethod   `gorm:"size:50;not null" json:"payment_method" binding:"required"`
	Reference        string          `gorm:"size:255;default:null" json:"reference"`
	Notes            string          `gorm:"type:text;default:null" json:"notes"`
	Status           PaymentStatus   `gorm:"size:50;not null;index" json:"status"`
	Attachments      string          `gorm:"type:text;default:null" json:"attachments"`
	RejectionReason  *string         `gorm:"type:text" json:"rejection_reason"`
	ReviewedAt       *time.Time      `json:"reviewed_at"`
	ReviewedBy       *int            `json:"reviewed_by"`
	GatewayProvider  string          `gorm:"size:50;default:null" json:"gateway_provider"`
	GatewayPaymentId string          `gorm:"size:255;default:null;index" json:"gateway_payment_id"`
	GatewayStatus    string          `gorm:"size:50;default:null" json:"gateway_status"`
	GatewayMetadata  string          `gorm:"type:text;default:null" json:"gateway_metadata"`
	FailureCode      *string         `gorm:"size:100" json:"failure_code"`
	FailureMessage   *string         `gorm:"type:text" json:"failure_message"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPayment struct {
	InvoiceId     int             `json:"invoice_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod PaymentMethod   `json:"payment_method" binding:"required,payment_method"`
	Reference     string          `json:"reference"`
	Notes         string          `json:"notes"`
	Attachments   string          `json:"attachments"`
}

// validateAgainstInvoice enforces the submit/intent preconditions shared by
// the manual and gateway flows.
func (input *NewPayment) validateAgainstInvoice(ctx context.Context, customerId int) (*Invoice, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, utils.NewValidationError("payment amount must be greater than zero")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, utils.NewValidationError("invalid payment method")
	}

	invoice, err := GetCustomerInvoice(ctx, customerId, input.InvoiceId)
	if err != nil {
		return nil, err
	}
	if invoice.RemainingBalance.LessThanOrEqual(decimal.Zero) {
		return nil, utils.NewConflictError("invoice is already fully paid")
	}
	if input.Amount.GreaterThan(invoice.RemainingBalance) {
		return nil, utils.NewConflictError(
			"the amount entered is more than the balance for invoice " + invoice.InvoiceNumber)
	}
	return invoice, nil
}

// ValidateNewPayment runs the submission preconditions without creating
// anything, so the gateway flow can validate before calling out.
func ValidateNewPayment(ctx context.Context, customerId int, input *NewPayment) (*Invoice, error) {
	return input.validateAgainstInvoice(ctx, customerId)
}

func nextPaymentNumber(tx *gorm.DB) (string, error) {
	var maxId *int
	if err := tx.Model(&Payment{}).Select("max(id)").Scan(&maxId).Error; err != nil {
		return "", err
	}
	seq := 1
	if maxId != nil {
		seq = *maxId + 1
	}
	return fmt.Sprintf("PAY-%06d", seq), nil
}

// SubmitPayment creates a manual payment in pending_approval and writes the
// submitted history row.
func SubmitPayment(ctx context.Context, customerId int, input *NewPayment) (*Payment, error) {

	invoice, err := input.validateAgainstInvoice(ctx, customerId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	payment := Payment{
		InvoiceId:     invoice.ID,
		CustomerId:    customerId,
		Amount:        input.Amount,
		PaymentMethod: input.PaymentMethod,
		Reference:     input.Reference,
		Notes:         input.Notes,
		Attachments:   input.Attachments,
		Status:        PaymentStatusPendingApproval,
	}

	number, err := nextPaymentNumber(tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	payment.PaymentNumber = number

	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := CreatePaymentHistory(tx, &payment, HistoryActionSubmitted, input.Notes, nil); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &payment, nil
}

// CreateGatewayPayment records a gateway-initiated payment. The caller has
// already validated against the invoice and created the intent or source
// upstream.
func CreateGatewayPayment(ctx context.Context, customerId int, input *NewPayment, status PaymentStatus,
	provider string, gatewayPaymentId string, gatewayStatus string, gatewayMetadata string) (*Payment, error) {

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	payment := Payment{
		InvoiceId:        input.InvoiceId,
		CustomerId:       customerId,
		Amount:           input.Amount,
		PaymentMethod:    input.PaymentMethod,
		Notes:            input.Notes,
		Status:           status,
		GatewayProvider:  provider,
		GatewayPaymentId: gatewayPaymentId,
		GatewayStatus:    gatewayStatus,
		GatewayMetadata:  gatewayMetadata,
	}

	number, err := nextPaymentNumber(tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	payment.PaymentNumber = number

	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := CreatePaymentHistory(tx, &payment, HistoryActionSubmitted,
		"Initiated via "+provider+" gateway", nil); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &payment, nil
}

func GetPayment(ctx context.Context, id int) (*Payment, error) {
	payment, err := utils.FetchModel[Payment](ctx, id)
	if err != nil {
		return nil, utils.NewNotFoundError("payment not found")
	}
	return payment, nil
}

// GetPaymentByGatewayId locates a payment by the gateway correlation key.
// Returns RecordNotFound untyped so webhook callers can treat a miss as a
// non-error outcome.
func GetPaymentByGatewayId(tx *gorm.DB, gatewayPaymentId string) (*Payment, error) {
	var payment Payment
	err := tx.Where("gateway_payment_id = ?", gatewayPaymentId).First(&payment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func GetCustomerPayments(ctx context.Context, customerId int) ([]*Payment, error) {
	return listPayments(ctx, "customer_id = ?", customerId)
}

func GetPaymentsByStatus(ctx context.Context, status PaymentStatus) ([]*Payment, error) {
	return listPayments(ctx, "status = ?", status)
}

func listPayments(ctx context.Context, query string, args ...interface{}) ([]*Payment, error) {
	db := config.GetDB()
	var results []*Payment
	err := db.WithContext(ctx).
		Where(query, args...).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

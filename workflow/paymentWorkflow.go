package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/venturatrading/commerce_backend/config"
	"github.com/venturatrading/commerce_backend/models"
	"github.com/venturatrading/commerce_backend/utils"
)

// Manual payment flow. Every transition is guarded on the current status;
// side effects (history, notification, receipt) are written only after the
// transition itself succeeds, inside the same transaction.

// ApprovePayment applies the payment to the invoice and transitions it to
// approved. The transition is a conditional update on the current status so
// concurrent approvals of the same payment settle to exactly one winner.
// If the ledger update fails the transaction rolls back and the payment
// stays pending_approval.
func ApprovePayment(ctx context.Context, paymentId int, reviewerId int, amountOverride *decimal.Decimal) (*models.Payment, *models.InvoiceUpdate, error) {

	payment, err := models.GetPayment(ctx, paymentId)
	if err != nil {
		return nil, nil, err
	}

	effectiveAmount := payment.Amount
	if amountOverride != nil && amountOverride.GreaterThan(decimal.Zero) {
		effectiveAmount = *amountOverride
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	now := time.Now().UTC()
	claim := tx.Model(&models.Payment{}).
		Where("id = ? AND status = ?", payment.ID, models.PaymentStatusPendingApproval).
		Updates(map[string]interface{}{
			"status":      models.PaymentStatusApproved,
			"amount":      effectiveAmount,
			"reviewed_at": &now,
			"reviewed_by": &reviewerId,
		})
	if claim.Error != nil {
		tx.Rollback()
		return nil, nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		tx.Rollback()
		return nil, nil, utils.NewConflictError("only pending payments can be approved")
	}
	payment.Status = models.PaymentStatusApproved
	payment.Amount = effectiveAmount
	payment.ReviewedAt = &now
	payment.ReviewedBy = &reviewerId

	invoiceUpdate, err := models.ApplyInvoicePayment(tx, payment.InvoiceId, effectiveAmount)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if err := models.CreatePaymentHistory(tx, payment, models.HistoryActionApproved, "Payment approved", &reviewerId); err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	message := fmt.Sprintf("Your payment %s of %s for invoice %s has been approved.",
		payment.PaymentNumber, payment.Amount.StringFixed(2), invoiceUpdate.InvoiceNumber)
	if err := models.CreateNotification(tx, payment.CustomerId, models.NotificationTypePaymentApproved,
		"Payment Approved", message, ""); err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}

	return payment, invoiceUpdate, nil
}

// RejectPayment transitions a pending payment to rejected. The invoice is
// not touched.
func RejectPayment(ctx context.Context, paymentId int, reviewerId int, rejectionReason string) (*models.Payment, error) {

	if rejectionReason == "" {
		return nil, utils.NewValidationError("rejection reason is required")
	}

	payment, err := models.GetPayment(ctx, paymentId)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentStatusPendingApproval {
		return nil, utils.NewConflictError("only pending payments can be rejected")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	now := time.Now().UTC()
	payment.Status = models.PaymentStatusRejected
	payment.RejectionReason = &rejectionReason
	payment.ReviewedAt = &now
	payment.ReviewedBy = &reviewerId
	if err := tx.Save(payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := models.CreatePaymentHistory(tx, payment, models.HistoryActionRejected, rejectionReason, &reviewerId); err != nil {
		tx.Rollback()
		return nil, err
	}

	message := fmt.Sprintf("Your payment %s was rejected: %s", payment.PaymentNumber, rejectionReason)
	if err := models.CreateNotification(tx, payment.CustomerId, models.NotificationTypePaymentRejected,
		"Payment Rejected", message, ""); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return payment, nil
}

// AppealPayment records a customer appeal against a rejected payment. The
// payment status stays rejected; the appeal is documented as a history row
// and a staff notification, and an admin must act on it separately.
func AppealPayment(ctx context.Context, paymentId int, customerId int, appealReason string) (*models.Payment, error) {

	if appealReason == "" {
		return nil, utils.NewValidationError("appeal reason is required")
	}

	payment, err := models.GetPayment(ctx, paymentId)
	if err != nil {
		return nil, err
	}
	if payment.CustomerId != customerId {
		return nil, utils.NewAuthorizationError("payment does not belong to this customer")
	}
	if payment.Status != models.PaymentStatusRejected {
		return nil, utils.NewConflictError("only rejected payments can be appealed")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	note := "Appeal: " + appealReason
	if err := models.CreatePaymentHistory(tx, payment, models.HistoryActionRejected, note, nil); err != nil {
		tx.Rollback()
		return nil, err
	}

	message := fmt.Sprintf("Customer appealed payment %s (rejected: %s): %s",
		payment.PaymentNumber, utils.DereferencePtr(payment.RejectionReason, "no reason recorded"), appealReason)
	if err := models.CreateNotification(tx, 0, models.NotificationTypeGeneral,
		"Payment Appeal", message, ""); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return payment, nil
}

// ReapprovePayment resets a rejected payment back to pending_approval so an
// admin can review it again. This is a reset, not an approval: no history
// row is written.
func ReapprovePayment(ctx context.Context, paymentId int) (*models.Payment, error) {

	payment, err := models.GetPayment(ctx, paymentId)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentStatusRejected {
		return nil, utils.NewConflictError("only rejected payments can be re-approved")
	}

	db := config.GetDB()

	payment.Status = models.PaymentStatusPendingApproval
	payment.RejectionReason = nil
	payment.ReviewedAt = nil
	payment.ReviewedBy = nil
	if err := db.WithContext(ctx).Save(payment).Error; err != nil {
		return nil, err
	}

	return payment, nil
}

// HardDeletePayment permanently removes a rejected payment and its history
// rows. Irreversible.
func HardDeletePayment(ctx context.Context, paymentId int) error {

	payment, err := models.GetPayment(ctx, paymentId)
	if err != nil {
		return err
	}
	if payment.Status != models.PaymentStatusRejected {
		return utils.NewConflictError("only rejected payments can be deleted")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	if err := tx.Where("payment_id = ?", payment.ID).Delete(&models.PaymentHistory{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(payment).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

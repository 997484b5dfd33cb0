package models_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/venturatrading/commerce_backend/models"
)

func TestReceiptNumberingSequence(t *testing.T) {
	db := setupTestDB(t)
	customer := seedCustomer(t, db, "Receipt Co")
	invoice := seedInvoice(t, db, customer.ID, "1000.00", time.Now().AddDate(0, 1, 0))

	year := time.Now().UTC().Year()
	for i := 1; i <= 3; i++ {
		payment := models.Payment{
			PaymentNumber: fmt.Sprintf("PAY-%06d", i),
			InvoiceId:     invoice.ID,
			CustomerId:    customer.ID,
			Amount:        mustDecimal(t, "100.00"),
			PaymentMethod: models.PaymentMethodBankTransfer,
			Status:        models.PaymentStatusApproved,
		}
		if err := db.Create(&payment).Error; err != nil {
			t.Fatalf("seed payment: %v", err)
		}

		tx := db.Begin()
		update, err := models.ApplyInvoicePayment(tx, invoice.ID, payment.Amount)
		if err != nil {
			t.Fatalf("ApplyInvoicePayment: %v", err)
		}
		receipt, err := models.CreatePaymentReceipt(tx, &payment, update)
		if err != nil {
			t.Fatalf("CreatePaymentReceipt: %v", err)
		}
		if err := tx.Commit().Error; err != nil {
			t.Fatalf("commit: %v", err)
		}

		want := fmt.Sprintf("RCP-%d-%04d", year, i)
		if receipt.ReceiptNumber != want {
			t.Errorf("receipt number = %q, want %q", receipt.ReceiptNumber, want)
		}
		if receipt.Status != models.ReceiptStatusPartial {
			t.Errorf("receipt status = %q, want Partial", receipt.Status)
		}
	}
}

func TestReceiptStatusCompletedOnFullPayment(t *testing.T) {
	db := setupTestDB(t)
	customer := seedCustomer(t, db, "Full Receipt Co")
	invoice := seedInvoice(t, db, customer.ID, "100.00", time.Now().AddDate(0, 1, 0))

	payment := models.Payment{
		PaymentNumber: "PAY-000001",
		InvoiceId:     invoice.ID,
		CustomerId:    customer.ID,
		Amount:        mustDecimal(t, "100.00"),
		PaymentMethod: models.PaymentMethodBankTransfer,
		Status:        models.PaymentStatusApproved,
	}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	tx := db.Begin()
	update, err := models.ApplyInvoicePayment(tx, invoice.ID, payment.Amount)
	if err != nil {
		t.Fatalf("ApplyInvoicePayment: %v", err)
	}
	receipt, err := models.CreatePaymentReceipt(tx, &payment, update)
	if err != nil {
		t.Fatalf("CreatePaymentReceipt: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	if receipt.Status != models.ReceiptStatusCompleted {
		t.Errorf("receipt status = %q, want Completed", receipt.Status)
	}
	if !receipt.RemainingAmount.IsZero() {
		t.Errorf("remaining amount = %s, want 0", receipt.RemainingAmount)
	}
}

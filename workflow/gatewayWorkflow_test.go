package workflow_test

import (
	"context"
	"testing"

	"github.com/venturatrading/commerce_backend/config"
	"github.com/venturatrading/commerce_backend/models"
	"github.com/venturatrading/commerce_backend/paymongo"
	"github.com/venturatrading/commerce_backend/workflow"
)

func (f *fixture) seedGatewayPayment(t *testing.T, amount string, intentId string) *models.Payment {
	t.Helper()

	payment, err := models.CreateGatewayPayment(context.Background(), f.customer.ID, &models.NewPayment{
		InvoiceId:     f.invoice.ID,
		Amount:        mustDecimal(t, amount),
		PaymentMethod: models.PaymentMethodCard,
	}, models.PaymentStatusPendingPayment, paymongo.ProviderName, intentId, "awaiting_payment_method", "{}")
	if err != nil {
		t.Fatalf("CreateGatewayPayment: %v", err)
	}
	return payment
}

func paidEvent(eventId string, intentId string) *paymongo.WebhookEvent {
	return &paymongo.WebhookEvent{
		ID:   eventId,
		Type: paymongo.EventPaymentPaid,
		Data: paymongo.Resource{
			ID:   "pay_abc123",
			Type: "payment",
			Attributes: map[string]interface{}{
				"status":            "paid",
				"payment_intent_id": intentId,
			},
		},
	}
}

func TestProcessGatewaySuccess(t *testing.T) {
	f := newFixture(t, "1000.00")
	payment := f.seedGatewayPayment(t, "400.00", "pi_success_1")
	logger := config.GetLogger()

	if err := workflow.ProcessGatewayEvent(context.Background(), logger, paidEvent("evt_1", "pi_success_1")); err != nil {
		t.Fatalf("ProcessGatewayEvent: %v", err)
	}

	got := f.reloadPayment(t, payment.ID)
	if got.Status != models.PaymentStatusSucceeded {
		t.Errorf("status = %q, want succeeded", got.Status)
	}
	if got.Reference != "pay_abc123" {
		t.Errorf("reference = %q, want gateway payment id", got.Reference)
	}

	invoice := f.reloadInvoice(t)
	if !invoice.PaidAmount.Equal(mustDecimal(t, "400.00")) {
		t.Errorf("invoice paid = %s, want 400.00", invoice.PaidAmount)
	}
	if n := f.countRows(t, &models.PaymentReceipt{}, "payment_id = ?", payment.ID); n != 1 {
		t.Errorf("receipts = %d, want 1", n)
	}
	if n := f.countRows(t, &models.Notification{}, "customer_id = ? AND type = ?", f.customer.ID, models.NotificationTypePaymentApproved); n != 1 {
		t.Errorf("notifications = %d, want 1", n)
	}
}

func TestProcessGatewaySuccessIsIdempotent(t *testing.T) {
	f := newFixture(t, "1000.00")
	payment := f.seedGatewayPayment(t, "400.00", "pi_replay_1")
	logger := config.GetLogger()
	ctx := context.Background()

	if err := workflow.ProcessGatewayEvent(ctx, logger, paidEvent("evt_1", "pi_replay_1")); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	// The gateway redelivers the same event.
	if err := workflow.ProcessGatewayEvent(ctx, logger, paidEvent("evt_1", "pi_replay_1")); err != nil {
		t.Fatalf("replayed delivery: %v", err)
	}

	invoice := f.reloadInvoice(t)
	if !invoice.PaidAmount.Equal(mustDecimal(t, "400.00")) {
		t.Errorf("invoice paid = %s after replay, want 400.00 (applied once)", invoice.PaidAmount)
	}
	if n := f.countRows(t, &models.PaymentReceipt{}, "payment_id = ?", payment.ID); n != 1 {
		t.Errorf("receipts = %d after replay, want 1", n)
	}
	if n := f.countRows(t, &models.PaymentHistory{}, "payment_id = ? AND action = ?", payment.ID, models.HistoryActionApproved); n != 1 {
		t.Errorf("approved history rows = %d after replay, want 1", n)
	}
}

func TestProcessGatewayFailure(t *testing.T) {
	f := newFixture(t, "1000.00")
	payment := f.seedGatewayPayment(t, "400.00", "pi_fail_1")
	logger := config.GetLogger()

	event := &paymongo.WebhookEvent{
		ID:   "evt_fail",
		Type: paymongo.EventIntentPaymentFailed,
		Data: paymongo.Resource{
			ID:   "pi_fail_1",
			Type: "payment_intent",
			Attributes: map[string]interface{}{
				"status": "awaiting_payment_method",
				"last_payment_error": map[string]interface{}{
					"code":   "card_declined",
					"detail": "The card was declined by the issuer.",
				},
			},
		},
	}

	if err := workflow.ProcessGatewayEvent(context.Background(), logger, event); err != nil {
		t.Fatalf("ProcessGatewayEvent: %v", err)
	}

	got := f.reloadPayment(t, payment.ID)
	if got.Status != models.PaymentStatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.FailureCode == nil || *got.FailureCode != "card_declined" {
		t.Errorf("failure code = %v, want card_declined", got.FailureCode)
	}
	if got.FailureMessage == nil || *got.FailureMessage != "The card was declined by the issuer." {
		t.Errorf("failure message = %v", got.FailureMessage)
	}

	// Failures never touch the ledger.
	invoice := f.reloadInvoice(t)
	if !invoice.PaidAmount.IsZero() {
		t.Errorf("invoice paid = %s after failure, want 0", invoice.PaidAmount)
	}
	if n := f.countRows(t, &models.Notification{}, "customer_id = ? AND type = ?", f.customer.ID, models.NotificationTypePaymentRejected); n != 1 {
		t.Errorf("failure notifications = %d, want 1", n)
	}
}

func TestProcessGatewayLateFailureAfterSuccess(t *testing.T) {
	f := newFixture(t, "1000.00")
	payment := f.seedGatewayPayment(t, "400.00", "pi_late_1")
	logger := config.GetLogger()
	ctx := context.Background()

	if err := workflow.ProcessGatewayEvent(ctx, logger, paidEvent("evt_1", "pi_late_1")); err != nil {
		t.Fatalf("success delivery: %v", err)
	}

	failure := &paymongo.WebhookEvent{
		ID:   "evt_late",
		Type: paymongo.EventPaymentFailed,
		Data: paymongo.Resource{
			ID:         "pay_late",
			Type:       "payment",
			Attributes: map[string]interface{}{"payment_intent_id": "pi_late_1", "status": "failed"},
		},
	}
	if err := workflow.ProcessGatewayEvent(ctx, logger, failure); err != nil {
		t.Fatalf("late failure delivery: %v", err)
	}

	if got := f.reloadPayment(t, payment.ID); got.Status != models.PaymentStatusSucceeded {
		t.Errorf("status = %q after late failure, want succeeded", got.Status)
	}
}

func TestProcessGatewayEventNoMatchingPayment(t *testing.T) {
	f := newFixture(t, "1000.00")
	logger := config.GetLogger()

	// Unknown correlation id is dropped, not an error, so the gateway does
	// not redeliver forever.
	if err := workflow.ProcessGatewayEvent(context.Background(), logger, paidEvent("evt_1", "pi_unknown")); err != nil {
		t.Fatalf("ProcessGatewayEvent: %v", err)
	}

	if n := f.countRows(t, &models.PaymentReceipt{}, ""); n != 0 {
		t.Errorf("receipts = %d, want 0", n)
	}
}

func TestProcessGatewayEventUnknownType(t *testing.T) {
	newFixture(t, "1000.00")
	logger := config.GetLogger()

	event := &paymongo.WebhookEvent{
		ID:   "evt_x",
		Type: "link.payment.paid",
		Data: paymongo.Resource{ID: "x", Attributes: map[string]interface{}{}},
	}
	if err := workflow.ProcessGatewayEvent(context.Background(), logger, event); err != nil {
		t.Fatalf("unknown event type should be dropped, got %v", err)
	}
}

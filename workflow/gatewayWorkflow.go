package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/venturatrading/commerce_backend/config"
	"github.com/venturatrading/commerce_backend/models"
	"github.com/venturatrading/commerce_backend/paymongo"
	"github.com/venturatrading/commerce_backend/utils"
)

// Gateway payment flow: intent/source creation and webhook-driven
// succeeded/failed transitions.

type GatewayPaymentResult struct {
	Payment     *models.Payment `json:"payment"`
	ClientKey   string          `json:"client_key,omitempty"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
}

// CreateGatewayIntent validates like a manual submission, creates a
// payment intent at the gateway, and records the payment in
// pending_payment keyed by the intent id.
func CreateGatewayIntent(ctx context.Context, gw *paymongo.Client, customerId int, input *models.NewPayment) (*GatewayPaymentResult, error) {

	invoice, err := models.ValidateNewPayment(ctx, customerId, input)
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Payment for invoice %s", invoice.InvoiceNumber)
	intent, err := gw.CreatePaymentIntent(ctx, input.Amount, invoice.ID, customerId, description)
	if err != nil {
		return nil, err
	}

	payment, err := models.CreateGatewayPayment(ctx, customerId, input, models.PaymentStatusPendingPayment,
		paymongo.ProviderName, intent.ID, intent.Status(), marshalAttributes(intent))
	if err != nil {
		return nil, err
	}

	return &GatewayPaymentResult{Payment: payment, ClientKey: intent.ClientKey()}, nil
}

// CreateGatewaySource starts an e-wallet payment. The source is chargeable
// only after the customer authorizes it at the checkout URL, so the
// payment is recorded as processing.
func CreateGatewaySource(ctx context.Context, gw *paymongo.Client, customerId int, input *models.NewPayment, successURL string, failedURL string) (*GatewayPaymentResult, error) {

	invoice, err := models.ValidateNewPayment(ctx, customerId, input)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		"invoice_id":  fmt.Sprint(invoice.ID),
		"customer_id": fmt.Sprint(customerId),
	}
	source, err := gw.CreateSource(ctx, string(input.PaymentMethod), input.Amount, successURL, failedURL, metadata)
	if err != nil {
		return nil, err
	}

	payment, err := models.CreateGatewayPayment(ctx, customerId, input, models.PaymentStatusProcessing,
		paymongo.ProviderName, source.ID, source.Status(), marshalAttributes(source))
	if err != nil {
		return nil, err
	}

	return &GatewayPaymentResult{Payment: payment, CheckoutURL: source.CheckoutURL()}, nil
}

func marshalAttributes(resource *paymongo.Resource) string {
	b, _ := json.Marshal(resource.Attributes)
	return string(b)
}

// ProcessGatewayEvent maps a webhook event onto a payment transition.
// Unknown event types and events with no matching payment are logged and
// dropped; transition errors propagate so the HTTP layer returns non-2xx
// and the gateway redelivers.
func ProcessGatewayEvent(ctx context.Context, logger *logrus.Logger, event *paymongo.WebhookEvent) error {

	switch event.Type {
	case paymongo.EventPaymentPaid, paymongo.EventSourceChargeable:
		return processGatewaySuccess(ctx, logger, event)
	case paymongo.EventPaymentFailed, paymongo.EventIntentPaymentFailed:
		return processGatewayFailure(ctx, logger, event)
	default:
		logger.WithFields(logrus.Fields{
			"module":     "gatewayWorkflow.go",
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Info("ignoring unrecognized gateway event type")
		return nil
	}
}

func processGatewaySuccess(ctx context.Context, logger *logrus.Logger, event *paymongo.WebhookEvent) error {

	correlationId := event.Data.CorrelationID()
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	payment, err := models.GetPaymentByGatewayId(tx, correlationId)
	if err != nil {
		tx.Rollback()
		if err == utils.ErrorRecordNotFound {
			logger.WithFields(logrus.Fields{
				"module":             "gatewayWorkflow.go",
				"event_id":           event.ID,
				"gateway_payment_id": correlationId,
			}).Info("no payment matches gateway event; dropping")
			return nil
		}
		return err
	}

	// Idempotency claim: a single conditional update. A replayed event
	// affects zero rows and the whole delivery is a no-op.
	now := time.Now().UTC()
	claim := tx.Model(&models.Payment{}).
		Where("id = ? AND status <> ?", payment.ID, models.PaymentStatusSucceeded).
		Updates(map[string]interface{}{
			"status":           models.PaymentStatusSucceeded,
			"gateway_status":   event.Data.Status(),
			"gateway_metadata": marshalAttributes(&event.Data),
			"reference":        event.Data.ID,
			"reviewed_at":      &now,
		})
	if claim.Error != nil {
		tx.Rollback()
		return claim.Error
	}
	if claim.RowsAffected == 0 {
		tx.Rollback()
		logger.WithFields(logrus.Fields{
			"module":             "gatewayWorkflow.go",
			"event_id":           event.ID,
			"gateway_payment_id": correlationId,
			"payment_id":         payment.ID,
		}).Info("payment already succeeded; duplicate event dropped")
		return nil
	}

	payment.Status = models.PaymentStatusSucceeded
	payment.GatewayStatus = event.Data.Status()
	payment.Reference = event.Data.ID
	payment.ReviewedAt = &now

	invoiceUpdate, err := models.ApplyInvoicePayment(tx, payment.InvoiceId, payment.Amount)
	if err != nil {
		tx.Rollback()
		return err
	}

	note := "Automatically approved via " + payment.GatewayProvider + " gateway"
	if err := models.CreatePaymentHistory(tx, payment, models.HistoryActionApproved, note, nil); err != nil {
		tx.Rollback()
		return err
	}

	if _, err := models.CreatePaymentReceipt(tx, payment, invoiceUpdate); err != nil {
		tx.Rollback()
		return err
	}

	message := fmt.Sprintf("Your payment %s of %s for invoice %s has been confirmed.",
		payment.PaymentNumber, payment.Amount.StringFixed(2), invoiceUpdate.InvoiceNumber)
	if err := models.CreateNotification(tx, payment.CustomerId, models.NotificationTypePaymentApproved,
		"Payment Confirmed", message, ""); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func processGatewayFailure(ctx context.Context, logger *logrus.Logger, event *paymongo.WebhookEvent) error {

	correlationId := event.Data.CorrelationID()
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	payment, err := models.GetPaymentByGatewayId(tx, correlationId)
	if err != nil {
		tx.Rollback()
		if err == utils.ErrorRecordNotFound {
			logger.WithFields(logrus.Fields{
				"module":             "gatewayWorkflow.go",
				"event_id":           event.ID,
				"gateway_payment_id": correlationId,
			}).Info("no payment matches gateway event; dropping")
			return nil
		}
		return err
	}

	// A success must never be overwritten by a late failure event.
	if payment.Status == models.PaymentStatusSucceeded || payment.Status == models.PaymentStatusFailed {
		tx.Rollback()
		logger.WithFields(logrus.Fields{
			"module":     "gatewayWorkflow.go",
			"event_id":   event.ID,
			"payment_id": payment.ID,
			"status":     payment.Status,
		}).Info("payment already terminal; failure event dropped")
		return nil
	}

	code, detail := paymongo.FailureDetails(event.Data.Attributes)
	payment.Status = models.PaymentStatusFailed
	payment.GatewayStatus = event.Data.Status()
	payment.GatewayMetadata = marshalAttributes(&event.Data)
	payment.FailureCode = &code
	payment.FailureMessage = &detail
	if err := tx.Save(payment).Error; err != nil {
		tx.Rollback()
		return err
	}

	message := fmt.Sprintf("Your payment %s could not be completed: %s", payment.PaymentNumber, detail)
	if err := models.CreateNotification(tx, payment.CustomerId, models.NotificationTypePaymentRejected,
		"Payment Failed", message, ""); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

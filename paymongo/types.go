package paymongo

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

const (
	EventPaymentPaid         = "payment.paid"
	EventPaymentFailed       = "payment.failed"
	EventSourceChargeable    = "source.chargeable"
	EventIntentPaymentFailed = "payment_intent.payment_failed"
)

// Resource is the generic PayMongo API object: {id, type, attributes}.
type Resource struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Attributes map[string]interface{} `json:"attributes"`
}

func (r *Resource) Status() string {
	s, _ := r.Attributes["status"].(string)
	return s
}

func (r *Resource) ClientKey() string {
	s, _ := r.Attributes["client_key"].(string)
	return s
}

// CheckoutURL returns the e-wallet redirect URL on source resources.
func (r *Resource) CheckoutURL() string {
	redirect, ok := r.Attributes["redirect"].(map[string]interface{})
	if !ok {
		return ""
	}
	url, _ := redirect["checkout_url"].(string)
	return url
}

// CorrelationID is the key matched against Payment.GatewayPaymentId.
// Payment resources carry the owning intent in payment_intent_id; source
// events correlate on the resource id itself.
func (r *Resource) CorrelationID() string {
	if id, ok := r.Attributes["payment_intent_id"].(string); ok && id != "" {
		return id
	}
	return r.ID
}

// WebhookEvent is the parsed webhook envelope.
type WebhookEvent struct {
	ID   string   `json:"id"`
	Type string   `json:"type"`
	Data Resource `json:"data"`
}

type apiEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type webhookEnvelope struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Type string   `json:"type"`
			Data Resource `json:"data"`
		} `json:"attributes"`
	} `json:"data"`
}

// FailureDetails extracts a failure code and message from a gateway payload
// using a fixed fallback chain: last_payment_error, then error, then
// errors[0], then the top-level status as a last resort.
func FailureDetails(attributes map[string]interface{}) (code string, message string) {
	if detail, ok := attributes["last_payment_error"].(map[string]interface{}); ok {
		return failureFromDetail(detail)
	}
	if detail, ok := attributes["error"].(map[string]interface{}); ok {
		return failureFromDetail(detail)
	}
	if list, ok := attributes["errors"].([]interface{}); ok && len(list) > 0 {
		if detail, ok := list[0].(map[string]interface{}); ok {
			return failureFromDetail(detail)
		}
	}
	if status, ok := attributes["status"].(string); ok && status != "" {
		return status, "payment " + status
	}
	return "unknown", "payment failed"
}

func failureFromDetail(detail map[string]interface{}) (string, string) {
	code, _ := detail["code"].(string)
	message, _ := detail["detail"].(string)
	if message == "" {
		message, _ = detail["message"].(string)
	}
	if code == "" {
		code = "unknown"
	}
	if message == "" {
		message = "payment failed"
	}
	return code, message
}

// Amounts cross the gateway boundary in centavos.

func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(100))
}

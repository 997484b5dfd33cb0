package paymongo_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/venturatrading/commerce_backend/paymongo"
)

func TestFailureDetailsFallbackChain(t *testing.T) {
	cases := []struct {
		name        string
		attributes  map[string]interface{}
		wantCode    string
		wantMessage string
	}{
		{
			name: "last_payment_error wins",
			attributes: map[string]interface{}{
				"last_payment_error": map[string]interface{}{"code": "card_declined", "detail": "Declined by issuer."},
				"error":              map[string]interface{}{"code": "other", "detail": "ignored"},
				"status":             "failed",
			},
			wantCode:    "card_declined",
			wantMessage: "Declined by issuer.",
		},
		{
			name: "error field next",
			attributes: map[string]interface{}{
				"error":  map[string]interface{}{"code": "insufficient_funds", "message": "Not enough balance."},
				"status": "failed",
			},
			wantCode:    "insufficient_funds",
			wantMessage: "Not enough balance.",
		},
		{
			name: "errors array next",
			attributes: map[string]interface{}{
				"errors": []interface{}{
					map[string]interface{}{"code": "processor_unavailable", "detail": "Try again later."},
				},
				"status": "failed",
			},
			wantCode:    "processor_unavailable",
			wantMessage: "Try again later.",
		},
		{
			name:        "status as last resort",
			attributes:  map[string]interface{}{"status": "expired"},
			wantCode:    "expired",
			wantMessage: "payment expired",
		},
		{
			name:        "nothing usable",
			attributes:  map[string]interface{}{},
			wantCode:    "unknown",
			wantMessage: "payment failed",
		},
		{
			name: "detail without code",
			attributes: map[string]interface{}{
				"last_payment_error": map[string]interface{}{"detail": "Something broke."},
			},
			wantCode:    "unknown",
			wantMessage: "Something broke.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, message := paymongo.FailureDetails(tc.attributes)
			if code != tc.wantCode || message != tc.wantMessage {
				t.Errorf("FailureDetails = (%q, %q), want (%q, %q)", code, message, tc.wantCode, tc.wantMessage)
			}
		})
	}
}

func TestMinorUnitConversion(t *testing.T) {
	cases := []struct {
		amount string
		minor  int64
	}{
		{"100", 10000},
		{"99.99", 9999},
		{"0.01", 1},
		{"1234.5", 123450},
	}

	for _, tc := range cases {
		d, err := decimal.NewFromString(tc.amount)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.amount, err)
		}
		if got := paymongo.ToMinorUnits(d); got != tc.minor {
			t.Errorf("ToMinorUnits(%s) = %d, want %d", tc.amount, got, tc.minor)
		}
		if got := paymongo.FromMinorUnits(tc.minor); !got.Equal(d) {
			t.Errorf("FromMinorUnits(%d) = %s, want %s", tc.minor, got, tc.amount)
		}
	}
}

func TestResourceCorrelationID(t *testing.T) {
	payment := paymongo.Resource{
		ID:         "pay_1",
		Attributes: map[string]interface{}{"payment_intent_id": "pi_1"},
	}
	if got := payment.CorrelationID(); got != "pi_1" {
		t.Errorf("CorrelationID = %q, want pi_1 (owning intent)", got)
	}

	source := paymongo.Resource{
		ID:         "src_1",
		Attributes: map[string]interface{}{"status": "chargeable"},
	}
	if got := source.CorrelationID(); got != "src_1" {
		t.Errorf("CorrelationID = %q, want src_1 (resource id fallback)", got)
	}
}

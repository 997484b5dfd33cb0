package paymongo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/venturatrading/commerce_backend/utils"
)

const ProviderName = "paymongo"

// Client talks to the PayMongo REST API. Construct with NewClient; the
// secret key comes from PAYMONGO_SECRET_KEY.
type Client struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	http          *http.Client
}

func NewClient() (*Client, error) {
	secretKey := strings.TrimSpace(os.Getenv("PAYMONGO_SECRET_KEY"))
	if secretKey == "" {
		return nil, utils.NewUpstreamGatewayError("payment gateway is not configured", nil)
	}
	baseURL := strings.TrimSpace(os.Getenv("PAYMONGO_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.paymongo.com/v1"
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		secretKey:     secretKey,
		webhookSecret: strings.TrimSpace(os.Getenv("PAYMONGO_WEBHOOK_SECRET")),
		http:          &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*Resource, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body))
}

func (c *Client) get(ctx context.Context, path string) (*Resource, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method string, path string, body io.Reader) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.secretKey + ":"))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, utils.NewUpstreamGatewayError("payment gateway request failed", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, utils.NewUpstreamGatewayError("payment gateway request failed",
			fmt.Errorf("paymongo api error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, utils.NewUpstreamGatewayError("payment gateway returned a malformed response", err)
	}
	var resource Resource
	if err := json.Unmarshal(envelope.Data, &resource); err != nil {
		return nil, utils.NewUpstreamGatewayError("payment gateway returned a malformed response", err)
	}
	return &resource, nil
}

// CreatePaymentIntent registers a card payment for amount in major units.
func (c *Client) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, invoiceId int, customerId int, description string) (*Resource, error) {
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"attributes": map[string]interface{}{
				"amount":                 ToMinorUnits(amount),
				"currency":               "PHP",
				"payment_method_allowed": []string{"card", "paymaya"},
				"description":            description,
				"metadata": map[string]interface{}{
					"invoice_id":  fmt.Sprint(invoiceId),
					"customer_id": fmt.Sprint(customerId),
				},
			},
		},
	}
	return c.post(ctx, "/payment_intents", payload)
}

func (c *Client) RetrievePaymentIntent(ctx context.Context, intentId string) (*Resource, error) {
	return c.get(ctx, "/payment_intents/"+intentId)
}

func (c *Client) AttachPaymentMethod(ctx context.Context, intentId string, methodId string, returnURL string) (*Resource, error) {
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"attributes": map[string]interface{}{
				"payment_method": methodId,
				"return_url":     returnURL,
			},
		},
	}
	return c.post(ctx, "/payment_intents/"+intentId+"/attach", payload)
}

type CardDetails struct {
	CardNumber string `json:"card_number" binding:"required"`
	ExpMonth   int    `json:"exp_month" binding:"required"`
	ExpYear    int    `json:"exp_year" binding:"required"`
	Cvc        string `json:"cvc" binding:"required"`
}

type BillingDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (c *Client) CreatePaymentMethod(ctx context.Context, card CardDetails, billing BillingDetails) (*Resource, error) {
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"attributes": map[string]interface{}{
				"type": "card",
				"details": map[string]interface{}{
					"card_number": card.CardNumber,
					"exp_month":   card.ExpMonth,
					"exp_year":    card.ExpYear,
					"cvc":         card.Cvc,
				},
				"billing": map[string]interface{}{
					"name":  billing.Name,
					"email": billing.Email,
					"phone": billing.Phone,
				},
			},
		},
	}
	return c.post(ctx, "/payment_methods", payload)
}

// CreateSource starts an e-wallet payment (gcash, grab_pay) for amount in
// major units.
func (c *Client) CreateSource(ctx context.Context, sourceType string, amount decimal.Decimal, successURL string, failedURL string, metadata map[string]string) (*Resource, error) {
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"attributes": map[string]interface{}{
				"type":     sourceType,
				"amount":   ToMinorUnits(amount),
				"currency": "PHP",
				"redirect": map[string]interface{}{
					"success": successURL,
					"failed":  failedURL,
				},
				"metadata": metadata,
			},
		},
	}
	return c.post(ctx, "/sources", payload)
}

package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

// RazorpayOrder is the subset of the gateway's order object we use.
type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type RazorpayAPI interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*RazorpayOrder, error)
}

type RazorpayClient struct {
	client    *resty.Client
	keyID     string
	keySecret string
}

func NewRazorpayClient(keyID, keySecret string) *RazorpayClient {
	return &RazorpayClient{
		client:    resty.New().SetTimeout(30 * time.Second).SetBaseURL(razorpayBaseURL),
		keyID:     keyID,
		keySecret: keySecret,
	}
}

// CreateOrder creates a gateway order with auto-capture enabled. Amount is in
// the currency's smallest unit (paise for INR).
func (c *RazorpayClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*RazorpayOrder, error) {
	body := map[string]interface{}{
		"amount":          amount,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}

	var order RazorpayOrder
	resp, err := c.client.R().
		SetContext(ctx).
		SetBasicAuth(c.keyID, c.keySecret).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&order).
		Post("/orders")

	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("razorpay: create order failed with status %d: %s", resp.StatusCode(), resp.Body())
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay: order id missing in response")
	}
	return &order, nil
}

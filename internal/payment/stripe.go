package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const stripeBaseURL = "https://api.stripe.com/v1"

// CardDeclinedError carries the gateway's own message so the client sees
// why the card was rejected. Every other gateway failure stays generic.
type CardDeclinedError struct {
	Message string
}

func (e *CardDeclinedError) Error() string { return e.Message }

type PaymentIntent struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret"`
}

type StripeAPI interface {
	CreateIntent(ctx context.Context, amount int64, currency, customerID string) (*PaymentIntent, error)
	ConfirmIntent(ctx context.Context, amount int64, currency, customerID, paymentMethodID string, saveCard bool) (*PaymentIntent, error)
}

type StripeClient struct {
	client *resty.Client
	apiKey string
}

func NewStripeClient(apiKey string) *StripeClient {
	return &StripeClient{
		client: resty.New().SetTimeout(30 * time.Second).SetBaseURL(stripeBaseURL),
		apiKey: apiKey,
	}
}

// CreateIntent creates an unconfirmed payment intent; the client confirms it
// browser-side with the returned client secret.
func (c *StripeClient) CreateIntent(ctx context.Context, amount int64, currency, customerID string) (*PaymentIntent, error) {
	form := map[string]string{
		"amount":                 strconv.FormatInt(amount, 10),
		"currency":               currency,
		"customer":               customerID,
		"payment_method_types[]": "card",
	}
	return c.postIntent(ctx, form)
}

// ConfirmIntent creates and immediately confirms an intent against a saved
// payment method. With saveCard the method is set up for future off-session
// charges.
func (c *StripeClient) ConfirmIntent(ctx context.Context, amount int64, currency, customerID, paymentMethodID string, saveCard bool) (*PaymentIntent, error) {
	form := map[string]string{
		"amount":         strconv.FormatInt(amount, 10),
		"currency":       currency,
		"customer":       customerID,
		"payment_method": paymentMethodID,
		"confirm":        "true",
	}
	if saveCard {
		form["setup_future_usage"] = "off_session"
	}
	return c.postIntent(ctx, form)
}

func (c *StripeClient) postIntent(ctx context.Context, form map[string]string) (*PaymentIntent, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBasicAuth(c.apiKey, "").
		SetFormData(form).
		Post("/payment_intents")

	if err != nil {
		return nil, fmt.Errorf("stripe: payment intent: %w", err)
	}

	if resp.IsError() {
		var errResp struct {
			Error struct {
				Type    string `json:"type"`
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(resp.Body(), &errResp); err == nil && errResp.Error.Type == "card_error" {
			return nil, &CardDeclinedError{Message: errResp.Error.Message}
		}
		return nil, fmt.Errorf("stripe: payment intent failed with status %d: %s", resp.StatusCode(), resp.Body())
	}

	var intent PaymentIntent
	if err := json.Unmarshal(resp.Body(), &intent); err != nil {
		return nil, fmt.Errorf("stripe: decode intent: %w", err)
	}
	return &intent, nil
}

// Package backend talks to the storefront's order backend. The backend is
// an opaque HTTP service: it opens payment intents, verifies gateway
// signatures, validates promo codes and accepts order payloads.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"giftkart/internal/model"

	"github.com/rs/zerolog"
)

// PaymentIntent is a server-created authorization record the hosted payment
// page consumes. Amount is in settlement-currency minor units.
type PaymentIntent struct {
	IntentID string `json:"intentId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Client is the backend surface the checkout core consumes.
type Client interface {
	// CreatePaymentIntent opens a payment intent for the given minor-unit
	// amount in the settlement currency.
	CreatePaymentIntent(ctx context.Context, amountMinorUnits int64, currency string) (*PaymentIntent, error)

	// VerifyPayment submits the signed callback triple for cryptographic
	// verification. Only a nil return means money has moved.
	VerifyPayment(ctx context.Context, ref model.PaymentReference) error

	// CreateOrder submits the pending order and returns the confirmed order
	// carrying the server-assigned order number.
	CreateOrder(ctx context.Context, order *model.PendingOrder) (*model.ConfirmedOrder, error)

	// ValidatePromoCode checks minimum order amount, expiry and usage count
	// for a promo code against the given base-currency order amount.
	ValidatePromoCode(ctx context.Context, code string, orderAmount float64, items []model.LineItem) (*model.PromoCodeApplication, error)
}

// httpClient implements Client over net/http.
type httpClient struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient creates a backend client with the given base URL and timeout.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) Client {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("service", "backend").Logger(),
	}
}

type intentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type verifyRequest struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	PaymentID      string `json:"paymentId"`
	Signature      string `json:"signature"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type orderResponse struct {
	Success bool `json:"success"`
	Order   struct {
		ID          string `json:"id"`
		OrderNumber string `json:"orderNumber"`
	} `json:"order"`
	Message string `json:"message,omitempty"`
}

type promoRequest struct {
	Code        string           `json:"code"`
	OrderAmount float64          `json:"orderAmount"`
	Items       []model.LineItem `json:"items"`
}

type promoResponse struct {
	Success     bool    `json:"success"`
	Discount    float64 `json:"discount"`
	FinalAmount float64 `json:"finalAmount"`
	Message     string  `json:"message,omitempty"`
}

func (c *httpClient) CreatePaymentIntent(ctx context.Context, amountMinorUnits int64, currency string) (*PaymentIntent, error) {
	var intent PaymentIntent
	err := c.post(ctx, "/api/payments/intent", intentRequest{
		Amount:   amountMinorUnits,
		Currency: currency,
	}, &intent)
	if err != nil {
		c.logger.Error().
			Err(err).
			Int64("amount", amountMinorUnits).
			Str("currency", currency).
			Msg("payment intent creation failed")
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	if intent.IntentID == "" {
		return nil, fmt.Errorf("backend returned empty intent id")
	}

	c.logger.Info().
		Str("intent_id", intent.IntentID).
		Int64("amount", amountMinorUnits).
		Msg("payment intent created")

	return &intent, nil
}

func (c *httpClient) VerifyPayment(ctx context.Context, ref model.PaymentReference) error {
	var resp verifyResponse
	err := c.post(ctx, "/api/payments/verify", verifyRequest{
		GatewayOrderID: ref.GatewayOrderID,
		PaymentID:      ref.PaymentID,
		Signature:      ref.Signature,
	}, &resp)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("gateway_order_id", ref.GatewayOrderID).
			Msg("payment verification call failed")
		return fmt.Errorf("failed to verify payment: %w", err)
	}

	if !resp.Success {
		// Signature rejected: fatal for this attempt, money may have moved
		// without a confirmed order.
		c.logger.Error().
			Str("gateway_order_id", ref.GatewayOrderID).
			Str("payment_id", ref.PaymentID).
			Msg("payment signature rejected")
		return model.ErrVerificationFailed
	}

	return nil
}

func (c *httpClient) CreateOrder(ctx context.Context, order *model.PendingOrder) (*model.ConfirmedOrder, error) {
	var resp orderResponse
	if err := c.post(ctx, "/api/orders", order, &resp); err != nil {
		c.logger.Error().Err(err).Msg("order creation call failed")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if !resp.Success {
		return nil, fmt.Errorf("backend rejected order: %s", resp.Message)
	}

	confirmed := &model.ConfirmedOrder{
		PendingOrder: *order,
		OrderID:      resp.Order.ID,
		OrderNumber:  resp.Order.OrderNumber,
	}

	c.logger.Info().
		Str("order_id", confirmed.OrderID).
		Str("order_number", confirmed.OrderNumber).
		Msg("order created")

	return confirmed, nil
}

func (c *httpClient) ValidatePromoCode(ctx context.Context, code string, orderAmount float64, items []model.LineItem) (*model.PromoCodeApplication, error) {
	var resp promoResponse
	err := c.post(ctx, "/api/promo/validate", promoRequest{
		Code:        code,
		OrderAmount: orderAmount,
		Items:       items,
	}, &resp)
	if err != nil {
		c.logger.Error().Err(err).Str("code", code).Msg("promo validation call failed")
		return nil, fmt.Errorf("failed to validate promo code: %w", err)
	}

	if !resp.Success {
		c.logger.Info().
			Str("code", code).
			Str("reason", resp.Message).
			Msg("promo code rejected")
		return nil, model.ErrPromoRejected
	}

	return &model.PromoCodeApplication{
		Code:           code,
		DiscountAmount: resp.Discount,
		FinalAmount:    resp.FinalAmount,
	}, nil
}

// post sends a JSON request and decodes a JSON response. Non-2xx statuses
// are errors; response bodies are never echoed into user-facing messages.
func (c *httpClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error().
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("backend returned error status")
		return fmt.Errorf("backend error (%d)", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

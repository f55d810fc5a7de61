// Package gateway wraps the third-party payment provider's hosted
// authorization flow as an explicit state machine. The hosted page's
// success callback is the only path into verification, and only a
// backend-verified signature is trusted to mean money has moved.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"giftkart/internal/backend"
	"giftkart/internal/model"
	"giftkart/internal/pricing"

	"github.com/rs/zerolog"
)

// ErrInvalidTransition is returned when an action is attempted from a state
// that does not permit it, e.g. paying before the client script loaded.
var ErrInvalidTransition = errors.New("illegal payment state transition")

// Callback is the signed triple delivered by the hosted page on a
// successful authorization.
type Callback struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	PaymentID      string `json:"paymentId"`
	Signature      string `json:"signature"`
}

// Adapter drives one payment attempt through
// SDK_LOADING -> READY -> INTENT_CREATED -> AUTHORIZING -> VERIFIED | FAILED.
type Adapter struct {
	mu                 sync.Mutex
	state              State
	intent             *backend.PaymentIntent
	backend            backend.Client
	settlementCurrency string
	logger             zerolog.Logger
}

// NewAdapter creates an adapter in SDK_LOADING. The pay action stays
// disabled until MarkReady reports the client script loaded.
func NewAdapter(client backend.Client, settlementCurrency string, logger zerolog.Logger) *Adapter {
	return &Adapter{
		state:              StateSDKLoading,
		backend:            client,
		settlementCurrency: settlementCurrency,
		logger:             logger.With().Str("service", "gateway").Logger(),
	}
}

// State returns the adapter's current state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Intent returns the open payment intent, if any.
func (a *Adapter) Intent() *backend.PaymentIntent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.intent
}

// MarkReady records that the gateway's client script has loaded.
func (a *Adapter) MarkReady() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !CanTransitionTo(a.state, StateReady) {
		return ErrInvalidTransition
	}

	a.state = StateReady
	a.logger.Debug().Msg("gateway client ready")
	return nil
}

// CreateIntent converts the checkout total from the base currency into
// settlement minor units and asks the backend to open a payment intent. A
// backend failure here is terminal for this attempt: the state moves to
// FAILED and nothing is retried automatically.
func (a *Adapter) CreateIntent(ctx context.Context, totalBaseCurrency float64) (*backend.PaymentIntent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateSDKLoading {
		return nil, model.ErrGatewayNotReady
	}
	if !CanTransitionTo(a.state, StateIntentCreated) {
		return nil, ErrInvalidTransition
	}

	amount := pricing.MinorUnits(totalBaseCurrency)
	intent, err := a.backend.CreatePaymentIntent(ctx, amount, a.settlementCurrency)
	if err != nil {
		a.state = StateFailed
		return nil, fmt.Errorf("intent creation failed: %w", err)
	}

	a.state = StateIntentCreated
	a.intent = intent

	a.logger.Info().
		Str("intent_id", intent.IntentID).
		Int64("amount", amount).
		Str("currency", a.settlementCurrency).
		Msg("payment intent opened")

	return intent, nil
}

// BeginAuthorization marks the hosted authorization UI as open.
func (a *Adapter) BeginAuthorization() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !CanTransitionTo(a.state, StateAuthorizing) {
		return ErrInvalidTransition
	}

	a.state = StateAuthorizing
	return nil
}

// HandleAuthorization relays the hosted page's success callback to the
// backend for signature verification. This is the only code path that can
// reach VERIFIED. A rejected signature is fatal for the attempt.
func (a *Adapter) HandleAuthorization(ctx context.Context, cb Callback) (model.PaymentReference, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !CanTransitionTo(a.state, StateVerified) {
		return model.PaymentReference{}, ErrInvalidTransition
	}

	ref := model.PaymentReference{
		GatewayOrderID: cb.GatewayOrderID,
		PaymentID:      cb.PaymentID,
		Signature:      cb.Signature,
	}

	if err := a.backend.VerifyPayment(ctx, ref); err != nil {
		a.state = StateFailed
		a.logger.Error().
			Err(err).
			Str("gateway_order_id", cb.GatewayOrderID).
			Msg("payment verification failed")
		return model.PaymentReference{}, err
	}

	a.state = StateVerified
	a.logger.Info().
		Str("gateway_order_id", cb.GatewayOrderID).
		Str("payment_id", cb.PaymentID).
		Msg("payment verified")

	return ref, nil
}

// Dismiss treats closing the hosted UI as a cancel: the attempt returns to
// READY with the intent discarded. Cart and shipping details are untouched
// so retrying requires no re-entry.
func (a *Adapter) Dismiss() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !CanTransitionTo(a.state, StateReady) {
		return ErrInvalidTransition
	}

	a.state = StateReady
	a.intent = nil
	a.logger.Info().Msg("authorization dismissed")
	return nil
}

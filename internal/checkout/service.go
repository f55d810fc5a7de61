// Package checkout sequences a purchase through
// CART -> SHIPPING -> PAYMENT -> CONFIRMATION. It owns the transition
// guards, the currency snapshot, and the single idempotency boundary
// between a verified payment and order creation.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"giftkart/internal/backend"
	"giftkart/internal/cart"
	"giftkart/internal/config"
	"giftkart/internal/gateway"
	"giftkart/internal/model"
	"giftkart/internal/pricing"
	"giftkart/internal/promo"
	"giftkart/internal/recovery"
	"giftkart/internal/store"

	"github.com/rs/zerolog"
)

// ErrIllegalStage is returned when an operation is attempted outside the
// stage that permits it.
var ErrIllegalStage = errors.New("operation not allowed in current checkout stage")

// NotificationEvent is fired exactly once per confirmed order.
type NotificationEvent struct {
	OrderNumber string    `json:"orderNumber"`
	Total       float64   `json:"total"`
	Currency    string    `json:"currency"`
	At          time.Time `json:"at"`
}

// Prefill is the contact detail handed to the hosted payment UI.
type Prefill struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// PaymentSession is the begin-payment response the payment screen consumes.
type PaymentSession struct {
	Intent  *backend.PaymentIntent `json:"intent"`
	Prefill Prefill                `json:"prefill"`
	Totals  pricing.Breakdown      `json:"totals"`
}

// attempt is one account's live checkout state. Its mutex guards every
// field; requests for the same account can land concurrently. The one-shot
// flags are set before their guarded action and never reset, so re-renders
// and duplicate callbacks cannot repeat the action.
type attempt struct {
	mu           sync.Mutex
	stage        Stage
	adapter      *gateway.Adapter
	currency     string
	rate         float64
	orderCreated bool
	confirmed    *model.ConfirmedOrder
	notified     map[string]bool
}

// Service is the checkout orchestrator.
type Service struct {
	mu       sync.Mutex
	attempts map[string]*attempt

	carts    *cart.Manager
	promos   *promo.Applier
	backend  backend.Client
	durable  store.Durable
	session  store.Session
	recovery *recovery.Layer
	cfg      config.CheckoutConfig
	gwCfg    config.GatewayConfig
	logger   zerolog.Logger

	// notify receives the one-shot new-order event. Defaults to a log line.
	notify func(NotificationEvent)
}

// NewService creates the checkout orchestrator.
func NewService(
	carts *cart.Manager,
	promos *promo.Applier,
	client backend.Client,
	durable store.Durable,
	session store.Session,
	rec *recovery.Layer,
	cfg config.CheckoutConfig,
	gwCfg config.GatewayConfig,
	logger zerolog.Logger,
) *Service {
	s := &Service{
		attempts: make(map[string]*attempt),
		carts:    carts,
		promos:   promos,
		backend:  client,
		durable:  durable,
		session:  session,
		recovery: rec,
		cfg:      cfg,
		gwCfg:    gwCfg,
		logger:   logger.With().Str("service", "checkout").Logger(),
	}
	s.notify = func(ev NotificationEvent) {
		s.logger.Info().
			Str("order_number", ev.OrderNumber).
			Float64("total", ev.Total).
			Str("currency", ev.Currency).
			Msg("new order")
	}
	return s
}

// SetNotifier replaces the new-order event sink.
func (s *Service) SetNotifier(fn func(NotificationEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// attemptFor returns the account's live attempt, creating one at CART with
// a fresh gateway adapter on first use.
func (s *Service) attemptFor(accountID string) *attempt {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.attempts[accountID]; ok {
		return a
	}

	a := &attempt{
		stage:    StageCart,
		adapter:  gateway.NewAdapter(s.backend, s.gwCfg.SettlementCurrency, s.logger),
		currency: s.cfg.BaseCurrency,
		rate:     1,
		notified: make(map[string]bool),
	}
	s.attempts[accountID] = a
	return a
}

// Stage returns the account's current checkout stage.
func (s *Service) Stage(accountID string) Stage {
	a := s.attemptFor(accountID)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stage
}

// GatewayState exposes the payment adapter's state for the payment screen.
func (s *Service) GatewayState(accountID string) gateway.State {
	return s.attemptFor(accountID).adapter.State()
}

// GatewayReady records the hosted client script as loaded.
func (s *Service) GatewayReady(accountID string) error {
	return s.attemptFor(accountID).adapter.MarkReady()
}

// SetCurrency selects the display currency for this attempt. The rate is
// fixed from configuration and rides along until order creation snapshots
// it; it cannot change mid-payment.
func (s *Service) SetCurrency(accountID, code string) error {
	rate, ok := s.cfg.CurrencyRates[code]
	if !ok {
		return model.NewDomainError(model.ErrCodeMissingField, "Unsupported display currency")
	}

	a := s.attemptFor(accountID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stage == StagePayment || a.stage == StageConfirmation {
		return ErrIllegalStage
	}

	a.currency = code
	a.rate = rate
	return nil
}

// Begin moves CART -> SHIPPING. Guard: a non-empty cart.
func (s *Service) Begin(ctx context.Context, accountID string) error {
	if accountID == "" {
		return model.ErrNotSignedIn
	}

	ledger, err := s.carts.Ledger(ctx, accountID)
	if err != nil {
		return err
	}

	if ledger.ItemCount() == 0 {
		return model.ErrEmptyCart
	}

	a := s.attemptFor(accountID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stage == StageShipping {
		return nil
	}
	if !canMove(a.stage, StageShipping) {
		return ErrIllegalStage
	}

	a.stage = StageShipping
	s.logger.Debug().Str("stage", a.stage.String()).Msg("checkout started")
	return nil
}

// SubmitShipping validates the details, persists them to the durable store
// only (they must survive the redirect) and moves SHIPPING -> PAYMENT. A
// validation failure mutates nothing, stored shipping info included.
func (s *Service) SubmitShipping(ctx context.Context, accountID string, details model.ShippingDetails) error {
	a := s.attemptFor(accountID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stage != StageShipping {
		return ErrIllegalStage
	}

	if err := validateShipping(&details, s.cfg.ServiceablePins); err != nil {
		return err
	}

	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode shipping details: %w", err)
	}
	if err := s.durable.Put(ctx, accountID, store.RecordShipping, payload); err != nil {
		return fmt.Errorf("failed to persist shipping details: %w", err)
	}

	a.stage = StagePayment
	s.logger.Info().
		Str("time_slot", details.TimeSlotID).
		Str("delivery_option", details.DeliveryOption).
		Msg("shipping details captured")
	return nil
}

// BackToShipping is the PAYMENT -> SHIPPING back-edge. Stored shipping
// details and any applied promo stay put for re-submission.
func (s *Service) BackToShipping(accountID string) error {
	a := s.attemptFor(accountID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if !canMove(a.stage, StageShipping) {
		return ErrIllegalStage
	}
	a.stage = StageShipping
	return nil
}

// BackToCart is the SHIPPING -> CART back-edge.
func (s *Service) BackToCart(accountID string) error {
	a := s.attemptFor(accountID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if !canMove(a.stage, StageCart) {
		return ErrIllegalStage
	}
	a.stage = StageCart
	return nil
}

// ApplyPromo validates a code for the current subtotal and caches it.
func (s *Service) ApplyPromo(ctx context.Context, accountID, code string) (*model.PromoCodeApplication, error) {
	ledger, err := s.carts.Ledger(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return s.promos.Apply(ctx, accountID, code, ledger.Subtotal(), ledger.Items())
}

// RemovePromo drops the applied code.
func (s *Service) RemovePromo(ctx context.Context, accountID string) error {
	return s.promos.Remove(ctx, accountID)
}

// Quote prices the current attempt in its display currency. Recalculation
// is synchronous over the live cart, promo and currency state, so a stale
// total can never be submitted.
func (s *Service) Quote(ctx context.Context, accountID string) (pricing.Breakdown, error) {
	a := s.attemptFor(accountID)
	a.mu.Lock()
	rate := a.rate
	a.mu.Unlock()

	breakdown, _, err := s.quote(ctx, accountID, rate)
	return breakdown, err
}

// quote computes the breakdown at the given rate plus the applied promo.
func (s *Service) quote(ctx context.Context, accountID string, rate float64) (pricing.Breakdown, *model.PromoCodeApplication, error) {
	ledger, err := s.carts.Ledger(ctx, accountID)
	if err != nil {
		return pricing.Breakdown{}, nil, err
	}

	surcharge := 0.0
	if details, err := s.shippingDetails(ctx, accountID); err == nil && details != nil {
		surcharge = pricing.DeliverySurcharge(SlotByID(details.TimeSlotID), s.cfg.DeliveryFee)
	}

	applied, err := s.promos.Applied(ctx, accountID)
	if err != nil {
		return pricing.Breakdown{}, nil, err
	}

	discount := 0.0
	if applied != nil {
		discount = applied.DiscountAmount
	}

	return pricing.ComputeTotal(ledger.Subtotal(), surcharge, discount, rate), applied, nil
}

// BeginPayment opens the payment intent for the attempt's base-currency
// total and hands back the session the hosted UI needs. Requires the
// PAYMENT stage and a loaded gateway client.
func (s *Service) BeginPayment(ctx context.Context, accountID string) (*PaymentSession, error) {
	a := s.attemptFor(accountID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stage != StagePayment {
		return nil, ErrIllegalStage
	}

	// The gateway settles in the base currency whatever the display
	// currency, so the intent amount is priced at rate 1.
	base, _, err := s.quote(ctx, accountID, 1)
	if err != nil {
		return nil, err
	}

	intent, err := a.adapter.CreateIntent(ctx, base.Total)
	if err != nil {
		return nil, err
	}

	if err := a.adapter.BeginAuthorization(); err != nil {
		return nil, err
	}

	session := &PaymentSession{Intent: intent}

	if details, err := s.shippingDetails(ctx, accountID); err == nil && details != nil {
		session.Prefill = Prefill{Name: details.Name, Email: details.Email, Phone: details.Phone}
	}

	display, _, err := s.quote(ctx, accountID, a.rate)
	if err != nil {
		return nil, err
	}
	session.Totals = display

	return session, nil
}

// CancelPayment treats a dismissed hosted UI as a cancel: payment-step
// state resets, cart and shipping details are untouched.
func (s *Service) CancelPayment(accountID string) error {
	a := s.attemptFor(accountID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stage != StagePayment {
		return ErrIllegalStage
	}
	return a.adapter.Dismiss()
}

// CompletePayment is the single exit from PAYMENT: it verifies the
// authorization callback, creates the order at most once, and enters
// CONFIRMATION. The one-shot order flag is set before the create call and
// never reset, so a duplicate callback can never create a second order.
func (s *Service) CompletePayment(ctx context.Context, accountID string, cb gateway.Callback, carry *model.AuthCarryOver) (*model.ConfirmedOrder, error) {
	a := s.attemptFor(accountID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stage != StagePayment {
		return nil, ErrIllegalStage
	}

	ref, err := a.adapter.HandleAuthorization(ctx, cb)
	if err != nil {
		return nil, err
	}

	if a.orderCreated {
		if a.confirmed != nil {
			return a.confirmed, nil
		}
		return nil, fmt.Errorf("order creation already attempted for this payment")
	}
	a.orderCreated = true

	pending, err := s.buildPendingOrder(ctx, accountID, a, ref)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.backend.CreateOrder(ctx, pending)
	if err != nil {
		// The flag stays set: money has moved, a retry must go through
		// support rather than risk a duplicate order.
		s.logger.Error().Err(err).Msg("order creation failed after verified payment")
		return nil, err
	}

	if err := s.enterConfirmation(ctx, accountID, a, confirmed, carry); err != nil {
		return nil, err
	}

	return confirmed, nil
}

// buildPendingOrder snapshots cart, shipping, totals and the conversion
// rate into the payload the backend receives.
func (s *Service) buildPendingOrder(ctx context.Context, accountID string, a *attempt, ref model.PaymentReference) (*model.PendingOrder, error) {
	ledger, err := s.carts.Ledger(ctx, accountID)
	if err != nil {
		return nil, err
	}

	details, err := s.shippingDetails(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, fmt.Errorf("shipping details missing at order creation")
	}

	breakdown, applied, err := s.quote(ctx, accountID, a.rate)
	if err != nil {
		return nil, err
	}

	pending := &model.PendingOrder{
		Items:          ledger.Items(),
		Shipping:       *details,
		Payment:        ref,
		Totals:         breakdown.Totals(),
		Currency:       a.currency,
		ConversionRate: a.rate,
		CreatedAt:      time.Now().UTC(),
	}
	if applied != nil {
		pending.PromoCode = applied.Code
	}

	return pending, nil
}

// enterConfirmation runs the CONFIRMATION entry effects: stash the order
// for the redirect, clear the cart, discard consumed records, and fire the
// one-shot notification.
func (s *Service) enterConfirmation(ctx context.Context, accountID string, a *attempt, confirmed *model.ConfirmedOrder, carry *model.AuthCarryOver) error {
	if err := s.recovery.Stash(ctx, accountID, confirmed, carry); err != nil {
		return err
	}

	ledger, err := s.carts.Ledger(ctx, accountID)
	if err != nil {
		return err
	}
	if err := ledger.Clear(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear cart after order")
	}

	if err := s.durable.Delete(ctx, accountID, store.RecordShipping); err != nil {
		s.logger.Warn().Err(err).Msg("failed to discard shipping details")
	}
	if err := s.promos.Remove(ctx, accountID); err != nil {
		s.logger.Warn().Err(err).Msg("failed to discard promo application")
	}

	// The caller holds the attempt lock.
	a.stage = StageConfirmation
	a.confirmed = confirmed
	fire := !a.notified[confirmed.OrderNumber]
	if fire {
		a.notified[confirmed.OrderNumber] = true
	}

	s.mu.Lock()
	notify := s.notify
	s.mu.Unlock()

	if fire {
		ev := NotificationEvent{
			OrderNumber: confirmed.OrderNumber,
			Total:       confirmed.Totals.Total,
			Currency:    confirmed.Currency,
			At:          time.Now().UTC(),
		}
		notify(ev)
		s.appendNotificationLog(ctx, accountID, ev)
	}

	return nil
}

// appendNotificationLog keeps the best-effort client-side backup log of
// fired notifications in the session tier. Advisory only.
func (s *Service) appendNotificationLog(ctx context.Context, accountID string, ev NotificationEvent) {
	var events []NotificationEvent
	if payload, err := s.session.Get(ctx, accountID, store.RecordNotifyLog); err == nil {
		_ = json.Unmarshal(payload, &events)
	}

	events = append(events, ev)
	payload, err := json.Marshal(events)
	if err != nil {
		return
	}
	if err := s.session.Put(ctx, accountID, store.RecordNotifyLog, payload); err != nil {
		s.logger.Debug().Err(err).Msg("notification backup log write failed")
	}
}

// Confirmation runs the arrival protocol for the confirmation screen.
func (s *Service) Confirmation(ctx context.Context, accountID string, fromPayment, authenticated bool) (recovery.Result, error) {
	result, err := s.recovery.Recover(ctx, accountID, fromPayment, authenticated)
	if err != nil {
		return recovery.Result{}, err
	}

	if result.Action == recovery.ActionRender {
		// The attempt is finished; the next Begin starts a fresh one.
		s.mu.Lock()
		delete(s.attempts, accountID)
		s.mu.Unlock()
	}

	return result, nil
}

// MarkPopupSeen suppresses the promotional popup for this session.
// Best effort: losing the flag only means the popup shows again.
func (s *Service) MarkPopupSeen(ctx context.Context, accountID string) {
	if err := s.session.Put(ctx, accountID, store.RecordPopupSeen, []byte(`true`)); err != nil {
		s.logger.Debug().Err(err).Msg("popup suppression write failed")
	}
}

// PopupSeen reports whether the promotional popup was already shown.
func (s *Service) PopupSeen(ctx context.Context, accountID string) bool {
	_, err := s.session.Get(ctx, accountID, store.RecordPopupSeen)
	return err == nil
}

// shippingDetails reads the stored shipping record, nil when absent.
func (s *Service) shippingDetails(ctx context.Context, accountID string) (*model.ShippingDetails, error) {
	payload, err := s.durable.Get(ctx, accountID, store.RecordShipping)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read shipping details: %w", err)
	}

	var details model.ShippingDetails
	if err := json.Unmarshal(payload, &details); err != nil {
		return nil, fmt.Errorf("failed to decode shipping details: %w", err)
	}
	return &details, nil
}

// Package promo applies backend-validated promo codes to a checkout
// attempt. The backend owns the rules (minimum order amount, expiry, usage
// count); this side enforces that the discount never exceeds the subtotal
// and caches the application in the durable store so it survives
// navigating back to the shipping step.
package promo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"giftkart/internal/backend"
	"giftkart/internal/model"
	"giftkart/internal/store"

	"github.com/rs/zerolog"
)

// Applier validates and caches promo code applications.
type Applier struct {
	backend backend.Client
	durable store.Durable
	logger  zerolog.Logger
}

// NewApplier creates a promo applier.
func NewApplier(client backend.Client, durable store.Durable, logger zerolog.Logger) *Applier {
	return &Applier{
		backend: client,
		durable: durable,
		logger:  logger.With().Str("service", "promo").Logger(),
	}
}

// Apply validates the code against the backend for the current
// base-currency subtotal and caches the result. The discount is rejected if
// it exceeds the subtotal, whatever the backend said.
func (a *Applier) Apply(ctx context.Context, accountID, code string, subtotal float64, items []model.LineItem) (*model.PromoCodeApplication, error) {
	if code == "" {
		return nil, model.ErrPromoRejected
	}

	applied, err := a.backend.ValidatePromoCode(ctx, code, subtotal, items)
	if err != nil {
		return nil, err
	}

	if applied.DiscountAmount > subtotal {
		a.logger.Warn().
			Str("code", code).
			Float64("discount", applied.DiscountAmount).
			Float64("subtotal", subtotal).
			Msg("discount exceeds subtotal, rejecting")
		return nil, model.ErrPromoRejected
	}

	payload, err := json.Marshal(applied)
	if err != nil {
		return nil, fmt.Errorf("failed to encode promo application: %w", err)
	}

	if err := a.durable.Put(ctx, accountID, store.RecordPromo, payload); err != nil {
		return nil, fmt.Errorf("failed to cache promo application: %w", err)
	}

	a.logger.Info().
		Str("code", code).
		Float64("discount", applied.DiscountAmount).
		Msg("promo code applied")

	return applied, nil
}

// Applied returns the cached application for the account, or nil when none
// is active.
func (a *Applier) Applied(ctx context.Context, accountID string) (*model.PromoCodeApplication, error) {
	payload, err := a.durable.Get(ctx, accountID, store.RecordPromo)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read promo application: %w", err)
	}

	var applied model.PromoCodeApplication
	if err := json.Unmarshal(payload, &applied); err != nil {
		// An unreadable cache entry is dropped rather than blocking checkout.
		a.logger.Warn().Err(err).Msg("discarding unreadable promo record")
		_ = a.durable.Delete(ctx, accountID, store.RecordPromo)
		return nil, nil
	}

	return &applied, nil
}

// Remove drops the cached application.
func (a *Applier) Remove(ctx context.Context, accountID string) error {
	if err := a.durable.Delete(ctx, accountID, store.RecordPromo); err != nil {
		return fmt.Errorf("failed to remove promo application: %w", err)
	}

	a.logger.Debug().Msg("promo code removed")
	return nil
}

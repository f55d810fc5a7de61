// Package recovery implements the dual-tier write/read protocol that lets
// a confirmed order and the signed-in state survive the round trip to an
// externally hosted payment page. Some clients reset in-memory state and
// even durable storage across that redirect, so the order is written to
// both tiers on the way out and read back through a fallback chain on
// arrival. The redundancy is the resilience mechanism, not duplication.
package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"giftkart/internal/model"
	"giftkart/internal/store"

	"github.com/rs/zerolog"
)

// Action tells the confirmation screen what to do after the fallback chain.
type Action string

const (
	// ActionRender: an order was found, render it.
	ActionRender Action = "RENDER"
	// ActionReload: nothing found yet but we just came from payment; reload
	// once to cover the race where the backend write had not landed.
	ActionReload Action = "RELOAD"
	// ActionRedirectLogin: nothing to confirm and not signed in.
	ActionRedirectLogin Action = "REDIRECT_LOGIN"
	// ActionRedirectCart: signed in but nothing to confirm.
	ActionRedirectCart Action = "REDIRECT_CART"
)

// ConfirmationPath is the return path a login redirect carries so the
// customer lands back on the confirmation screen after signing in.
const ConfirmationPath = "/checkout/confirmation"

// Result is the outcome of the arrival protocol.
type Result struct {
	Order  *model.ConfirmedOrder `json:"order,omitempty"`
	Action Action                `json:"action"`

	// ReturnTo is set on ActionRedirectLogin.
	ReturnTo string `json:"returnTo,omitempty"`
}

// Layer coordinates the two store tiers around the payment redirect.
type Layer struct {
	durable     store.Durable
	session     store.Session
	orderGrace  time.Duration
	backupGrace time.Duration
	logger      zerolog.Logger

	// after is swapped out in tests for deterministic scheduling.
	after func(d time.Duration, fn func())
}

// New creates the recovery layer. orderGrace is how long lastOrder lives
// after its first read; backupGrace is how long the session backup lingers
// after promotion, long enough to tolerate a second render pass.
func New(durable store.Durable, session store.Session, orderGrace, backupGrace time.Duration, logger zerolog.Logger) *Layer {
	return &Layer{
		durable:     durable,
		session:     session,
		orderGrace:  orderGrace,
		backupGrace: backupGrace,
		logger:      logger.With().Str("service", "recovery").Logger(),
		after: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// Stash runs the sending protocol just before the redirect: the confirmed
// order is written to both tiers and the auth bundle to the session tier.
func (l *Layer) Stash(ctx context.Context, accountID string, order *model.ConfirmedOrder, carry *model.AuthCarryOver) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}

	if err := l.durable.Put(ctx, accountID, store.RecordLastOrder, payload); err != nil {
		return fmt.Errorf("failed to stash order: %w", err)
	}

	if err := l.session.Put(ctx, accountID, store.RecordBackup, payload); err != nil {
		return fmt.Errorf("failed to stash backup order: %w", err)
	}

	if carry != nil {
		bundle, err := json.Marshal(carry)
		if err != nil {
			return fmt.Errorf("failed to encode auth bundle: %w", err)
		}
		if err := l.session.Put(ctx, accountID, store.RecordCarryOver, bundle); err != nil {
			return fmt.Errorf("failed to stash auth bundle: %w", err)
		}
	}

	l.logger.Info().
		Str("order_number", order.OrderNumber).
		Msg("order stashed for redirect")

	return nil
}

// Recover runs the arrival protocol on the confirmation screen.
func (l *Layer) Recover(ctx context.Context, accountID string, fromPayment, authenticated bool) (Result, error) {
	l.replayAuthCarryOver(ctx, accountID)

	order, err := l.lookupOrder(ctx, accountID)
	if err != nil {
		return Result{}, err
	}

	if order != nil {
		l.scheduleOrderDeletion(accountID)
		return Result{Order: order, Action: ActionRender}, nil
	}

	if fromPayment && l.markReloadOnce(ctx, accountID) {
		return Result{Action: ActionReload}, nil
	}

	if !authenticated {
		return Result{Action: ActionRedirectLogin, ReturnTo: ConfirmationPath}, nil
	}

	l.logger.Info().Msg("no order found anywhere, redirecting to cart")
	return Result{Action: ActionRedirectCart}, nil
}

// replayAuthCarryOver copies the ephemeral auth bundle back into the
// durable store and deletes it. Single use; failures here are logged and
// never block the order lookup.
func (l *Layer) replayAuthCarryOver(ctx context.Context, accountID string) {
	bundle, err := l.session.Get(ctx, accountID, store.RecordCarryOver)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		l.logger.Warn().Err(err).Msg("failed to read auth bundle")
		return
	}

	var carry model.AuthCarryOver
	if err := json.Unmarshal(bundle, &carry); err != nil {
		l.logger.Warn().Err(err).Msg("discarding unreadable auth bundle")
		_ = l.session.Delete(ctx, accountID, store.RecordCarryOver)
		return
	}

	if err := l.durable.Put(ctx, accountID, store.RecordAuthState, bundle); err != nil {
		l.logger.Warn().Err(err).Msg("failed to replay auth bundle")
		return
	}

	if err := l.session.Delete(ctx, accountID, store.RecordCarryOver); err != nil {
		l.logger.Warn().Err(err).Msg("failed to delete auth bundle")
	}

	l.logger.Debug().Msg("auth state replayed from session tier")
}

// lookupOrder reads lastOrder from the durable tier and falls back to the
// session backup, promoting it into the durable tier immediately so a
// second fallback lookup is never needed.
func (l *Layer) lookupOrder(ctx context.Context, accountID string) (*model.ConfirmedOrder, error) {
	payload, err := l.durable.Get(ctx, accountID, store.RecordLastOrder)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to read last order: %w", err)
	}

	if errors.Is(err, store.ErrNotFound) {
		payload, err = l.session.Get(ctx, accountID, store.RecordBackup)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read backup order: %w", err)
		}

		if putErr := l.durable.Put(ctx, accountID, store.RecordLastOrder, payload); putErr != nil {
			return nil, fmt.Errorf("failed to promote backup order: %w", putErr)
		}

		l.logger.Info().Msg("order recovered from session backup")
		l.scheduleBackupCleanup(accountID)
	}

	var order model.ConfirmedOrder
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}

	return &order, nil
}

// markReloadOnce sets the one-shot reload flag. Returns true when this call
// owns the single permitted reload.
func (l *Layer) markReloadOnce(ctx context.Context, accountID string) bool {
	if _, err := l.session.Get(ctx, accountID, store.RecordReloaded); err == nil {
		return false
	}

	if err := l.session.Put(ctx, accountID, store.RecordReloaded, []byte(`true`)); err != nil {
		l.logger.Warn().Err(err).Msg("failed to set reload flag")
		return false
	}

	l.logger.Info().Msg("granting one reload to cover the backend write race")
	return true
}

// scheduleOrderDeletion removes lastOrder after the grace window: long
// enough for the confirmation screen's first paint and export action, short
// enough that revisiting the URL later does not resurrect a stale order.
func (l *Layer) scheduleOrderDeletion(accountID string) {
	l.after(l.orderGrace, func() {
		if err := l.durable.Delete(context.Background(), accountID, store.RecordLastOrder); err != nil {
			l.logger.Warn().Err(err).Msg("failed to expire last order")
		}
	})
}

// scheduleBackupCleanup removes the session backup after its grace window,
// tolerating a second render pass during the same load.
func (l *Layer) scheduleBackupCleanup(accountID string) {
	l.after(l.backupGrace, func() {
		if err := l.session.Delete(context.Background(), accountID, store.RecordBackup); err != nil {
			l.logger.Warn().Err(err).Msg("failed to clean up backup order")
		}
	})
}

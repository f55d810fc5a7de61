// Package cart owns the line-item ledger for a signed-in account: quantity
// policy, derived totals, and per-account persistence of the full item list
// on every mutation.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"giftkart/internal/model"
	"giftkart/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Ledger holds one account's cart for the duration of a session. It is
// created at sign-in, reloaded on account change, and torn down at
// sign-out; items never carry over between accounts sharing a client.
type Ledger struct {
	mu        sync.Mutex
	accountID string
	items     []model.LineItem
	durable   store.Durable
	logger    zerolog.Logger
}

// NewLedger creates an unbound ledger. Bind must be called with a signed-in
// account before any mutation succeeds.
func NewLedger(durable store.Durable, logger zerolog.Logger) *Ledger {
	return &Ledger{
		durable: durable,
		logger:  logger.With().Str("service", "cart").Logger(),
	}
}

// Bind switches the ledger to the given account and reloads that account's
// durable cart slot. An empty accountID represents sign-out and empties the
// working list without touching any stored cart.
func (l *Ledger) Bind(ctx context.Context, accountID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accountID = accountID
	l.items = nil

	if accountID == "" {
		return nil
	}

	value, err := l.durable.Get(ctx, accountID, store.RecordCart)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	var snapshot model.CartSnapshot
	if err := json.Unmarshal(value, &snapshot); err != nil {
		// A corrupt slot is treated as empty rather than blocking the account.
		l.logger.Warn().Err(err).Msg("discarding unreadable cart record")
		return nil
	}

	l.items = snapshot.Items
	l.logger.Debug().Int("item_count", len(l.items)).Msg("cart loaded")
	return nil
}

// AddItem adds the item (or raises an existing line's quantity). A mutation
// that would push the line past the quantity ceiling is rejected whole with
// ErrBulkOrder so the caller can direct the user to the contact flow.
func (l *Ledger) AddItem(ctx context.Context, item model.LineItem, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.accountID == "" {
		return model.ErrNotSignedIn
	}

	if quantity < 1 {
		return model.ErrInvalidQuantity
	}

	// Lines posted without an ID get a server-assigned one.
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	for i, existing := range l.items {
		if existing.ID != item.ID {
			continue
		}

		next := existing.Quantity + quantity
		if next > model.MaxLineQuantity {
			l.logger.Info().
				Str("item_id", item.ID).
				Int("requested", next).
				Msg("bulk order signal raised")
			return model.ErrBulkOrder
		}

		updated := make([]model.LineItem, len(l.items))
		copy(updated, l.items)
		updated[i].Quantity = next

		return l.persist(ctx, updated)
	}

	if quantity > model.MaxLineQuantity {
		l.logger.Info().
			Str("item_id", item.ID).
			Int("requested", quantity).
			Msg("bulk order signal raised")
		return model.ErrBulkOrder
	}

	item.Quantity = quantity
	return l.persist(ctx, append(append([]model.LineItem{}, l.items...), item))
}

// UpdateQuantity sets a line's quantity. Values outside [1,5] are rejected,
// never clamped.
func (l *Ledger) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.accountID == "" {
		return model.ErrNotSignedIn
	}

	if quantity < 1 {
		return model.ErrInvalidQuantity
	}
	if quantity > model.MaxLineQuantity {
		return model.ErrBulkOrder
	}

	for i, existing := range l.items {
		if existing.ID != id {
			continue
		}

		updated := make([]model.LineItem, len(l.items))
		copy(updated, l.items)
		updated[i].Quantity = quantity

		return l.persist(ctx, updated)
	}

	return fmt.Errorf("item %s not in cart", id)
}

// RemoveItem drops a line from the cart. A no-op when signed out.
func (l *Ledger) RemoveItem(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.accountID == "" {
		return nil
	}

	updated := make([]model.LineItem, 0, len(l.items))
	for _, existing := range l.items {
		if existing.ID != id {
			updated = append(updated, existing)
		}
	}

	if len(updated) == len(l.items) {
		return nil
	}

	return l.persist(ctx, updated)
}

// Clear empties the cart. A no-op when signed out.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.accountID == "" {
		return nil
	}

	return l.persist(ctx, nil)
}

// Items returns a copy of the current line items.
func (l *Ledger) Items() []model.LineItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.LineItem, len(l.items))
	copy(out, l.items)
	return out
}

// ItemCount is the sum of quantities, recomputed from the live list.
func (l *Ledger) ItemCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, item := range l.items {
		count += item.Quantity
	}
	return count
}

// Subtotal is the sum of unit price times quantity, recomputed from the
// live list on every read so it can never drift from the items.
func (l *Ledger) Subtotal() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	subtotal := 0.0
	for _, item := range l.items {
		subtotal += item.LineTotal()
	}
	return subtotal
}

// persist writes the full item list to the account's durable slot and only
// then replaces the working list, so a failed write mutates nothing.
func (l *Ledger) persist(ctx context.Context, items []model.LineItem) error {
	snapshot := model.CartSnapshot{AccountID: l.accountID, Items: items}

	value, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	if err := l.durable.Put(ctx, l.accountID, store.RecordCart, value); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}

	l.items = items
	return nil
}

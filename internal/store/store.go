// Package store provides the two record-store tiers the checkout core
// persists through: a durable tier that survives restarts and a
// session-scoped tier that expires with the browsing session. Every write
// fully replaces a named record or deletes it; there is no field-level
// mutation of persisted records.
package store

import (
	"context"
	"errors"
)

// Record names, partitioned per account. The durable cart record for
// account A is addressed as (A, RecordCart), which gives each account an
// isolated basket slot.
const (
	RecordCart      = "cart"
	RecordShipping  = "shippingInfo"
	RecordPromo     = "appliedPromoCode"
	RecordLastOrder = "lastOrder"
	RecordBackup    = "backup_order"
	RecordCarryOver = "auth_carryover"
	RecordReloaded  = "confirmation_reloaded"
	RecordPopupSeen = "promo_popup_seen"
	RecordNotifyLog = "notification_log"
	RecordAuthState = "auth_state"
)

// ErrNotFound is returned when a record does not exist in the store.
var ErrNotFound = errors.New("record not found")

// Durable is the store tier that survives restarts. Values are JSON-encoded
// records written whole.
type Durable interface {
	Get(ctx context.Context, accountID, record string) ([]byte, error)
	Put(ctx context.Context, accountID, record string, value []byte) error
	Delete(ctx context.Context, accountID, record string) error
}

// Session is the store tier scoped to one browsing session. Records expire
// with the session and may be cleared by the client at any time, so nothing
// correctness-critical lives here alone.
type Session interface {
	Get(ctx context.Context, accountID, record string) ([]byte, error)
	Put(ctx context.Context, accountID, record string, value []byte) error
	Delete(ctx context.Context, accountID, record string) error
}

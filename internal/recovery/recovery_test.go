package recovery

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"giftkart/internal/model"
	"giftkart/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const account = "acct-1"

// newTestLayer wires the layer over in-memory tiers with timers replaced by
// an immediate-or-collected scheduler.
func newTestLayer(immediate bool) (*Layer, *store.MemoryStore, *store.MemoryStore, *[]func()) {
	durable := store.NewMemoryStore()
	session := store.NewMemoryStore()
	layer := New(durable, session, 5*time.Second, 3*time.Second, zerolog.Nop())

	pending := &[]func(){}
	layer.after = func(d time.Duration, fn func()) {
		if immediate {
			fn()
			return
		}
		*pending = append(*pending, fn)
	}

	return layer, durable, session, pending
}

func confirmedOrder() *model.ConfirmedOrder {
	return &model.ConfirmedOrder{
		PendingOrder: model.PendingOrder{
			Items: []model.LineItem{
				{ID: "li-rose", ProductID: "P-ROSE", Title: "Red Rose Bouquet", UnitPrice: 450, Quantity: 2},
			},
			Shipping: model.ShippingDetails{
				Name:           "Asha",
				Phone:          "9999999999",
				Email:          "asha@example.com",
				Address:        model.Address{Line1: "12 MG Road", City: "Bengaluru", PinCode: "560001"},
				DeliveryOption: model.DeliverySelf,
				TimeSlotID:     "slot-evening",
				DeliveryDate:   "2026-09-01",
			},
			Totals:         model.Totals{Subtotal: 900, Total: 900},
			Currency:       "INR",
			ConversionRate: 1,
		},
		OrderID:     "ord_1",
		OrderNumber: "GK-1001",
	}
}

func TestStashThenRecover_RoundTrip(t *testing.T) {
	layer, _, _, _ := newTestLayer(false)
	ctx := context.Background()

	stashed := confirmedOrder()
	require.NoError(t, layer.Stash(ctx, account, stashed, nil))

	result, err := layer.Recover(ctx, account, true, true)
	require.NoError(t, err)
	assert.Equal(t, ActionRender, result.Action)
	require.NotNil(t, result.Order)

	// Identical item list, shipping details and total survive the trip.
	assert.Equal(t, stashed.Items, result.Order.Items)
	assert.Equal(t, stashed.Shipping, result.Order.Shipping)
	assert.Equal(t, stashed.Totals.Total, result.Order.Totals.Total)
	assert.Equal(t, "GK-1001", result.Order.OrderNumber)
}

func TestRecover_FallsBackToSessionBackup(t *testing.T) {
	layer, durable, session, _ := newTestLayer(false)
	ctx := context.Background()

	// Simulate the durable tier being reset across the redirect: only the
	// session backup survives.
	payload, err := json.Marshal(confirmedOrder())
	require.NoError(t, err)
	require.NoError(t, session.Put(ctx, account, store.RecordBackup, payload))

	result, err := layer.Recover(ctx, account, true, true)
	require.NoError(t, err)
	assert.Equal(t, ActionRender, result.Action)
	assert.Equal(t, "GK-1001", result.Order.OrderNumber)

	// The backup was promoted so a second fallback lookup is never needed.
	promoted, err := durable.Get(ctx, account, store.RecordLastOrder)
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(promoted))
}

func TestRecover_BackupCleanupAfterGraceWindow(t *testing.T) {
	layer, _, session, pending := newTestLayer(false)
	ctx := context.Background()

	payload, err := json.Marshal(confirmedOrder())
	require.NoError(t, err)
	require.NoError(t, session.Put(ctx, account, store.RecordBackup, payload))

	_, err = layer.Recover(ctx, account, true, true)
	require.NoError(t, err)

	// Before the grace window fires, a second render pass still finds it.
	_, err = session.Get(ctx, account, store.RecordBackup)
	assert.NoError(t, err)

	for _, fn := range *pending {
		fn()
	}

	_, err = session.Get(ctx, account, store.RecordBackup)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecover_LastOrderExpiresAfterRead(t *testing.T) {
	layer, durable, _, pending := newTestLayer(false)
	ctx := context.Background()

	require.NoError(t, layer.Stash(ctx, account, confirmedOrder(), nil))

	_, err := layer.Recover(ctx, account, true, true)
	require.NoError(t, err)

	for _, fn := range *pending {
		fn()
	}

	// Revisiting the URL later does not resurrect a stale order.
	_, err = durable.Get(ctx, account, store.RecordLastOrder)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecover_AuthCarryOverReplayedOnce(t *testing.T) {
	layer, durable, session, _ := newTestLayer(false)
	ctx := context.Background()

	carry := &model.AuthCarryOver{Token: "tok", EncodedUserRecord: "eyJ1IjoxfQ", AuthFlag: true}
	require.NoError(t, layer.Stash(ctx, account, confirmedOrder(), carry))

	_, err := layer.Recover(ctx, account, true, true)
	require.NoError(t, err)

	replayed, err := durable.Get(ctx, account, store.RecordAuthState)
	require.NoError(t, err)

	var restored model.AuthCarryOver
	require.NoError(t, json.Unmarshal(replayed, &restored))
	assert.Equal(t, *carry, restored)

	// Single use: the session bundle is gone.
	_, err = session.Get(ctx, account, store.RecordCarryOver)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecover_ReloadOnceWhenFromPayment(t *testing.T) {
	layer, _, _, _ := newTestLayer(false)
	ctx := context.Background()

	first, err := layer.Recover(ctx, account, true, true)
	require.NoError(t, err)
	assert.Equal(t, ActionReload, first.Action)

	// The reload flag is one-shot: the second pass gives up instead of
	// reloading forever.
	second, err := layer.Recover(ctx, account, true, true)
	require.NoError(t, err)
	assert.Equal(t, ActionRedirectCart, second.Action)
}

func TestRecover_NothingFound_NoPaymentFlag(t *testing.T) {
	layer, _, _, _ := newTestLayer(false)

	result, err := layer.Recover(context.Background(), account, false, true)
	require.NoError(t, err)
	assert.Equal(t, ActionRedirectCart, result.Action)
	assert.Nil(t, result.Order)
}

func TestRecover_NothingFound_Unauthenticated(t *testing.T) {
	layer, _, _, _ := newTestLayer(false)

	result, err := layer.Recover(context.Background(), account, false, false)
	require.NoError(t, err)
	assert.Equal(t, ActionRedirectLogin, result.Action)
	assert.Equal(t, ConfirmationPath, result.ReturnTo)
}

func TestRecover_UnreadableAuthBundleDiscarded(t *testing.T) {
	layer, _, session, _ := newTestLayer(false)
	ctx := context.Background()

	require.NoError(t, session.Put(ctx, account, store.RecordCarryOver, []byte(`not-json`)))
	require.NoError(t, layer.Stash(ctx, account, confirmedOrder(), nil))

	result, err := layer.Recover(ctx, account, true, true)
	require.NoError(t, err)
	assert.Equal(t, ActionRender, result.Action)

	_, err = session.Get(ctx, account, store.RecordCarryOver)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

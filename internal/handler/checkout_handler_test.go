package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"giftkart/internal/backend"
	"giftkart/internal/cart"
	"giftkart/internal/checkout"
	"giftkart/internal/config"
	"giftkart/internal/model"
	"giftkart/internal/promo"
	"giftkart/internal/recovery"
	"giftkart/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBackend is a mock implementation of backend.Client.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) CreatePaymentIntent(ctx context.Context, amount int64, currency string) (*backend.PaymentIntent, error) {
	args := m.Called(ctx, amount, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.PaymentIntent), args.Error(1)
}

func (m *MockBackend) VerifyPayment(ctx context.Context, ref model.PaymentReference) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *MockBackend) CreateOrder(ctx context.Context, order *model.PendingOrder) (*model.ConfirmedOrder, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConfirmedOrder), args.Error(1)
}

func (m *MockBackend) ValidatePromoCode(ctx context.Context, code string, orderAmount float64, items []model.LineItem) (*model.PromoCodeApplication, error) {
	args := m.Called(ctx, code, orderAmount, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PromoCodeApplication), args.Error(1)
}

func newCheckoutHandler(t *testing.T) (*CheckoutHandler, *cart.Manager, *MockBackend) {
	t.Helper()

	durable := store.NewMemoryStore()
	session := store.NewMemoryStore()
	client := &MockBackend{}
	logger := zerolog.Nop()

	carts := cart.NewManager(durable, logger)
	promos := promo.NewApplier(client, durable, logger)
	rec := recovery.New(durable, session, time.Minute, time.Minute, logger)

	cfg := config.CheckoutConfig{
		BaseCurrency:  "INR",
		CurrencyRates: map[string]float64{"INR": 1},
		DeliveryFee:   100,
		OrderGrace:    time.Minute,
		BackupGrace:   time.Minute,
	}
	gwCfg := config.GatewayConfig{SettlementCurrency: "INR"}

	service := checkout.NewService(carts, promos, client, durable, session, rec, cfg, gwCfg, logger)
	return NewCheckoutHandler(service, logger), carts, client
}

func fillAccountCart(t *testing.T, carts *cart.Manager, accountID string) {
	t.Helper()

	ledger, err := carts.Ledger(context.Background(), accountID)
	require.NoError(t, err)
	require.NoError(t, ledger.AddItem(context.Background(), model.LineItem{
		ID:        "li-1",
		ProductID: "P-ORCHID",
		Title:     "Orchid Basket",
		UnitPrice: 1200,
	}, 1))
}

func TestCheckoutHandler_Begin(t *testing.T) {
	h, carts, _ := newCheckoutHandler(t)
	fillAccountCart(t, carts, "acct-1")

	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/checkout/begin", nil), "acct-1")
	rec := httptest.NewRecorder()
	h.Begin(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp stageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SHIPPING", resp.Stage)
}

func TestCheckoutHandler_Begin_EmptyCart(t *testing.T) {
	h, _, _ := newCheckoutHandler(t)

	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/checkout/begin", nil), "acct-1")
	rec := httptest.NewRecorder()
	h.Begin(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.ErrCodeEmptyCart, resp.Code)
}

func TestCheckoutHandler_Begin_Guest(t *testing.T) {
	h, _, _ := newCheckoutHandler(t)

	rec := httptest.NewRecorder()
	h.Begin(rec, httptest.NewRequest(http.MethodPost, "/api/checkout/begin", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckoutHandler_SubmitShipping_InvalidPin(t *testing.T) {
	h, carts, _ := newCheckoutHandler(t)
	fillAccountCart(t, carts, "acct-1")

	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/checkout/begin", nil), "acct-1")
	h.Begin(httptest.NewRecorder(), req)

	details := model.ShippingDetails{
		Name:           "Asha",
		Phone:          "9999999999",
		Email:          "asha@example.com",
		Address:        model.Address{Line1: "12 MG Road", City: "Bengaluru", PinCode: "00001"},
		DeliveryOption: model.DeliverySelf,
		TimeSlotID:     "slot-morning",
		DeliveryDate:   "2026-09-01",
	}
	payload, err := json.Marshal(details)
	require.NoError(t, err)

	req = signedIn(httptest.NewRequest(http.MethodPost, "/api/checkout/shipping", bytes.NewBuffer(payload)), "acct-1")
	rec := httptest.NewRecorder()
	h.SubmitShipping(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.ErrCodeInvalidPin, resp.Code)
}

func TestCheckoutHandler_BeginPayment_WrongStage(t *testing.T) {
	h, _, _ := newCheckoutHandler(t)

	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/checkout/payment", nil), "acct-1")
	rec := httptest.NewRecorder()
	h.BeginPayment(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckoutHandler_Confirmation_GuestRedirectsToLogin(t *testing.T) {
	h, _, _ := newCheckoutHandler(t)

	rec := httptest.NewRecorder()
	h.Confirmation(rec, httptest.NewRequest(http.MethodGet, "/api/checkout/confirmation", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp confirmationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(recovery.ActionRedirectLogin), resp.Action)
	assert.Equal(t, recovery.ConfirmationPath, resp.ReturnTo)
	assert.Nil(t, resp.Order)
}

func TestCheckoutHandler_Confirmation_NothingToConfirm(t *testing.T) {
	h, _, _ := newCheckoutHandler(t)

	req := signedIn(httptest.NewRequest(http.MethodGet, "/api/checkout/confirmation", nil), "acct-1")
	rec := httptest.NewRecorder()
	h.Confirmation(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp confirmationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(recovery.ActionRedirectCart), resp.Action)
}

func TestCheckoutHandler_Popup(t *testing.T) {
	h, _, _ := newCheckoutHandler(t)

	req := signedIn(httptest.NewRequest(http.MethodGet, "/api/checkout/popup", nil), "acct-1")
	rec := httptest.NewRecorder()
	h.PopupSeen(rec, req)
	assert.JSONEq(t, `{"seen": false}`, rec.Body.String())

	req = signedIn(httptest.NewRequest(http.MethodPost, "/api/checkout/popup", nil), "acct-1")
	h.PopupSeen(httptest.NewRecorder(), req)

	req = signedIn(httptest.NewRequest(http.MethodGet, "/api/checkout/popup", nil), "acct-1")
	rec = httptest.NewRecorder()
	h.PopupSeen(rec, req)
	assert.JSONEq(t, `{"seen": true}`, rec.Body.String())
}

func TestCheckoutHandler_SetCurrency_Unknown(t *testing.T) {
	h, _, _ := newCheckoutHandler(t)

	payload, err := json.Marshal(currencyRequest{Code: "XYZ"})
	require.NoError(t, err)

	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/checkout/currency", bytes.NewBuffer(payload)), "acct-1")
	rec := httptest.NewRecorder()
	h.SetCurrency(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

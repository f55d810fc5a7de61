package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"giftkart/internal/cart"
	"giftkart/internal/middleware"
	"giftkart/internal/model"
	"giftkart/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartHandler() *CartHandler {
	return NewCartHandler(cart.NewManager(store.NewMemoryStore(), zerolog.Nop()), zerolog.Nop())
}

func signedIn(req *http.Request, accountID string) *http.Request {
	return req.WithContext(middleware.WithAccount(req.Context(), accountID))
}

func addBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	payload, err := json.Marshal(addItemRequest{
		Item: model.LineItem{
			ID:        "li-1",
			ProductID: "P-LILY",
			Title:     "White Lily Bunch",
			UnitPrice: 550,
		},
		Quantity: 2,
	})
	require.NoError(t, err)
	return bytes.NewBuffer(payload)
}

func TestCartHandler_Get_GuestSeesEmptyCart(t *testing.T) {
	h := newCartHandler()

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var view cartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 0, view.ItemCount)
}

func TestCartHandler_AddItem(t *testing.T) {
	h := newCartHandler()

	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/cart/items", addBody(t)), "acct-1")
	rec := httptest.NewRecorder()
	h.AddItem(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var view cartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, 1100.0, view.Subtotal)
}

func TestCartHandler_AddItem_GuestRejected(t *testing.T) {
	h := newCartHandler()

	rec := httptest.NewRecorder()
	h.AddItem(rec, httptest.NewRequest(http.MethodPost, "/api/cart/items", addBody(t)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.ErrCodeNotSignedIn, resp.Code)
}

func TestCartHandler_AddItem_BulkOrderSignal(t *testing.T) {
	h := newCartHandler()

	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/cart/items", addBody(t)), "acct-1")
	rec := httptest.NewRecorder()
	h.AddItem(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// A second add of 4 would push the line to 6.
	payload, err := json.Marshal(addItemRequest{
		Item:     model.LineItem{ID: "li-1", ProductID: "P-LILY", Title: "White Lily Bunch", UnitPrice: 550},
		Quantity: 4,
	})
	require.NoError(t, err)

	req = signedIn(httptest.NewRequest(http.MethodPost, "/api/cart/items", bytes.NewBuffer(payload)), "acct-1")
	rec = httptest.NewRecorder()
	h.AddItem(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.ErrCodeBulkOrder, resp.Code)
}

func TestCartHandler_AddItem_InvalidBody(t *testing.T) {
	h := newCartHandler()

	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/cart/items", bytes.NewBufferString("{")), "acct-1")
	rec := httptest.NewRecorder()
	h.AddItem(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartHandler_UpdateItem(t *testing.T) {
	h := newCartHandler()

	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/cart/items", addBody(t)), "acct-1")
	h.AddItem(httptest.NewRecorder(), req)

	payload, err := json.Marshal(updateQuantityRequest{Quantity: 5})
	require.NoError(t, err)

	req = signedIn(httptest.NewRequest(http.MethodPut, "/api/cart/items/li-1", bytes.NewBuffer(payload)), "acct-1")
	rec := httptest.NewRecorder()
	h.UpdateItem(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var view cartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 5, view.ItemCount)
}

func TestCartHandler_UpdateItem_MissingID(t *testing.T) {
	h := newCartHandler()

	payload, err := json.Marshal(updateQuantityRequest{Quantity: 2})
	require.NoError(t, err)

	req := signedIn(httptest.NewRequest(http.MethodPut, "/api/cart/items/", bytes.NewBuffer(payload)), "acct-1")
	rec := httptest.NewRecorder()
	h.UpdateItem(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartHandler_RemoveItem(t *testing.T) {
	h := newCartHandler()

	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/cart/items", addBody(t)), "acct-1")
	h.AddItem(httptest.NewRecorder(), req)

	req = signedIn(httptest.NewRequest(http.MethodDelete, "/api/cart/items/li-1", nil), "acct-1")
	rec := httptest.NewRecorder()
	h.RemoveItem(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var view cartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 0, view.ItemCount)
}

func TestCartHandler_Clear(t *testing.T) {
	h := newCartHandler()

	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/cart/items", addBody(t)), "acct-1")
	h.AddItem(httptest.NewRecorder(), req)

	req = signedIn(httptest.NewRequest(http.MethodDelete, "/api/cart", nil), "acct-1")
	rec := httptest.NewRecorder()
	h.Clear(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var view cartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 0, view.ItemCount)
}

func TestCartHandler_MethodNotAllowed(t *testing.T) {
	h := newCartHandler()

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodPost, "/api/cart", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCartHandler_PriceLine(t *testing.T) {
	h := newCartHandler()

	payload, err := json.Marshal(priceLineRequest{
		Product: model.Product{ID: "P-HAMPER", Title: "Gift Hamper", Price: 500, DiscountPercent: 10},
		Addons: []model.AddonSelection{
			{AddonID: "ad-choc", Price: 100, Quantity: 2},
		},
		MessageCard: &model.MessageCard{Text: "Happy Birthday", Fee: 50},
		Quantity:    2,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.PriceLine(rec, httptest.NewRequest(http.MethodPost, "/api/cart/price", bytes.NewBuffer(payload)))

	require.Equal(t, http.StatusOK, rec.Code)

	// 500 less 10% = 450, plus 2x100 add-ons and the 50 card fee = 700.
	var resp priceLineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 700.0, resp.UnitPrice)
	assert.Equal(t, 1400.0, resp.LineTotal)
}

func TestCartHandler_PriceLine_InvalidQuantity(t *testing.T) {
	h := newCartHandler()

	payload, err := json.Marshal(priceLineRequest{
		Product:  model.Product{ID: "P-HAMPER", Price: 500},
		Quantity: 0,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.PriceLine(rec, httptest.NewRequest(http.MethodPost, "/api/cart/price", bytes.NewBuffer(payload)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

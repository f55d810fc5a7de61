package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"giftkart/internal/cart"
	"giftkart/internal/middleware"
	"giftkart/internal/model"
	"giftkart/internal/pricing"

	"github.com/rs/zerolog"
)

// CartHandler handles cart-related HTTP requests.
type CartHandler struct {
	carts  *cart.Manager
	logger zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(carts *cart.Manager, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger.With().Str("handler", "cart").Logger(),
	}
}

// cartView is the cart response payload.
type cartView struct {
	Items     []model.LineItem `json:"items"`
	ItemCount int              `json:"itemCount"`
	Subtotal  float64          `json:"subtotal"`
}

type addItemRequest struct {
	Item     model.LineItem `json:"item"`
	Quantity int            `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// priceLineRequest prices a customizable product before it becomes a cart
// line: catalogue discount first, then add-ons and the message card folded
// into the unit price.
type priceLineRequest struct {
	Product     model.Product          `json:"product"`
	Addons      []model.AddonSelection `json:"addons,omitempty"`
	MessageCard *model.MessageCard     `json:"messageCard,omitempty"`
	Quantity    int                    `json:"quantity"`
}

type priceLineResponse struct {
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

// Get handles GET /api/cart requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	ledger, err := h.carts.Ledger(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cartView{
		Items:     ledger.Items(),
		ItemCount: ledger.ItemCount(),
		Subtotal:  ledger.Subtotal(),
	})
}

// AddItem handles POST /api/cart/items requests.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	ledger, err := h.carts.Ledger(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if err := ledger.AddItem(r.Context(), req.Item, req.Quantity); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cartView{
		Items:     ledger.Items(),
		ItemCount: ledger.ItemCount(),
		Subtotal:  ledger.Subtotal(),
	})
}

// UpdateItem handles PUT /api/cart/items/{id} requests.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/cart/items/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "item ID is required", h.logger)
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	ledger, err := h.carts.Ledger(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if err := ledger.UpdateQuantity(r.Context(), id, req.Quantity); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cartView{
		Items:     ledger.Items(),
		ItemCount: ledger.ItemCount(),
		Subtotal:  ledger.Subtotal(),
	})
}

// RemoveItem handles DELETE /api/cart/items/{id} requests.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/cart/items/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "item ID is required", h.logger)
		return
	}

	ledger, err := h.carts.Ledger(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if err := ledger.RemoveItem(r.Context(), id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cartView{
		Items:     ledger.Items(),
		ItemCount: ledger.ItemCount(),
		Subtotal:  ledger.Subtotal(),
	})
}

// PriceLine handles POST /api/cart/price requests.
func (h *CartHandler) PriceLine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	var req priceLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	if req.Quantity < 1 {
		writeDomainError(w, model.ErrInvalidQuantity, h.logger)
		return
	}

	base := pricing.DiscountedUnitPrice(req.Product.Price, req.Product.DiscountPercent)
	unit := pricing.UnitPriceWithAddons(base, req.Addons, req.MessageCard)

	writeJSON(w, http.StatusOK, priceLineResponse{
		UnitPrice: unit,
		LineTotal: unit * float64(req.Quantity),
	})
}

// Clear handles DELETE /api/cart requests.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	ledger, err := h.carts.Ledger(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if err := ledger.Clear(r.Context()); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cartView{Items: []model.LineItem{}, ItemCount: 0, Subtotal: 0})
}

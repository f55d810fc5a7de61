package handler

import (
	"encoding/json"
	"net/http"

	"giftkart/internal/checkout"
	"giftkart/internal/gateway"
	"giftkart/internal/middleware"
	"giftkart/internal/model"

	"github.com/rs/zerolog"
)

// CheckoutHandler handles checkout-related HTTP requests.
type CheckoutHandler struct {
	service *checkout.Service
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service *checkout.Service, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

type currencyRequest struct {
	Code string `json:"code"`
}

type promoRequest struct {
	Code string `json:"code"`
}

type completePaymentRequest struct {
	Callback  gateway.Callback     `json:"callback"`
	CarryOver *model.AuthCarryOver `json:"carryOver,omitempty"`
}

type stageResponse struct {
	Stage        string `json:"stage"`
	GatewayState string `json:"gatewayState"`
}

type confirmationResponse struct {
	Action   string                `json:"action"`
	Order    *model.ConfirmedOrder `json:"order,omitempty"`
	ReturnTo string                `json:"returnTo,omitempty"`
}

// Begin handles POST /api/checkout/begin requests.
func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	accountID := middleware.AccountID(r.Context())
	if err := h.service.Begin(r.Context(), accountID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.writeStage(w, accountID)
}

// Stage handles GET /api/checkout/stage requests.
func (h *CheckoutHandler) Stage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	h.writeStage(w, middleware.AccountID(r.Context()))
}

// SetCurrency handles POST /api/checkout/currency requests.
func (h *CheckoutHandler) SetCurrency(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	var req currencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	if err := h.service.SetCurrency(middleware.AccountID(r.Context()), req.Code); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"currency": req.Code})
}

// SubmitShipping handles POST /api/checkout/shipping requests.
func (h *CheckoutHandler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	var details model.ShippingDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	accountID := middleware.AccountID(r.Context())
	if err := h.service.SubmitShipping(r.Context(), accountID, details); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.writeStage(w, accountID)
}

// BackToShipping handles POST /api/checkout/back/shipping requests.
func (h *CheckoutHandler) BackToShipping(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	accountID := middleware.AccountID(r.Context())
	if err := h.service.BackToShipping(accountID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.writeStage(w, accountID)
}

// BackToCart handles POST /api/checkout/back/cart requests.
func (h *CheckoutHandler) BackToCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	accountID := middleware.AccountID(r.Context())
	if err := h.service.BackToCart(accountID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.writeStage(w, accountID)
}

// ApplyPromo handles POST /api/checkout/promo requests.
func (h *CheckoutHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	var req promoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	applied, err := h.service.ApplyPromo(r.Context(), middleware.AccountID(r.Context()), req.Code)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, applied)
}

// RemovePromo handles DELETE /api/checkout/promo requests.
func (h *CheckoutHandler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	if err := h.service.RemovePromo(r.Context(), middleware.AccountID(r.Context())); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Quote handles GET /api/checkout/quote requests.
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	breakdown, err := h.service.Quote(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}

// GatewayReady handles POST /api/checkout/gateway/ready requests. The
// payment screen calls it once the hosted client script has loaded.
func (h *CheckoutHandler) GatewayReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	accountID := middleware.AccountID(r.Context())
	if err := h.service.GatewayReady(accountID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.writeStage(w, accountID)
}

// BeginPayment handles POST /api/checkout/payment requests.
func (h *CheckoutHandler) BeginPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	session, err := h.service.BeginPayment(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// CancelPayment handles POST /api/checkout/payment/cancel requests.
func (h *CheckoutHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	accountID := middleware.AccountID(r.Context())
	if err := h.service.CancelPayment(accountID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.writeStage(w, accountID)
}

// CompletePayment handles POST /api/checkout/payment/complete requests.
func (h *CheckoutHandler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	var req completePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	accountID := middleware.AccountID(r.Context())
	confirmed, err := h.service.CompletePayment(r.Context(), accountID, req.Callback, req.CarryOver)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, confirmed)
}

// Confirmation handles GET /api/checkout/confirmation requests. The
// fromPayment query flag distinguishes a gateway-redirect arrival from a
// plain page load.
func (h *CheckoutHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	accountID := middleware.AccountID(r.Context())
	fromPayment := r.URL.Query().Get("fromPayment") == "true"

	result, err := h.service.Confirmation(r.Context(), accountID, fromPayment, accountID != "")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, confirmationResponse{
		Action:   string(result.Action),
		Order:    result.Order,
		ReturnTo: result.ReturnTo,
	})
}

// PopupSeen handles GET and POST /api/checkout/popup requests.
func (h *CheckoutHandler) PopupSeen(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountID(r.Context())

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]bool{"seen": h.service.PopupSeen(r.Context(), accountID)})
	case http.MethodPost:
		h.service.MarkPopupSeen(r.Context(), accountID)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
	}
}

// writeStage writes the current stage and gateway state.
func (h *CheckoutHandler) writeStage(w http.ResponseWriter, accountID string) {
	writeJSON(w, http.StatusOK, stageResponse{
		Stage:        h.service.Stage(accountID).String(),
		GatewayState: string(h.service.GatewayState(accountID)),
	})
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"giftkart/internal/checkout"
	"giftkart/internal/gateway"
	"giftkart/internal/model"
	"giftkart/internal/store"

	"github.com/rs/zerolog"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps a service error to an HTTP response. Domain errors
// carry their code so the client can present the right message.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	status := statusFor(err)

	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		logger.Warn().Str("code", domainErr.Code).Int("status", status).Msg(domainErr.Message)
		writeJSON(w, status, ErrorResponse{Error: domainErr.Message, Code: domainErr.Code})
		return
	}

	logger.Error().Err(err).Int("status", status).Msg("handler error")
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrBulkOrder),
		errors.Is(err, model.ErrInvalidQuantity),
		errors.Is(err, model.ErrEmptyCart),
		errors.Is(err, model.ErrInvalidPin),
		errors.Is(err, model.ErrInvalidTimeSlot),
		errors.Is(err, model.ErrIncompleteReceiver),
		errors.Is(err, model.ErrPromoRejected):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrVerificationFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, model.ErrGatewayNotReady),
		errors.Is(err, checkout.ErrIllegalStage),
		errors.Is(err, gateway.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	}

	// Remaining domain errors are user-facing validation failures.
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

package model

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeNotSignedIn        = "NOT_SIGNED_IN"
	ErrCodeBulkOrder          = "BULK_ORDER"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeEmptyCart          = "EMPTY_CART"
	ErrCodeInvalidPin         = "INVALID_PIN"
	ErrCodeInvalidTimeSlot    = "INVALID_TIME_SLOT"
	ErrCodeIncompleteReceiver = "INCOMPLETE_RECEIVER"
	ErrCodePromoRejected      = "PROMO_REJECTED"
	ErrCodeGatewayNotReady    = "GATEWAY_NOT_READY"
	ErrCodeGatewayFailure     = "GATEWAY_FAILURE"
	ErrCodeVerificationFailed = "VERIFICATION_FAILED"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// DomainError carries a stable code alongside a user-safe message.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	// ErrNotSignedIn: cart and checkout mutations require a signed-in account.
	ErrNotSignedIn = NewDomainError(ErrCodeNotSignedIn, "Sign in to continue")

	// ErrBulkOrder is the distinguishable signal raised when a mutation would
	// push a line past the quantity ceiling; callers direct the user to the
	// contact flow instead of silently clamping.
	ErrBulkOrder = NewDomainError(ErrCodeBulkOrder, "For bulk orders please contact us directly")

	ErrInvalidQuantity    = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be between 1 and 5")
	ErrEmptyCart          = NewDomainError(ErrCodeEmptyCart, "Your cart is empty")
	ErrInvalidPin         = NewDomainError(ErrCodeInvalidPin, "Delivery is not available for this PIN code")
	ErrInvalidTimeSlot    = NewDomainError(ErrCodeInvalidTimeSlot, "Select a delivery time slot")
	ErrIncompleteReceiver = NewDomainError(ErrCodeIncompleteReceiver, "Receiver address is incomplete")
	ErrPromoRejected      = NewDomainError(ErrCodePromoRejected, "This promo code cannot be applied")
	ErrGatewayNotReady    = NewDomainError(ErrCodeGatewayNotReady, "Payment is still loading, please retry")
	ErrVerificationFailed = NewDomainError(ErrCodeVerificationFailed, "Payment could not be verified, please contact support")
)

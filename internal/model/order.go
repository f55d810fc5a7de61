package model

import "time"

// PromoCodeApplication is the cached result of a backend-validated promo
// code. DiscountAmount is always expressed in the store's base currency.
type PromoCodeApplication struct {
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discountAmount"`
	FinalAmount    float64 `json:"finalAmount"`
}

// PaymentReference is the signed triple received from the gateway's
// authorization callback. Only a backend-verified triple is trusted.
type PaymentReference struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	PaymentID      string `json:"paymentId"`
	Signature      string `json:"signature"`
}

// Totals is the itemized breakdown computed for one checkout attempt. All
// figures are in the display currency after conversion.
type Totals struct {
	Subtotal          float64 `json:"subtotal"`
	DeliverySurcharge float64 `json:"deliverySurcharge"`
	PromoDiscount     float64 `json:"promoDiscount"`
	Total             float64 `json:"total"`
}

// PendingOrder is constructed immediately after payment verification
// succeeds and handed to the backend order-creation endpoint. The currency
// and conversion rate are snapshotted so historical orders display
// correctly even if the live rate later changes.
type PendingOrder struct {
	Items          []LineItem       `json:"items"`
	Shipping       ShippingDetails  `json:"shipping"`
	Payment        PaymentReference `json:"payment"`
	Totals         Totals           `json:"totals"`
	Currency       string           `json:"currency"`
	ConversionRate float64          `json:"conversionRate"`
	PromoCode      string           `json:"promoCode,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// ConfirmedOrder is a PendingOrder plus the server-assigned identifiers. It
// is the payload the confirmation screen renders, mirrored into both store
// tiers across the payment redirect.
type ConfirmedOrder struct {
	PendingOrder
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

// AuthCarryOver is the ephemeral bundle written to the session-scoped store
// just before redirecting to the external payment page. Some embedded
// webviews reset durable storage across that redirect; the bundle is
// replayed into the durable store on return and deleted after a single use.
type AuthCarryOver struct {
	Token             string `json:"token"`
	EncodedUserRecord string `json:"encodedUserRecord"`
	AuthFlag          bool   `json:"authFlag"`
}

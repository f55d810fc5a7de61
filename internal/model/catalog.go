package model

// Product is the catalogue descriptor the checkout core consumes. The
// browsing/search surface that produces it is an external collaborator.
type Product struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Price           float64 `json:"price"`
	DiscountPercent float64 `json:"discountPercent"`
	ImageRef        string  `json:"imageRef"`
	Addons          []Addon `json:"addons,omitempty"`
}

// Addon is a per-unit extra offered on a customizable product. Each add-on
// carries its own price and an independently selectable quantity.
type Addon struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// AddonSelection records how many units of an add-on the customer chose.
type AddonSelection struct {
	AddonID  string  `json:"addonId"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// MessageCard is an optional flat-fee extra on a customizable product.
type MessageCard struct {
	Text string  `json:"text"`
	Fee  float64 `json:"fee"`
}

// TimeSlot is a named delivery window. The premium ("off-hours") slot carries
// a fixed delivery surcharge; all others are free.
type TimeSlot struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Premium bool   `json:"premium"`
}

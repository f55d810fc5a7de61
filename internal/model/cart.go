package model

// MaxLineQuantity is the per-line quantity ceiling. Quantities above it are
// rejected with ErrBulkOrder, never clamped.
const MaxLineQuantity = 5

// LineItem represents a single line in a customer's cart.
// UnitPrice is the post-discount price with any add-on selections already
// folded in; OriginalPrice is the undiscounted catalogue price.
type LineItem struct {
	ID            string  `json:"id"`
	ProductID     string  `json:"productId"`
	Title         string  `json:"title"`
	UnitPrice     float64 `json:"unitPrice"`
	OriginalPrice float64 `json:"originalPrice"`
	ImageRef      string  `json:"imageRef"`
	Quantity      int     `json:"quantity"`
}

// LineTotal returns the extended price for this line.
func (li LineItem) LineTotal() float64 {
	return li.UnitPrice * float64(li.Quantity)
}

// CartSnapshot is the durable-store record holding an account's full cart.
// Every mutation replaces the whole record.
type CartSnapshot struct {
	AccountID string     `json:"accountId"`
	Items     []LineItem `json:"items"`
}

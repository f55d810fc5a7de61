package model

// Delivery options. The gift option requires an independently complete
// receiver address block in addition to the sender details.
const (
	DeliverySelf = "self"
	DeliveryGift = "gift"
)

// Address is the three-part address block used for both sender and receiver.
type Address struct {
	Line1   string `json:"line1"`
	City    string `json:"city"`
	PinCode string `json:"pinCode"`
}

// Complete reports whether every field of the address is filled in.
func (a Address) Complete() bool {
	return a.Line1 != "" && a.City != "" && a.PinCode != ""
}

// ShippingDetails is created once per checkout attempt and held only in the
// durable store so it survives the navigation to the hosted payment page.
// It is consumed and deleted when an order is created.
type ShippingDetails struct {
	Name           string   `json:"name"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	Address        Address  `json:"address"`
	DeliveryOption string   `json:"deliveryOption"`
	Receiver       *Address `json:"receiver,omitempty"`
	ReceiverName   string   `json:"receiverName,omitempty"`
	ReceiverPhone  string   `json:"receiverPhone,omitempty"`
	TimeSlotID     string   `json:"timeSlotId"`
	DeliveryDate   string   `json:"deliveryDate"`
	Note           string   `json:"note,omitempty"`
}

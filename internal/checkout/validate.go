package checkout

import (
	"regexp"
	"slices"

	"giftkart/internal/model"
)

var pinPattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// validPin checks the PIN's shape and, when a serviceable list is
// configured, membership in the delivery area.
func validPin(pin string, serviceable []string) bool {
	if !pinPattern.MatchString(pin) {
		return false
	}
	if len(serviceable) == 0 {
		return true
	}
	return slices.Contains(serviceable, pin)
}

// validateShipping enforces the SHIPPING -> PAYMENT guard: a real time
// slot, a deliverable PIN, complete sender details, and for the gift
// option an independently complete receiver block. The first violation is
// returned and nothing is persisted.
func validateShipping(details *model.ShippingDetails, serviceablePins []string) error {
	if details.Name == "" || details.Phone == "" || details.Email == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "Name, phone and email are required")
	}

	if !details.Address.Complete() {
		return model.NewDomainError(model.ErrCodeMissingField, "Delivery address is incomplete")
	}

	if !validPin(details.Address.PinCode, serviceablePins) {
		return model.ErrInvalidPin
	}

	if SlotByID(details.TimeSlotID) == nil {
		return model.ErrInvalidTimeSlot
	}

	if details.DeliveryDate == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "Delivery date is required")
	}

	switch details.DeliveryOption {
	case model.DeliverySelf:
		// Sender block doubles as the delivery target.
	case model.DeliveryGift:
		if details.Receiver == nil || !details.Receiver.Complete() {
			return model.ErrIncompleteReceiver
		}
		if details.ReceiverName == "" || details.ReceiverPhone == "" {
			return model.ErrIncompleteReceiver
		}
		if !validPin(details.Receiver.PinCode, serviceablePins) {
			return model.ErrInvalidPin
		}
	default:
		return model.NewDomainError(model.ErrCodeMissingField, "Delivery option must be self or gift")
	}

	return nil
}

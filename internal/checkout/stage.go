package checkout

import "giftkart/internal/model"

// Stage is the checkout attempt's position in the linear flow.
type Stage string

const (
	StageCart         Stage = "CART"
	StageShipping     Stage = "SHIPPING"
	StagePayment      Stage = "PAYMENT"
	StageConfirmation Stage = "CONFIRMATION"
)

// String representation (for logging)
func (s Stage) String() string {
	return string(s)
}

// stageTransitions lists the legal moves: forward through the flow, plus
// the back-edges PAYMENT -> SHIPPING and SHIPPING -> CART.
var stageTransitions = map[Stage][]Stage{
	StageCart:     {StageShipping},
	StageShipping: {StagePayment, StageCart},
	StagePayment:  {StageConfirmation, StageShipping},
}

// canMove reports whether a stage transition is legal.
func canMove(from, to Stage) bool {
	for _, next := range stageTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// timeSlots is the delivery-window catalogue. The off-hours slot is the
// only one carrying the fixed delivery surcharge.
var timeSlots = []model.TimeSlot{
	{ID: "slot-morning", Label: "9 AM - 12 PM"},
	{ID: "slot-afternoon", Label: "12 PM - 5 PM"},
	{ID: "slot-evening", Label: "5 PM - 9 PM"},
	{ID: "slot-offhours", Label: "9 PM - 7 AM", Premium: true},
}

// TimeSlots returns the delivery-window catalogue.
func TimeSlots() []model.TimeSlot {
	out := make([]model.TimeSlot, len(timeSlots))
	copy(out, timeSlots)
	return out
}

// SlotByID looks up a delivery window, nil when unknown.
func SlotByID(id string) *model.TimeSlot {
	for i := range timeSlots {
		if timeSlots[i].ID == id {
			return &timeSlots[i]
		}
	}
	return nil
}

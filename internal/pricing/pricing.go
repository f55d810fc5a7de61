// Package pricing computes the authoritative order total. It is pure
// computation: cart subtotal, delivery surcharge, promo discount and
// currency conversion compose here and nowhere else.
package pricing

import (
	"math"

	"giftkart/internal/model"
)

// Breakdown is the itemized result of pricing one checkout attempt. All
// components are expressed in the display currency.
type Breakdown struct {
	Subtotal          float64 `json:"subtotal"`
	DeliverySurcharge float64 `json:"deliverySurcharge"`
	PromoDiscount     float64 `json:"promoDiscount"`
	Total             float64 `json:"total"`
}

// ComputeTotal composes the order total from base-currency inputs and a
// single conversion rate. The promo discount is validated in the base
// currency and converted with the same rate as every other component,
// never re-derived, so displayed and charged figures cannot drift apart.
// The total is floored at zero.
func ComputeTotal(subtotal, deliverySurcharge, promoDiscount, rate float64) Breakdown {
	b := Breakdown{
		Subtotal:          subtotal * rate,
		DeliverySurcharge: deliverySurcharge * rate,
		PromoDiscount:     promoDiscount * rate,
	}

	b.Total = b.Subtotal + b.DeliverySurcharge - b.PromoDiscount
	if b.Total < 0 {
		b.Total = 0
	}

	return b
}

// Totals converts a Breakdown into the order snapshot form.
func (b Breakdown) Totals() model.Totals {
	return model.Totals{
		Subtotal:          b.Subtotal,
		DeliverySurcharge: b.DeliverySurcharge,
		PromoDiscount:     b.PromoDiscount,
		Total:             b.Total,
	}
}

// DeliverySurcharge returns the surcharge for the selected time slot: the
// fixed fee for the premium ("off-hours") slot, zero for every other slot.
func DeliverySurcharge(slot *model.TimeSlot, fee float64) float64 {
	if slot != nil && slot.Premium {
		return fee
	}
	return 0
}

// UnitPriceWithAddons folds a customizable product's add-on selections and
// optional message card into the line's unit price. Each add-on carries its
// own price and independently chosen quantity; the message card is a flat
// fee. The cart itself never sees add-on structure.
func UnitPriceWithAddons(base float64, addons []model.AddonSelection, card *model.MessageCard) float64 {
	price := base
	for _, sel := range addons {
		if sel.Quantity > 0 {
			price += sel.Price * float64(sel.Quantity)
		}
	}
	if card != nil {
		price += card.Fee
	}
	return price
}

// DiscountedUnitPrice applies a catalogue discount percentage to a price.
func DiscountedUnitPrice(price, discountPercent float64) float64 {
	if discountPercent <= 0 {
		return price
	}
	return price * (1 - discountPercent/100)
}

// MinorUnits converts a settlement-currency amount into the minor units the
// gateway charges in, rounded to the nearest unit.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

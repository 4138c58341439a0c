// Package discount implements the per-item and per-bundle discount functions
// promotions apply to claimed items.
package discount

import (
	"errors"
	"fmt"

	"github.com/noah-isme/basket-engine/internal/money"
)

// ErrInvalidDiscount is returned when a discount is constructed or applied with
// arguments that make no sense (negative amounts, empty bundles).
var ErrInvalidDiscount = errors.New("invalid discount")

// Simple is a per-item discount function. Applying one is pure, deterministic
// and currency preserving; the result is clamped to [0, original price].
// The concrete kinds are PercentageOff, AmountOverride and AmountOff.
type Simple interface {
	// Apply returns the discounted price for a single item.
	Apply(price money.Money) (money.Money, error)

	simple()
}

// PercentageOff discounts an item by a percentage of its current price,
// rounding half-to-even.
type PercentageOff struct {
	Percent money.Percentage
}

// AmountOverride replaces an item's price outright.
type AmountOverride struct {
	Amount money.Money
}

// AmountOff subtracts a fixed amount from an item's price, clamping at zero.
type AmountOff struct {
	Amount money.Money
}

// NewPercentageOff builds a PercentageOff discount.
func NewPercentageOff(p money.Percentage) PercentageOff {
	return PercentageOff{Percent: p}
}

// NewAmountOverride builds an AmountOverride discount. The override must not
// be negative.
func NewAmountOverride(m money.Money) (AmountOverride, error) {
	if m.IsNegative() {
		return AmountOverride{}, fmt.Errorf("%w: negative override %s", ErrInvalidDiscount, m)
	}
	return AmountOverride{Amount: m}, nil
}

// NewAmountOff builds an AmountOff discount. The amount must not be negative.
func NewAmountOff(m money.Money) (AmountOff, error) {
	if m.IsNegative() {
		return AmountOff{}, fmt.Errorf("%w: negative amount %s", ErrInvalidDiscount, m)
	}
	return AmountOff{Amount: m}, nil
}

func (PercentageOff) simple()  {}
func (AmountOverride) simple() {}
func (AmountOff) simple()      {}

// Apply implements Simple.
func (d PercentageOff) Apply(price money.Money) (money.Money, error) {
	return clampToOriginal(price.Mul(d.Percent.Complement()), price)
}

// Apply implements Simple.
func (d AmountOverride) Apply(price money.Money) (money.Money, error) {
	if d.Amount.Currency() != price.Currency() {
		return money.Money{}, fmt.Errorf("%w: %s vs %s", money.ErrCurrencyMismatch, d.Amount.Currency(), price.Currency())
	}
	return clampToOriginal(d.Amount, price)
}

// Apply implements Simple.
func (d AmountOff) Apply(price money.Money) (money.Money, error) {
	discounted, err := price.SubFloor(d.Amount)
	if err != nil {
		return money.Money{}, err
	}
	return discounted, nil
}

// clampToOriginal keeps a discounted price inside [0, original].
func clampToOriginal(discounted, original money.Money) (money.Money, error) {
	if discounted.IsNegative() {
		return money.Zero(original.Currency())
	}
	if discounted.Cmp(original) > 0 {
		return original, nil
	}
	return discounted, nil
}

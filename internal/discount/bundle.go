package discount

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/basket-engine/internal/money"
)

// Bundle is a per-bundle discount function: it maps the ordered prices of a
// bundle's members to their discounted prices. The concrete kinds are
// PercentEachItem, AmountOffEachItem, PercentOffTotal, AmountOffTotal and
// FixedTotal.
type Bundle interface {
	// Apply returns the discounted price of each member, index aligned with
	// the input.
	Apply(prices []money.Money) ([]money.Money, error)

	bundle()
}

// PercentEachItem discounts every member independently by a percentage.
type PercentEachItem struct {
	Percent money.Percentage
}

// AmountOffEachItem subtracts a fixed amount from every member, clamping at zero.
type AmountOffEachItem struct {
	Amount money.Money
}

// PercentOffTotal scales every member by the complement of the percentage.
type PercentOffTotal struct {
	Percent money.Percentage
}

// AmountOffTotal removes a fixed amount from the bundle total, redistributing
// the savings proportionally to the members' original prices.
type AmountOffTotal struct {
	Amount money.Money
}

// FixedTotal replaces the bundle's aggregate price, redistributing
// proportionally to the members' original prices.
type FixedTotal struct {
	Total money.Money
}

// NewPercentEachItem builds a PercentEachItem discount.
func NewPercentEachItem(p money.Percentage) PercentEachItem { return PercentEachItem{Percent: p} }

// NewAmountOffEachItem builds an AmountOffEachItem discount.
func NewAmountOffEachItem(m money.Money) (AmountOffEachItem, error) {
	if m.IsNegative() {
		return AmountOffEachItem{}, fmt.Errorf("%w: negative amount %s", ErrInvalidDiscount, m)
	}
	return AmountOffEachItem{Amount: m}, nil
}

// NewPercentOffTotal builds a PercentOffTotal discount.
func NewPercentOffTotal(p money.Percentage) PercentOffTotal { return PercentOffTotal{Percent: p} }

// NewAmountOffTotal builds an AmountOffTotal discount.
func NewAmountOffTotal(m money.Money) (AmountOffTotal, error) {
	if m.IsNegative() {
		return AmountOffTotal{}, fmt.Errorf("%w: negative amount %s", ErrInvalidDiscount, m)
	}
	return AmountOffTotal{Amount: m}, nil
}

// NewFixedTotal builds a FixedTotal discount.
func NewFixedTotal(m money.Money) (FixedTotal, error) {
	if m.IsNegative() {
		return FixedTotal{}, fmt.Errorf("%w: negative total %s", ErrInvalidDiscount, m)
	}
	return FixedTotal{Total: m}, nil
}

func (PercentEachItem) bundle()   {}
func (AmountOffEachItem) bundle() {}
func (PercentOffTotal) bundle()   {}
func (AmountOffTotal) bundle()    {}
func (FixedTotal) bundle()        {}

// Apply implements Bundle.
func (d PercentEachItem) Apply(prices []money.Money) ([]money.Money, error) {
	return applyEach(prices, func(p money.Money) (money.Money, error) {
		return clampToOriginal(p.Mul(d.Percent.Complement()), p)
	})
}

// Apply implements Bundle.
func (d AmountOffEachItem) Apply(prices []money.Money) ([]money.Money, error) {
	return applyEach(prices, func(p money.Money) (money.Money, error) {
		return p.SubFloor(d.Amount)
	})
}

// Apply implements Bundle.
func (d PercentOffTotal) Apply(prices []money.Money) ([]money.Money, error) {
	return applyEach(prices, func(p money.Money) (money.Money, error) {
		return clampToOriginal(p.Mul(d.Percent.Complement()), p)
	})
}

// Apply implements Bundle.
func (d AmountOffTotal) Apply(prices []money.Money) ([]money.Money, error) {
	total, err := bundleTotal(prices)
	if err != nil {
		return nil, err
	}
	target, err := total.SubFloor(d.Amount)
	if err != nil {
		return nil, err
	}
	return distribute(prices, total, target)
}

// Apply implements Bundle.
func (d FixedTotal) Apply(prices []money.Money) ([]money.Money, error) {
	total, err := bundleTotal(prices)
	if err != nil {
		return nil, err
	}
	target := d.Total
	if target.Currency() != total.Currency() {
		return nil, fmt.Errorf("%w: %s vs %s", money.ErrCurrencyMismatch, target.Currency(), total.Currency())
	}
	// A fixed total above the undiscounted total would be a surcharge; clamp.
	if target.Cmp(total) > 0 {
		target = total
	}
	return distribute(prices, total, target)
}

func applyEach(prices []money.Money, fn func(money.Money) (money.Money, error)) ([]money.Money, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: empty bundle", ErrInvalidDiscount)
	}
	out := make([]money.Money, len(prices))
	for i, p := range prices {
		discounted, err := fn(p)
		if err != nil {
			return nil, err
		}
		out[i] = discounted
	}
	return out, nil
}

func bundleTotal(prices []money.Money) (money.Money, error) {
	if len(prices) == 0 {
		return money.Money{}, fmt.Errorf("%w: empty bundle", ErrInvalidDiscount)
	}
	return money.Sum(prices)
}

// distribute spreads target across the members proportionally to their
// original prices, rounding half-to-even. The last member absorbs the rounding
// residual so the discounted prices sum to target exactly.
func distribute(prices []money.Money, total, target money.Money) ([]money.Money, error) {
	out := make([]money.Money, len(prices))
	currency := total.Currency()

	if total.IsZero() {
		for i := range out {
			zero, err := money.Zero(currency)
			if err != nil {
				return nil, err
			}
			out[i] = zero
		}
		return out, nil
	}

	totalDec := decimal.NewFromInt(total.Amount())
	targetDec := decimal.NewFromInt(target.Amount())

	var assigned int64
	for i, p := range prices {
		if i == len(prices)-1 {
			last, err := money.New(target.Amount()-assigned, currency)
			if err != nil {
				return nil, err
			}
			out[i] = last
			break
		}
		share := decimal.NewFromInt(p.Amount()).Mul(targetDec).Div(totalDec).RoundBank(0).IntPart()
		m, err := money.New(share, currency)
		if err != nil {
			return nil, err
		}
		out[i] = m
		assigned += share
	}
	return out, nil
}

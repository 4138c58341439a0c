// Package receipt materialises the outcome of one process invocation: every
// redemption granted per layer, the untouched items, and the totals.
package receipt

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/basket-engine/internal/catalog"
	"github.com/noah-isme/basket-engine/internal/money"
)

// ErrInvalidReceipt is returned when redemption records would produce
// impossible totals.
var ErrInvalidReceipt = errors.New("invalid receipt")

// Redemption records one item claimed by one promotion at one layer.
// Immutable once on the receipt.
type Redemption struct {
	PromotionKey  string
	ItemKey       string
	BundleID      uint32
	LayerKey      string
	OriginalPrice money.Money
	FinalPrice    money.Money
}

// Savings returns the discount this redemption granted.
func (r Redemption) Savings() (money.Money, error) {
	return r.OriginalPrice.Sub(r.FinalPrice)
}

// SavingsPercent returns the discount relative to the original price. A zero
// original price yields zero.
func (r Redemption) SavingsPercent() (money.Percentage, error) {
	saved, err := r.Savings()
	if err != nil {
		return money.Percentage{}, err
	}
	if r.OriginalPrice.IsZero() {
		return money.MustParsePercentage("0%"), nil
	}
	ratio := decimal.NewFromInt(saved.Amount()).Div(decimal.NewFromInt(r.OriginalPrice.Amount()))
	return money.ParsePercentage(ratio.String())
}

// Receipt enumerates the priced basket after the promotion graph has run.
type Receipt struct {
	Subtotal       money.Money
	Total          money.Money
	FullPriceItems []catalog.Item
	Redemptions    []Redemption
}

// TotalSavings returns subtotal minus total.
func (r Receipt) TotalSavings() (money.Money, error) {
	return r.Subtotal.Sub(r.Total)
}

// Builder accumulates redemptions in emission order and derives the totals.
type Builder struct {
	items       []catalog.Item
	redemptions []Redemption
	claimed     map[string]struct{}
}

// NewBuilder starts a receipt for the given basket.
func NewBuilder(items []catalog.Item) *Builder {
	return &Builder{items: items, claimed: make(map[string]struct{})}
}

// Add appends a redemption. Order of calls is preserved on the receipt.
func (b *Builder) Add(r Redemption) {
	b.redemptions = append(b.redemptions, r)
	b.claimed[r.ItemKey] = struct{}{}
}

// Build computes the totals from the final effective prices. Items absent
// from effective keep their undiscounted price.
func (b *Builder) Build(effective map[string]money.Money) (Receipt, error) {
	if len(b.items) == 0 {
		return Receipt{}, fmt.Errorf("%w: no items", ErrInvalidReceipt)
	}
	subtotal, err := catalog.Subtotal(b.items)
	if err != nil {
		return Receipt{}, err
	}
	total, err := money.Zero(subtotal.Currency())
	if err != nil {
		return Receipt{}, err
	}
	fullPrice := make([]catalog.Item, 0, len(b.items))
	for _, it := range b.items {
		price := it.Price
		if p, ok := effective[it.Key]; ok {
			price = p
		}
		total, err = total.Add(price)
		if err != nil {
			return Receipt{}, err
		}
		if _, hit := b.claimed[it.Key]; !hit {
			fullPrice = append(fullPrice, it)
		}
	}
	if total.IsNegative() || total.Cmp(subtotal) > 0 {
		return Receipt{}, fmt.Errorf("%w: total %s outside [0, %s]", ErrInvalidReceipt, total, subtotal)
	}
	return Receipt{
		Subtotal:       subtotal,
		Total:          total,
		FullPriceItems: fullPrice,
		Redemptions:    b.redemptions,
	}, nil
}

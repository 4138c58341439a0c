package promotion

import (
	"fmt"

	"github.com/noah-isme/basket-engine/internal/discount"
	"github.com/noah-isme/basket-engine/internal/money"
	"github.com/noah-isme/basket-engine/internal/tag"
)

// Threshold measures an item mass by monetary value, item count, or both.
// At least one dimension must be set. When both are set, both must hold.
type Threshold struct {
	Monetary  *money.Money
	ItemCount *uint32
}

func (t Threshold) defined() bool {
	return t.Monetary != nil || t.ItemCount != nil
}

// met reports whether the given aggregate reaches the threshold.
func (t Threshold) met(total money.Money, count uint32) bool {
	if t.Monetary != nil && total.Cmp(*t.Monetary) < 0 {
		return false
	}
	if t.ItemCount != nil && count < *t.ItemCount {
		return false
	}
	return true
}

// admits reports whether adding price to the aggregate stays within the
// threshold used as an upper bound.
func (t Threshold) admits(total money.Money, count uint32, price money.Money) (bool, error) {
	if t.ItemCount != nil && count+1 > *t.ItemCount {
		return false, nil
	}
	if t.Monetary != nil {
		next, err := total.Add(price)
		if err != nil {
			return false, err
		}
		if next.Cmp(*t.Monetary) > 0 {
			return false, nil
		}
	}
	return true, nil
}

// Tier is one threshold-unlocked sub-rule of a TieredThreshold promotion:
// contributors unlock it, discountables receive its bundle discount.
type Tier struct {
	Lower        Threshold
	Upper        *Threshold
	Contribution tag.Qualification
	Discountable tag.Qualification
	Discount     discount.Bundle
}

// TieredThreshold unlocks bundle discounts once the qualifying contribution
// mass reaches a tier's lower threshold, optionally capping the mass a single
// instance may consume.
type TieredThreshold struct {
	key    string
	tiers  []Tier
	budget Budget
}

// NewTieredThreshold constructs a TieredThreshold promotion. Every tier needs
// a lower threshold with at least one dimension and a discount.
func NewTieredThreshold(key string, tiers []Tier, budget Budget) (*TieredThreshold, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty promotion key", ErrInvalidPromotion)
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: %s has no tiers", ErrInvalidPromotion, key)
	}
	for i, tier := range tiers {
		if !tier.Lower.defined() {
			return nil, fmt.Errorf("%w: %s tier %d lower threshold has no dimension", ErrInvalidPromotion, key, i)
		}
		if tier.Upper != nil && !tier.Upper.defined() {
			return nil, fmt.Errorf("%w: %s tier %d upper threshold has no dimension", ErrInvalidPromotion, key, i)
		}
		if tier.Discount == nil {
			return nil, fmt.Errorf("%w: %s tier %d has no discount", ErrInvalidPromotion, key, i)
		}
	}
	return &TieredThreshold{key: key, tiers: tiers, budget: budget}, nil
}

// Key implements Promotion.
func (p *TieredThreshold) Key() string { return p.key }

// Budget implements Promotion.
func (p *TieredThreshold) Budget() Budget { return p.budget }

// Tiers returns the configured tiers.
func (p *TieredThreshold) Tiers() []Tier { return p.tiers }

// Candidates carves disjoint instances off each tier until its lower
// threshold can no longer be met. Instances of one tier never share items, so
// the solver may select several; instances of different tiers may overlap and
// compete through the one-promotion-per-item constraint.
func (p *TieredThreshold) Candidates(items []Item) ([]Candidate, error) {
	var (
		candidates []Candidate
		bundleID   uint32
	)
	for _, tier := range p.tiers {
		remaining := sortByPriceDesc(items)
		for {
			instance, err := p.instance(tier, remaining, bundleID)
			if err != nil {
				return nil, err
			}
			if instance == nil {
				break
			}
			candidates = append(candidates, *instance)
			bundleID++
			remaining = withoutMembers(remaining, instance.Members)
		}
	}
	return candidates, nil
}

// instance builds a single tier instance from the remaining items, or nil when
// the tier can no longer activate.
func (p *TieredThreshold) instance(tier Tier, items []Item, bundleID uint32) (*Candidate, error) {
	contributors, err := selectWithin(qualifying(items, tier.Contribution), tier.Upper)
	if err != nil {
		return nil, fmt.Errorf("promotion %s: %w", p.key, err)
	}
	if len(contributors) == 0 {
		return nil, nil
	}
	total, err := itemTotal(contributors)
	if err != nil {
		return nil, fmt.Errorf("promotion %s: %w", p.key, err)
	}
	if !tier.Lower.met(total, uint32(len(contributors))) {
		return nil, nil
	}

	discountables, err := selectWithin(qualifying(items, tier.Discountable), tier.Upper)
	if err != nil {
		return nil, fmt.Errorf("promotion %s: %w", p.key, err)
	}
	if len(discountables) == 0 {
		return nil, nil
	}

	prices := make([]money.Money, len(discountables))
	for i, it := range discountables {
		prices[i] = it.Price
	}
	finals, err := tier.Discount.Apply(prices)
	if err != nil {
		return nil, fmt.Errorf("promotion %s: %w", p.key, err)
	}

	// Members are the discountables plus any contributor that only unlocks the
	// tier; the latter keep their price but are still claimed by the bundle.
	members := make([]Item, 0, len(discountables)+len(contributors))
	memberFinals := make([]money.Money, 0, cap(members))
	inBundle := make(map[string]struct{}, cap(members))
	for i, it := range discountables {
		members = append(members, it)
		memberFinals = append(memberFinals, finals[i])
		inBundle[it.Key] = struct{}{}
	}
	for _, it := range contributors {
		if _, dup := inBundle[it.Key]; dup {
			continue
		}
		members = append(members, it)
		memberFinals = append(memberFinals, it.Price)
		inBundle[it.Key] = struct{}{}
	}

	c, ok, err := newCandidate(p.key, bundleID, members, memberFinals, 1)
	if err != nil {
		return nil, fmt.Errorf("promotion %s: %w", p.key, err)
	}
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// selectWithin takes items greedily (already price-descending) while the
// running aggregate stays inside the upper threshold, or all of them when no
// upper bound is set.
func selectWithin(items []Item, upper *Threshold) ([]Item, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if upper == nil {
		return items, nil
	}
	total, err := money.Zero(items[0].Price.Currency())
	if err != nil {
		return nil, err
	}
	var out []Item
	for _, it := range items {
		ok, err := upper.admits(total, uint32(len(out)), it.Price)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		total, err = total.Add(it.Price)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

func itemTotal(items []Item) (money.Money, error) {
	prices := make([]money.Money, len(items))
	for i, it := range items {
		prices[i] = it.Price
	}
	return money.Sum(prices)
}

func withoutMembers(items []Item, members []string) []Item {
	drop := make(map[string]struct{}, len(members))
	for _, k := range members {
		drop[k] = struct{}{}
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if _, hit := drop[it.Key]; hit {
			continue
		}
		out = append(out, it)
	}
	return out
}

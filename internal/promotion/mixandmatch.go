package promotion

import (
	"fmt"

	"github.com/noah-isme/basket-engine/internal/discount"
	"github.com/noah-isme/basket-engine/internal/money"
	"github.com/noah-isme/basket-engine/internal/tag"
)

// Slot is one min/max-bounded compartment of a MixAndMatch bundle.
type Slot struct {
	Key           string
	Qualification tag.Qualification
	Min           uint32
	Max           uint32
}

// MixAndMatch builds bundles by filling every slot with a bounded count of
// distinct qualifying items, then applies a bundle discount to the members.
type MixAndMatch struct {
	key      string
	slots    []Slot
	discount discount.Bundle
	budget   Budget
}

// NewMixAndMatch constructs a MixAndMatch promotion. Every slot needs a unique
// key and max ≥ min, and the slots must be able to hold at least one item.
func NewMixAndMatch(key string, slots []Slot, d discount.Bundle, budget Budget) (*MixAndMatch, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty promotion key", ErrInvalidPromotion)
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: %s has no slots", ErrInvalidPromotion, key)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s has no discount", ErrInvalidPromotion, key)
	}
	seen := make(map[string]struct{}, len(slots))
	var capacity uint32
	for _, s := range slots {
		if s.Key == "" {
			return nil, fmt.Errorf("%w: %s has a slot without a key", ErrInvalidPromotion, key)
		}
		if _, dup := seen[s.Key]; dup {
			return nil, fmt.Errorf("%w: %s has duplicate slot %q", ErrInvalidPromotion, key, s.Key)
		}
		seen[s.Key] = struct{}{}
		if s.Max < s.Min {
			return nil, fmt.Errorf("%w: %s slot %q max below min", ErrInvalidPromotion, key, s.Key)
		}
		capacity += s.Max
	}
	if capacity == 0 {
		return nil, fmt.Errorf("%w: %s bundle can never hold an item", ErrInvalidPromotion, key)
	}
	return &MixAndMatch{key: key, slots: slots, discount: d, budget: budget}, nil
}

// Key implements Promotion.
func (p *MixAndMatch) Key() string { return p.key }

// Budget implements Promotion.
func (p *MixAndMatch) Budget() Budget { return p.budget }

// Slots returns the configured slots.
func (p *MixAndMatch) Slots() []Slot { return p.slots }

// Candidates enumerates every assignment that fills every slot within its
// bounds with distinct items. An item joins at most one slot per bundle; a
// bundle holds at least one item.
func (p *MixAndMatch) Candidates(items []Item) ([]Candidate, error) {
	ordered := sortByKey(items)

	// Eligible item indices per slot, in key order.
	eligible := make([][]int, len(p.slots))
	for s, slot := range p.slots {
		for i, it := range ordered {
			if slot.Qualification.Matches(it.Tags) {
				eligible[s] = append(eligible[s], i)
			}
		}
		if uint32(len(eligible[s])) < p.slots[s].Min {
			// A mandatory slot cannot be filled; no bundle exists.
			return nil, nil
		}
	}

	var (
		candidates []Candidate
		bundleID   uint32
		used       = make([]bool, len(ordered))
		chosen     = make([][]int, len(p.slots))
		seen       = map[string]struct{}{}
	)

	var fillSlot func(slot int) error
	emit := func() error {
		members := make([]Item, 0, len(ordered))
		for _, slotItems := range chosen {
			for _, idx := range slotItems {
				members = append(members, ordered[idx])
			}
		}
		if len(members) == 0 {
			return nil
		}
		c, ok, err := p.bundle(bundleID, members)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if _, dup := seen[c.Signature()]; dup {
			return nil
		}
		seen[c.Signature()] = struct{}{}
		candidates = append(candidates, c)
		bundleID++
		return nil
	}
	fillSlot = func(slot int) error {
		if slot == len(p.slots) {
			return emit()
		}
		min, max := int(p.slots[slot].Min), int(p.slots[slot].Max)
		pool := eligible[slot]

		var pick func(start, count int) error
		pick = func(start, count int) error {
			if count >= min {
				if err := fillSlot(slot + 1); err != nil {
					return err
				}
			}
			if count == max {
				return nil
			}
			for i := start; i < len(pool); i++ {
				idx := pool[i]
				if used[idx] {
					continue
				}
				used[idx] = true
				chosen[slot] = append(chosen[slot], idx)
				if err := pick(i+1, count+1); err != nil {
					return err
				}
				chosen[slot] = chosen[slot][:len(chosen[slot])-1]
				used[idx] = false
			}
			return nil
		}
		return pick(0, 0)
	}
	if err := fillSlot(0); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (p *MixAndMatch) bundle(bundleID uint32, members []Item) (Candidate, bool, error) {
	prices := make([]money.Money, len(members))
	for i, it := range members {
		prices[i] = it.Price
	}
	finals, err := p.discount.Apply(prices)
	if err != nil {
		return Candidate{}, false, fmt.Errorf("promotion %s: %w", p.key, err)
	}
	c, ok, err := newCandidate(p.key, bundleID, members, finals, 1)
	if err != nil {
		return Candidate{}, false, fmt.Errorf("promotion %s: %w", p.key, err)
	}
	return c, ok, nil
}

package promotion

import (
	"fmt"

	"github.com/noah-isme/basket-engine/internal/discount"
	"github.com/noah-isme/basket-engine/internal/money"
	"github.com/noah-isme/basket-engine/internal/tag"
)

// Positional groups a fixed number of qualifying items and discounts the ones
// at chosen positions of the price-descending order — the classic 3-for-2.
type Positional struct {
	key           string
	qualification tag.Qualification
	size          uint32
	positions     map[uint32]struct{}
	discount      discount.Simple
	budget        Budget
}

// NewPositional constructs a Positional promotion. Positions index the bundle
// sorted by price descending and must lie inside [0, size).
func NewPositional(key string, qualification tag.Qualification, size uint32, positions []uint32, d discount.Simple, budget Budget) (*Positional, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty promotion key", ErrInvalidPromotion)
	}
	if size < 1 {
		return nil, fmt.Errorf("%w: %s bundle size must be at least 1", ErrInvalidPromotion, key)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s has no discount", ErrInvalidPromotion, key)
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: %s has no discounted positions", ErrInvalidPromotion, key)
	}
	set := make(map[uint32]struct{}, len(positions))
	for _, pos := range positions {
		if pos >= size {
			return nil, fmt.Errorf("%w: %s position %d outside bundle of size %d", ErrInvalidPromotion, key, pos, size)
		}
		set[pos] = struct{}{}
	}
	return &Positional{
		key:           key,
		qualification: qualification,
		size:          size,
		positions:     set,
		discount:      d,
		budget:        budget,
	}, nil
}

// Key implements Promotion.
func (p *Positional) Key() string { return p.key }

// Budget implements Promotion.
func (p *Positional) Budget() Budget { return p.budget }

// Size returns the bundle size.
func (p *Positional) Size() uint32 { return p.size }

// Candidates offers one bundle per combination of size qualifying items.
func (p *Positional) Candidates(items []Item) ([]Candidate, error) {
	eligible := sortByKey(qualifying(items, p.qualification))
	k := int(p.size)
	if len(eligible) < k {
		return nil, nil
	}

	var candidates []Candidate
	var bundleID uint32
	combo := make([]int, k)
	var walk func(start, depth int) error
	walk = func(start, depth int) error {
		if depth == k {
			members := make([]Item, k)
			for i, idx := range combo {
				members[i] = eligible[idx]
			}
			c, ok, err := p.bundle(bundleID, members)
			if err != nil {
				return err
			}
			if ok {
				candidates = append(candidates, c)
				bundleID++
			}
			return nil
		}
		for i := start; i <= len(eligible)-(k-depth); i++ {
			combo[depth] = i
			if err := walk(i+1, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0, 0); err != nil {
		return nil, err
	}
	return candidates, nil
}

// bundle orders the combination by price descending and discounts the items at
// the configured positions.
func (p *Positional) bundle(bundleID uint32, members []Item) (Candidate, bool, error) {
	ordered := sortByPriceDesc(members)
	finals := make([]money.Money, len(ordered))
	for i, it := range ordered {
		if _, hit := p.positions[uint32(i)]; hit {
			final, err := p.discount.Apply(it.Price)
			if err != nil {
				return Candidate{}, false, fmt.Errorf("promotion %s: %w", p.key, err)
			}
			finals[i] = final
			continue
		}
		finals[i] = it.Price
	}
	c, ok, err := newCandidate(p.key, bundleID, ordered, finals, 1)
	if err != nil {
		return Candidate{}, false, fmt.Errorf("promotion %s: %w", p.key, err)
	}
	return c, ok, nil
}

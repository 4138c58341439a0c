package promotion

import (
	"fmt"

	"github.com/noah-isme/basket-engine/internal/discount"
	"github.com/noah-isme/basket-engine/internal/money"
	"github.com/noah-isme/basket-engine/internal/tag"
)

// Direct applies a per-item discount to every qualifying item independently.
type Direct struct {
	key           string
	qualification tag.Qualification
	discount      discount.Simple
	budget        Budget
}

// NewDirect constructs a Direct promotion.
func NewDirect(key string, qualification tag.Qualification, d discount.Simple, budget Budget) (*Direct, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty promotion key", ErrInvalidPromotion)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s has no discount", ErrInvalidPromotion, key)
	}
	return &Direct{key: key, qualification: qualification, discount: d, budget: budget}, nil
}

// Key implements Promotion.
func (p *Direct) Key() string { return p.key }

// Budget implements Promotion.
func (p *Direct) Budget() Budget { return p.budget }

// Qualification returns the promotion's eligibility predicate.
func (p *Direct) Qualification() tag.Qualification { return p.qualification }

// Candidates offers one single-item bundle per qualifying item.
func (p *Direct) Candidates(items []Item) ([]Candidate, error) {
	eligible := sortByKey(qualifying(items, p.qualification))
	candidates := make([]Candidate, 0, len(eligible))
	var bundleID uint32
	for _, it := range eligible {
		final, err := p.discount.Apply(it.Price)
		if err != nil {
			return nil, fmt.Errorf("promotion %s: %w", p.key, err)
		}
		c, ok, err := newCandidate(p.key, bundleID, []Item{it}, []money.Money{final}, 1)
		if err != nil {
			return nil, fmt.Errorf("promotion %s: %w", p.key, err)
		}
		if !ok {
			continue
		}
		candidates = append(candidates, c)
		bundleID++
	}
	return candidates, nil
}

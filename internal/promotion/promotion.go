// Package promotion defines the promotion variants the engine understands and
// the candidate applications each one can generate against a set of eligible
// items.
package promotion

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/basket-engine/internal/money"
	"github.com/noah-isme/basket-engine/internal/tag"
)

var (
	// ErrInvalidPromotion is returned when a promotion is constructed with
	// arguments that violate its structural constraints.
	ErrInvalidPromotion = errors.New("invalid promotion")
)

// Item is a promotion's view of one basket line: its key, the current
// effective price on entry to the layer, and its tags.
type Item struct {
	Key   string
	Price money.Money
	Tags  tag.Set
}

// Candidate is one concrete application a promotion offers the solver: a
// bundle of member items with their post-discount prices and the budget costs
// selecting it would incur.
type Candidate struct {
	PromotionKey   string
	BundleID       uint32
	Members        []string
	FinalPrices    map[string]money.Money
	RedemptionCost uint32
	MonetaryCost   money.Money
}

// Signature is the canonical identity of a candidate: its promotion key
// followed by its sorted member keys. The solver sorts candidates by signature
// so tie-breaking is deterministic.
func (c Candidate) Signature() string {
	return c.PromotionKey + "|" + strings.Join(c.Members, ",")
}

// Savings returns the total discount the candidate yields.
func (c Candidate) Savings() money.Money { return c.MonetaryCost }

// Promotion is the closed set of promotion variants: Direct, Positional,
// MixAndMatch and TieredThreshold.
type Promotion interface {
	// Key returns the promotion's opaque identity.
	Key() string

	// Budget returns the promotion's configured budget.
	Budget() Budget

	// Candidates enumerates every application the promotion can offer over the
	// given items at their current effective prices. An empty result is legal.
	Candidates(items []Item) ([]Candidate, error)
}

// newCandidate assembles a candidate from parallel member/price slices,
// computing the monetary cost and sorting member keys. Members whose price did
// not change still belong to the bundle. Returns ok=false when the candidate
// saves nothing and is therefore pointless to offer.
func newCandidate(promotionKey string, bundleID uint32, members []Item, finals []money.Money, redemptionCost uint32) (Candidate, bool, error) {
	if len(members) != len(finals) {
		return Candidate{}, false, fmt.Errorf("%w: %d members with %d prices", ErrInvalidPromotion, len(members), len(finals))
	}
	keys := make([]string, len(members))
	prices := make(map[string]money.Money, len(members))
	savings, err := money.Zero(members[0].Price.Currency())
	if err != nil {
		return Candidate{}, false, err
	}
	for i, m := range members {
		keys[i] = m.Key
		prices[m.Key] = finals[i]
		saved, err := m.Price.Sub(finals[i])
		if err != nil {
			return Candidate{}, false, err
		}
		savings, err = savings.Add(saved)
		if err != nil {
			return Candidate{}, false, err
		}
	}
	if savings.Amount() <= 0 {
		return Candidate{}, false, nil
	}
	sort.Strings(keys)
	return Candidate{
		PromotionKey:   promotionKey,
		BundleID:       bundleID,
		Members:        keys,
		FinalPrices:    prices,
		RedemptionCost: redemptionCost,
		MonetaryCost:   savings,
	}, true, nil
}

// qualifying filters items by a qualification, preserving order.
func qualifying(items []Item, q tag.Qualification) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if q.Matches(it.Tags) {
			out = append(out, it)
		}
	}
	return out
}

// sortByKey orders items lexicographically by key. Enumeration always starts
// from this order so candidate generation is deterministic.
func sortByKey(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// sortByPriceDesc orders items by price descending, breaking ties
// lexicographically by key. The sort is stable with respect to that ordering.
func sortByPriceDesc(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Price.Cmp(out[j].Price); c != 0 {
			return c > 0
		}
		return out[i].Key < out[j].Key
	})
	return out
}

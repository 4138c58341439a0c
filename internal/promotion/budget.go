package promotion

import (
	"errors"
	"fmt"

	"github.com/noah-isme/basket-engine/internal/money"
)

// ErrBudgetExceeded is returned when committing a layer's selection would
// overdraw a promotion's budget. The solver constrains selections to residual
// budgets, so hitting this indicates a solver defect rather than bad input.
var ErrBudgetExceeded = errors.New("promotion budget exceeded")

// Budget caps how much a promotion may spend within one process call, in
// application count and in total discount value. Nil dimensions are unlimited.
type Budget struct {
	Applications *uint32
	Monetary     *money.Money
}

// Unlimited returns a budget with no constraints.
func Unlimited() Budget { return Budget{} }

// WithApplications caps the number of applications only.
func WithApplications(limit uint32) Budget {
	return Budget{Applications: &limit}
}

// WithMonetary caps the total discount value only.
func WithMonetary(limit money.Money) Budget {
	return Budget{Monetary: &limit}
}

// WithBoth caps both dimensions.
func WithBoth(applications uint32, monetary money.Money) Budget {
	return Budget{Applications: &applications, Monetary: &monetary}
}

// Constrained reports whether either dimension is capped.
func (b Budget) Constrained() bool {
	return b.Applications != nil || b.Monetary != nil
}

// Tracker carries each promotion's remaining budget across the layers of a
// single process call. Budgets reset between calls: a budget expresses a
// pre-computed allocation for one basket.
type Tracker struct {
	remaining map[string]Budget
}

// NewTracker snapshots the configured budget of every promotion.
func NewTracker(promotions []Promotion) *Tracker {
	remaining := make(map[string]Budget, len(promotions))
	for _, p := range promotions {
		b := p.Budget()
		// Copy pointer targets so decrements never touch the configuration.
		if b.Applications != nil {
			v := *b.Applications
			b.Applications = &v
		}
		if b.Monetary != nil {
			v := *b.Monetary
			b.Monetary = &v
		}
		remaining[p.Key()] = b
	}
	return &Tracker{remaining: remaining}
}

// Remaining returns the residual budget for a promotion. Unknown promotions
// are unlimited.
func (t *Tracker) Remaining(promotionKey string) Budget {
	if b, ok := t.remaining[promotionKey]; ok {
		return b
	}
	return Unlimited()
}

// Commit decrements budgets by the realised costs of the selected candidates.
func (t *Tracker) Commit(selected []Candidate) error {
	for _, c := range selected {
		b, ok := t.remaining[c.PromotionKey]
		if !ok {
			continue
		}
		if b.Applications != nil {
			if *b.Applications < c.RedemptionCost {
				return fmt.Errorf("%w: %s applications", ErrBudgetExceeded, c.PromotionKey)
			}
			v := *b.Applications - c.RedemptionCost
			b.Applications = &v
		}
		if b.Monetary != nil {
			rest, err := b.Monetary.Sub(c.MonetaryCost)
			if err != nil {
				return err
			}
			if rest.IsNegative() {
				return fmt.Errorf("%w: %s monetary", ErrBudgetExceeded, c.PromotionKey)
			}
			b.Monetary = &rest
		}
		t.remaining[c.PromotionKey] = b
	}
	return nil
}

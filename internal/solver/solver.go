// Package solver chooses, for one layer, the combination of candidate
// promotion applications that minimises the payable total, subject to one
// application per item and per-promotion budgets.
package solver

import (
	"errors"
	"fmt"
	"sort"

	"github.com/noah-isme/basket-engine/internal/money"
	"github.com/noah-isme/basket-engine/internal/promotion"
)

// ErrSolver is the single error kind backend failures propagate as.
var ErrSolver = errors.New("solver error")

// Item is the solver's view of one basket line: its key and the effective
// price on entry to the layer.
type Item struct {
	Key   string
	Price money.Money
}

// Problem is one layer's assignment problem: items at their effective prices,
// the candidates all promotions offered, and each promotion's residual budget.
type Problem struct {
	LayerKey   string
	Currency   string
	Items      []Item
	Candidates []promotion.Candidate
	Budgets    map[string]promotion.Budget
}

// NewProblem assembles a problem, sorting candidates into canonical order
// (signature, then bundle id) so solving is deterministic.
func NewProblem(layerKey, currency string, items []Item, candidates []promotion.Candidate, budgets map[string]promotion.Budget) Problem {
	sorted := make([]promotion.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		si, sj := sorted[i].Signature(), sorted[j].Signature()
		if si != sj {
			return si < sj
		}
		return sorted[i].BundleID < sorted[j].BundleID
	})
	return Problem{
		LayerKey:   layerKey,
		Currency:   currency,
		Items:      items,
		Candidates: sorted,
		Budgets:    budgets,
	}
}

// Subtotal is the payable total when no candidate is selected.
func (p Problem) Subtotal() (money.Money, error) {
	total, err := money.Zero(p.Currency)
	if err != nil {
		return money.Money{}, err
	}
	for _, it := range p.Items {
		total, err = total.Add(it.Price)
		if err != nil {
			return money.Money{}, err
		}
	}
	return total, nil
}

// Assignment is a backend's answer: the indices of the selected candidates in
// the problem's canonical candidate order.
type Assignment struct {
	Selected []int
}

// Backend is the narrow interface the layer solver delegates to, so the
// branch-and-bound can be swapped for another exact engine.
type Backend interface {
	Solve(p Problem) (Assignment, error)
}

// Result is the solved layer: the selected candidates and the after-discount
// layer total.
type Result struct {
	Selected []promotion.Candidate
	Total    money.Money
}

// Solve picks the cost-minimising selection for the layer. Layers whose
// candidates are all independent single-item applications with no budget in
// play take a fast path; everything else goes through the backend. An
// infeasible or empty layer yields an empty selection, never an error.
func Solve(p Problem, backend Backend) (Result, error) {
	var assignment Assignment
	if selected, ok := directFastPath(p); ok {
		assignment = Assignment{Selected: selected}
	} else {
		var err error
		assignment, err = backend.Solve(p)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrSolver, err)
		}
	}
	return assemble(p, assignment)
}

func assemble(p Problem, a Assignment) (Result, error) {
	total, err := p.Subtotal()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSolver, err)
	}
	selected := make([]promotion.Candidate, 0, len(a.Selected))
	for _, idx := range a.Selected {
		if idx < 0 || idx >= len(p.Candidates) {
			return Result{}, fmt.Errorf("%w: assignment index %d out of range", ErrSolver, idx)
		}
		c := p.Candidates[idx]
		selected = append(selected, c)
		total, err = total.Sub(c.Savings())
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrSolver, err)
		}
	}
	if total.IsNegative() {
		return Result{}, fmt.Errorf("%w: negative layer total %s", ErrSolver, total)
	}
	return Result{Selected: selected, Total: total}, nil
}

// directFastPath handles layers where every candidate claims exactly one item
// and no budget constrains the selection: each item independently takes its
// best discount. Ties go to the canonically first candidate.
func directFastPath(p Problem) ([]int, bool) {
	for _, c := range p.Candidates {
		if len(c.Members) != 1 || c.RedemptionCost != 1 {
			return nil, false
		}
		if p.Budgets[c.PromotionKey].Constrained() {
			return nil, false
		}
	}
	bestByItem := make(map[string]int, len(p.Items))
	for i, c := range p.Candidates {
		key := c.Members[0]
		prev, ok := bestByItem[key]
		if !ok || c.Savings().Cmp(p.Candidates[prev].Savings()) > 0 {
			bestByItem[key] = i
		}
	}
	selected := make([]int, 0, len(bestByItem))
	for _, idx := range bestByItem {
		selected = append(selected, idx)
	}
	sort.Ints(selected)
	return selected, true
}

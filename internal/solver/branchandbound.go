package solver

import (
	"sort"

	"github.com/noah-isme/basket-engine/internal/promotion"
)

// BranchAndBound is the production ILP backend: an exact depth-first
// branch-and-bound over the candidate selection variables. It proves
// optimality; the bound only prunes branches that cannot reach the incumbent.
type BranchAndBound struct{}

// Solve implements Backend.
func (BranchAndBound) Solve(p Problem) (Assignment, error) {
	s := &search{problem: p}
	s.prepare()
	s.dfs(0, 0, nil)
	sort.Ints(s.best)
	return Assignment{Selected: s.best}, nil
}

// budgetState tracks a promotion's residual budget during the search.
// Negative means unlimited.
type budgetState struct {
	applications int64
	monetary     int64
}

type search struct {
	problem Problem

	// order holds candidate indices sorted by savings descending so the
	// suffix-sum bound is tight; ties keep canonical order for determinism.
	order  []int
	suffix []int64

	usedItems map[string]bool
	budgets   map[string]*budgetState
	chosen    []int

	best        []int
	bestSavings int64
	bestSigs    []string
}

func (s *search) prepare() {
	n := len(s.problem.Candidates)
	s.order = make([]int, n)
	for i := range s.order {
		s.order[i] = i
	}
	sort.SliceStable(s.order, func(a, b int) bool {
		ca := s.problem.Candidates[s.order[a]]
		cb := s.problem.Candidates[s.order[b]]
		return ca.Savings().Cmp(cb.Savings()) > 0
	})

	s.suffix = make([]int64, n+1)
	for i := n - 1; i >= 0; i-- {
		s.suffix[i] = s.suffix[i+1] + s.problem.Candidates[s.order[i]].Savings().Amount()
	}

	s.usedItems = make(map[string]bool)
	s.budgets = make(map[string]*budgetState)
	for key, b := range s.problem.Budgets {
		state := &budgetState{applications: -1, monetary: -1}
		if b.Applications != nil {
			state.applications = int64(*b.Applications)
		}
		if b.Monetary != nil {
			state.monetary = b.Monetary.Amount()
		}
		s.budgets[key] = state
	}

	// The empty selection is always feasible; it is the incumbent to beat.
	s.best = nil
	s.bestSavings = 0
	s.bestSigs = nil
}

// dfs explores include/exclude decisions over s.order[pos:]. Branches that
// cannot match the incumbent's savings are pruned; branches that can only
// equal it are still explored so tie-breaking stays exact.
func (s *search) dfs(pos int, savings int64, sigs []string) {
	if savings+s.suffix[pos] < s.bestSavings {
		return
	}
	if pos == len(s.order) {
		s.offer(savings, sigs)
		return
	}
	idx := s.order[pos]
	c := s.problem.Candidates[idx]

	if s.feasible(c) {
		s.apply(c, idx)
		s.dfs(pos+1, savings+c.Savings().Amount(), append(sigs, c.Signature()))
		s.revert(c, idx)
	}
	s.dfs(pos+1, savings, sigs)
}

func (s *search) feasible(c promotion.Candidate) bool {
	for _, key := range c.Members {
		if s.usedItems[key] {
			return false
		}
	}
	if b, ok := s.budgets[c.PromotionKey]; ok {
		if b.applications >= 0 && b.applications < int64(c.RedemptionCost) {
			return false
		}
		if b.monetary >= 0 && b.monetary < c.MonetaryCost.Amount() {
			return false
		}
	}
	return true
}

func (s *search) apply(c promotion.Candidate, idx int) {
	for _, key := range c.Members {
		s.usedItems[key] = true
	}
	if b, ok := s.budgets[c.PromotionKey]; ok {
		if b.applications >= 0 {
			b.applications -= int64(c.RedemptionCost)
		}
		if b.monetary >= 0 {
			b.monetary -= c.MonetaryCost.Amount()
		}
	}
	s.chosen = append(s.chosen, idx)
}

func (s *search) revert(c promotion.Candidate, idx int) {
	for _, key := range c.Members {
		delete(s.usedItems, key)
	}
	if b, ok := s.budgets[c.PromotionKey]; ok {
		if b.applications >= 0 {
			b.applications += int64(c.RedemptionCost)
		}
		if b.monetary >= 0 {
			b.monetary += c.MonetaryCost.Amount()
		}
	}
	s.chosen = s.chosen[:len(s.chosen)-1]
}

// offer installs the current selection as the incumbent when it beats it:
// more savings, or equal savings with fewer candidates, or equal again with a
// lexicographically smaller sorted signature tuple.
func (s *search) offer(savings int64, sigs []string) {
	switch {
	case savings > s.bestSavings:
	case savings < s.bestSavings:
		return
	case s.best == nil && len(s.chosen) == 0:
		// First incumbent at zero savings: keep the empty selection.
		return
	case len(s.chosen) > len(s.best):
		return
	case len(s.chosen) == len(s.best) && !lexLess(sigs, s.bestSigs):
		return
	}
	s.best = append([]int(nil), s.chosen...)
	sortedSigs := append([]string(nil), sigs...)
	sort.Strings(sortedSigs)
	s.bestSigs = sortedSigs
	s.bestSavings = savings
}

// lexLess compares two sorted signature tuples lexicographically.
func lexLess(a, b []string) bool {
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			return as[i] < bs[i]
		}
	}
	return len(as) < len(bs)
}

// Package ilp renders a layer's assignment problem as a human-readable
// mixed-integer program. The export runs alongside the solver and never
// changes the solution.
package ilp

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/noah-isme/basket-engine/internal/solver"
)

// Exporter accumulates one document per process invocation, with layers
// concatenated in traversal order. It implements graph.Observer.
type Exporter struct {
	buf    strings.Builder
	layers int
}

// NewExporter returns an empty exporter.
func NewExporter() *Exporter { return &Exporter{} }

// ObserveLayer appends the layer's integer program to the document.
func (e *Exporter) ObserveLayer(p solver.Problem) {
	if e.layers > 0 {
		e.buf.WriteString("\n")
	}
	e.layers++

	w := &e.buf
	fmt.Fprintf(w, "\\ ===== Layer %q =====\n", p.LayerKey)
	fmt.Fprintf(w, "\\ Minimise the payable layer total over %d items and %d candidates.\n", len(p.Items), len(p.Candidates))
	if subtotal, err := p.Subtotal(); err == nil {
		fmt.Fprintf(w, "\\ Subtotal at layer entry: %s\n", subtotal)
	}
	for i, c := range p.Candidates {
		fmt.Fprintf(w, "\\ x%d = promotion %q bundle %d over [%s], saving %s\n",
			i, c.PromotionKey, c.BundleID, strings.Join(c.Members, " "), c.MonetaryCost)
	}

	e.writeObjective(p)
	e.writeConstraints(p)
	e.writeBinaries(p)
}

// writeObjective renders the payable total: the entry subtotal in minor units
// less each selected candidate's savings.
func (e *Exporter) writeObjective(p solver.Problem) {
	w := &e.buf
	fmt.Fprintf(w, "Minimize\n")
	var subtotal int64
	for _, it := range p.Items {
		subtotal += it.Price.Amount()
	}
	fmt.Fprintf(w, " total: %d", subtotal)
	for i, c := range p.Candidates {
		fmt.Fprintf(w, " - %d x%d", c.MonetaryCost.Amount(), i)
	}
	fmt.Fprintf(w, "\n")
}

func (e *Exporter) writeConstraints(p solver.Problem) {
	w := &e.buf
	fmt.Fprintf(w, "Subject To\n")

	// One application per item per layer.
	itemUses := make(map[string][]int)
	for i, c := range p.Candidates {
		for _, key := range c.Members {
			itemUses[key] = append(itemUses[key], i)
		}
	}
	itemKeys := make([]string, 0, len(itemUses))
	for key := range itemUses {
		itemKeys = append(itemKeys, key)
	}
	sort.Strings(itemKeys)
	for _, key := range itemKeys {
		terms := make([]string, len(itemUses[key]))
		for i, idx := range itemUses[key] {
			terms[i] = fmt.Sprintf("x%d", idx)
		}
		fmt.Fprintf(w, " item_%s: %s <= 1\n", sanitize(key), strings.Join(terms, " + "))
	}

	// Per-promotion budget constraints, where a budget is in play.
	byPromo := make(map[string][]int)
	for i, c := range p.Candidates {
		byPromo[c.PromotionKey] = append(byPromo[c.PromotionKey], i)
	}
	promoKeys := make([]string, 0, len(byPromo))
	for key := range byPromo {
		promoKeys = append(promoKeys, key)
	}
	sort.Strings(promoKeys)
	for _, key := range promoKeys {
		budget := p.Budgets[key]
		if budget.Applications != nil {
			terms := make([]string, 0, len(byPromo[key]))
			for _, idx := range byPromo[key] {
				terms = append(terms, weighted(int64(p.Candidates[idx].RedemptionCost), idx))
			}
			fmt.Fprintf(w, " apps_%s: %s <= %d\n", sanitize(key), strings.Join(terms, " + "), *budget.Applications)
		}
		if budget.Monetary != nil {
			terms := make([]string, 0, len(byPromo[key]))
			for _, idx := range byPromo[key] {
				terms = append(terms, weighted(p.Candidates[idx].MonetaryCost.Amount(), idx))
			}
			fmt.Fprintf(w, " money_%s: %s <= %d\n", sanitize(key), strings.Join(terms, " + "), budget.Monetary.Amount())
		}
	}
}

func (e *Exporter) writeBinaries(p solver.Problem) {
	w := &e.buf
	fmt.Fprintf(w, "Binary\n")
	if len(p.Candidates) == 0 {
		fmt.Fprintf(w, " \\ no candidates; every item stays at full price\n")
		return
	}
	names := make([]string, len(p.Candidates))
	for i := range p.Candidates {
		names[i] = fmt.Sprintf("x%d", i)
	}
	fmt.Fprintf(w, " %s\n", strings.Join(names, " "))
}

// Document returns the export accumulated so far.
func (e *Exporter) Document() string { return e.buf.String() }

// Layers returns how many layers have been observed.
func (e *Exporter) Layers() int { return e.layers }

// WriteFile writes the document to disk.
func (e *Exporter) WriteFile(path string) error {
	return os.WriteFile(path, []byte(e.Document()), 0o644)
}

func weighted(coefficient int64, idx int) string {
	if coefficient == 1 {
		return fmt.Sprintf("x%d", idx)
	}
	return fmt.Sprintf("%d x%d", coefficient, idx)
}

// sanitize keeps constraint names inside the LP identifier alphabet.
func sanitize(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
}

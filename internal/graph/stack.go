package graph

import (
	"errors"
	"fmt"

	"github.com/noah-isme/basket-engine/internal/catalog"
	"github.com/noah-isme/basket-engine/internal/money"
	"github.com/noah-isme/basket-engine/internal/promotion"
	"github.com/noah-isme/basket-engine/internal/receipt"
	"github.com/noah-isme/basket-engine/internal/solver"
)

// ErrNoItems is returned when Process is called with an empty basket.
var ErrNoItems = errors.New("no items provided; cannot determine currency")

// Observer receives each layer's assignment problem as it is solved. The ILP
// exporter hangs off this hook; observers never influence the solution.
type Observer interface {
	ObserveLayer(p solver.Problem)
}

// Stack is the validated, immutable promotion graph. It is freely shareable
// across goroutines; every Process call confines its state to the call.
type Stack struct {
	root    string
	order   []string
	nodes   map[string]Layer
	backend solver.Backend
}

// Root returns the entry layer's key.
func (s *Stack) Root() string { return s.root }

// Layers returns the layer keys in insertion order.
func (s *Stack) Layers() []string { return append([]string(nil), s.order...) }

// Layer returns the named layer.
func (s *Stack) Layer(key string) (Layer, bool) {
	l, ok := s.nodes[key]
	return l, ok
}

// Process routes the items through the graph and returns the receipt.
func (s *Stack) Process(items []catalog.Item) (receipt.Receipt, error) {
	return s.process(items, nil)
}

// ProcessWithObserver behaves like Process while surfacing each layer's
// assignment problem to the observer in traversal order.
func (s *Stack) ProcessWithObserver(items []catalog.Item, obs Observer) (receipt.Receipt, error) {
	return s.process(items, obs)
}

// visit is one traversal step: a layer and the item keys flowing into it.
type visit struct {
	layer string
	items []string
}

func (s *Stack) process(items []catalog.Item, obs Observer) (receipt.Receipt, error) {
	if len(items) == 0 {
		return receipt.Receipt{}, ErrNoItems
	}
	currency := items[0].Price.Currency()
	byKey := make(map[string]catalog.Item, len(items))
	effective := make(map[string]money.Money, len(items))
	keys := make([]string, len(items))
	for i, it := range items {
		if it.Price.Currency() != currency {
			return receipt.Receipt{}, fmt.Errorf("%w: %s vs %s", money.ErrCurrencyMismatch, currency, it.Price.Currency())
		}
		if _, dup := byKey[it.Key]; dup {
			return receipt.Receipt{}, fmt.Errorf("duplicate item key %q", it.Key)
		}
		byKey[it.Key] = it
		effective[it.Key] = it.Price
		keys[i] = it.Key
	}

	tracker := promotion.NewTracker(s.allPromotions())
	builder := receipt.NewBuilder(items)

	queue := []visit{{layer: s.root, items: keys}}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		layer := s.nodes[v.layer]

		participating, err := s.runLayer(layer, v.items, byKey, effective, tracker, builder, obs)
		if err != nil {
			return receipt.Receipt{}, err
		}

		switch layer.Output.Mode {
		case ModeSplit:
			if layer.Output.Participating == layer.Output.NonParticipating {
				queue = append(queue, visit{layer: layer.Output.Participating, items: v.items})
				continue
			}
			var joined, rest []string
			for _, key := range v.items {
				if _, hit := participating[key]; hit {
					joined = append(joined, key)
				} else {
					rest = append(rest, key)
				}
			}
			if len(joined) > 0 {
				queue = append(queue, visit{layer: layer.Output.Participating, items: joined})
			}
			if len(rest) > 0 {
				queue = append(queue, visit{layer: layer.Output.NonParticipating, items: rest})
			}
		default:
			if layer.Output.Next != "" {
				queue = append(queue, visit{layer: layer.Output.Next, items: v.items})
			}
		}
	}

	return builder.Build(effective)
}

// runLayer solves one layer over the given items, commits the selection, and
// returns the set of items that participated.
func (s *Stack) runLayer(
	layer Layer,
	itemKeys []string,
	byKey map[string]catalog.Item,
	effective map[string]money.Money,
	tracker *promotion.Tracker,
	builder *receipt.Builder,
	obs Observer,
) (map[string]struct{}, error) {
	promoItems := make([]promotion.Item, len(itemKeys))
	solverItems := make([]solver.Item, len(itemKeys))
	currency := ""
	for i, key := range itemKeys {
		it := byKey[key]
		price := effective[key]
		promoItems[i] = promotion.Item{Key: key, Price: price, Tags: it.Tags}
		solverItems[i] = solver.Item{Key: key, Price: price}
		currency = price.Currency()
	}

	var candidates []promotion.Candidate
	budgets := make(map[string]promotion.Budget, len(layer.Promotions))
	for _, p := range layer.Promotions {
		cs, err := p.Candidates(promoItems)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", layer.Key, err)
		}
		candidates = append(candidates, cs...)
		budgets[p.Key()] = tracker.Remaining(p.Key())
	}

	problem := solver.NewProblem(layer.Key, currency, solverItems, candidates, budgets)
	if obs != nil {
		obs.ObserveLayer(problem)
	}
	result, err := solver.Solve(problem, s.backend)
	if err != nil {
		return nil, fmt.Errorf("layer %s: %w", layer.Key, err)
	}
	if err := tracker.Commit(result.Selected); err != nil {
		return nil, fmt.Errorf("layer %s: %w", layer.Key, err)
	}

	participating := make(map[string]struct{})
	for _, c := range result.Selected {
		for _, key := range c.Members {
			original := effective[key]
			final := c.FinalPrices[key]
			builder.Add(receipt.Redemption{
				PromotionKey:  c.PromotionKey,
				ItemKey:       key,
				BundleID:      c.BundleID,
				LayerKey:      layer.Key,
				OriginalPrice: original,
				FinalPrice:    final,
			})
			effective[key] = final
			participating[key] = struct{}{}
		}
	}
	return participating, nil
}

func (s *Stack) allPromotions() []promotion.Promotion {
	var out []promotion.Promotion
	for _, key := range s.order {
		out = append(out, s.nodes[key].Promotions...)
	}
	return out
}

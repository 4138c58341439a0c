package fixture

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/noah-isme/basket-engine/internal/catalog"
	"github.com/noah-isme/basket-engine/internal/discount"
	"github.com/noah-isme/basket-engine/internal/graph"
	"github.com/noah-isme/basket-engine/internal/money"
	"github.com/noah-isme/basket-engine/internal/promotion"
	"github.com/noah-isme/basket-engine/internal/tag"
)

// Build assembles and validates the promotion graph the definition describes.
func (d *Definition) Build(logger zerolog.Logger) (*graph.Stack, error) {
	builder := graph.NewStackBuilder().WithLogger(logger)
	built := make(map[string]promotion.Promotion, len(d.Promotions))
	for key, def := range d.Promotions {
		p, err := buildPromotion(key, def)
		if err != nil {
			return nil, err
		}
		built[key] = p
	}
	// Deterministic layer registration: root first, then name order.
	for _, key := range layerOrder(d.Stack) {
		def := d.Stack.Nodes[key]
		promos := make([]promotion.Promotion, 0, len(def.Promotions))
		for _, pk := range def.Promotions {
			p, ok := built[pk]
			if !ok {
				return nil, fmt.Errorf("%w: layer %q references unknown promotion %q", ErrInvalidFixture, key, pk)
			}
			promos = append(promos, p)
		}
		builder.AddLayer(graph.Layer{Key: key, Promotions: promos, Output: buildOutput(def.Output)})
	}
	if d.Stack.Root != "" {
		builder.SetRoot(d.Stack.Root)
	}
	return builder.Build()
}

// Items materialises the declared basket. A non-negative limit truncates.
func (d *Definition) Items(limit int) ([]catalog.Item, error) {
	defs := d.Basket
	if limit >= 0 && limit < len(defs) {
		defs = defs[:limit]
	}
	items := make([]catalog.Item, len(defs))
	for i, def := range defs {
		price, err := money.Parse(def.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: item %q: %v", ErrInvalidFixture, def.Key, err)
		}
		name := def.Name
		if name == "" {
			name = def.Key
		}
		items[i] = catalog.NewItem(def.Key, name, price, def.Tags...)
	}
	return items, nil
}

func layerOrder(s StackDef) []string {
	keys := make([]string, 0, len(s.Nodes))
	if _, ok := s.Nodes[s.Root]; ok {
		keys = append(keys, s.Root)
	}
	rest := make([]string, 0, len(s.Nodes))
	for key := range s.Nodes {
		if key != s.Root {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func buildOutput(def OutputDef) graph.Output {
	switch {
	case def.Split != nil:
		return graph.Split(def.Split.Participating, def.Split.NonParticipating)
	case def.Next != "":
		return graph.PassThroughTo(def.Next)
	default:
		return graph.PassThrough()
	}
}

func buildPromotion(key string, def PromotionDef) (promotion.Promotion, error) {
	budget, err := buildBudget(def.Budget)
	if err != nil {
		return nil, fmt.Errorf("%w: promotion %q: %v", ErrInvalidFixture, key, err)
	}
	switch def.Type {
	case "direct":
		qual, err := buildQualification(def.Qualification, def.Tags)
		if err != nil {
			return nil, fmt.Errorf("%w: promotion %q: %v", ErrInvalidFixture, key, err)
		}
		simple, err := buildSimpleDiscount(def.Discount)
		if err != nil {
			return nil, fmt.Errorf("%w: promotion %q: %v", ErrInvalidFixture, key, err)
		}
		return promotion.NewDirect(key, qual, simple, budget)
	case "positional":
		qual, err := buildQualification(def.Qualification, def.Tags)
		if err != nil {
			return nil, fmt.Errorf("%w: promotion %q: %v", ErrInvalidFixture, key, err)
		}
		simple, err := buildSimpleDiscount(def.Discount)
		if err != nil {
			return nil, fmt.Errorf("%w: promotion %q: %v", ErrInvalidFixture, key, err)
		}
		return promotion.NewPositional(key, qual, def.Size, def.Positions, simple, budget)
	case "mix-and-match":
		slots := make([]promotion.Slot, len(def.Slots))
		for i, s := range def.Slots {
			qual, err := buildQualification(s.Qualification, s.Tags)
			if err != nil {
				return nil, fmt.Errorf("%w: promotion %q slot %q: %v", ErrInvalidFixture, key, s.Key, err)
			}
			slots[i] = promotion.Slot{Key: s.Key, Qualification: qual, Min: s.Min, Max: s.Max}
		}
		bundle, err := buildBundleDiscount(def.Discount)
		if err != nil {
			return nil, fmt.Errorf("%w: promotion %q: %v", ErrInvalidFixture, key, err)
		}
		return promotion.NewMixAndMatch(key, slots, bundle, budget)
	case "tiered-threshold":
		tiers := make([]promotion.Tier, len(def.Tiers))
		for i, t := range def.Tiers {
			tier, err := buildTier(t)
			if err != nil {
				return nil, fmt.Errorf("%w: promotion %q tier %d: %v", ErrInvalidFixture, key, i, err)
			}
			tiers[i] = tier
		}
		return promotion.NewTieredThreshold(key, tiers, budget)
	default:
		return nil, fmt.Errorf("%w: promotion %q has unknown type %q", ErrInvalidFixture, key, def.Type)
	}
}

func buildTier(def TierDef) (promotion.Tier, error) {
	lower, err := buildThreshold(def.Lower)
	if err != nil {
		return promotion.Tier{}, err
	}
	var upper *promotion.Threshold
	if def.Upper != nil {
		u, err := buildThreshold(*def.Upper)
		if err != nil {
			return promotion.Tier{}, err
		}
		upper = &u
	}
	contributes, err := buildQualification(def.Contributes, nil)
	if err != nil {
		return promotion.Tier{}, err
	}
	discounts, err := buildQualification(def.Discounts, nil)
	if err != nil {
		return promotion.Tier{}, err
	}
	bundle, err := buildBundleDiscount(def.Discount)
	if err != nil {
		return promotion.Tier{}, err
	}
	return promotion.Tier{
		Lower:        lower,
		Upper:        upper,
		Contribution: contributes,
		Discountable: discounts,
		Discount:     bundle,
	}, nil
}

func buildThreshold(def ThresholdDef) (promotion.Threshold, error) {
	var t promotion.Threshold
	if def.Monetary != "" {
		m, err := money.Parse(def.Monetary)
		if err != nil {
			return promotion.Threshold{}, err
		}
		t.Monetary = &m
	}
	t.ItemCount = def.ItemCount
	return t, nil
}

func buildBudget(def *BudgetDef) (promotion.Budget, error) {
	if def == nil {
		return promotion.Unlimited(), nil
	}
	b := promotion.Budget{Applications: def.Applications}
	if def.Monetary != "" {
		m, err := money.Parse(def.Monetary)
		if err != nil {
			return promotion.Budget{}, err
		}
		b.Monetary = &m
	}
	return b, nil
}

// buildQualification resolves the qualification block, with the tags list as
// sugar for a single has-any rule. Neither present means match-all.
func buildQualification(def *QualificationDef, tags []string) (tag.Qualification, error) {
	if def == nil {
		if len(tags) > 0 {
			return tag.MatchAny(tags...), nil
		}
		return tag.MatchAll(), nil
	}
	if len(tags) > 0 {
		return tag.Qualification{}, fmt.Errorf("tags and qualification are mutually exclusive")
	}
	return buildQualNode(*def)
}

func buildQualNode(def QualificationDef) (tag.Qualification, error) {
	if len(def.All) > 0 && len(def.Any) > 0 {
		return tag.Qualification{}, fmt.Errorf("qualification node cannot have both all and any")
	}
	op := tag.OpAnd
	ruleDefs := def.All
	if len(def.Any) > 0 {
		op = tag.OpOr
		ruleDefs = def.Any
	}
	rules := make([]tag.Rule, 0, len(ruleDefs))
	for _, rd := range ruleDefs {
		rule, err := buildRule(rd)
		if err != nil {
			return tag.Qualification{}, err
		}
		rules = append(rules, rule)
	}
	return tag.New(op, rules...), nil
}

func buildRule(def RuleDef) (tag.Rule, error) {
	set := 0
	var rule tag.Rule
	if len(def.HasAll) > 0 {
		set++
		rule = tag.HasAll(def.HasAll...)
	}
	if len(def.HasAny) > 0 {
		set++
		rule = tag.HasAny(def.HasAny...)
	}
	if len(def.HasNone) > 0 {
		set++
		rule = tag.HasNone(def.HasNone...)
	}
	if def.Group != nil {
		set++
		nested, err := buildQualNode(*def.Group)
		if err != nil {
			return nil, err
		}
		rule = tag.Group(nested)
	}
	if set != 1 {
		return nil, fmt.Errorf("rule must set exactly one of has-all, has-any, has-none, group")
	}
	return rule, nil
}

func buildSimpleDiscount(def *DiscountDef) (discount.Simple, error) {
	if def == nil {
		return nil, fmt.Errorf("discount is required")
	}
	switch {
	case def.PercentOff != "":
		p, err := money.ParsePercentage(def.PercentOff)
		if err != nil {
			return nil, err
		}
		return discount.NewPercentageOff(p), nil
	case def.AmountOverride != "":
		m, err := money.Parse(def.AmountOverride)
		if err != nil {
			return nil, err
		}
		return discount.NewAmountOverride(m)
	case def.AmountOff != "":
		m, err := money.Parse(def.AmountOff)
		if err != nil {
			return nil, err
		}
		return discount.NewAmountOff(m)
	default:
		return nil, fmt.Errorf("discount must set one of percent-off, amount-override, amount-off")
	}
}

func buildBundleDiscount(def *DiscountDef) (discount.Bundle, error) {
	if def == nil {
		return nil, fmt.Errorf("discount is required")
	}
	switch {
	case def.PercentEachItem != "":
		p, err := money.ParsePercentage(def.PercentEachItem)
		if err != nil {
			return nil, err
		}
		return discount.NewPercentEachItem(p), nil
	case def.AmountOffEachItem != "":
		m, err := money.Parse(def.AmountOffEachItem)
		if err != nil {
			return nil, err
		}
		return discount.NewAmountOffEachItem(m)
	case def.PercentOffTotal != "":
		p, err := money.ParsePercentage(def.PercentOffTotal)
		if err != nil {
			return nil, err
		}
		return discount.NewPercentOffTotal(p), nil
	case def.AmountOffTotal != "":
		m, err := money.Parse(def.AmountOffTotal)
		if err != nil {
			return nil, err
		}
		return discount.NewAmountOffTotal(m)
	case def.FixedTotal != "":
		m, err := money.Parse(def.FixedTotal)
		if err != nil {
			return nil, err
		}
		return discount.NewFixedTotal(m)
	default:
		return nil, fmt.Errorf("discount must set one of percent-each-item, amount-off-each-item, percent-off-total, amount-off-total, fixed-total")
	}
}

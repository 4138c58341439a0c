package solver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/basket-engine/internal/discount"
	"github.com/noah-isme/basket-engine/internal/money"
	"github.com/noah-isme/basket-engine/internal/promotion"
	"github.com/noah-isme/basket-engine/internal/tag"
)

func gbp(amount int64) money.Money { return money.MustNew(amount, "GBP") }

func pitem(key string, pence int64, tags ...string) promotion.Item {
	return promotion.Item{Key: key, Price: gbp(pence), Tags: tag.NewSet(tags...)}
}

func sitems(items []promotion.Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{Key: it.Key, Price: it.Price}
	}
	return out
}

func directPromo(t *testing.T, key, tagName, percent string, budget promotion.Budget) promotion.Promotion {
	t.Helper()
	p, err := promotion.NewDirect(key, tag.MatchAny(tagName), discount.NewPercentageOff(money.MustParsePercentage(percent)), budget)
	require.NoError(t, err)
	return p
}

func solveLayer(t *testing.T, items []promotion.Item, promos []promotion.Promotion) Result {
	t.Helper()
	tracker := promotion.NewTracker(promos)
	var candidates []promotion.Candidate
	budgets := make(map[string]promotion.Budget, len(promos))
	for _, p := range promos {
		cs, err := p.Candidates(items)
		require.NoError(t, err)
		candidates = append(candidates, cs...)
		budgets[p.Key()] = tracker.Remaining(p.Key())
	}
	problem := NewProblem("layer", "GBP", sitems(items), candidates, budgets)
	result, err := Solve(problem, BranchAndBound{})
	require.NoError(t, err)
	return result
}

func TestEmptyLayerSolvesToSubtotal(t *testing.T) {
	items := []promotion.Item{pitem("a", 100), pitem("b", 200)}
	result := solveLayer(t, items, nil)
	require.Empty(t, result.Selected)
	require.Equal(t, int64(300), result.Total.Amount())
}

func TestBestOfTwoDirectPromotions(t *testing.T) {
	// Snack qualifies for both 20% and 40%; the solver must give it the 40%
	// and leave the 20% for the drink.
	items := []promotion.Item{
		pitem("sandwich", 299),
		pitem("drink", 129, "20-off"),
		pitem("snack", 79, "20-off", "40-off"),
	}
	promos := []promotion.Promotion{
		directPromo(t, "20-off", "20-off", "20%", promotion.Unlimited()),
		directPromo(t, "40-off", "40-off", "40%", promotion.Unlimited()),
	}
	result := solveLayer(t, items, promos)
	require.Len(t, result.Selected, 2)
	require.Equal(t, int64(449), result.Total.Amount())

	byItem := map[string]string{}
	for _, c := range result.Selected {
		byItem[c.Members[0]] = c.PromotionKey
	}
	require.Equal(t, "20-off", byItem["drink"])
	require.Equal(t, "40-off", byItem["snack"])
}

func TestFastPathMatchesBranchAndBound(t *testing.T) {
	items := []promotion.Item{
		pitem("a", 500, "x"),
		pitem("b", 300, "x", "y"),
	}
	promos := []promotion.Promotion{
		directPromo(t, "x-10", "x", "10%", promotion.Unlimited()),
		directPromo(t, "y-25", "y", "25%", promotion.Unlimited()),
	}
	tracker := promotion.NewTracker(promos)
	var candidates []promotion.Candidate
	budgets := map[string]promotion.Budget{}
	for _, p := range promos {
		cs, err := p.Candidates(items)
		require.NoError(t, err)
		candidates = append(candidates, cs...)
		budgets[p.Key()] = tracker.Remaining(p.Key())
	}
	problem := NewProblem("layer", "GBP", sitems(items), candidates, budgets)

	selected, ok := directFastPath(problem)
	require.True(t, ok, "all-direct unbudgeted layer should take the fast path")

	viaBackend, err := BranchAndBound{}.Solve(problem)
	require.NoError(t, err)
	require.Equal(t, viaBackend.Selected, selected)
}

func TestBudgetDisablesFastPath(t *testing.T) {
	items := []promotion.Item{pitem("a", 500, "x")}
	promos := []promotion.Promotion{directPromo(t, "x-10", "x", "10%", promotion.WithApplications(1))}
	tracker := promotion.NewTracker(promos)
	cs, err := promos[0].Candidates(items)
	require.NoError(t, err)
	problem := NewProblem("layer", "GBP", sitems(items), cs, map[string]promotion.Budget{
		"x-10": tracker.Remaining("x-10"),
	})
	_, ok := directFastPath(problem)
	require.False(t, ok)
}

func TestApplicationBudgetConstrainsSelection(t *testing.T) {
	// Six snacks with a BOGOF capped at two applications: the two bundles form
	// from the four most expensive items and the cheap pair stays full price.
	items := []promotion.Item{
		pitem("s1", 80, "snack"),
		pitem("s2", 250, "snack"),
		pitem("s3", 120, "snack"),
		pitem("s4", 80, "snack"),
		pitem("s5", 250, "snack"),
		pitem("s6", 120, "snack"),
	}
	bogof, err := promotion.NewPositional(
		"bogof",
		tag.MatchAny("snack"),
		2,
		[]uint32{1},
		discount.NewPercentageOff(money.MustParsePercentage("100%")),
		promotion.WithApplications(2),
	)
	require.NoError(t, err)

	result := solveLayer(t, items, []promotion.Promotion{bogof})
	require.Len(t, result.Selected, 2)
	// Subtotal 900; best two bundles pair the 250s and the 120s, freeing one of each.
	require.Equal(t, int64(900-250-120), result.Total.Amount())
}

func TestMonetaryBudgetConstrainsSelection(t *testing.T) {
	items := []promotion.Item{
		pitem("a", 1000, "half"),
		pitem("b", 1000, "half"),
		pitem("c", 1000, "half"),
	}
	half, err := promotion.NewDirect(
		"half",
		tag.MatchAny("half"),
		discount.NewPercentageOff(money.MustParsePercentage("50%")),
		promotion.WithMonetary(gbp(1000)),
	)
	require.NoError(t, err)

	result := solveLayer(t, items, []promotion.Promotion{half})
	// Each application saves 500; the £10 cap admits only two of three.
	require.Len(t, result.Selected, 2)
	require.Equal(t, int64(2000), result.Total.Amount())
}

func TestInfeasibleBudgetYieldsEmptyAssignment(t *testing.T) {
	items := []promotion.Item{pitem("a", 1000, "half")}
	half, err := promotion.NewDirect(
		"half",
		tag.MatchAny("half"),
		discount.NewPercentageOff(money.MustParsePercentage("50%")),
		promotion.WithMonetary(gbp(100)),
	)
	require.NoError(t, err)

	result := solveLayer(t, items, []promotion.Promotion{half})
	require.Empty(t, result.Selected, "a saving above the monetary cap is not selectable")
	require.Equal(t, int64(1000), result.Total.Amount())
}

func TestGlobalSwapPrefersBundleOverGreedyDirect(t *testing.T) {
	// Shampoo, conditioner, shower gel, body wash: a greedy 15% on everything
	// loses to moving three items into the 3-for-2 bundle.
	items := []promotion.Item{
		pitem("shampoo", 450, "haircare", "toiletries"),
		pitem("conditioner", 400, "haircare", "toiletries"),
		pitem("shower-gel", 100, "haircare", "toiletries"),
		pitem("body-wash", 300, "haircare", "toiletries"),
	}
	fifteen := directPromo(t, "15-off", "toiletries", "15%", promotion.Unlimited())
	threeForTwo, err := promotion.NewPositional(
		"3-for-2",
		tag.MatchAny("haircare"),
		3,
		[]uint32{2},
		discount.NewPercentageOff(money.MustParsePercentage("100%")),
		promotion.Unlimited(),
	)
	require.NoError(t, err)

	result := solveLayer(t, items, []promotion.Promotion{fifteen, threeForTwo})
	// Bundle {shampoo, conditioner, body-wash} frees the body wash (300);
	// shower gel takes 15% off (15). Total 1250 - 315 = 935.
	require.Equal(t, int64(935), result.Total.Amount())

	var bundle promotion.Candidate
	var foundBundle bool
	for _, c := range result.Selected {
		if c.PromotionKey == "3-for-2" {
			bundle = c
			foundBundle = true
		}
	}
	require.True(t, foundBundle)
	require.ElementsMatch(t, []string{"shampoo", "conditioner", "body-wash"}, bundle.Members)
	require.Equal(t, int64(0), bundle.FinalPrices["body-wash"].Amount())
}

func TestDeterministicTieBreak(t *testing.T) {
	// Two promotions offer the identical saving on the same item; the solver
	// must always pick the lexicographically smaller signature.
	items := []promotion.Item{pitem("a", 100, "x")}
	promos := []promotion.Promotion{
		directPromo(t, "promo-b", "x", "50%", promotion.WithApplications(5)),
		directPromo(t, "promo-a", "x", "50%", promotion.WithApplications(5)),
	}
	for range 10 {
		result := solveLayer(t, items, promos)
		require.Len(t, result.Selected, 1)
		require.Equal(t, "promo-a", result.Selected[0].PromotionKey)
	}
}

func TestSolverErrorKind(t *testing.T) {
	// A multi-member candidate keeps the layer off the fast path so the
	// failing backend is actually exercised.
	bundle := promotion.Candidate{
		PromotionKey:   "pair",
		Members:        []string{"a", "b"},
		FinalPrices:    map[string]money.Money{"a": gbp(50), "b": gbp(50)},
		RedemptionCost: 1,
		MonetaryCost:   gbp(100),
	}
	problem := NewProblem("layer", "GBP", []Item{{Key: "a", Price: gbp(100)}, {Key: "b", Price: gbp(100)}}, []promotion.Candidate{bundle}, nil)
	_, err := Solve(problem, failingBackend{})
	require.True(t, errors.Is(err, ErrSolver))
}

type failingBackend struct{}

func (failingBackend) Solve(Problem) (Assignment, error) {
	return Assignment{}, errors.New("backend exploded")
}

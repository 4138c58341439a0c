package promotion

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/basket-engine/internal/discount"
	"github.com/noah-isme/basket-engine/internal/money"
	"github.com/noah-isme/basket-engine/internal/tag"
)

func item(key string, pence int64, tags ...string) Item {
	return Item{Key: key, Price: money.MustNew(pence, "GBP"), Tags: tag.NewSet(tags...)}
}

func percentOff(s string) discount.Simple {
	return discount.NewPercentageOff(money.MustParsePercentage(s))
}

func TestDirectCandidatesOnePerQualifyingItem(t *testing.T) {
	p, err := NewDirect("20-off", tag.MatchAny("20-off"), percentOff("20%"), Unlimited())
	require.NoError(t, err)

	items := []Item{
		item("sandwich", 299),
		item("drink", 129, "20-off"),
		item("snack", 79, "20-off"),
	}
	candidates, err := p.Candidates(items)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	for _, c := range candidates {
		require.Equal(t, "20-off", c.PromotionKey)
		require.Len(t, c.Members, 1)
		require.Equal(t, uint32(1), c.RedemptionCost)
	}
	// Enumeration is key ordered: drink before snack.
	require.Equal(t, []string{"drink"}, candidates[0].Members)
	require.Equal(t, int64(103), candidates[0].FinalPrices["drink"].Amount())
	require.Equal(t, int64(26), candidates[0].MonetaryCost.Amount())
	require.Equal(t, []string{"snack"}, candidates[1].Members)
	require.Equal(t, int64(63), candidates[1].FinalPrices["snack"].Amount())
}

func TestDirectSkipsZeroSavings(t *testing.T) {
	override, err := discount.NewAmountOverride(money.MustNew(100, "GBP"))
	require.NoError(t, err)
	p, err := NewDirect("pin-price", tag.MatchAll(), override, Unlimited())
	require.NoError(t, err)

	candidates, err := p.Candidates([]Item{item("a", 100)})
	require.NoError(t, err)
	require.Empty(t, candidates, "a no-op application should not reach the solver")
}

func TestPositionalBundlesEveryCombination(t *testing.T) {
	p, err := NewPositional("3-for-2", tag.MatchAny("3-for-2"), 3, []uint32{2}, percentOff("100%"), Unlimited())
	require.NoError(t, err)

	items := []Item{
		item("a", 450, "3-for-2"),
		item("b", 199, "3-for-2"),
		item("c", 1285, "3-for-2"),
		item("d", 300, "3-for-2"),
	}
	candidates, err := p.Candidates(items)
	require.NoError(t, err)
	// C(4,3) combinations.
	require.Len(t, candidates, 4)

	// In the a/b/c bundle the price-descending order is c, a, b; position 2 is b.
	var found bool
	for _, c := range candidates {
		if c.Signature() == "3-for-2|a,b,c" {
			found = true
			require.Equal(t, int64(0), c.FinalPrices["b"].Amount())
			require.Equal(t, int64(450), c.FinalPrices["a"].Amount())
			require.Equal(t, int64(1285), c.FinalPrices["c"].Amount())
			require.Equal(t, int64(199), c.MonetaryCost.Amount())
		}
	}
	require.True(t, found, "expected a bundle over items a, b, c")
}

func TestPositionalTooFewItems(t *testing.T) {
	p, err := NewPositional("3-for-2", tag.MatchAll(), 3, []uint32{2}, percentOff("100%"), Unlimited())
	require.NoError(t, err)
	candidates, err := p.Candidates([]Item{item("a", 100), item("b", 100)})
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestPositionalValidation(t *testing.T) {
	_, err := NewPositional("p", tag.MatchAll(), 0, []uint32{0}, percentOff("10%"), Unlimited())
	require.ErrorIs(t, err, ErrInvalidPromotion)

	_, err = NewPositional("p", tag.MatchAll(), 2, []uint32{2}, percentOff("10%"), Unlimited())
	require.ErrorIs(t, err, ErrInvalidPromotion, "position must lie inside the bundle")

	_, err = NewPositional("p", tag.MatchAll(), 2, nil, percentOff("10%"), Unlimited())
	require.ErrorIs(t, err, ErrInvalidPromotion)
}

func TestPositionalTieBreakIsLexicographic(t *testing.T) {
	p, err := NewPositional("bogof", tag.MatchAll(), 2, []uint32{1}, percentOff("100%"), Unlimited())
	require.NoError(t, err)

	// Equal prices: descending sort must fall back to key order, so "a" holds
	// position 0 and "b" is discounted.
	candidates, err := p.Candidates([]Item{item("b", 100), item("a", 100)})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, int64(100), candidates[0].FinalPrices["a"].Amount())
	require.Equal(t, int64(0), candidates[0].FinalPrices["b"].Amount())
}

func TestMixAndMatchFillsSlotsWithDistinctItems(t *testing.T) {
	fixed, err := discount.NewFixedTotal(money.MustNew(500, "GBP"))
	require.NoError(t, err)
	p, err := NewMixAndMatch("meal-deal", []Slot{
		{Key: "main", Qualification: tag.MatchAny("main"), Min: 1, Max: 1},
		{Key: "side", Qualification: tag.MatchAny("side"), Min: 1, Max: 1},
	}, fixed, Unlimited())
	require.NoError(t, err)

	items := []Item{
		item("burger", 450, "main"),
		item("wrap", 400, "main"),
		item("fries", 150, "side"),
	}
	candidates, err := p.Candidates(items)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	for _, c := range candidates {
		require.Len(t, c.Members, 2)
		sum := int64(0)
		for _, k := range c.Members {
			sum += c.FinalPrices[k].Amount()
		}
		require.Equal(t, int64(500), sum, "fixed-total bundle must sum exactly")
	}
}

func TestMixAndMatchItemUsedInOneSlotOnly(t *testing.T) {
	half := discount.NewPercentEachItem(money.MustParsePercentage("50%"))
	p, err := NewMixAndMatch("pair", []Slot{
		{Key: "first", Qualification: tag.MatchAll(), Min: 1, Max: 1},
		{Key: "second", Qualification: tag.MatchAll(), Min: 1, Max: 1},
	}, half, Unlimited())
	require.NoError(t, err)

	candidates, err := p.Candidates([]Item{item("only", 100)})
	require.NoError(t, err)
	require.Empty(t, candidates, "one item cannot fill two mandatory slots")
}

func TestMixAndMatchOptionalSlot(t *testing.T) {
	half := discount.NewPercentEachItem(money.MustParsePercentage("50%"))
	p, err := NewMixAndMatch("solo", []Slot{
		{Key: "need", Qualification: tag.MatchAny("x"), Min: 1, Max: 1},
		{Key: "maybe", Qualification: tag.MatchAny("y"), Min: 0, Max: 1},
	}, half, Unlimited())
	require.NoError(t, err)

	candidates, err := p.Candidates([]Item{item("a", 100, "x")})
	require.NoError(t, err)
	require.Len(t, candidates, 1, "empty optional slot still forms a bundle")
	require.Equal(t, []string{"a"}, candidates[0].Members)
}

func TestMixAndMatchValidation(t *testing.T) {
	half := discount.NewPercentEachItem(money.MustParsePercentage("50%"))
	_, err := NewMixAndMatch("m", nil, half, Unlimited())
	require.ErrorIs(t, err, ErrInvalidPromotion)

	_, err = NewMixAndMatch("m", []Slot{{Key: "s", Min: 2, Max: 1}}, half, Unlimited())
	require.ErrorIs(t, err, ErrInvalidPromotion)

	_, err = NewMixAndMatch("m", []Slot{{Key: "s", Min: 0, Max: 0}}, half, Unlimited())
	require.ErrorIs(t, err, ErrInvalidPromotion)

	_, err = NewMixAndMatch("m", []Slot{{Key: "s", Max: 1}, {Key: "s", Max: 1}}, half, Unlimited())
	require.ErrorIs(t, err, ErrInvalidPromotion)
}

func TestTieredThresholdCapsMass(t *testing.T) {
	upper := money.MustParse("80.00 GBP")
	lower := money.MustParse("80.00 GBP")
	p, err := NewTieredThreshold("spend-more", []Tier{{
		Lower:        Threshold{Monetary: &lower},
		Upper:        &Threshold{Monetary: &upper},
		Contribution: tag.MatchAll(),
		Discountable: tag.MatchAll(),
		Discount:     discount.NewPercentEachItem(money.MustParsePercentage("30%")),
	}}, Unlimited())
	require.NoError(t, err)

	items := make([]Item, 10)
	for i := range items {
		items[i] = item(string(rune('a'+i)), 1000)
	}
	candidates, err := p.Candidates(items)
	require.NoError(t, err)
	require.Len(t, candidates, 1, "two remaining items cannot reach the lower threshold again")
	require.Len(t, candidates[0].Members, 8, "upper threshold caps the instance at £80 of mass")
	require.Equal(t, int64(8*300), candidates[0].MonetaryCost.Amount())
	for _, k := range candidates[0].Members {
		require.Equal(t, int64(700), candidates[0].FinalPrices[k].Amount())
	}
}

func TestTieredThresholdRepeatsDisjointInstances(t *testing.T) {
	three := uint32(3)
	p, err := NewTieredThreshold("bulk", []Tier{{
		Lower:        Threshold{ItemCount: &three},
		Upper:        &Threshold{ItemCount: &three},
		Contribution: tag.MatchAll(),
		Discountable: tag.MatchAll(),
		Discount:     discount.NewPercentEachItem(money.MustParsePercentage("10%")),
	}}, Unlimited())
	require.NoError(t, err)

	items := []Item{
		item("a", 100), item("b", 100), item("c", 100),
		item("d", 100), item("e", 100), item("f", 100),
		item("g", 100),
	}
	candidates, err := p.Candidates(items)
	require.NoError(t, err)
	require.Len(t, candidates, 2, "six of seven items split into two instances")
	require.NotEqual(t, candidates[0].BundleID, candidates[1].BundleID)

	claimed := map[string]int{}
	for _, c := range candidates {
		for _, k := range c.Members {
			claimed[k]++
		}
	}
	for k, n := range claimed {
		require.Equal(t, 1, n, "item %s claimed by %d instances of the same tier", k, n)
	}
}

func TestTieredThresholdBothDimensionsMustBeMet(t *testing.T) {
	lowerMoney := money.MustParse("5.00 GBP")
	lowerCount := uint32(3)
	p, err := NewTieredThreshold("combo", []Tier{{
		Lower:        Threshold{Monetary: &lowerMoney, ItemCount: &lowerCount},
		Contribution: tag.MatchAll(),
		Discountable: tag.MatchAll(),
		Discount:     discount.NewPercentEachItem(money.MustParsePercentage("10%")),
	}}, Unlimited())
	require.NoError(t, err)

	// £6 of mass but only two items: the count dimension fails.
	candidates, err := p.Candidates([]Item{item("a", 300), item("b", 300)})
	require.NoError(t, err)
	require.Empty(t, candidates)

	// Three items and enough mass: both dimensions hold.
	candidates, err = p.Candidates([]Item{item("a", 300), item("b", 300), item("c", 300)})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
}

func TestTieredThresholdValidation(t *testing.T) {
	_, err := NewTieredThreshold("t", nil, Unlimited())
	require.ErrorIs(t, err, ErrInvalidPromotion)

	_, err = NewTieredThreshold("t", []Tier{{
		Contribution: tag.MatchAll(),
		Discountable: tag.MatchAll(),
		Discount:     discount.NewPercentEachItem(money.MustParsePercentage("10%")),
	}}, Unlimited())
	require.ErrorIs(t, err, ErrInvalidPromotion, "lower threshold needs a dimension")
}

func TestTrackerCommitDecrements(t *testing.T) {
	p, err := NewDirect("capped", tag.MatchAll(), percentOff("50%"), WithBoth(2, money.MustNew(500, "GBP")))
	require.NoError(t, err)

	tracker := NewTracker([]Promotion{p})
	b := tracker.Remaining("capped")
	require.NotNil(t, b.Applications)
	require.Equal(t, uint32(2), *b.Applications)

	candidates, err := p.Candidates([]Item{item("a", 400), item("b", 600)})
	require.NoError(t, err)
	require.NoError(t, tracker.Commit(candidates))

	b = tracker.Remaining("capped")
	require.Equal(t, uint32(0), *b.Applications)
	require.Equal(t, int64(0), b.Monetary.Amount())

	// The configured budget on the promotion must be untouched.
	require.Equal(t, uint32(2), *p.Budget().Applications)
}

func TestTrackerOverdraftFails(t *testing.T) {
	p, err := NewDirect("tight", tag.MatchAll(), percentOff("50%"), WithApplications(1))
	require.NoError(t, err)

	tracker := NewTracker([]Promotion{p})
	candidates, err := p.Candidates([]Item{item("a", 400), item("b", 600)})
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	err = tracker.Commit(candidates)
	require.True(t, errors.Is(err, ErrBudgetExceeded))
}

func TestTrackerUnknownPromotionIsUnlimited(t *testing.T) {
	tracker := NewTracker(nil)
	require.False(t, tracker.Remaining("anything").Constrained())
}

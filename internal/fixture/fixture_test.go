package fixture

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/basket-engine/internal/receipt"
)

func processSet(t *testing.T, name string) receipt.Receipt {
	t.Helper()
	def, err := Load(name)
	require.NoError(t, err)
	stack, err := def.Build(zerolog.Nop())
	require.NoError(t, err)
	items, err := def.Items(-1)
	require.NoError(t, err)
	r, err := stack.Process(items)
	require.NoError(t, err)
	return r
}

func TestNamesListsEmbeddedSets(t *testing.T) {
	names := Names()
	require.Contains(t, names, "simple")
	require.Contains(t, names, "complex")
	require.Contains(t, names, "three-for-two")
	require.Contains(t, names, "meal-deal")
	require.Contains(t, names, "tiered")
	require.Contains(t, names, "layered")
}

func TestLoadUnknownSet(t *testing.T) {
	_, err := Load("does-not-exist")
	require.ErrorIs(t, err, ErrInvalidFixture)
}

func TestSimpleSet(t *testing.T) {
	r := processSet(t, "simple")
	require.Equal(t, "5.07 GBP", r.Subtotal.String())
	require.Equal(t, "4.49 GBP", r.Total.String())
}

func TestThreeForTwoSet(t *testing.T) {
	r := processSet(t, "three-for-two")
	require.Equal(t, "17.35 GBP", r.Total.String())
}

func TestComplexSet(t *testing.T) {
	r := processSet(t, "complex")
	require.Equal(t, "9.35 GBP", r.Total.String())
}

func TestMealDealSet(t *testing.T) {
	// The solver puts the pricier main into the bundle: burger, fries and cola
	// for £5.00 and the wrap at full price.
	r := processSet(t, "meal-deal")
	require.Equal(t, "11.40 GBP", r.Subtotal.String())
	require.Equal(t, "8.80 GBP", r.Total.String())
}

func TestTieredSet(t *testing.T) {
	r := processSet(t, "tiered")
	require.Equal(t, "100.00 GBP", r.Subtotal.String())
	require.Equal(t, "76.00 GBP", r.Total.String())
}

func TestLayeredSet(t *testing.T) {
	r := processSet(t, "layered")
	require.Equal(t, "74.88 GBP", r.Total.String())
	require.Len(t, r.Redemptions, 2)
}

func TestBasketLimit(t *testing.T) {
	def, err := Load("simple")
	require.NoError(t, err)
	items, err := def.Items(2)
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestMarshalRoundTrip(t *testing.T) {
	for _, name := range Names() {
		def, err := Load(name)
		require.NoError(t, err, name)

		data, err := Marshal(def)
		require.NoError(t, err, name)

		reparsed, err := Parse(data)
		require.NoError(t, err, name)

		stack, err := def.Build(zerolog.Nop())
		require.NoError(t, err, name)
		restack, err := reparsed.Build(zerolog.Nop())
		require.NoError(t, err, name)

		items, err := def.Items(-1)
		require.NoError(t, err, name)
		reitems, err := reparsed.Items(-1)
		require.NoError(t, err, name)

		want, err := stack.Process(items)
		require.NoError(t, err, name)
		got, err := restack.Process(reitems)
		require.NoError(t, err, name)
		require.Equal(t, want, got, "round-tripped %s must price identically", name)
	}
}

func TestParseRejectsUnknownOutput(t *testing.T) {
	_, err := Parse([]byte(`
stack:
  root: main
  nodes:
    main:
      output: sideways
`))
	require.ErrorIs(t, err, ErrInvalidFixture)
}

func TestParseSplitOutput(t *testing.T) {
	def, err := Parse([]byte(`
stack:
  root: gate
  nodes:
    gate:
      output:
        split:
          participating: a
          non-participating: b
    a:
      output: pass-through
    b:
      output: pass-through
promotions: {}
`))
	require.NoError(t, err)
	stack, err := def.Build(zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "gate", stack.Root())
}

func TestBuildRejectsUnknownPromotionReference(t *testing.T) {
	def, err := Parse([]byte(`
stack:
  root: main
  nodes:
    main:
      promotions: [ghost]
      output: pass-through
promotions: {}
`))
	require.NoError(t, err)
	_, err = def.Build(zerolog.Nop())
	require.ErrorIs(t, err, ErrInvalidFixture)
}

func TestBuildRejectsUnknownPromotionType(t *testing.T) {
	def, err := Parse([]byte(`
stack:
  root: main
  nodes:
    main:
      promotions: [odd]
      output: pass-through
promotions:
  odd:
    type: mystery
`))
	require.NoError(t, err)
	_, err = def.Build(zerolog.Nop())
	require.ErrorIs(t, err, ErrInvalidFixture)
}

func TestQualificationBlock(t *testing.T) {
	def, err := Parse([]byte(`
stack:
  root: main
  nodes:
    main:
      promotions: [picky]
      output: pass-through
promotions:
  picky:
    type: direct
    qualification:
      all:
        - has-all: [fresh, local]
        - has-none: [clearance]
    discount:
      percent-off: "10%"
basket:
  - key: apple
    price: "0.50 GBP"
    tags: [fresh, local]
  - key: old-bread
    price: "0.80 GBP"
    tags: [fresh, local, clearance]
`))
	require.NoError(t, err)
	stack, err := def.Build(zerolog.Nop())
	require.NoError(t, err)
	items, err := def.Items(-1)
	require.NoError(t, err)
	r, err := stack.Process(items)
	require.NoError(t, err)
	require.Len(t, r.Redemptions, 1)
	require.Equal(t, "apple", r.Redemptions[0].ItemKey)
}

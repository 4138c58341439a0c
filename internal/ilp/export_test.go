package ilp_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/basket-engine/internal/catalog"
	"github.com/noah-isme/basket-engine/internal/discount"
	"github.com/noah-isme/basket-engine/internal/graph"
	"github.com/noah-isme/basket-engine/internal/ilp"
	"github.com/noah-isme/basket-engine/internal/money"
	"github.com/noah-isme/basket-engine/internal/promotion"
	"github.com/noah-isme/basket-engine/internal/tag"
)

func TestExportSingleLayer(t *testing.T) {
	twenty, err := promotion.NewDirect(
		"20-off",
		tag.MatchAny("20-off"),
		discount.NewPercentageOff(money.MustParsePercentage("20%")),
		promotion.WithBoth(2, money.MustParse("5.00 GBP")),
	)
	require.NoError(t, err)

	stack, err := graph.NewStackBuilder().
		AddLayer(graph.Layer{Key: "main", Promotions: []promotion.Promotion{twenty}, Output: graph.PassThrough()}).
		SetRoot("main").
		Build()
	require.NoError(t, err)

	exporter := ilp.NewExporter()
	_, err = stack.ProcessWithObserver([]catalog.Item{
		catalog.NewItem("drink", "Drink", money.MustParse("1.29 GBP"), "20-off"),
		catalog.NewItem("snack", "Snack", money.MustParse("0.79 GBP"), "20-off"),
	}, exporter)
	require.NoError(t, err)

	doc := exporter.Document()
	require.Equal(t, 1, exporter.Layers())
	require.Contains(t, doc, `\ ===== Layer "main" =====`)
	require.Contains(t, doc, "Minimize")
	require.Contains(t, doc, "Subject To")
	require.Contains(t, doc, "Binary")
	require.Contains(t, doc, "item_drink: x0 <= 1")
	require.Contains(t, doc, "item_snack: x1 <= 1")
	require.Contains(t, doc, "apps_20_off: x0 + x1 <= 2")
	require.Contains(t, doc, "money_20_off: 26 x0 + 16 x1 <= 500")
	require.Contains(t, doc, `x0 = promotion "20-off" bundle`)
}

func TestExportConcatenatesLayers(t *testing.T) {
	eleven, err := promotion.NewDirect("11-off", tag.MatchAll(), discount.NewPercentageOff(money.MustParsePercentage("11%")), promotion.Unlimited())
	require.NoError(t, err)
	thirteen, err := promotion.NewDirect("13-off", tag.MatchAll(), discount.NewPercentageOff(money.MustParsePercentage("13%")), promotion.Unlimited())
	require.NoError(t, err)

	stack, err := graph.NewStackBuilder().
		AddLayer(graph.Layer{Key: "first", Promotions: []promotion.Promotion{eleven}, Output: graph.PassThroughTo("second")}).
		AddLayer(graph.Layer{Key: "second", Promotions: []promotion.Promotion{thirteen}, Output: graph.PassThrough()}).
		SetRoot("first").
		Build()
	require.NoError(t, err)

	exporter := ilp.NewExporter()
	_, err = stack.ProcessWithObserver([]catalog.Item{
		catalog.NewItem("thing", "Thing", money.MustParse("10.00 GBP")),
	}, exporter)
	require.NoError(t, err)

	doc := exporter.Document()
	require.Equal(t, 2, exporter.Layers())
	require.Equal(t, 1, strings.Count(doc, `Layer "first"`))
	require.Equal(t, 1, strings.Count(doc, `Layer "second"`))
	require.Less(t, strings.Index(doc, `Layer "first"`), strings.Index(doc, `Layer "second"`))
}

func TestExportEmptyCandidateSet(t *testing.T) {
	stack, err := graph.NewStackBuilder().
		AddLayer(graph.Layer{Key: "main", Output: graph.PassThrough()}).
		Build()
	require.NoError(t, err)

	exporter := ilp.NewExporter()
	_, err = stack.ProcessWithObserver([]catalog.Item{
		catalog.NewItem("thing", "Thing", money.MustParse("1.00 GBP")),
	}, exporter)
	require.NoError(t, err)
	require.Contains(t, exporter.Document(), "no candidates")
}

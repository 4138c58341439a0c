// Package basketengine is the public surface of the basket pricing and
// promotion-optimisation engine: money and percentages, tag qualifications,
// discounts, the four promotion variants, the layered promotion graph, and
// the receipt a processed basket yields.
//
// Configuration is immutable after StackBuilder.Build; Process confines all
// mutable state to the call, so one Stack may serve many goroutines.
package basketengine

import (
	"github.com/rs/zerolog"

	"github.com/noah-isme/basket-engine/internal/catalog"
	"github.com/noah-isme/basket-engine/internal/discount"
	"github.com/noah-isme/basket-engine/internal/fixture"
	"github.com/noah-isme/basket-engine/internal/graph"
	"github.com/noah-isme/basket-engine/internal/ilp"
	"github.com/noah-isme/basket-engine/internal/money"
	"github.com/noah-isme/basket-engine/internal/promotion"
	"github.com/noah-isme/basket-engine/internal/receipt"
	"github.com/noah-isme/basket-engine/internal/solver"
	"github.com/noah-isme/basket-engine/internal/tag"
)

// Money, percentages and their error kinds.
type (
	Money      = money.Money
	Percentage = money.Percentage
)

var (
	ErrInvalidCurrency      = money.ErrInvalidCurrency
	ErrCurrencyMismatch     = money.ErrCurrencyMismatch
	ErrInvalidPercentage    = money.ErrInvalidPercentage
	ErrPercentageOutOfRange = money.ErrPercentageOutOfRange
	ErrInvalidDiscount      = discount.ErrInvalidDiscount
	ErrInvalidPromotion     = promotion.ErrInvalidPromotion
	ErrInvalidStack         = graph.ErrInvalidStack
	ErrSolver               = solver.ErrSolver
)

// NewMoney constructs a minor-unit monetary value.
func NewMoney(amount int64, currency string) (Money, error) { return money.New(amount, currency) }

// ParseMoney reads a "<decimal> <ISO-code>" literal, e.g. "2.99 GBP".
func ParseMoney(literal string) (Money, error) { return money.Parse(literal) }

// NewPercentage builds a fraction in [0, 1].
func NewPercentage(fraction float64) (Percentage, error) { return money.NewPercentage(fraction) }

// ParsePercentage reads "15%" or "0.15".
func ParsePercentage(s string) (Percentage, error) { return money.ParsePercentage(s) }

// Tags and qualifications.
type (
	TagSet        = tag.Set
	Qualification = tag.Qualification
	Rule          = tag.Rule
)

var (
	NewTagSet = tag.NewSet
	MatchAll  = tag.MatchAll
	MatchAny  = tag.MatchAny
	And       = tag.And
	Or        = tag.Or
	HasAll    = tag.HasAll
	HasAny    = tag.HasAny
	HasNone   = tag.HasNone
	Group     = tag.Group
)

// Products and items.
type (
	Product = catalog.Product
	Item    = catalog.Item
)

var (
	NewProduct      = catalog.NewProduct
	NewItem         = catalog.NewItem
	ItemFromProduct = catalog.ItemFromProduct
)

// Discounts.
type (
	SimpleDiscount = discount.Simple
	BundleDiscount = discount.Bundle
)

var (
	NewPercentageOff     = discount.NewPercentageOff
	NewAmountOverride    = discount.NewAmountOverride
	NewAmountOff         = discount.NewAmountOff
	NewPercentEachItem   = discount.NewPercentEachItem
	NewAmountOffEachItem = discount.NewAmountOffEachItem
	NewPercentOffTotal   = discount.NewPercentOffTotal
	NewAmountOffTotal    = discount.NewAmountOffTotal
	NewFixedTotal        = discount.NewFixedTotal
)

// Promotions and budgets.
type (
	Promotion = promotion.Promotion
	Budget    = promotion.Budget
	Slot      = promotion.Slot
	Tier      = promotion.Tier
	Threshold = promotion.Threshold
)

var (
	Unlimited          = promotion.Unlimited
	WithApplications   = promotion.WithApplications
	WithMonetary       = promotion.WithMonetary
	WithBoth           = promotion.WithBoth
	NewDirect          = promotion.NewDirect
	NewPositional      = promotion.NewPositional
	NewMixAndMatch     = promotion.NewMixAndMatch
	NewTieredThreshold = promotion.NewTieredThreshold
)

// The graph and its receipt.
type (
	Layer        = graph.Layer
	Output       = graph.Output
	Stack        = graph.Stack
	StackBuilder = graph.StackBuilder
	Receipt      = receipt.Receipt
	Redemption   = receipt.Redemption
	ILPExporter  = ilp.Exporter
)

var (
	NewStackBuilder = graph.NewStackBuilder
	PassThrough     = graph.PassThrough
	PassThroughTo   = graph.PassThroughTo
	Split           = graph.Split
	NewILPExporter  = ilp.NewExporter
)

// Fixtures.
type FixtureDefinition = fixture.Definition

// LoadFixture parses an embedded fixture set by name.
func LoadFixture(name string) (*FixtureDefinition, error) { return fixture.Load(name) }

// FixtureNames lists the embedded fixture sets.
func FixtureNames() []string { return fixture.Names() }

// ParseFixture decodes a fixture document.
func ParseFixture(data []byte) (*FixtureDefinition, error) { return fixture.Parse(data) }

// BuildStack builds the validated promotion graph a fixture describes.
func BuildStack(def *FixtureDefinition, logger zerolog.Logger) (*Stack, error) {
	return def.Build(logger)
}

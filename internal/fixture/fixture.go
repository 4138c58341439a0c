// Package fixture loads promotion stacks and baskets from the YAML schema the
// engine's tooling shares, and serialises them back out.
package fixture

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidFixture is returned when a document parses but cannot describe a
// valid stack.
var ErrInvalidFixture = errors.New("invalid fixture")

// Definition is the YAML document: a stack, its promotions, and an optional
// basket of items.
type Definition struct {
	Stack      StackDef                `yaml:"stack"`
	Promotions map[string]PromotionDef `yaml:"promotions"`
	Basket     []ItemDef               `yaml:"basket,omitempty"`
}

// StackDef declares the graph topology.
type StackDef struct {
	Root  string              `yaml:"root"`
	Nodes map[string]LayerDef `yaml:"nodes"`
}

// LayerDef declares one graph node.
type LayerDef struct {
	Promotions []string  `yaml:"promotions,omitempty"`
	Output     OutputDef `yaml:"output,omitempty"`
}

// OutputDef declares a layer's routing: the literal "pass-through", a map
// with "next", or a map with "split".
type OutputDef struct {
	Next  string    `yaml:"next,omitempty"`
	Split *SplitDef `yaml:"split,omitempty"`
}

// SplitDef names the two split targets.
type SplitDef struct {
	Participating    string `yaml:"participating"`
	NonParticipating string `yaml:"non-participating"`
}

// UnmarshalYAML accepts both the "pass-through" scalar and the mapping form.
func (o *OutputDef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		switch value.Value {
		case "", "pass-through":
			*o = OutputDef{}
			return nil
		default:
			return fmt.Errorf("%w: unknown output %q", ErrInvalidFixture, value.Value)
		}
	}
	type plain OutputDef
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*o = OutputDef(p)
	if o.Next != "" && o.Split != nil {
		return fmt.Errorf("%w: output cannot both chain and split", ErrInvalidFixture)
	}
	return nil
}

// MarshalYAML emits the compact scalar when the layer terminates.
func (o OutputDef) MarshalYAML() (any, error) {
	if o.Next == "" && o.Split == nil {
		return "pass-through", nil
	}
	type plain OutputDef
	return plain(o), nil
}

// PromotionDef declares one promotion of any variant. Variant-specific fields
// are ignored for the other types.
type PromotionDef struct {
	Type          string            `yaml:"type"`
	Name          string            `yaml:"name,omitempty"`
	Tags          []string          `yaml:"tags,omitempty"`
	Qualification *QualificationDef `yaml:"qualification,omitempty"`
	Discount      *DiscountDef      `yaml:"discount,omitempty"`
	Budget        *BudgetDef        `yaml:"budget,omitempty"`

	// positional
	Size      uint32   `yaml:"size,omitempty"`
	Positions []uint32 `yaml:"positions,omitempty"`

	// mix-and-match
	Slots []SlotDef `yaml:"slots,omitempty"`

	// tiered-threshold
	Tiers []TierDef `yaml:"tiers,omitempty"`
}

// SlotDef declares one mix-and-match slot.
type SlotDef struct {
	Key           string            `yaml:"key"`
	Tags          []string          `yaml:"tags,omitempty"`
	Qualification *QualificationDef `yaml:"qualification,omitempty"`
	Min           uint32            `yaml:"min"`
	Max           uint32            `yaml:"max"`
}

// TierDef declares one tier of a tiered-threshold promotion.
type TierDef struct {
	Lower       ThresholdDef      `yaml:"lower"`
	Upper       *ThresholdDef     `yaml:"upper,omitempty"`
	Contributes *QualificationDef `yaml:"contributes,omitempty"`
	Discounts   *QualificationDef `yaml:"discounts,omitempty"`
	Discount    *DiscountDef      `yaml:"discount"`
}

// ThresholdDef declares a monetary and/or item-count threshold.
type ThresholdDef struct {
	Monetary  string  `yaml:"monetary,omitempty"`
	ItemCount *uint32 `yaml:"item-count,omitempty"`
}

// QualificationDef is a qualification node: exactly one of all/any, each a
// list of rules.
type QualificationDef struct {
	All []RuleDef `yaml:"all,omitempty"`
	Any []RuleDef `yaml:"any,omitempty"`
}

// RuleDef is one rule: exactly one of the four leaf kinds.
type RuleDef struct {
	HasAll  []string          `yaml:"has-all,omitempty"`
	HasAny  []string          `yaml:"has-any,omitempty"`
	HasNone []string          `yaml:"has-none,omitempty"`
	Group   *QualificationDef `yaml:"group,omitempty"`
}

// DiscountDef is one discount: exactly one field set. The first three are
// per-item kinds, the rest per-bundle.
type DiscountDef struct {
	PercentOff     string `yaml:"percent-off,omitempty"`
	AmountOverride string `yaml:"amount-override,omitempty"`
	AmountOff      string `yaml:"amount-off,omitempty"`

	PercentEachItem   string `yaml:"percent-each-item,omitempty"`
	AmountOffEachItem string `yaml:"amount-off-each-item,omitempty"`
	PercentOffTotal   string `yaml:"percent-off-total,omitempty"`
	AmountOffTotal    string `yaml:"amount-off-total,omitempty"`
	FixedTotal        string `yaml:"fixed-total,omitempty"`
}

// BudgetDef declares a promotion budget. Unset fields are unlimited.
type BudgetDef struct {
	Applications *uint32 `yaml:"applications,omitempty"`
	Monetary     string  `yaml:"monetary,omitempty"`
}

// ItemDef declares one basket line.
type ItemDef struct {
	Key   string   `yaml:"key"`
	Name  string   `yaml:"name,omitempty"`
	Price string   `yaml:"price"`
	Tags  []string `yaml:"tags,omitempty"`
}

// Parse decodes a fixture document.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	return &def, nil
}

// LoadFile reads and parses a fixture document from disk.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Marshal serialises a definition back to YAML. Parsing the output yields an
// equivalent definition, so stacks round-trip.
func Marshal(def *Definition) ([]byte, error) {
	return yaml.Marshal(def)
}

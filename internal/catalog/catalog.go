// Package catalog defines the priced, tagged units the engine operates on:
// products as configured, and items as concrete basket lines.
package catalog

import (
	"github.com/noah-isme/basket-engine/internal/money"
	"github.com/noah-isme/basket-engine/internal/tag"
)

// Product is a configured sellable unit. Immutable once constructed.
type Product struct {
	Key       string
	Name      string
	UnitPrice money.Money
	Tags      tag.Set
}

// NewProduct constructs a Product, deduplicating tags.
func NewProduct(key, name string, unitPrice money.Money, tags ...string) Product {
	return Product{Key: key, Name: name, UnitPrice: unitPrice, Tags: tag.NewSet(tags...)}
}

// Item is one indivisible basket line. It snapshots its product at creation;
// item and product evolve independently afterwards.
type Item struct {
	Key        string
	Name       string
	Price      money.Money
	ProductKey string
	Tags       tag.Set
}

// NewItem constructs an Item that is not backed by a Product.
func NewItem(key, name string, price money.Money, tags ...string) Item {
	return Item{Key: key, Name: name, Price: price, Tags: tag.NewSet(tags...)}
}

// ItemFromProduct snapshots name, price and tags from a product.
func ItemFromProduct(key string, p Product) Item {
	return Item{
		Key:        key,
		Name:       p.Name,
		Price:      p.UnitPrice,
		ProductKey: p.Key,
		Tags:       p.Tags.Clone(),
	}
}

// Subtotal sums the undiscounted prices of the given items.
func Subtotal(items []Item) (money.Money, error) {
	prices := make([]money.Money, len(items))
	for i, it := range items {
		prices[i] = it.Price
	}
	return money.Sum(prices)
}

// Package catalog defines the product model shared by the catalog service, storefronts and the admin client.
package catalog

import (
	"slices"
	"time"
)

// Product is a catalog entry. Ids are unique within a catalog.
type Product struct {
	ID          string `json:"id" validate:"required,max=64"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Price       Price  `json:"price" validate:"gte=0,lte=10000000000"`
	Category    string `json:"category" validate:"max=100"`
	Image       string `json:"image"`
	Available   bool   `json:"available"`
}

// Snapshot is the catalog as of one accepted replacement.
// Version is 0 until the first replacement and increases by one with each one after that.
type Snapshot struct {
	Version   uint64    `json:"version"`
	Products  []Product `json:"products"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a copy of the list that shares no backing array with products.
// A nil list clones to an empty one, so the result always marshals as a JSON array.
func Clone(products []Product) []Product {
	if products == nil {
		return []Product{}
	}
	return slices.Clone(products)
}

// Find returns the product with the given id.
func Find(products []Product, id string) (Product, bool) {
	i := slices.IndexFunc(products, func(p Product) bool { return p.ID == id })
	if i < 0 {
		return Product{}, false
	}
	return products[i], true
}

// Category is one group of products sharing a category label.
type Category struct {
	Name     string
	Products []Product
}

// GroupByCategory groups products by category, keeping the first-seen order of
// categories and the catalog order of products within each category.
func GroupByCategory(products []Product) []Category {
	var groups []Category
	index := make(map[string]int)
	for _, p := range products {
		i, ok := index[p.Category]
		if !ok {
			i = len(groups)
			index[p.Category] = i
			groups = append(groups, Category{Name: p.Category})
		}
		groups[i].Products = append(groups[i].Products, p)
	}
	return groups
}

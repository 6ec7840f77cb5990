package cart

import (
	"fmt"

	"github.com/abgdnv/menusync/internal/catalog"
)

type DiscrepancyKind string

const (
	// DiscrepancyMissing means the product is no longer in the catalog.
	DiscrepancyMissing DiscrepancyKind = "missing"
	// DiscrepancyUnavailable means the product was switched off after it was added.
	DiscrepancyUnavailable DiscrepancyKind = "unavailable"
	// DiscrepancyPriceChanged means the catalog price differs from the one captured in the cart.
	DiscrepancyPriceChanged DiscrepancyKind = "price_changed"
)

// Discrepancy is a difference between a cart item and the current catalog.
type Discrepancy struct {
	Kind         DiscrepancyKind `json:"kind"`
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CartPrice    catalog.Price   `json:"cartPrice"`
	CatalogPrice catalog.Price   `json:"catalogPrice,omitempty"`
}

func (d Discrepancy) String() string {
	switch d.Kind {
	case DiscrepancyPriceChanged:
		return fmt.Sprintf("%s (%s): price changed from %s to %s", d.Name, d.ID, d.CartPrice, d.CatalogPrice)
	default:
		return fmt.Sprintf("%s (%s): %s", d.Name, d.ID, d.Kind)
	}
}

// Reconcile compares items against a catalog snapshot and reports every difference,
// in cart order. It never changes the cart: what to do about a discrepancy is up to
// the customer.
func Reconcile(items []Item, products []catalog.Product) []Discrepancy {
	var out []Discrepancy
	for _, it := range items {
		p, ok := catalog.Find(products, it.ID)
		if !ok {
			out = append(out, Discrepancy{Kind: DiscrepancyMissing, ID: it.ID, Name: it.Name, CartPrice: it.Price})
			continue
		}
		if !p.Available {
			out = append(out, Discrepancy{Kind: DiscrepancyUnavailable, ID: it.ID, Name: it.Name, CartPrice: it.Price})
		}
		if p.Price != it.Price {
			out = append(out, Discrepancy{
				Kind:         DiscrepancyPriceChanged,
				ID:           it.ID,
				Name:         it.Name,
				CartPrice:    it.Price,
				CatalogPrice: p.Price,
			})
		}
	}
	return out
}

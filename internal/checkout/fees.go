package checkout

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/abgdnv/menusync/internal/catalog"
)

var ErrUnknownNeighborhood = errors.New("no delivery to neighborhood")

// FeeTable maps a neighborhood to its delivery fee.
type FeeTable map[string]catalog.Price

// DefaultFees is the delivery fee table the storefront ships with.
func DefaultFees() FeeTable {
	return FeeTable{
		"Novo Paraíso":           300,
		"Bairro América":         300,
		"José Conrado de Araújo": 300,
		"Jardim Centenário":      400,
		"Santos Dumont":          400,
		"18 do Forte":            500,
		"Siqueira Campos":        300,
		"Getúlio Vargas":         400,
		"Santo Antônio":          600,
		"Suíça":                  600,
		"Palestina":              600,
		"Industrial":             600,
		"Cirurgia":               400,
		"São José":               600,
		"Jabotiana":              700,
		"Ponto Novo":             500,
		"Luzia":                  500,
		"Jardins":                700,
		"Treze de Julho":         700,
		"Cidade Nova":            600,
		"Capucho":                500,
		"Olaria":                 400,
		"Rosa Elze":              400,
		"Castelo Branco":         400,
	}
}

// NewFeeTable starts from DefaultFees and applies overrides given as decimal amounts.
func NewFeeTable(overrides map[string]string) (FeeTable, error) {
	fees := DefaultFees()
	for name, amount := range overrides {
		fee, err := catalog.ParsePrice(amount)
		if err != nil {
			return nil, fmt.Errorf("delivery fee for %q: %w", name, err)
		}
		if fee < 0 {
			return nil, fmt.Errorf("delivery fee for %q must not be negative", name)
		}
		fees[name] = fee
	}
	return fees, nil
}

func (f FeeTable) Lookup(neighborhood string) (catalog.Price, error) {
	fee, ok := f[neighborhood]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownNeighborhood, neighborhood)
	}
	return fee, nil
}

// Neighborhoods lists the served neighborhoods alphabetically.
func (f FeeTable) Neighborhoods() []string {
	return slices.Sorted(maps.Keys(f))
}

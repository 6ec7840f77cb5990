package checkout

import (
	"testing"

	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewFeeTable(t *testing.T) {
	// given
	overrides := map[string]string{"Jardins": "8.5", "Centro": "2"}

	// when
	fees, err := NewFeeTable(overrides)

	// then
	require.NoError(t, err)
	fee, err := fees.Lookup("Jardins")
	require.NoError(t, err)
	assert.Equal(t, catalog.Price(850), fee)
	fee, err = fees.Lookup("Centro")
	require.NoError(t, err)
	assert.Equal(t, catalog.Price(200), fee)
	fee, err = fees.Lookup("Olaria")
	require.NoError(t, err)
	assert.Equal(t, catalog.Price(400), fee)
}

func Test_NewFeeTable_Errors(t *testing.T) {
	testCases := []struct {
		name      string
		overrides map[string]string
	}{
		{name: "Error - not a number", overrides: map[string]string{"Centro": "two"}},
		{name: "Error - negative", overrides: map[string]string{"Centro": "-1"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFeeTable(tc.overrides)
			assert.Error(t, err)
		})
	}
}

func Test_FeeTable_Lookup_Unknown(t *testing.T) {
	_, err := DefaultFees().Lookup("Atlantis")

	assert.ErrorIs(t, err, ErrUnknownNeighborhood)
}

func Test_FeeTable_Neighborhoods(t *testing.T) {
	names := FeeTable{"b": 1, "a": 2, "c": 3}.Neighborhoods()

	assert.Equal(t, []string{"a", "b", "c"}, names)
}
